package backend

import "github.com/faddat/wazero/internal/engine/wazevo/ssa"

type (
	// LoweringInfo is the per-target instruction selection knowledge consulted by DefaultScalar.
	//
	// Implementations must be safe for concurrent read-only use: a single LoweringInfo
	// is shared by every pass which queries the capabilities built on top of it.
	LoweringInfo interface {
		// LegalAddImmediate reports whether imm can be encoded directly in an add-class instruction.
		LegalAddImmediate(imm int64) Answer

		// LegalICmpImmediate reports whether imm can be encoded directly in a compare instruction.
		LegalICmpImmediate(imm int64) Answer

		// LegalAddressingMode reports whether loads and stores of typ can use am directly.
		LegalAddressingMode(am AddressMode, typ ssa.Type) Answer

		// TruncateFree reports whether narrowing from `from` to `to` costs no instructions.
		TruncateFree(from, to ssa.Type) Answer

		// TypeLegal reports whether typ is natively supported by a register class.
		TypeLegal(typ ssa.Type) Answer

		// JumpBufAlignment returns the byte alignment of the non-local jump buffer.
		JumpBufAlignment() uint32

		// JumpBufSize returns the byte size of the non-local jump buffer.
		JumpBufSize() uint32
	}

	// Answer is the result of a LoweringInfo query. The zero value is AnswerUnknown.
	Answer byte
)

const (
	// AnswerUnknown means the lowering information has no opinion.
	AnswerUnknown Answer = iota
	// AnswerYes means the operation is legal (or free).
	AnswerYes
	// AnswerNo means the operation is not legal (or not free).
	AnswerNo
)

// AnswerOf converts a definitive boolean into an Answer.
func AnswerOf(b bool) Answer {
	if b {
		return AnswerYes
	}
	return AnswerNo
}

// Bool resolves the answer to a boolean. AnswerUnknown resolves to false,
// which is the conservative default shared by every predicate.
func (a Answer) Bool() bool {
	return a == AnswerYes
}

// Known returns true if the answer is definitive.
func (a Answer) Known() bool {
	return a == AnswerYes || a == AnswerNo
}

// String implements fmt.Stringer.
func (a Answer) String() string {
	switch a {
	case AnswerYes:
		return "yes"
	case AnswerNo:
		return "no"
	default:
		return "unknown"
	}
}
