package arm64

import (
	"github.com/faddat/wazero/internal/engine/wazevo/backend"
	"github.com/faddat/wazero/internal/engine/wazevo/ssa"
)

const (
	// jmpBufSlots is the number of 8-byte slots of the jump buffer: x19-x28, fp, lr, sp and d8-d15,
	// padded to keep the buffer a multiple of its alignment.
	jmpBufSlots = 22
	// jmpBufAlignment is the stack alignment mandated by AAPCS64.
	jmpBufAlignment = 16
)

// LoweringInfo implements backend.LoweringInfo for arm64.
//
// Every answer is definitive for valid types, and LoweringInfo holds no state,
// so it is safe for concurrent use.
type LoweringInfo struct{}

// Ensures that LoweringInfo implements backend.LoweringInfo.
var _ backend.LoweringInfo = LoweringInfo{}

// NewLoweringInfo returns the LoweringInfo of arm64.
func NewLoweringInfo() LoweringInfo {
	return LoweringInfo{}
}

// LegalAddImmediate implements backend.LoweringInfo.
func (LoweringInfo) LegalAddImmediate(imm int64) backend.Answer {
	return backend.AnswerOf(isSignedImm12(imm))
}

// LegalICmpImmediate implements backend.LoweringInfo.
func (LoweringInfo) LegalICmpImmediate(imm int64) backend.Answer {
	return backend.AnswerOf(isSignedImm12(imm))
}

// LegalAddressingMode implements backend.LoweringInfo.
//
// The load/store unit supports [base], [base + imm] in the unscaled signed 9-bit or the scaled
// unsigned 12-bit form, and [base + index] where the index is optionally shifted by the access size.
// There is no form with both an index register and an offset, and symbols need adrp first.
func (LoweringInfo) LegalAddressingMode(am backend.AddressMode, typ ssa.Type) backend.Answer {
	if !typ.Valid() {
		return backend.AnswerUnknown
	}
	size := typ.Size()

	switch {
	case am.BaseSymbol:
		return backend.AnswerNo
	case !am.HasBaseReg && am.Scale == 0:
		// Absolute addresses are not encodable.
		return backend.AnswerNo
	case am.HasIndexReg():
		if am.Offset != 0 {
			return backend.AnswerNo
		}
		if am.Scale == 1 {
			return backend.AnswerYes
		}
		return backend.AnswerOf(am.HasBaseReg && am.Scale == int64(size))
	default:
		return backend.AnswerOf(isUnscaledOffset(am.Offset) || isScaledOffset(am.Offset, size))
	}
}

// TruncateFree implements backend.LoweringInfo.
//
// Narrowing integers is free since w registers alias the lower half of x registers,
// and the upper bits of narrower values are ignored by the consumers.
func (LoweringInfo) TruncateFree(from, to ssa.Type) backend.Answer {
	if !from.Valid() || !to.Valid() {
		return backend.AnswerUnknown
	}
	return backend.AnswerOf(from.IsInt() && to.IsInt() && from.Bits() > to.Bits())
}

// TypeLegal implements backend.LoweringInfo.
func (LoweringInfo) TypeLegal(typ ssa.Type) backend.Answer {
	switch typ {
	case ssa.TypeI32, ssa.TypeI64, ssa.TypeF32, ssa.TypeF64, ssa.TypeV128:
		return backend.AnswerYes
	case ssa.TypeI8, ssa.TypeI16:
		return backend.AnswerNo
	default:
		return backend.AnswerUnknown
	}
}

// JumpBufAlignment implements backend.LoweringInfo.
func (LoweringInfo) JumpBufAlignment() uint32 {
	return jmpBufAlignment
}

// JumpBufSize implements backend.LoweringInfo.
func (LoweringInfo) JumpBufSize() uint32 {
	return jmpBufSlots * 8
}
