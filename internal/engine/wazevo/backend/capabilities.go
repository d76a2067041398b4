package backend

import "github.com/faddat/wazero/internal/engine/wazevo/ssa"

type (
	// ScalarCapabilities answers scalar legality and cost queries for the active target.
	//
	// Every method is a pure function of its arguments and the bound target: it has no
	// side effects, can be called in any order and from any goroutine, and never fails.
	ScalarCapabilities interface {
		// IsLegalAddImmediate returns true if imm can be folded into an add-class instruction
		// without being materialized into a register first.
		IsLegalAddImmediate(imm int64) bool

		// IsLegalICmpImmediate returns true if imm can be folded into a compare instruction
		// without being materialized into a register first.
		IsLegalICmpImmediate(imm int64) bool

		// IsLegalAddressingMode returns true if the load/store unit can address a value of typ
		// with am directly.
		IsLegalAddressingMode(am AddressMode, typ ssa.Type) bool

		// IsTruncateFree returns true if narrowing a value from `from` to `to` costs no instructions.
		IsTruncateFree(from, to ssa.Type) bool

		// IsTypeLegal returns true if the register file and instruction set operate on typ natively.
		IsTypeLegal(typ ssa.Type) bool

		// JumpBufAlignment returns the required byte alignment of the non-local jump buffer.
		JumpBufAlignment() uint32

		// JumpBufSize returns the required byte size of the non-local jump buffer.
		JumpBufSize() uint32
	}

	// VectorCapabilities answers vector-specific legality queries. A target supplies one only
	// if it has vector knowledge, and passes must produce correct code without it.
	VectorCapabilities interface {
		// IsLegalShuffle returns true if the lane permutation mask over typ is a single instruction.
		// A negative lane index means the lane is undefined.
		IsLegalShuffle(mask []int, typ ssa.Type) bool

		// IsLegalMaskedGather returns true if a masked gather of typ lanes is native.
		IsLegalMaskedGather(typ ssa.Type) bool

		// IsLegalMaskedScatter returns true if a masked scatter of typ lanes is native.
		IsLegalMaskedScatter(typ ssa.Type) bool
	}

	// Capabilities is the set of capability providers chosen for a target at configuration time.
	// The scalar provider is always present, the vector provider is optional.
	//
	// Capabilities is immutable and can be shared by concurrently running passes.
	Capabilities struct {
		scalar ScalarCapabilities
		vector VectorCapabilities
	}

	// Kind is the variant of Capabilities.
	Kind byte
)

const (
	// KindScalarOnly means the target supplies no vector queries.
	KindScalarOnly Kind = iota
	// KindScalarAndVector means the target supplies both scalar and vector queries.
	KindScalarAndVector
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindScalarOnly:
		return "scalar"
	case KindScalarAndVector:
		return "scalar+vector"
	default:
		panic(int(k))
	}
}

// ScalarOnly returns Capabilities which has no vector provider.
func ScalarOnly(s ScalarCapabilities) Capabilities {
	if s == nil {
		panic("BUG: ScalarOnly called with nil ScalarCapabilities")
	}
	return Capabilities{scalar: s}
}

// ScalarAndVector returns Capabilities with both providers.
func ScalarAndVector(s ScalarCapabilities, v VectorCapabilities) Capabilities {
	if s == nil || v == nil {
		panic("BUG: ScalarAndVector called with nil provider")
	}
	return Capabilities{scalar: s, vector: v}
}

// Scalar returns the scalar provider.
func (c Capabilities) Scalar() ScalarCapabilities {
	return c.scalar
}

// Vector returns the vector provider and true if the target supplies one.
func (c Capabilities) Vector() (VectorCapabilities, bool) {
	return c.vector, c.vector != nil
}

// Kind returns the variant of this Capabilities.
func (c Capabilities) Kind() Kind {
	if c.vector != nil {
		return KindScalarAndVector
	}
	return KindScalarOnly
}

// Ensures that NopVector implements VectorCapabilities.
var _ VectorCapabilities = NopVector{}

// NopVector is a VectorCapabilities that has no vector-specific knowledge,
// and therefore rejects every vector operation.
type NopVector struct{}

// IsLegalShuffle implements VectorCapabilities.IsLegalShuffle.
func (NopVector) IsLegalShuffle([]int, ssa.Type) bool { return false }

// IsLegalMaskedGather implements VectorCapabilities.IsLegalMaskedGather.
func (NopVector) IsLegalMaskedGather(ssa.Type) bool { return false }

// IsLegalMaskedScatter implements VectorCapabilities.IsLegalMaskedScatter.
func (NopVector) IsLegalMaskedScatter(ssa.Type) bool { return false }
