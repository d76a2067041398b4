package targetdesc

import (
	"github.com/faddat/wazero/internal/engine/wazevo/backend"
	"github.com/faddat/wazero/internal/engine/wazevo/ssa"
)

type (
	// table implements backend.LoweringInfo from a compiled Description.
	// It is never mutated after compile returns.
	table struct {
		addImm, icmpImm *Range
		types           map[ssa.Type]bool
		truncs          map[[2]ssa.Type]bool
		addressingKnown bool
		addressing      []addressingRule
		jmpBuf          JumpBuf
	}

	addressingRule struct {
		typ          ssa.Type
		symbol, base bool
		scales       []int64
		offset       Range
		align        int64
	}

	// vectorTable implements backend.VectorCapabilities from a compiled Vector.
	vectorTable struct {
		shuffleLanes    map[int]bool
		gather, scatter map[ssa.Type]bool
	}
)

var (
	_ backend.LoweringInfo       = (*table)(nil)
	_ backend.VectorCapabilities = (*vectorTable)(nil)
)

func (r *Range) answer(v int64) backend.Answer {
	if r == nil {
		return backend.AnswerUnknown
	}
	return backend.AnswerOf(v >= r.Min && v <= r.Max)
}

func lookup[K comparable](m map[K]bool, k K) backend.Answer {
	v, ok := m[k]
	if !ok {
		return backend.AnswerUnknown
	}
	return backend.AnswerOf(v)
}

// LegalAddImmediate implements backend.LoweringInfo.
func (t *table) LegalAddImmediate(imm int64) backend.Answer { return t.addImm.answer(imm) }

// LegalICmpImmediate implements backend.LoweringInfo.
func (t *table) LegalICmpImmediate(imm int64) backend.Answer { return t.icmpImm.answer(imm) }

// LegalAddressingMode implements backend.LoweringInfo.
func (t *table) LegalAddressingMode(am backend.AddressMode, typ ssa.Type) backend.Answer {
	if !t.addressingKnown {
		return backend.AnswerUnknown
	}
	for i := range t.addressing {
		if t.addressing[i].matches(am, typ) {
			return backend.AnswerYes
		}
	}
	return backend.AnswerNo
}

func (r *addressingRule) matches(am backend.AddressMode, typ ssa.Type) bool {
	if r.typ.Valid() && r.typ != typ {
		return false
	}
	if am.BaseSymbol != r.symbol || am.HasBaseReg != r.base {
		return false
	}
	if am.Offset < r.offset.Min || am.Offset > r.offset.Max {
		return false
	}
	if r.align > 1 && am.Offset%r.align != 0 {
		return false
	}
	for _, s := range r.scales {
		if s == am.Scale {
			return true
		}
	}
	return false
}

// TruncateFree implements backend.LoweringInfo.
func (t *table) TruncateFree(from, to ssa.Type) backend.Answer {
	return lookup(t.truncs, [2]ssa.Type{from, to})
}

// TypeLegal implements backend.LoweringInfo.
func (t *table) TypeLegal(typ ssa.Type) backend.Answer { return lookup(t.types, typ) }

// JumpBufAlignment implements backend.LoweringInfo.
func (t *table) JumpBufAlignment() uint32 { return t.jmpBuf.Alignment }

// JumpBufSize implements backend.LoweringInfo.
func (t *table) JumpBufSize() uint32 { return t.jmpBuf.Size }

// IsLegalShuffle implements backend.VectorCapabilities.
func (v *vectorTable) IsLegalShuffle(mask []int, typ ssa.Type) bool {
	if typ != ssa.TypeV128 || !v.shuffleLanes[len(mask)] {
		return false
	}
	for _, l := range mask {
		if l >= 2*len(mask) {
			return false
		}
	}
	return true
}

// IsLegalMaskedGather implements backend.VectorCapabilities.
func (v *vectorTable) IsLegalMaskedGather(typ ssa.Type) bool { return v.gather[typ] }

// IsLegalMaskedScatter implements backend.VectorCapabilities.
func (v *vectorTable) IsLegalMaskedScatter(typ ssa.Type) bool { return v.scatter[typ] }
