package passes

import (
	"math"

	"github.com/faddat/wazero/internal/engine/wazevo/backend"
	"github.com/faddat/wazero/internal/engine/wazevo/ssa"
)

// Pass is a machine-level pass driven by the capabilities of the target.
type Pass func(f *Function, caps backend.Capabilities)

// DefaultPasses are run by Run in this order.
var DefaultPasses = []Pass{
	promoteTypes,
	foldImmediates,
	foldAddresses,
	coalesceTruncates,
	lowerShuffles,
}

// ScalarPasses are the passes of DefaultPasses which only consult the scalar capabilities.
var ScalarPasses = DefaultPasses[:4]

// Run runs DefaultPasses on f.
func Run(f *Function, caps backend.Capabilities) {
	for _, pass := range DefaultPasses {
		pass(f, caps)
	}
}

// promoteTypes rewrites additions whose integer type is not legal into additions in the
// narrowest wider legal type. The operands are zero-extended, or rematerialized when they are
// constants, and the sum is reduced back so that users keep seeing the narrow value.
func promoteTypes(f *Function, caps backend.Capabilities) {
	s := caps.Scalar()
	instrs := make([]*Instruction, 0, len(f.instrs))
	for _, i := range f.instrs {
		if i.opcode != OpcodeIadd || !i.typ.IsInt() || s.IsTypeLegal(i.typ) {
			instrs = append(instrs, i)
			continue
		}
		wide, ok := widerLegalInt(s, i.typ)
		if !ok {
			instrs = append(instrs, i)
			continue
		}

		add := f.allocateInstruction(Instruction{opcode: OpcodeIadd, typ: wide, imm: i.imm, hasImm: i.hasImm})
		for _, arg := range i.args {
			var ext *Instruction
			if c, ok := f.constOf(arg); ok {
				ext = f.allocateInstruction(Instruction{opcode: OpcodeIconst, typ: wide, imm: c})
			} else {
				ext = f.allocateInstruction(Instruction{opcode: OpcodeUextend, typ: wide, args: []Value{arg}})
			}
			ext.ret = f.allocateValue(wide, ext)
			instrs = append(instrs, ext)
			add.args = append(add.args, ext.ret)
		}
		add.ret = f.allocateValue(wide, add)
		instrs = append(instrs, add)

		// i keeps its result value, now as the truncation of the wide sum.
		i.opcode, i.args, i.imm, i.hasImm = OpcodeIreduce, []Value{add.ret}, 0, false
		instrs = append(instrs, i)
	}
	f.instrs = instrs
}

// widerLegalInt returns the narrowest legal integer type wider than typ.
func widerLegalInt(s backend.ScalarCapabilities, typ ssa.Type) (ssa.Type, bool) {
	for _, wider := range []ssa.Type{ssa.TypeI8, ssa.TypeI16, ssa.TypeI32, ssa.TypeI64} {
		if wider.Bits() > typ.Bits() && s.IsTypeLegal(wider) {
			return wider, true
		}
	}
	return ssa.TypeInvalid, false
}

// foldImmediates turns constant operands of OpcodeIadd and OpcodeIcmp into immediates
// when the target can encode them.
func foldImmediates(f *Function, caps backend.Capabilities) {
	s := caps.Scalar()
	for _, i := range f.instrs {
		if i.hasImm {
			continue
		}
		var legal func(int64) bool
		switch i.opcode {
		case OpcodeIadd:
			legal = s.IsLegalAddImmediate
			if _, ok := f.constOf(i.args[0]); ok {
				if _, ok := f.constOf(i.args[1]); !ok {
					i.args[0], i.args[1] = i.args[1], i.args[0]
				}
			}
		case OpcodeIcmp:
			legal = s.IsLegalICmpImmediate
		default:
			continue
		}
		if c, ok := f.constOf(i.args[1]); ok && legal(c) {
			i.imm, i.hasImm = c, true
			i.args = i.args[:1]
		}
	}
}

// foldAddresses merges the additions computing addresses into loads and stores when the
// resulting addressing mode is legal, and materializes offsets which are not.
func foldAddresses(f *Function, caps backend.Capabilities) {
	s := caps.Scalar()
	instrs := make([]*Instruction, 0, len(f.instrs))
	for _, i := range f.instrs {
		var addr []Value
		var typ ssa.Type
		switch i.opcode {
		case OpcodeLoad:
			addr, typ = i.args, i.typ
		case OpcodeStore:
			addr, typ = i.args[1:], f.types[i.args[0]]
		default:
			instrs = append(instrs, i)
			continue
		}

		if def := f.defs[addr[0]]; def != nil && def.opcode == OpcodeIadd && !i.indexed {
			if def.hasImm {
				off, ok := addOffsets(i.offset, def.imm)
				if ok && s.IsLegalAddressingMode(backend.AddressMode{HasBaseReg: true, Offset: off}, typ) {
					addr[0], i.offset = def.args[0], off
				}
			} else if i.offset == 0 && s.IsLegalAddressingMode(backend.AddressMode{HasBaseReg: true, Scale: 1}, typ) {
				i.args = append(i.args[:len(i.args)-1], def.args[0], def.args[1])
				i.indexed = true
			}
		}

		if !i.indexed && i.offset != 0 &&
			!s.IsLegalAddressingMode(backend.AddressMode{HasBaseReg: true, Offset: i.offset}, typ) {
			base := i.args[len(i.args)-1]
			c := f.allocateInstruction(Instruction{opcode: OpcodeIconst, typ: f.types[base], imm: i.offset})
			c.ret = f.allocateValue(c.typ, c)
			add := f.allocateInstruction(Instruction{opcode: OpcodeIadd, typ: f.types[base], args: []Value{base, c.ret}})
			add.ret = f.allocateValue(add.typ, add)
			instrs = append(instrs, c, add)
			i.args[len(i.args)-1], i.offset = add.ret, 0
		}
		instrs = append(instrs, i)
	}
	f.instrs = instrs
}

// coalesceTruncates turns free truncations into copies.
func coalesceTruncates(f *Function, caps backend.Capabilities) {
	s := caps.Scalar()
	for _, i := range f.instrs {
		if i.opcode == OpcodeIreduce && s.IsTruncateFree(f.types[i.args[0]], i.typ) {
			i.opcode = OpcodeCopy
		}
	}
}

// lowerShuffles scalarizes the shuffles which the target cannot do with a single instruction.
// Without vector capabilities, every shuffle is scalarized.
func lowerShuffles(f *Function, caps backend.Capabilities) {
	v, ok := caps.Vector()
	for _, i := range f.instrs {
		if i.opcode != OpcodeShuffle {
			continue
		}
		if !ok || !v.IsLegalShuffle(i.mask, i.typ) {
			i.opcode = OpcodeShuffleScalarized
		}
	}
}

// constOf returns the constant defining v, if any.
func (f *Function) constOf(v Value) (int64, bool) {
	if def := f.defs[v]; def != nil && def.opcode == OpcodeIconst {
		return def.imm, true
	}
	return 0, false
}

func addOffsets(a, b int64) (int64, bool) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, false
	}
	return a + b, true
}
