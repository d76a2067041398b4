// Package passes implements target-independent machine-level passes which decide the
// form of instructions by querying backend.Capabilities. They know nothing about the
// instruction set of the target.
package passes

import (
	"fmt"
	"strings"

	"github.com/faddat/wazero/internal/engine/wazevo/ssa"
)

type (
	// Function is a straight-line sequence of instructions ready for instruction selection.
	Function struct {
		params []Value
		instrs []*Instruction
		// types maps Value to its type.
		types []ssa.Type
		// defs maps Value to its defining instruction, nil for params.
		defs []*Instruction
		// instructionsPool backs every Instruction of this Function.
		instructionsPool pool[Instruction]
	}

	// Value is an SSA value of a Function.
	Value uint32

	// Instruction is an instruction of a Function. Each field is interpreted depending on the opcode.
	Instruction struct {
		opcode Opcode
		typ    ssa.Type
		ret    Value
		// args holds the register operands. For loads and stores, the address operands come last.
		args []Value
		// imm holds the constant of OpcodeIconst, or the folded operand of OpcodeIadd and OpcodeIcmp.
		imm    int64
		hasImm bool
		// offset and indexed describe the address of OpcodeLoad and OpcodeStore.
		offset  int64
		indexed bool
		mask    []int
	}

	// Opcode represents an operation.
	Opcode byte
)

const (
	OpcodeInvalid Opcode = iota
	// OpcodeIconst materializes a constant in a register.
	OpcodeIconst
	// OpcodeIadd adds two registers, or a register and a folded immediate.
	OpcodeIadd
	// OpcodeIcmp compares two registers, or a register and a folded immediate.
	OpcodeIcmp
	// OpcodeLoad loads from [base + offset] or [base + index].
	OpcodeLoad
	// OpcodeStore stores to [base + offset] or [base + index].
	OpcodeStore
	// OpcodeIreduce truncates an integer to a narrower type.
	OpcodeIreduce
	// OpcodeCopy is a register copy, which the register allocator can coalesce.
	OpcodeCopy
	// OpcodeShuffle permutes the lanes of two vectors with a single instruction.
	OpcodeShuffle
	// OpcodeShuffleScalarized permutes the lanes of two vectors lane by lane.
	OpcodeShuffleScalarized
	// OpcodeUextend zero-extends an integer to a wider type.
	OpcodeUextend
)

// String implements fmt.Stringer.
func (o Opcode) String() string {
	switch o {
	case OpcodeIconst:
		return "Iconst"
	case OpcodeIadd:
		return "Iadd"
	case OpcodeIcmp:
		return "Icmp"
	case OpcodeLoad:
		return "Load"
	case OpcodeStore:
		return "Store"
	case OpcodeIreduce:
		return "Ireduce"
	case OpcodeCopy:
		return "Copy"
	case OpcodeShuffle:
		return "Shuffle"
	case OpcodeShuffleScalarized:
		return "ShuffleScalarized"
	case OpcodeUextend:
		return "Uextend"
	default:
		return "Invalid"
	}
}

// NewFunction returns an empty Function.
func NewFunction() *Function {
	return &Function{instructionsPool: newPool[Instruction]()}
}

// Reset must be called to reuse this Function for the next one.
// Instructions previously returned by Instructions become invalid.
func (f *Function) Reset() {
	f.params = f.params[:0]
	f.instrs = f.instrs[:0]
	f.types = f.types[:0]
	f.defs = f.defs[:0]
	f.instructionsPool.reset()
}

// allocateInstruction copies i into a pooled Instruction.
func (f *Function) allocateInstruction(i Instruction) *Instruction {
	ret := f.instructionsPool.allocate()
	*ret = i
	return ret
}

func (f *Function) allocateValue(typ ssa.Type, def *Instruction) Value {
	v := Value(len(f.types))
	f.types = append(f.types, typ)
	f.defs = append(f.defs, def)
	return v
}

func (f *Function) insert(i *Instruction) Value {
	f.instrs = append(f.instrs, i)
	if i.typ.Valid() {
		i.ret = f.allocateValue(i.typ, i)
	}
	return i.ret
}

// Param adds a parameter of typ.
func (f *Function) Param(typ ssa.Type) Value {
	v := f.allocateValue(typ, nil)
	f.params = append(f.params, v)
	return v
}

// Iconst inserts OpcodeIconst.
func (f *Function) Iconst(typ ssa.Type, c int64) Value {
	return f.insert(f.allocateInstruction(Instruction{opcode: OpcodeIconst, typ: typ, imm: c}))
}

// Iadd inserts OpcodeIadd.
func (f *Function) Iadd(x, y Value) Value {
	return f.insert(f.allocateInstruction(Instruction{opcode: OpcodeIadd, typ: f.types[x], args: []Value{x, y}}))
}

// Icmp inserts OpcodeIcmp whose result is an i32 flag.
func (f *Function) Icmp(x, y Value) Value {
	return f.insert(f.allocateInstruction(Instruction{opcode: OpcodeIcmp, typ: ssa.TypeI32, args: []Value{x, y}}))
}

// Load inserts OpcodeLoad of typ from [base + offset].
func (f *Function) Load(typ ssa.Type, base Value, offset int64) Value {
	return f.insert(f.allocateInstruction(Instruction{opcode: OpcodeLoad, typ: typ, args: []Value{base}, offset: offset}))
}

// Store inserts OpcodeStore of v to [base + offset].
func (f *Function) Store(v, base Value, offset int64) {
	f.insert(f.allocateInstruction(Instruction{opcode: OpcodeStore, args: []Value{v, base}, offset: offset}))
}

// Ireduce inserts OpcodeIreduce of x to typ.
func (f *Function) Ireduce(typ ssa.Type, x Value) Value {
	return f.insert(f.allocateInstruction(Instruction{opcode: OpcodeIreduce, typ: typ, args: []Value{x}}))
}

// Shuffle inserts OpcodeShuffle of x and y. Lanes of y are numbered after those of x.
func (f *Function) Shuffle(x, y Value, mask []int) Value {
	return f.insert(f.allocateInstruction(Instruction{opcode: OpcodeShuffle, typ: ssa.TypeV128, args: []Value{x, y}, mask: mask}))
}

// Type returns the type of v.
func (f *Function) Type(v Value) ssa.Type {
	return f.types[v]
}

// Instructions returns the instructions in program order.
func (f *Function) Instructions() []*Instruction {
	return f.instrs
}

// Opcode returns the opcode of this instruction.
func (i *Instruction) Opcode() Opcode {
	return i.opcode
}

// String implements fmt.Stringer.
func (v Value) String() string {
	return fmt.Sprintf("v%d", v)
}

// Format returns a human-readable representation of f.
func (f *Function) Format() string {
	var b strings.Builder
	params := make([]string, len(f.params))
	for i, p := range f.params {
		params[i] = fmt.Sprintf("%s:%s", p, f.types[p])
	}
	fmt.Fprintf(&b, "(%s)\n", strings.Join(params, ", "))
	for _, i := range f.instrs {
		b.WriteByte('\t')
		b.WriteString(i.format())
		b.WriteByte('\n')
	}
	return b.String()
}

func (i *Instruction) format() string {
	var lhs string
	if i.typ.Valid() {
		lhs = fmt.Sprintf("%s:%s = ", i.ret, i.typ)
	}

	var rhs string
	switch i.opcode {
	case OpcodeIconst:
		rhs = fmt.Sprintf("%d", i.imm)
	case OpcodeIadd, OpcodeIcmp:
		if i.hasImm {
			rhs = fmt.Sprintf("%s, #%d", i.args[0], i.imm)
		} else {
			rhs = fmt.Sprintf("%s, %s", i.args[0], i.args[1])
		}
	case OpcodeLoad:
		rhs = i.formatAddress(i.args)
	case OpcodeStore:
		rhs = fmt.Sprintf("%s, %s", i.args[0], i.formatAddress(i.args[1:]))
	case OpcodeIreduce, OpcodeCopy, OpcodeUextend:
		rhs = i.args[0].String()
	case OpcodeShuffle, OpcodeShuffleScalarized:
		rhs = fmt.Sprintf("%s, %s, %v", i.args[0], i.args[1], i.mask)
	}
	return fmt.Sprintf("%s%s %s", lhs, i.opcode, rhs)
}

func (i *Instruction) formatAddress(addr []Value) string {
	if i.indexed {
		return fmt.Sprintf("[%s + %s]", addr[0], addr[1])
	}
	if i.offset == 0 {
		return fmt.Sprintf("[%s]", addr[0])
	}
	return fmt.Sprintf("[%s + %d]", addr[0], i.offset)
}
