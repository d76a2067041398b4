// Package targetdesc builds backend.LoweringInfo from a YAML target description,
// so that a target can be described without writing an ISA package.
//
// Anything the description is silent about is reported as backend.AnswerUnknown,
// which the default scalar capabilities resolve conservatively.
package targetdesc

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/faddat/wazero/internal/engine/wazevo/backend"
	"github.com/faddat/wazero/internal/engine/wazevo/ssa"
)

// ErrInvalidDescription is returned when a description is malformed.
var ErrInvalidDescription = errors.New("invalid target description")

type (
	// Description is the YAML representation of a target.
	Description struct {
		// Name identifies the target.
		Name string `yaml:"name"`
		// AddImmediate is the range of immediates accepted by add-class instructions.
		AddImmediate *Range `yaml:"add_immediate,omitempty"`
		// ICmpImmediate is the range of immediates accepted by compare instructions.
		ICmpImmediate *Range `yaml:"icmp_immediate,omitempty"`
		// Types maps a type name (e.g. "i32") to its legality.
		Types map[string]bool `yaml:"types,omitempty"`
		// TruncateFree lists the truncations whose cost is known.
		TruncateFree []Truncation `yaml:"truncate_free,omitempty"`
		// Addressing lists the legal addressing modes. When present, a mode matching no rule is illegal.
		Addressing []AddressingRule `yaml:"addressing,omitempty"`
		// JumpBuf is the layout of the non-local jump buffer.
		JumpBuf JumpBuf `yaml:"jump_buf"`
		// Vector is present only if the target supplies vector queries.
		Vector *Vector `yaml:"vector,omitempty"`
	}

	// Range is an inclusive range of signed values.
	Range struct {
		Min int64 `yaml:"min"`
		Max int64 `yaml:"max"`
	}

	// Truncation is the cost of narrowing From to To.
	Truncation struct {
		From string `yaml:"from"`
		To   string `yaml:"to"`
		Free bool   `yaml:"free"`
	}

	// AddressingRule describes a family of legal addressing modes.
	AddressingRule struct {
		// Type restricts the rule to a type. Empty means every type.
		Type string `yaml:"type,omitempty"`
		// Symbol is true if the mode is relative to a global symbol.
		Symbol bool `yaml:"symbol,omitempty"`
		// Base is true if the mode takes a base register.
		Base bool `yaml:"base"`
		// Scales lists the accepted index scales, where 0 means no index. Empty means [0].
		Scales []int64 `yaml:"scales,omitempty"`
		// Offset is the accepted offset range. Absent means the offset must be zero.
		Offset *Range `yaml:"offset,omitempty"`
		// OffsetAlign requires the offset to be a multiple of it when non-zero.
		OffsetAlign int64 `yaml:"offset_align,omitempty"`
	}

	// JumpBuf is the layout of the non-local jump buffer. Both zero means unsupported.
	JumpBuf struct {
		Alignment uint32 `yaml:"alignment"`
		Size      uint32 `yaml:"size"`
	}

	// Vector describes vector queries.
	Vector struct {
		// ShuffleLanes lists the lane counts of v128 for which any two-source shuffle is legal.
		ShuffleLanes []int `yaml:"shuffle_lanes,omitempty"`
		// Gather lists the lane types of legal masked gathers.
		Gather []string `yaml:"gather,omitempty"`
		// Scatter lists the lane types of legal masked scatters.
		Scatter []string `yaml:"scatter,omitempty"`
	}
)

// Load decodes and validates a Description from r. Unknown fields are rejected.
func Load(r io.Reader) (*Description, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	var d Description
	if err := decoder.Decode(&d); err != nil {
		return nil, fmt.Errorf("%w: failed to parse YAML: %v", ErrInvalidDescription, err)
	}
	if _, err := d.Capabilities(); err != nil {
		return nil, err
	}
	return &d, nil
}

// LoadFile is Load for the file at path.
func LoadFile(path string) (*Description, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read target description: %w", err)
	}
	d, err := Load(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// LoweringInfo returns the backend.LoweringInfo described by d.
// The result is a snapshot: later changes to d are not reflected.
func (d *Description) LoweringInfo() (backend.LoweringInfo, error) {
	return d.compile()
}

// Capabilities returns the capabilities described by d. The vector provider is
// present only if d has a vector section.
func (d *Description) Capabilities() (backend.Capabilities, error) {
	t, err := d.compile()
	if err != nil {
		return backend.Capabilities{}, err
	}
	s := backend.NewDefaultScalar(t)
	if d.Vector == nil {
		return backend.ScalarOnly(s), nil
	}
	v, err := compileVector(d.Vector)
	if err != nil {
		return backend.Capabilities{}, err
	}
	return backend.ScalarAndVector(s, v), nil
}

func (d *Description) compile() (*table, error) {
	if d.Name == "" {
		return nil, invalid("name is required")
	}

	t := &table{
		addImm:  d.AddImmediate.clone(),
		icmpImm: d.ICmpImmediate.clone(),
		jmpBuf:  d.JumpBuf,
		types:   make(map[ssa.Type]bool, len(d.Types)),
		truncs:  make(map[[2]ssa.Type]bool, len(d.TruncateFree)),
	}
	for _, imm := range []struct {
		field string
		r     *Range
	}{{"add_immediate", d.AddImmediate}, {"icmp_immediate", d.ICmpImmediate}} {
		if r := imm.r; r != nil && r.Min > r.Max {
			return nil, invalid("%s: min %d is greater than max %d", imm.field, r.Min, r.Max)
		}
	}

	// Sorted so that the first invalid type reported does not depend on map order.
	for _, name := range slices.Sorted(maps.Keys(d.Types)) {
		typ, err := ssa.ParseType(name)
		if err != nil {
			return nil, invalid("types: %v", err)
		}
		t.types[typ] = d.Types[name]
	}

	for i, tr := range d.TruncateFree {
		from, err := ssa.ParseType(tr.From)
		if err != nil {
			return nil, invalid("truncate_free[%d].from: %v", i, err)
		}
		to, err := ssa.ParseType(tr.To)
		if err != nil {
			return nil, invalid("truncate_free[%d].to: %v", i, err)
		}
		t.truncs[[2]ssa.Type{from, to}] = tr.Free
	}

	if d.Addressing != nil {
		t.addressingKnown = true
		for i := range d.Addressing {
			r, err := compileAddressingRule(&d.Addressing[i])
			if err != nil {
				return nil, invalid("addressing[%d]: %v", i, err)
			}
			t.addressing = append(t.addressing, r)
		}
	}

	if err := backend.ValidateJumpBuf(d.JumpBuf); err != nil {
		return nil, invalid("jump_buf: %v", err)
	}
	return t, nil
}

func compileAddressingRule(r *AddressingRule) (addressingRule, error) {
	ret := addressingRule{symbol: r.Symbol, base: r.Base, align: r.OffsetAlign}
	if r.Type != "" {
		typ, err := ssa.ParseType(r.Type)
		if err != nil {
			return ret, err
		}
		ret.typ = typ
	}
	ret.scales = append([]int64(nil), r.Scales...)
	if len(ret.scales) == 0 {
		ret.scales = []int64{0}
	}
	for _, s := range ret.scales {
		if s < 0 {
			return ret, fmt.Errorf("negative scale %d", s)
		}
	}
	if r.Offset != nil {
		if r.Offset.Min > r.Offset.Max {
			return ret, fmt.Errorf("offset: min %d is greater than max %d", r.Offset.Min, r.Offset.Max)
		}
		ret.offset = *r.Offset
	}
	if ret.align < 0 {
		return ret, fmt.Errorf("negative offset_align %d", ret.align)
	}
	return ret, nil
}

func compileVector(v *Vector) (*vectorTable, error) {
	ret := &vectorTable{
		shuffleLanes: make(map[int]bool, len(v.ShuffleLanes)),
		gather:       make(map[ssa.Type]bool, len(v.Gather)),
		scatter:      make(map[ssa.Type]bool, len(v.Scatter)),
	}
	for _, l := range v.ShuffleLanes {
		switch l {
		case 2, 4, 8, 16:
			ret.shuffleLanes[l] = true
		default:
			return nil, invalid("vector.shuffle_lanes: a v128 cannot have %d lanes", l)
		}
	}
	for _, f := range []struct {
		field string
		names []string
		dst   map[ssa.Type]bool
	}{{"gather", v.Gather, ret.gather}, {"scatter", v.Scatter, ret.scatter}} {
		for _, name := range f.names {
			typ, err := ssa.ParseType(name)
			if err != nil {
				return nil, invalid("vector.%s: %v", f.field, err)
			}
			f.dst[typ] = true
		}
	}
	return ret, nil
}

func (r *Range) clone() *Range {
	if r == nil {
		return nil
	}
	ret := *r
	return &ret
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidDescription, fmt.Sprintf(format, args...))
}

// JumpBufAlignment implements backend.JumpBufLayout.
func (j JumpBuf) JumpBufAlignment() uint32 { return j.Alignment }

// JumpBufSize implements backend.JumpBufLayout.
func (j JumpBuf) JumpBufSize() uint32 { return j.Size }
