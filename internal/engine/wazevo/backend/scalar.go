package backend

import (
	"errors"
	"fmt"
	"math/bits"
	"reflect"

	"github.com/faddat/wazero/internal/engine/wazevo/ssa"
)

// Ensures that DefaultScalar implements ScalarCapabilities.
var _ ScalarCapabilities = (*DefaultScalar)(nil)

// DefaultScalar is the baseline ScalarCapabilities which every target can use as-is,
// or embed in its own type to override individual predicates.
//
// All boolean predicates forward to the LoweringInfo and resolve AnswerUnknown to false.
// The only predicate answered without delegation is IsTruncateFree on identical types.
// The jump buffer layout is always taken from the LoweringInfo.
type DefaultScalar struct {
	// info is borrowed, not owned. It must stay valid for as long as this DefaultScalar is used.
	info LoweringInfo
}

// NewDefaultScalar returns a DefaultScalar bound to info for its whole lifetime.
//
// Panics if info is nil, since a provider without lowering information is a
// misconfiguration of the target rather than something a query could recover from.
func NewDefaultScalar(info LoweringInfo) *DefaultScalar {
	if isNil(info) {
		panic("BUG: NewDefaultScalar called with nil LoweringInfo")
	}
	return &DefaultScalar{info: info}
}

// LoweringInfo returns the LoweringInfo this DefaultScalar is bound to.
func (d *DefaultScalar) LoweringInfo() LoweringInfo {
	return d.info
}

// IsLegalAddImmediate implements ScalarCapabilities.IsLegalAddImmediate.
func (d *DefaultScalar) IsLegalAddImmediate(imm int64) bool {
	return d.info.LegalAddImmediate(imm).Bool()
}

// IsLegalICmpImmediate implements ScalarCapabilities.IsLegalICmpImmediate.
func (d *DefaultScalar) IsLegalICmpImmediate(imm int64) bool {
	return d.info.LegalICmpImmediate(imm).Bool()
}

// IsLegalAddressingMode implements ScalarCapabilities.IsLegalAddressingMode.
func (d *DefaultScalar) IsLegalAddressingMode(am AddressMode, typ ssa.Type) bool {
	if !typ.Valid() {
		return false
	}
	return d.info.LegalAddressingMode(am, typ).Bool()
}

// IsTruncateFree implements ScalarCapabilities.IsTruncateFree.
//
// The answer for two distinct types comes only from the LoweringInfo for that exact pair:
// free truncations are not assumed to compose.
func (d *DefaultScalar) IsTruncateFree(from, to ssa.Type) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	if from == to {
		return true
	}
	return d.info.TruncateFree(from, to).Bool()
}

// IsTypeLegal implements ScalarCapabilities.IsTypeLegal.
func (d *DefaultScalar) IsTypeLegal(typ ssa.Type) bool {
	if !typ.Valid() {
		return false
	}
	return d.info.TypeLegal(typ).Bool()
}

// JumpBufAlignment implements ScalarCapabilities.JumpBufAlignment.
func (d *DefaultScalar) JumpBufAlignment() uint32 {
	return d.info.JumpBufAlignment()
}

// JumpBufSize implements ScalarCapabilities.JumpBufSize.
func (d *DefaultScalar) JumpBufSize() uint32 {
	return d.info.JumpBufSize()
}

// ErrInvalidJumpBuf is returned by ValidateJumpBuf.
var ErrInvalidJumpBuf = errors.New("invalid jump buffer layout")

// JumpBufLayout is the part of ScalarCapabilities which describes the non-local jump buffer.
type JumpBufLayout interface {
	JumpBufAlignment() uint32
	JumpBufSize() uint32
}

// ValidateJumpBuf checks that the jump buffer alignment is a power of two and that the
// buffer is at least as large as its alignment. A target which leaves both zero
// does not support non-local jumps and passes the check.
func ValidateJumpBuf(l JumpBufLayout) error {
	align, size := l.JumpBufAlignment(), l.JumpBufSize()
	switch {
	case align == 0 && size == 0:
		return nil
	case align == 0 || size == 0:
		return fmt.Errorf("%w: alignment %d and size %d must be both set or both zero", ErrInvalidJumpBuf, align, size)
	case bits.OnesCount32(align) != 1:
		return fmt.Errorf("%w: alignment %d is not a power of two", ErrInvalidJumpBuf, align)
	case size < align:
		return fmt.Errorf("%w: size %d is smaller than alignment %d", ErrInvalidJumpBuf, size, align)
	}
	return nil
}

func isNil(info LoweringInfo) bool {
	if info == nil {
		return true
	}
	switch v := reflect.ValueOf(info); v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}
