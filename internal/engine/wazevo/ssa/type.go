// Package ssa defines the value types shared by the passes and the backends. By nature this is
// free of Wasm specific thing and ISA.
package ssa

import "fmt"

// Type is the type of an SSA value.
type Type byte

const (
	TypeInvalid Type = 1 + iota

	// TypeI8 represents an integer type with 8 bits.
	TypeI8

	// TypeI16 represents an integer type with 16 bits.
	TypeI16

	// TypeI32 represents an integer type with 32 bits.
	TypeI32

	// TypeI64 represents an integer type with 64 bits.
	TypeI64

	// TypeF32 represents 32-bit floats in the IEEE 754.
	TypeF32

	// TypeF64 represents 64-bit floats in the IEEE 754.
	TypeF64

	// TypeV128 represents 128-bit SIMD vectors.
	TypeV128
)

// Types lists all the valid types in ascending order.
var Types = []Type{TypeI8, TypeI16, TypeI32, TypeI64, TypeF32, TypeF64, TypeV128}

// String implements fmt.Stringer.
func (t Type) String() (ret string) {
	switch t {
	case TypeI8:
		return "i8"
	case TypeI16:
		return "i16"
	case TypeI32:
		return "i32"
	case TypeI64:
		return "i64"
	case TypeF32:
		return "f32"
	case TypeF64:
		return "f64"
	case TypeV128:
		return "v128"
	}
	return "invalid"
}

// ParseType is the inverse of Type.String.
func ParseType(s string) (Type, error) {
	for _, t := range Types {
		if t.String() == s {
			return t, nil
		}
	}
	return TypeInvalid, fmt.Errorf("unknown type %q", s)
}

// Valid returns true if the type is one of Types.
func (t Type) Valid() bool {
	return t >= TypeI8 && t <= TypeV128
}

// IsInt returns true if the type is an integer type.
func (t Type) IsInt() bool {
	return t >= TypeI8 && t <= TypeI64
}

// IsFloat returns true if the type is a floating point type.
func (t Type) IsFloat() bool {
	return t == TypeF32 || t == TypeF64
}

// IsVector returns true if the type is a SIMD vector type.
func (t Type) IsVector() bool {
	return t == TypeV128
}

// Bits returns the number of bits required to represent the type.
func (t Type) Bits() byte {
	switch t {
	case TypeI8:
		return 8
	case TypeI16:
		return 16
	case TypeI32, TypeF32:
		return 32
	case TypeI64, TypeF64:
		return 64
	case TypeV128:
		return 128
	default:
		panic(int(t))
	}
}

// Size returns the number of bytes required to represent the type.
func (t Type) Size() byte {
	return t.Bits() / 8
}
