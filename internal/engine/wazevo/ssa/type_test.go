package ssa

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestType_String(t *testing.T) {
	for _, tc := range []struct {
		typ Type
		exp string
	}{
		{typ: TypeI8, exp: "i8"},
		{typ: TypeI16, exp: "i16"},
		{typ: TypeI32, exp: "i32"},
		{typ: TypeI64, exp: "i64"},
		{typ: TypeF32, exp: "f32"},
		{typ: TypeF64, exp: "f64"},
		{typ: TypeV128, exp: "v128"},
		{typ: TypeInvalid, exp: "invalid"},
	} {
		require.Equal(t, tc.exp, tc.typ.String())
	}
}

func TestParseType(t *testing.T) {
	for _, typ := range Types {
		actual, err := ParseType(typ.String())
		require.NoError(t, err)
		require.Equal(t, typ, actual)
	}

	_, err := ParseType("i128")
	require.EqualError(t, err, `unknown type "i128"`)
}

func TestType_Bits(t *testing.T) {
	require.Equal(t, byte(8), TypeI8.Bits())
	require.Equal(t, byte(16), TypeI16.Bits())
	require.Equal(t, byte(32), TypeI32.Bits())
	require.Equal(t, byte(64), TypeI64.Bits())
	require.Equal(t, byte(32), TypeF32.Bits())
	require.Equal(t, byte(64), TypeF64.Bits())
	require.Equal(t, byte(128), TypeV128.Bits())
	require.Equal(t, byte(16), TypeV128.Size())
	require.Panics(t, func() { TypeInvalid.Bits() })
}

func TestType_Classes(t *testing.T) {
	for _, typ := range Types {
		classes := 0
		for _, is := range []bool{typ.IsInt(), typ.IsFloat(), typ.IsVector()} {
			if is {
				classes++
			}
		}
		require.Equal(t, 1, classes, typ.String())
		require.True(t, typ.Valid())
	}
	require.False(t, TypeInvalid.Valid())
	require.False(t, Type(0).Valid())
}
