package targetdesc

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/faddat/wazero/internal/engine/wazevo/backend"
	"github.com/faddat/wazero/internal/engine/wazevo/ssa"
)

func loadCapabilities(t *testing.T, path string) backend.Capabilities {
	d, err := LoadFile(path)
	require.NoError(t, err)
	caps, err := d.Capabilities()
	require.NoError(t, err)
	return caps
}

func TestLoadFile_toy(t *testing.T) {
	caps := loadCapabilities(t, filepath.Join("testdata", "toy.yaml"))
	require.Equal(t, backend.KindScalarAndVector, caps.Kind())

	s := caps.Scalar()
	t.Run("immediates", func(t *testing.T) {
		require.True(t, s.IsLegalAddImmediate(-2048))
		require.True(t, s.IsLegalAddImmediate(2047))
		require.False(t, s.IsLegalAddImmediate(2048))
		require.True(t, s.IsLegalICmpImmediate(255))
		require.False(t, s.IsLegalICmpImmediate(-1))
	})

	t.Run("types", func(t *testing.T) {
		require.True(t, s.IsTypeLegal(ssa.TypeI32))
		require.False(t, s.IsTypeLegal(ssa.TypeI64))
		// Not listed.
		require.False(t, s.IsTypeLegal(ssa.TypeF64))
	})

	t.Run("truncations", func(t *testing.T) {
		require.True(t, s.IsTruncateFree(ssa.TypeI64, ssa.TypeI32))
		require.False(t, s.IsTruncateFree(ssa.TypeF64, ssa.TypeF32))
		require.False(t, s.IsTruncateFree(ssa.TypeI32, ssa.TypeI16))
		require.True(t, s.IsTruncateFree(ssa.TypeI16, ssa.TypeI16))
	})

	t.Run("addressing", func(t *testing.T) {
		require.True(t, s.IsLegalAddressingMode(backend.AddressMode{HasBaseReg: true, Offset: -8}, ssa.TypeI64))
		require.False(t, s.IsLegalAddressingMode(backend.AddressMode{HasBaseReg: true, Offset: 4096}, ssa.TypeI64))
		require.True(t, s.IsLegalAddressingMode(backend.AddressMode{HasBaseReg: true, Scale: 4}, ssa.TypeI32))
		require.False(t, s.IsLegalAddressingMode(backend.AddressMode{HasBaseReg: true, Scale: 4}, ssa.TypeI64))
		require.False(t, s.IsLegalAddressingMode(backend.AddressMode{HasBaseReg: true, Scale: 4, Offset: 4}, ssa.TypeI32))
		require.False(t, s.IsLegalAddressingMode(backend.AddressMode{BaseSymbol: true, HasBaseReg: true}, ssa.TypeI32))
	})

	t.Run("jump buffer", func(t *testing.T) {
		require.Equal(t, uint32(8), s.JumpBufAlignment())
		require.Equal(t, uint32(64), s.JumpBufSize())
	})

	t.Run("vector", func(t *testing.T) {
		v, ok := caps.Vector()
		require.True(t, ok)
		require.True(t, v.IsLegalShuffle([]int{3, 2, 1, 0}, ssa.TypeV128))
		require.True(t, v.IsLegalShuffle([]int{7, 6, 5, 4}, ssa.TypeV128))
		require.False(t, v.IsLegalShuffle([]int{8, 6, 5, 4}, ssa.TypeV128))
		require.False(t, v.IsLegalShuffle([]int{1, 0}, ssa.TypeV128))
		require.True(t, v.IsLegalMaskedGather(ssa.TypeI32))
		require.False(t, v.IsLegalMaskedGather(ssa.TypeI64))
		require.False(t, v.IsLegalMaskedScatter(ssa.TypeI32))
	})
}

func TestLoadFile_silent(t *testing.T) {
	d, err := LoadFile(filepath.Join("testdata", "silent.yaml"))
	require.NoError(t, err)

	info, err := d.LoweringInfo()
	require.NoError(t, err)
	require.Equal(t, backend.AnswerUnknown, info.LegalAddImmediate(0))
	require.Equal(t, backend.AnswerUnknown, info.LegalICmpImmediate(0))
	require.Equal(t, backend.AnswerUnknown, info.LegalAddressingMode(backend.AddressMode{HasBaseReg: true}, ssa.TypeI32))
	require.Equal(t, backend.AnswerUnknown, info.TruncateFree(ssa.TypeI64, ssa.TypeI32))
	require.Equal(t, backend.AnswerUnknown, info.TypeLegal(ssa.TypeI32))

	// Silence resolves to the conservative answer.
	caps, err := d.Capabilities()
	require.NoError(t, err)
	require.Equal(t, backend.KindScalarOnly, caps.Kind())
	s := caps.Scalar()
	require.False(t, s.IsLegalAddImmediate(0))
	require.False(t, s.IsTypeLegal(ssa.TypeI32))
	require.False(t, s.IsLegalAddressingMode(backend.AddressMode{HasBaseReg: true}, ssa.TypeI32))
	require.True(t, s.IsTruncateFree(ssa.TypeI32, ssa.TypeI32))
}

func TestLoadFile_errors(t *testing.T) {
	_, err := LoadFile(filepath.Join("testdata", "bad_jmpbuf.yaml"))
	require.ErrorIs(t, err, ErrInvalidDescription)
	require.Contains(t, err.Error(), "alignment 12 is not a power of two")

	_, err = LoadFile(filepath.Join("testdata", "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_invalid(t *testing.T) {
	for _, tc := range []struct {
		name, yaml, expErr string
	}{
		{name: "no name", yaml: `jump_buf: {alignment: 8, size: 8}`, expErr: "name is required"},
		{name: "unknown field", yaml: "name: x\nfoo: 1", expErr: "field foo not found"},
		{name: "bad range", yaml: "name: x\nadd_immediate: {min: 1, max: 0}", expErr: "add_immediate: min 1 is greater than max 0"},
		{name: "bad type", yaml: "name: x\ntypes: {i128: true}", expErr: `types: unknown type "i128"`},
		{name: "bad truncation", yaml: "name: x\ntruncate_free: [{from: i64, to: u8, free: true}]", expErr: `truncate_free[0].to: unknown type "u8"`},
		{name: "bad scale", yaml: "name: x\naddressing: [{base: true, scales: [-1]}]", expErr: "addressing[0]: negative scale -1"},
		{name: "bad offset", yaml: "name: x\naddressing: [{base: true, offset: {min: 4, max: 0}}]", expErr: "addressing[0]: offset: min 4 is greater than max 0"},
		{name: "bad lanes", yaml: "name: x\nvector: {shuffle_lanes: [0]}", expErr: "vector.shuffle_lanes: a v128 cannot have 0 lanes"},
		{name: "odd lanes", yaml: "name: x\nvector: {shuffle_lanes: [4, 3]}", expErr: "vector.shuffle_lanes: a v128 cannot have 3 lanes"},
		{name: "too many lanes", yaml: "name: x\nvector: {shuffle_lanes: [32]}", expErr: "vector.shuffle_lanes: a v128 cannot have 32 lanes"},
		{name: "bad gather", yaml: "name: x\nvector: {gather: [q]}", expErr: `vector.gather: unknown type "q"`},
		{name: "half jump buffer", yaml: "name: x\njump_buf: {alignment: 8}", expErr: "alignment 8 and size 0 must be both set or both zero"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tc.yaml))
			require.ErrorIs(t, err, ErrInvalidDescription)
			require.Contains(t, err.Error(), tc.expErr)
		})
	}
}

func TestLoad_invalidOrder(t *testing.T) {
	const desc = `name: x
types: {zz: true, i32: true, aa: true, mm: false}
vector: {gather: [q], scatter: [r]}
`
	// Every run reports the same error although several entries are invalid.
	for i := 0; i < 20; i++ {
		_, err := Load(strings.NewReader(desc))
		require.ErrorIs(t, err, ErrInvalidDescription)
		require.EqualError(t, err, `invalid target description: types: unknown type "aa"`)
	}

	for i := 0; i < 20; i++ {
		_, err := Load(strings.NewReader("name: x\nvector: {gather: [q], scatter: [r]}"))
		require.EqualError(t, err, `invalid target description: vector.gather: unknown type "q"`)
	}
}

func TestDescription_LoweringInfo_snapshot(t *testing.T) {
	d, err := Load(strings.NewReader("name: x\nadd_immediate: {min: 0, max: 10}"))
	require.NoError(t, err)
	info, err := d.LoweringInfo()
	require.NoError(t, err)

	d.AddImmediate.Max = 100
	require.Equal(t, backend.AnswerNo, info.LegalAddImmediate(50))
}

func TestLoad_emptyAddressing(t *testing.T) {
	d, err := Load(strings.NewReader("name: x\naddressing: []"))
	require.NoError(t, err)
	info, err := d.LoweringInfo()
	require.NoError(t, err)
	require.Equal(t, backend.AnswerNo, info.LegalAddressingMode(backend.AddressMode{HasBaseReg: true}, ssa.TypeI64))
}
