package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faddat/wazero/internal/engine/wazevo/backend/isa"
	"github.com/faddat/wazero/internal/engine/wazevo/backend/targetdesc"
)

// execute runs the root command with args and returns what it printed to stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestDescribe(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	g := goldie.New(t, goldie.WithFixtureDir("testdata"), goldie.WithNameSuffix(".golden"))

	for _, tc := range []struct {
		golden string
		args   []string
	}{
		{golden: "describe_arm64", args: []string{"--target", "arm64", "describe"}},
		{golden: "describe_arm64_scalar_only", args: []string{"--target", "arm64", "--scalar-only", "describe"}},
		{golden: "describe_riscv64", args: []string{"-t", "riscv64", "describe"}},
	} {
		t.Run(tc.golden, func(t *testing.T) {
			out, _, err := execute(t, tc.args...)
			require.NoError(t, err)
			g.Assert(t, tc.golden, []byte(out))
		})
	}
}

func TestTargets(t *testing.T) {
	out, _, err := execute(t, "targets")
	require.NoError(t, err)
	goldie.New(t, goldie.WithFixtureDir("testdata"), goldie.WithNameSuffix(".golden")).
		Assert(t, "targets", []byte(out))
}

func TestQuery(t *testing.T) {
	for _, tc := range []struct {
		name string
		args []string
		exp  string
	}{
		{name: "add-imm shifted", args: []string{"-t", "arm64", "query", "add-imm", "4096"}, exp: "true\n"},
		{name: "add-imm hex", args: []string{"-t", "arm64", "query", "add-imm", "0x1001"}, exp: "false\n"},
		{name: "add-imm negative", args: []string{"-t", "arm64", "query", "add-imm", "--", "-4096"}, exp: "true\n"},
		{name: "add-imm riscv64", args: []string{"-t", "riscv64", "query", "add-imm", "4096"}, exp: "false\n"},
		{name: "icmp-imm", args: []string{"-t", "riscv64", "query", "icmp-imm", "2047"}, exp: "true\n"},
		{name: "addr base", args: []string{"-t", "arm64", "query", "addr", "i64"}, exp: "true\n"},
		{name: "addr scaled", args: []string{"-t", "arm64", "query", "addr", "i64", "--offset", "32760"}, exp: "true\n"},
		{name: "addr misaligned", args: []string{"-t", "arm64", "query", "addr", "i64", "--offset", "32761"}, exp: "false\n"},
		{name: "addr index", args: []string{"-t", "arm64", "query", "addr", "i64", "--scale", "8"}, exp: "true\n"},
		{name: "addr index and offset", args: []string{"-t", "arm64", "query", "addr", "i64", "--scale", "8", "--offset", "8"}, exp: "false\n"},
		{name: "addr symbol", args: []string{"-t", "arm64", "query", "addr", "i64", "--symbol"}, exp: "false\n"},
		{name: "addr absolute", args: []string{"-t", "arm64", "query", "addr", "i64", "--base=false"}, exp: "false\n"},
		{name: "trunc", args: []string{"-t", "arm64", "query", "trunc", "i64", "i32"}, exp: "true\n"},
		{name: "trunc widening", args: []string{"-t", "arm64", "query", "trunc", "i32", "i64"}, exp: "false\n"},
		{name: "trunc same type", args: []string{"-t", "riscv64", "query", "trunc", "f32", "f32"}, exp: "true\n"},
		{name: "type legal", args: []string{"-t", "arm64", "query", "type", "v128"}, exp: "true\n"},
		{name: "type illegal", args: []string{"-t", "riscv64", "query", "type", "i32"}, exp: "false\n"},
		{name: "jmpbuf arm64", args: []string{"-t", "arm64", "query", "jmpbuf"}, exp: "alignment=16 size=176\n"},
		{name: "jmpbuf riscv64", args: []string{"-t", "riscv64", "query", "jmpbuf"}, exp: "alignment=8 size=208\n"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			out, _, err := execute(t, tc.args...)
			require.NoError(t, err)
			require.Equal(t, tc.exp, out)
		})
	}
}

func TestQuery_errors(t *testing.T) {
	t.Run("unknown target", func(t *testing.T) {
		_, _, err := execute(t, "-t", "pdp11", "query", "type", "i32")
		require.ErrorIs(t, err, isa.ErrUnknownTarget)
		require.EqualError(t, err, `unknown target: "pdp11" (known: arm64, riscv64)`)
	})

	t.Run("bad immediate", func(t *testing.T) {
		_, _, err := execute(t, "-t", "arm64", "query", "add-imm", "four")
		require.Error(t, err)
		assert.Contains(t, err.Error(), `invalid immediate "four"`)
	})

	t.Run("bad type", func(t *testing.T) {
		_, _, err := execute(t, "-t", "arm64", "query", "type", "i128")
		require.EqualError(t, err, `unknown type "i128"`)
	})

	t.Run("bad description", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("name: bad\njump_buf: {alignment: 12, size: 64}\n"), 0o600))
		_, _, err := execute(t, "-d", path, "query", "jmpbuf")
		require.ErrorIs(t, err, targetdesc.ErrInvalidDescription)
	})
}

func TestDescription(t *testing.T) {
	path := filepath.Join(t.TempDir(), "toy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`name: toy
add_immediate: {min: 0, max: 15}
types: {i32: true}
jump_buf: {alignment: 4, size: 32}
`), 0o600))

	out, _, err := execute(t, "-d", path, "-t", "riscv64", "query", "type", "i32")
	require.NoError(t, err)
	require.Equal(t, "true\n", out)

	out, _, err = execute(t, "-d", path, "query", "add-imm", "16")
	require.NoError(t, err)
	require.Equal(t, "false\n", out)

	out, _, err = execute(t, "-d", path, "query", "jmpbuf")
	require.NoError(t, err)
	require.Equal(t, "alignment=4 size=32\n", out)
}

func TestConfigPrecedence(t *testing.T) {
	t.Run("env", func(t *testing.T) {
		t.Setenv("WAZEVO_CAPS_TARGET", "riscv64")
		out, _, err := execute(t, "query", "type", "i32")
		require.NoError(t, err)
		require.Equal(t, "false\n", out)
	})

	t.Run("flag over env", func(t *testing.T) {
		t.Setenv("WAZEVO_CAPS_TARGET", "riscv64")
		out, _, err := execute(t, "--target", "arm64", "query", "type", "i32")
		require.NoError(t, err)
		require.Equal(t, "true\n", out)
	})

	t.Run("config file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "caps.yaml")
		require.NoError(t, os.WriteFile(path, []byte("target: riscv64\n"), 0o600))
		out, _, err := execute(t, "--config", path, "query", "type", "i32")
		require.NoError(t, err)
		require.Equal(t, "false\n", out)
	})

	t.Run("env over config file", func(t *testing.T) {
		t.Setenv("WAZEVO_CAPS_TARGET", "arm64")
		path := filepath.Join(t.TempDir(), "caps.yaml")
		require.NoError(t, os.WriteFile(path, []byte("target: riscv64\n"), 0o600))
		out, _, err := execute(t, "--config", path, "query", "type", "i32")
		require.NoError(t, err)
		require.Equal(t, "true\n", out)
	})

	t.Run("scalar-only env", func(t *testing.T) {
		t.Setenv("NO_COLOR", "1")
		t.Setenv("WAZEVO_CAPS_SCALAR_ONLY", "true")
		out, _, err := execute(t, "-t", "arm64", "describe")
		require.NoError(t, err)
		require.Contains(t, out, "Target arm64 (scalar)\n")
		require.NotContains(t, out, "Vector")
	})

	t.Run("missing config file", func(t *testing.T) {
		_, _, err := execute(t, "--config", filepath.Join(t.TempDir(), "nope.yaml"), "targets")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read config")
	})
}

func TestVerbose(t *testing.T) {
	_, errOut, err := execute(t, "-v", "-t", "riscv64", "query", "type", "i64")
	require.NoError(t, err)
	require.Contains(t, errOut, "target selected")
	require.Contains(t, errOut, "riscv64")

	_, errOut, err = execute(t, "-t", "riscv64", "query", "type", "i64")
	require.NoError(t, err)
	require.Empty(t, errOut)
}
