package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/faddat/wazero/internal/engine/wazevo/backend"
	"github.com/faddat/wazero/internal/engine/wazevo/backend/isa"
	"github.com/faddat/wazero/internal/engine/wazevo/ssa"
)

// probeImmediates are the immediates reported by describe.
var probeImmediates = []int64{0, 1, 255, 2047, 4095, 4096, 65535, 1 << 24, -1, -4096}

// probeAddressModes are the addressing modes reported by describe, for each legal type.
var probeAddressModes = []backend.AddressMode{
	{HasBaseReg: true},
	{HasBaseReg: true, Offset: 8},
	{HasBaseReg: true, Offset: -8},
	{HasBaseReg: true, Offset: 4096},
	{HasBaseReg: true, Scale: 1},
	{HasBaseReg: true, Scale: 8},
	{BaseSymbol: true},
}

// NewDescribeCommand creates the describe command.
func NewDescribeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "describe",
		Short: "Summarize the capabilities of the target",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			caps, name, err := selectTarget(cmd, rootOpts)
			if err != nil {
				return err
			}
			return describe(cmd.OutOrStdout(), name, caps)
		},
	}
}

// NewTargetsCommand creates the targets command.
func NewTargetsCommand(*RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "targets",
		Short: "List the builtin targets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range isa.Names() {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), name); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func describe(w io.Writer, name string, caps backend.Capabilities) error {
	heading := lipgloss.NewRenderer(w).NewStyle().Bold(true)
	s := caps.Scalar()
	p := &printer{w: w}

	p.printf("%s\n", heading.Render(fmt.Sprintf("Target %s (%s)", name, caps.Kind())))

	p.printf("\n%s\n", heading.Render("Types"))
	var legal []ssa.Type
	for _, typ := range ssa.Types {
		p.printf("  %-6s %s\n", typ, yesNo(s.IsTypeLegal(typ), "legal", "illegal"))
		if s.IsTypeLegal(typ) {
			legal = append(legal, typ)
		}
	}

	p.printf("\n%s\n", heading.Render("Free truncations"))
	for _, from := range ssa.Types {
		for _, to := range ssa.Types {
			if from != to && s.IsTruncateFree(from, to) {
				p.printf("  %s -> %s\n", from, to)
			}
		}
	}

	p.printf("\n%s\n", heading.Render("Immediates"))
	p.printf("  %-10s %-5s %s\n", "imm", "add", "icmp")
	for _, imm := range probeImmediates {
		p.printf("  %-10d %-5s %s\n", imm,
			yesNo(s.IsLegalAddImmediate(imm), "yes", "no"), yesNo(s.IsLegalICmpImmediate(imm), "yes", "no"))
	}

	p.printf("\n%s\n", heading.Render("Addressing modes"))
	for _, am := range probeAddressModes {
		var ok []string
		for _, typ := range legal {
			if s.IsLegalAddressingMode(am, typ) {
				ok = append(ok, typ.String())
			}
		}
		p.printf("  %-22s %v\n", am, ok)
	}

	p.printf("\n%s\n", heading.Render("Jump buffer"))
	p.printf("  alignment %d, size %d\n", s.JumpBufAlignment(), s.JumpBufSize())

	if v, ok := caps.Vector(); ok {
		p.printf("\n%s\n", heading.Render("Vector"))
		p.printf("  shuffle lanes:")
		for _, lanes := range []int{2, 4, 8, 16} {
			mask := make([]int, lanes)
			for i := range mask {
				mask[i] = lanes - 1 - i
			}
			if v.IsLegalShuffle(mask, ssa.TypeV128) {
				p.printf(" %d", lanes)
			}
		}
		p.printf("\n")
		var gather, scatter []string
		for _, typ := range ssa.Types {
			if v.IsLegalMaskedGather(typ) {
				gather = append(gather, typ.String())
			}
			if v.IsLegalMaskedScatter(typ) {
				scatter = append(scatter, typ.String())
			}
		}
		p.printf("  gather: %v\n  scatter: %v\n", gather, scatter)
	}
	return p.err
}

// printer remembers the first write error so that describe can print unconditionally.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func yesNo(b bool, yes, no string) string {
	if b {
		return yes
	}
	return no
}
