package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/faddat/wazero/internal/engine/wazevo/backend"
	"github.com/faddat/wazero/internal/engine/wazevo/ssa"
)

// NewQueryCommand creates the query command, which has one subcommand per predicate.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Ask a single capability query",
	}

	cmd.AddCommand(
		newImmediateQueryCommand(rootOpts, "add-imm", "Whether an add-class instruction can encode the immediate",
			backend.ScalarCapabilities.IsLegalAddImmediate),
		newImmediateQueryCommand(rootOpts, "icmp-imm", "Whether a compare instruction can encode the immediate",
			backend.ScalarCapabilities.IsLegalICmpImmediate),
		newAddrQueryCommand(rootOpts),
		newTruncQueryCommand(rootOpts),
		newTypeQueryCommand(rootOpts),
		newJmpBufQueryCommand(rootOpts),
	)
	return cmd
}

func newImmediateQueryCommand(rootOpts *RootOptions, use, short string, query func(backend.ScalarCapabilities, int64) bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <imm>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			imm, err := strconv.ParseInt(args[0], 0, 64)
			if err != nil {
				return fmt.Errorf("invalid immediate %q: %w", args[0], err)
			}
			caps, _, err := selectTarget(cmd, rootOpts)
			if err != nil {
				return err
			}
			return printAnswer(cmd, query(caps.Scalar(), imm))
		},
	}
}

func newAddrQueryCommand(rootOpts *RootOptions) *cobra.Command {
	var am backend.AddressMode
	cmd := &cobra.Command{
		Use:   "addr <type>",
		Short: "Whether loads and stores of the type can use the addressing mode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			typ, err := ssa.ParseType(args[0])
			if err != nil {
				return err
			}
			caps, _, err := selectTarget(cmd, rootOpts)
			if err != nil {
				return err
			}
			return printAnswer(cmd, caps.Scalar().IsLegalAddressingMode(am, typ))
		},
	}
	cmd.Flags().BoolVar(&am.HasBaseReg, "base", true, "a base register participates")
	cmd.Flags().BoolVar(&am.BaseSymbol, "symbol", false, "the address is relative to a global symbol")
	cmd.Flags().Int64Var(&am.Offset, "offset", 0, "constant displacement")
	cmd.Flags().Int64Var(&am.Scale, "scale", 0, "index register scale, 0 for no index")
	return cmd
}

func newTruncQueryCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "trunc <from> <to>",
		Short: "Whether narrowing between the types is free",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := ssa.ParseType(args[0])
			if err != nil {
				return err
			}
			to, err := ssa.ParseType(args[1])
			if err != nil {
				return err
			}
			caps, _, err := selectTarget(cmd, rootOpts)
			if err != nil {
				return err
			}
			return printAnswer(cmd, caps.Scalar().IsTruncateFree(from, to))
		},
	}
}

func newTypeQueryCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "type <type>",
		Short: "Whether the type is natively supported",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			typ, err := ssa.ParseType(args[0])
			if err != nil {
				return err
			}
			caps, _, err := selectTarget(cmd, rootOpts)
			if err != nil {
				return err
			}
			return printAnswer(cmd, caps.Scalar().IsTypeLegal(typ))
		},
	}
}

func newJmpBufQueryCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "jmpbuf",
		Short: "The alignment and size of the non-local jump buffer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			caps, _, err := selectTarget(cmd, rootOpts)
			if err != nil {
				return err
			}
			s := caps.Scalar()
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "alignment=%d size=%d\n", s.JumpBufAlignment(), s.JumpBufSize())
			return err
		},
	}
}

func printAnswer(cmd *cobra.Command, answer bool) error {
	_, err := fmt.Fprintln(cmd.OutOrStdout(), answer)
	return err
}
