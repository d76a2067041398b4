// Package cli implements the wazevo-caps command which answers capability
// queries about a compilation target from the shell.
package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/faddat/wazero/internal/engine/wazevo/backend"
	"github.com/faddat/wazero/internal/engine/wazevo/backend/isa"
)

// EnvPrefix is the prefix of the environment variables overriding flags,
// e.g. WAZEVO_CAPS_TARGET.
const EnvPrefix = "WAZEVO_CAPS"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Target      string
	Description string
	ScalarOnly  bool
	ConfigFile  string
	Verbose     bool
}

// NewRootCommand creates the root command of wazevo-caps.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "wazevo-caps",
		Short: "Query the capabilities of a compilation target",
		Long: `Answer the legality and cost queries which target-independent passes ask
the backend, for a builtin target or a YAML target description.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(cmd, opts)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.Target, "target", "t", "", "target name (default: host architecture)")
	cmd.PersistentFlags().StringVarP(&opts.Description, "description", "d", "", "YAML target description, overrides --target")
	cmd.PersistentFlags().BoolVar(&opts.ScalarOnly, "scalar-only", false, "ignore the vector capabilities of the target")
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "config file with defaults for the flags above")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewDescribeCommand(opts))
	cmd.AddCommand(NewTargetsCommand(opts))

	return cmd
}

// loadConfig resolves opts from, in order of precedence, flags, environment variables,
// the config file and defaults.
func loadConfig(cmd *cobra.Command, opts *RootOptions) error {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for _, name := range []string{"target", "description", "scalar-only", "verbose"} {
		if err := v.BindPFlag(name, cmd.Flags().Lookup(name)); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	opts.Target = v.GetString("target")
	opts.Description = v.GetString("description")
	opts.ScalarOnly = v.GetBool("scalar-only")
	opts.Verbose = v.GetBool("verbose")
	return nil
}

func newLogger(cmd *cobra.Command, opts *RootOptions) *log.Logger {
	logger := log.NewWithOptions(cmd.ErrOrStderr(), log.Options{Prefix: "wazevo-caps"})
	if opts.Verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// selectTarget returns the capabilities chosen by opts and the name to display for them.
func selectTarget(cmd *cobra.Command, opts *RootOptions) (backend.Capabilities, string, error) {
	logger := newLogger(cmd, opts)
	caps, err := isa.Select(isa.Config{
		Name:            opts.Target,
		DescriptionPath: opts.Description,
		ScalarOnly:      opts.ScalarOnly,
		Logger:          logger,
	})
	if err != nil {
		return backend.Capabilities{}, "", err
	}

	name := opts.Target
	switch {
	case opts.Description != "":
		name = opts.Description
	case name == "":
		name = "host"
	}
	return caps, name, nil
}
