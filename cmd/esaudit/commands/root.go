// Package commands wires the esaudit cobra command tree.
package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/esaudit/esaudit/pkg/config"
	"github.com/esaudit/esaudit/pkg/logging"
)

const cliExecutable = "esaudit"

type configContextKey struct{}

// configFromContext retrieves the loaded configuration placed on the command
// context by the root PersistentPreRunE.
func configFromContext(ctx context.Context) config.Config {
	if cfg, ok := ctx.Value(configContextKey{}).(config.Config); ok {
		return cfg
	}
	return config.DefaultConfig()
}

// NewCommand constructs the top-level esaudit CLI command, wiring global
// flags, configuration loading, and logging setup.
func NewCommand() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   cliExecutable,
		Short: "esaudit probes a host for exposed Elasticsearch services",
		Long: `esaudit runs a set of independent probes against a single target host
suspected of running Elasticsearch. Each probe sends one or a few HTTP
requests and classifies the target's configuration: product identity,
authentication posture, transport scheme, software inventory, and user
enumeration.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			manager := config.NewManager()
			if err := manager.Load(cmd.Flags(), configFile); err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			cfg := manager.Get()

			if err := logging.ConfigureGlobalLogging(cfg.Log.Level); err != nil {
				return fmt.Errorf("configure logging: %w", err)
			}

			ctx := context.WithValue(cmd.Context(), configContextKey{}, cfg)
			cmd.SetContext(ctx)
			if root := cmd.Root(); root != nil && root != cmd {
				root.SetContext(ctx)
			}
			return nil
		},
	}

	cmd.SilenceUsage = true

	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Configuration file path")
	cmd.PersistentFlags().String("log-level", "", "Log level (trace, debug, info, warn, error)")
	cmd.PersistentFlags().String("log-format", "", "Log format: json | text")
	cmd.PersistentFlags().Duration("timeout", 0, "Per-request timeout")
	cmd.PersistentFlags().String("user-agent", "", "User-Agent header for probe requests")
	cmd.PersistentFlags().String("proxy", "", "Proxy URL (e.g. http://127.0.0.1:8080)")
	cmd.PersistentFlags().Bool("insecure", false, "Skip TLS certificate verification")

	cmd.AddCommand(NewProbeCommand())
	cmd.AddCommand(NewModulesCommand())
	cmd.AddCommand(NewVersionCommand())

	return cmd
}
