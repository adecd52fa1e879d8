package commands

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/esaudit/esaudit/cmd/esaudit/internal/bind"
	"github.com/esaudit/esaudit/pkg/engine"
	_ "github.com/esaudit/esaudit/pkg/modules/probes" // Register probe modules
	"github.com/esaudit/esaudit/pkg/output"
	"github.com/esaudit/esaudit/pkg/probe"
	"github.com/esaudit/esaudit/pkg/report"
	"github.com/esaudit/esaudit/pkg/version"
)

// NewProbeCommand constructs the 'probe' command that runs the probe suite
// against one target.
func NewProbeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "probe [target]",
		Short: "Run the Elasticsearch probe suite against a target host",
		Long: `Runs the selected probe modules against the target URL. Without --tests
all registered modules run. Findings are printed as human-readable lines,
or as a single JSON report document with --json.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := log.With().Str("command", "probe").Logger()

			opts, err := bind.BindProbeOptions(cmd, args)
			if err != nil {
				return err
			}

			tests := opts.Tests
			if len(tests) == 0 {
				tests = engine.RegisteredModuleNames()
			}
			for _, test := range tests {
				if !slices.Contains(engine.RegisteredModuleNames(), test) {
					return fmt.Errorf("unknown test %q, available: %s",
						test, strings.Join(engine.RegisteredModuleNames(), ", "))
				}
			}

			cfg := configFromContext(cmd.Context())
			client, err := probe.NewClient(probe.ClientConfig{
				Timeout:   cfg.Probe.Timeout,
				Proxy:     cfg.Probe.Proxy,
				UserAgent: cfg.Probe.UserAgent,
				Cookie:    opts.Cookie,
				Headers:   opts.Headers,
				Username:  opts.Username,
				Password:  opts.Password,
				Insecure:  cfg.Probe.Insecure,
			})
			if err != nil {
				return err
			}

			console := output.NewConsole(cmd.OutOrStdout(), !opts.JSON, isTerminal())
			console.Banner(cliExecutable, version.Version)

			rep := report.New(opts.Target)
			session := &engine.Session{
				TargetURL: opts.Target,
				Client:    client,
				Report:    rep,
				Console:   console,
				Verbose:   opts.Verbose,
			}

			runner := engine.NewRunner(session)
			if err := runner.FetchBase(cmd.Context()); err != nil {
				rep.Fail(err.Error())
				emitJSON(cmd, opts.JSON, rep)
				return err
			}

			logger.Info().Str("target", opts.Target).Strs("tests", tests).Msg("Starting probe run")
			runner.Run(cmd.Context(), tests, nil)
			rep.Finish()

			printSummary(console, rep)
			emitJSON(cmd, opts.JSON, rep)
			return nil
		},
	}

	cmd.Flags().StringSliceP("tests", "t", nil, "Probe modules to run (default: all)")
	cmd.Flags().StringArrayP("header", "H", nil, "Custom header(s), format 'Name: Value' (repeatable)")
	cmd.Flags().String("cookie", "", "Cookie header value")
	cmd.Flags().StringP("user", "U", "", "User to authenticate as")
	cmd.Flags().StringP("password", "P", "", "Password to authenticate with")
	cmd.Flags().BoolP("json", "j", false, "Output the report as JSON")
	cmd.Flags().BoolP("verbose", "v", false, "Print request/response details")

	return cmd
}

// printSummary prints the end-of-run finding counts in text mode.
func printSummary(console *output.Console, rep *report.Report) {
	result := rep.Result()
	console.Header("Summary")
	console.Info(4, "Vulnerabilities: %d", len(result.Vulnerabilities))
	for _, vuln := range result.Vulnerabilities {
		console.Vuln(8, "%s", vuln.Code)
	}
	console.Info(4, "Inventory nodes: %d", len(result.Nodes))
	console.Info(4, "Status: %s", result.Status)
}

// emitJSON prints the report document to stdout in --json mode.
func emitJSON(cmd *cobra.Command, enabled bool, rep *report.Report) {
	if !enabled {
		return
	}
	data, err := rep.JSON()
	if err != nil {
		log.Error().Err(err).Msg("Could not marshal report")
		return
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
}

func isTerminal() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}
