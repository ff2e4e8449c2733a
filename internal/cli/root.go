// Package cli contains the reportctl commands: offline CSV exports,
// dashboard summaries and seed file checks against the same code the
// server uses.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/urbanpulse/report-server/internal/config"
	"github.com/urbanpulse/report-server/internal/store"
	"gopkg.in/yaml.v3"
)

// options are the persistent flags shared by every subcommand.
type options struct {
	seedFile string
	format   string
	timezone string
}

// NewRootCmd builds the reportctl command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "reportctl",
		Short: "Offline tools for the report server",
		Long: `reportctl works on a seed file (or the built-in mock data) without a
running server.

Examples:
  reportctl export reports --timeframe year --year 2024
  reportctl export categories --seed reports.yaml --out ./exports
  reportctl summary --format json
  reportctl seed validate reports.yaml`,
		Version:       config.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.seedFile, "seed", "", "Seed file (default: built-in mock data)")
	root.PersistentFlags().StringVar(&opts.format, "format", "yaml", "Output format for structured output: yaml | json")
	root.PersistentFlags().StringVar(&opts.timezone, "tz", "UTC", "Time zone used to bucket report dates")

	root.AddCommand(newExportCmd(opts), newSummaryCmd(opts), newSeedCmd(opts), newVersionCmd())
	return root
}

// Execute runs reportctl and exits non-zero on error.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "reportctl", config.Version)
		},
	}
}

func (o *options) loadSeed() (*store.Seed, error) {
	return store.LoadSeed(o.seedFile)
}

// encode writes v as YAML or JSON.
func encode(w io.Writer, format string, v interface{}) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml", "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	}
	return fmt.Errorf("unknown format %q (want yaml or json)", format)
}
