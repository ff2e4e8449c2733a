package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/urbanpulse/report-server/internal/models"
	"github.com/urbanpulse/report-server/internal/store"
)

func newSeedCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Inspect mock data seed files",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "validate [file]",
		Short: "Parse a seed file and report what it contains",
		Long: `Parse a seed file with the same rules the server applies at startup.
Without a file argument the --seed flag or the built-in data is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.seedFile
			if len(args) == 1 {
				path = args[0]
			}
			seed, err := store.LoadSeed(path)
			if err != nil {
				return err
			}
			byStatus := make(map[models.Status]int)
			for _, r := range seed.Reports {
				byStatus[r.Status]++
			}
			return encode(cmd.OutOrStdout(), opts.format, map[string]interface{}{
				"valid":      true,
				"reports":    len(seed.Reports),
				"categories": len(seed.Categories),
				"by_status":  byStatus,
			})
		},
	}, &cobra.Command{
		Use:   "dump",
		Short: "Print the seed in canonical form",
		Long:  `Print the seed back in the mock vocabulary, normalized (tags lowercased, locations reformatted).`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			seed, err := opts.loadSeed()
			if err != nil {
				return err
			}
			data, err := store.MarshalSeed(seed)
			if err != nil {
				return fmt.Errorf("marshal seed: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	})
	return cmd
}
