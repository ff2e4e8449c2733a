package cli

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/urbanpulse/report-server/internal/analytics"
	"github.com/urbanpulse/report-server/internal/export"
	"github.com/urbanpulse/report-server/internal/filter"
)

// filterFlags mirror the dashboard query parameters.
type filterFlags struct {
	timeframe  string
	year       int
	month      int
	day        int
	categories []string
	hide       []string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.timeframe, "timeframe", "", "year | month | week | day (default month)")
	cmd.Flags().IntVar(&f.year, "year", 0, "Selected year (default current)")
	cmd.Flags().IntVar(&f.month, "month", 0, "Selected month 1-12 (default current)")
	cmd.Flags().IntVar(&f.day, "day", 0, "Selected day of month (default current)")
	cmd.Flags().StringSliceVar(&f.categories, "category", nil, "Only these categories (repeatable)")
	cmd.Flags().StringSliceVar(&f.hide, "hide", nil, "Hide status series: open, in_progress, closed")
}

// state builds the filter state the flags describe, starting from now in tz.
func (f *filterFlags) state(cmd *cobra.Command, tz string, now time.Time) (*filter.State, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid time zone %q: %w", tz, err)
	}
	q := url.Values{}
	if f.timeframe != "" {
		q.Set("timeframe", f.timeframe)
	}
	if cmd.Flags().Changed("year") {
		q.Set("year", strconv.Itoa(f.year))
	}
	if cmd.Flags().Changed("month") {
		q.Set("month", strconv.Itoa(f.month))
	}
	if cmd.Flags().Changed("day") {
		q.Set("day", strconv.Itoa(f.day))
	}
	if len(f.categories) > 0 {
		q["category"] = f.categories
	}
	for _, h := range f.hide {
		switch h {
		case "open", "in_progress", "closed":
			q.Set("show_"+h, "false")
		default:
			return nil, fmt.Errorf("unknown series %q", h)
		}
	}

	st := filter.New(now.In(loc))
	if err := st.Apply(q); err != nil {
		return nil, err
	}
	return st, nil
}

func newExportCmd(opts *options) *cobra.Command {
	var (
		ff  filterFlags
		out string
		top int
	)
	cmd := &cobra.Command{
		Use:   "export <timeseries|categories|reports|hotspots>",
		Short: "Write a CSV export",
		Long: `Write the same CSV the dashboard download buttons produce.

With --out pointing at a directory the file gets the dashboard's file name;
with --out pointing at a file that path is used; without --out the CSV goes
to stdout. An export with no rows writes nothing.

Examples:
  reportctl export timeseries --timeframe year --year 2024
  reportctl export reports --category Roads --category Water --out ./exports
  reportctl export hotspots --top 10 --out hotspots.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := export.ParseKind(args[0])
			if err != nil {
				return err
			}
			now := time.Now()
			st, err := ff.state(cmd, opts.timezone, now)
			if err != nil {
				return err
			}
			seed, err := opts.loadSeed()
			if err != nil {
				return err
			}

			headers, rows := export.Build(kind, seed.Reports, st, top)
			body, err := export.ToCSV(rows, headers)
			if errors.Is(err, export.ErrNothingToExport) {
				fmt.Fprintln(cmd.ErrOrStderr(), "Nothing to export for the selected filters")
				return nil
			}
			if err != nil {
				return err
			}

			if out == "" || out == "-" {
				_, err := io.WriteString(cmd.OutOrStdout(), body)
				return err
			}
			path := out
			if info, err := os.Stat(out); err == nil && info.IsDir() {
				path = filepath.Join(out, export.Filename(kind, st, now.In(st.Location())))
			}
			if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d rows to %s\n", len(rows), path)
			return nil
		},
	}
	ff.register(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file or directory (default stdout)")
	cmd.Flags().IntVar(&top, "top", analytics.DefaultTopN, "Number of hotspots")
	return cmd
}

// summary is the structured output of reportctl summary.
type summary struct {
	Filter     filter.Snapshot           `json:"filter" yaml:"filter"`
	Totals     analytics.Summary         `json:"totals" yaml:"totals"`
	Categories []analytics.CategoryCount `json:"categories" yaml:"categories"`
	Hotspots   []analytics.Hotspot       `json:"hotspots" yaml:"hotspots"`
}

func newSummaryCmd(opts *options) *cobra.Command {
	var (
		ff  filterFlags
		top int
	)
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the dashboard stat cards, category split and hotspots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ff.state(cmd, opts.timezone, time.Now())
			if err != nil {
				return err
			}
			seed, err := opts.loadSeed()
			if err != nil {
				return err
			}
			matched := analytics.Filter(seed.Reports, st)
			return encode(cmd.OutOrStdout(), opts.format, summary{
				Filter:     st.Snapshot(),
				Totals:     analytics.Summarize(matched),
				Categories: analytics.CategoriesInPeriod(seed.Reports, st),
				Hotspots:   analytics.LocationHotspots(matched, top),
			})
		},
	}
	ff.register(cmd)
	cmd.Flags().IntVar(&top, "top", analytics.DefaultTopN, "Number of hotspots")
	return cmd
}
