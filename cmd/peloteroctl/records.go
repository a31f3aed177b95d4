package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"pelotero/internal/cli"
	"pelotero/internal/config"
	"pelotero/internal/export"
	"pelotero/internal/log"
	"pelotero/internal/services"
)

func init() {
	rootCmd.AddCommand(statsCmd, archiveCmd, resetStatsCmd, exportCmd)
	archiveCmd.AddCommand(archiveHistoryCmd, archiveRecentCmd)

	resetStatsCmd.Flags().Bool("yes", false, "Skip the confirmation prompt")
	exportCmd.Flags().StringP("output", "o", "", "Output file (default: <report>-<date>.xlsx)")
}

// withApp opens the configured store, runs fn and closes the store.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, cfg *config.Config, app *services.App) error) error {
	cfg, logger := cli.Bootstrap(log.ComponentApp)
	ctx := cmd.Context()
	backend := cli.InitBackend(ctx, logger, cfg)
	defer backend.Close()

	app := services.NewApp(backend.Backend, backend.Publisher(), services.WithLocation(cfg.Location()))
	return fn(ctx, cfg, app)
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print the dashboard totals",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, _ *config.Config, app *services.App) error {
			t, err := app.Stats.Totals(ctx)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "Confirmed bookings\t%d\n", t.ConfirmedCount)
			fmt.Fprintf(w, "Revenue\t%s\n", t.Revenue)
			fmt.Fprintf(w, "Deposits\t%s\n", t.Deposits)
			fmt.Fprintf(w, "Expenses\t%s\n", t.Expenses)
			fmt.Fprintf(w, "Other income\t%s\n", t.OtherIncome)
			fmt.Fprintf(w, "Net\t%s\n", t.Net())
			return w.Flush()
		})
	},
}

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Hide bookings from the dashboard lists",
}

var archiveHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Archive past bookings that are completed or cancelled",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, _ *config.Config, app *services.App) error {
			n, err := app.Bookings.ArchiveHistory(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Archived %d bookings\n", n)
			return nil
		})
	},
}

var archiveRecentCmd = &cobra.Command{
	Use:   "all",
	Short: "Archive every booking",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, _ *config.Config, app *services.App) error {
			n, err := app.Bookings.ArchiveRecent(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Archived %d bookings\n", n)
			return nil
		})
	},
}

var resetStatsCmd = &cobra.Command{
	Use:   "reset-stats",
	Short: "Exclude every booking and movement from the totals",
	Long: `Flags every booking and movement as excluded from stats. Records stay
listed; only the aggregates drop to zero. There is no undo.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			fmt.Fprint(cmd.OutOrStdout(), "This excludes every record from the totals. Type 'yes' to continue: ")
			var answer string
			_, _ = fmt.Fscanln(cmd.InOrStdin(), &answer)
			if answer != "yes" {
				return fmt.Errorf("aborted")
			}
		}
		return withApp(cmd, func(ctx context.Context, _ *config.Config, app *services.App) error {
			res, err := app.Reset.ExcludeAllFromStats(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Excluded %d bookings and %d movements\n", res.Bookings, res.Movements)
			return nil
		})
	},
}

var exportCmd = &cobra.Command{
	Use:       "export bookings|finance",
	Short:     "Write a report workbook",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"bookings", "finance"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, cfg *config.Config, app *services.App) error {
			now := time.Now()
			report := export.Report{Generated: now, Loc: cfg.Location()}

			out, _ := cmd.Flags().GetString("output")
			if out == "" {
				out = fmt.Sprintf("%s-%s.xlsx", args[0], now.In(cfg.Location()).Format(time.DateOnly))
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			defer f.Close()

			if err := writeReport(ctx, f, args[0], report, app); err != nil {
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", out)
			return nil
		})
	},
}

func writeReport(ctx context.Context, w io.Writer, name string, report export.Report, app *services.App) error {
	if name == "bookings" {
		bs, sum, err := app.Stats.BookingReport(ctx)
		if err != nil {
			return err
		}
		return export.WriteBookings(w, report, bs, sum)
	}
	fs, err := app.Stats.FinanceSummary(ctx)
	if err != nil {
		return err
	}
	return export.WriteFinance(w, report, fs)
}
