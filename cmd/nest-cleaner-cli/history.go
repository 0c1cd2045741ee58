package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"nest-cleaner/internal/app"
	"nest-cleaner/internal/database"
	"nest-cleaner/internal/exitcodes"
)

var errHistoryDisabled = errors.New("history database is disabled or unavailable (see database_path)")

var (
	historyRecent int
	historyAction string
	historyRun    string
	historyRuns   bool
	historyJSON   bool
	statsDays     int
	statsJSON     bool
	pruneDays     int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded cleanup runs and per-file outcomes",
	Example: `  nest-cleaner-cli history --recent 10        # 10 most recent file events
  nest-cleaner-cli history --action ERROR     # only failures
  nest-cleaner-cli history --runs             # recent runs with totals
  nest-cleaner-cli history --run <id> --json  # every event of one run`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withHistory(func(db *database.HistoryDB) error {
			out := cmd.OutOrStdout()
			if historyRuns {
				runs, err := db.GetRecentRuns(historyRecent)
				if err != nil {
					return withCode(exitcodes.RuntimeError, fmt.Errorf("query runs: %w", err))
				}
				if historyJSON {
					return writeJSON(out, runs)
				}
				printRuns(out, runs)
				return nil
			}

			var events []database.Event
			var err error
			switch {
			case historyRun != "":
				events, err = db.GetEventsForRun(historyRun)
			case historyAction != "":
				events, err = db.GetEventsByAction(strings.ToUpper(historyAction), historyRecent)
			default:
				events, err = db.GetRecentEvents(historyRecent)
			}
			if err != nil {
				return withCode(exitcodes.RuntimeError, fmt.Errorf("query events: %w", err))
			}
			if historyJSON {
				return writeJSON(out, events)
			}
			printEvents(out, events)
			return nil
		})
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show totals for recent runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withHistory(func(db *database.HistoryDB) error {
			stats, err := db.GetStats(statsDays)
			if err != nil {
				return withCode(exitcodes.RuntimeError, fmt.Errorf("query stats: %w", err))
			}
			out := cmd.OutOrStdout()
			if statsJSON {
				return writeJSON(out, stats)
			}

			fmt.Fprintf(out, "Cleanup Statistics (Last %d days)\n", statsDays)
			fmt.Fprintf(out, "Period: %s to %s\n\n", stats.StartDate.Local().Format("2006-01-02"), stats.EndDate.Format("2006-01-02"))
			fmt.Fprintf(out, "Runs:     %d\n", stats.Runs)
			fmt.Fprintf(out, "Trashed:  %d\n", stats.Trashed)
			fmt.Fprintf(out, "Skipped:  %d\n", stats.Skipped)
			fmt.Fprintf(out, "Failed:   %d\n", stats.Failed)
			if n := stats.ByAction[database.ActionDryRun]; n > 0 {
				fmt.Fprintf(out, "Dry-run:  %d\n", n)
			}
			return nil
		})
	},
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete history older than the given number of days",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withHistory(func(db *database.HistoryDB) error {
			n, err := db.DeleteOldRecords(pruneDays)
			if err != nil {
				return withCode(exitcodes.RuntimeError, fmt.Errorf("prune history: %w", err))
			}
			if err := db.Vacuum(); err != nil {
				return withCode(exitcodes.RuntimeError, fmt.Errorf("vacuum: %w", err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d run(s) older than %d days\n", n, pruneDays)
			return nil
		})
	},
}

func withHistory(fn func(db *database.HistoryDB) error) error {
	return withApp(app.Options{}, func(a *app.App) error {
		if a.History == nil {
			return withCode(exitcodes.InvalidConfig, errHistoryDisabled)
		}
		return fn(a.History)
	})
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return withCode(exitcodes.RuntimeError, err)
	}
	return nil
}

func printEvents(w io.Writer, events []database.Event) {
	if len(events) == 0 {
		fmt.Fprintln(w, "No events recorded.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tACTION\tFILE\tERROR")
	for _, e := range events {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			e.Timestamp.Local().Format("2006-01-02 15:04:05"), e.Action, e.FileName, e.ErrorMessage)
	}
	tw.Flush()
}

func printRuns(w io.Writer, runs []database.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tRUN\tTARGET\tDELETED\tSKIPPED\tFAILED\tDRY-RUN")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%t\n",
			r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.ID, r.TargetPath,
			r.Deleted, r.Skipped, r.Failed, r.DryRun)
	}
	tw.Flush()
}

func init() {
	historyCmd.Flags().IntVar(&historyRecent, "recent", 20, "Number of entries to show")
	historyCmd.Flags().StringVar(&historyAction, "action", "", "Filter by action (TRASH, DRY_RUN, SKIP, ERROR)")
	historyCmd.Flags().StringVar(&historyRun, "run", "", "Show every event of one run")
	historyCmd.Flags().BoolVar(&historyRuns, "runs", false, "List runs instead of file events")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Output in JSON format")

	statsCmd.Flags().IntVar(&statsDays, "days", 30, "Number of days to aggregate")
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Output in JSON format")

	pruneCmd.Flags().IntVar(&pruneDays, "older-than", 90, "Age in days of the runs to delete")

	rootCmd.AddCommand(historyCmd, statsCmd, pruneCmd)
}
