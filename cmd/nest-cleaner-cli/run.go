package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"nest-cleaner/internal/app"
	"nest-cleaner/internal/exitcodes"
	"nest-cleaner/internal/session"
)

var (
	runYes    bool
	runDryRun bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Move the listed files from the target folder to the trash",
	Long: `run checks that the target folder exists and that the list is not empty,
asks for confirmation (skipped with --yes) and then moves every listed file
found in the target folder to the trash. Missing files are skipped.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(app.Options{DryRun: runDryRun, ServeMetrics: true}, func(a *app.App) error {
			confirm := promptConfirm(cmd.InOrStdin(), cmd.OutOrStdout())
			if runYes {
				confirm = func(string) bool { return true }
			}

			res, err := a.Session.Execute(confirm)
			if err != nil {
				if errors.Is(err, session.ErrTargetMissing) ||
					errors.Is(err, session.ErrEmptyList) ||
					errors.Is(err, session.ErrDeclined) {
					return withCode(exitcodes.PreconditionFailed, err)
				}
				return withCode(exitcodes.RuntimeError, err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), session.StatusLine(res))
			if res.Failed > 0 {
				return withCode(exitcodes.SafetyViolation,
					fmt.Errorf("%d file(s) could not be moved to the trash (run %s)", res.Failed, res.RunID))
			}
			return nil
		})
	},
}

// promptConfirm asks on out and reads a yes/no answer from in
func promptConfirm(in io.Reader, out io.Writer) func(string) bool {
	return func(prompt string) bool {
		fmt.Fprintf(out, "%s [y/N]: ", prompt)
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && line == "" {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		}
		return false
	}
}

func init() {
	runCmd.Flags().BoolVarP(&runYes, "yes", "y", false, "Do not ask for confirmation")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Count files without moving them to the trash")
	rootCmd.AddCommand(runCmd)
}
