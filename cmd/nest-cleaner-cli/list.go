package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"nest-cleaner/internal/app"
	"nest-cleaner/internal/exitcodes"
	"nest-cleaner/internal/liststore"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the target folder and the listed filenames",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(app.Options{}, func(a *app.App) error {
			out := cmd.OutOrStdout()
			names := slices.Collect(a.Store.Sorted())
			if listJSON {
				path := a.Store.Path()
				data, err := json.MarshalIndent(liststore.Record{Path: &path, Files: &names}, "", "  ")
				if err != nil {
					return withCode(exitcodes.RuntimeError, err)
				}
				fmt.Fprintln(out, string(data))
				return nil
			}

			fmt.Fprintf(out, "Target folder: %s\n", a.Store.Path())
			if len(names) == 0 {
				fmt.Fprintln(out, "No filenames listed.")
				return nil
			}
			for _, name := range names {
				fmt.Fprintln(out, name)
			}
			return nil
		})
	},
}

var addCmd = &cobra.Command{
	Use:   "add NAME...",
	Short: "Add filenames to the list",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// All or nothing: a blank argument leaves the list untouched.
		for i, name := range args {
			if strings.TrimSpace(name) == "" {
				return withCode(exitcodes.InvalidConfig, fmt.Errorf("argument %d: %w", i+1, liststore.ErrEmptyName))
			}
		}
		return withApp(app.Options{}, func(a *app.App) error {
			for _, name := range args {
				if err := a.Session.AddName(name); err != nil {
					if errors.Is(err, liststore.ErrEmptyName) {
						return withCode(exitcodes.InvalidConfig, err)
					}
					return withCode(exitcodes.RuntimeError, err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d filename(s) listed\n", a.Store.Len())
			return nil
		})
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove NAME...",
	Short: "Remove filenames from the list",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(app.Options{}, func(a *app.App) error {
			for _, name := range args {
				if !a.Store.Contains(name) {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s is not in the list\n", name)
				}
				a.Session.RemoveName(name)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d filename(s) listed\n", a.Store.Len())
			return nil
		})
	},
}

var pathCmd = &cobra.Command{
	Use:   "path [FOLDER]",
	Short: "Show or change the target folder",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(app.Options{}, func(a *app.App) error {
			if len(args) == 1 {
				a.Session.SetTargetPath(args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.Store.Path())
			return nil
		})
	},
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(listCmd, addCmd, removeCmd, pathCmd)
}
