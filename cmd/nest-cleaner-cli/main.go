package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"nest-cleaner/internal/app"
	"nest-cleaner/internal/config"
	"nest-cleaner/internal/exitcodes"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "nest-cleaner-cli",
	Short: "Manage the Dragon Nest cleanup list and run it without the window",
	Long: `nest-cleaner-cli shares its settings, history and configuration with the
desktop window. Listed filenames are resolved against the target folder and
moved to the trash when a run is confirmed.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "Path to configuration file")
}

// exitError carries the process exit code for an error
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

// withApp opens the wired components for the duration of fn
func withApp(opts app.Options, fn func(a *app.App) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return withCode(exitcodes.InvalidConfig, fmt.Errorf("load config %s: %w", configPath, err))
	}
	a, err := app.Open(cfg, opts)
	if err != nil {
		return withCode(exitcodes.RuntimeError, err)
	}
	defer a.Close()
	return fn(a)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		code := exitcodes.InvalidConfig
		var ee *exitError
		if errors.As(err, &ee) {
			code = ee.code
		}
		os.Exit(code)
	}
}
