package main

import (
	"flag"
	"os"

	fyneapp "fyne.io/fyne/v2/app"

	"nest-cleaner/internal/app"
	"nest-cleaner/internal/config"
	"nest-cleaner/internal/exitcodes"
	"nest-cleaner/internal/logging"
	"nest-cleaner/internal/ui"
)

const appID = "com.dragonnest.nest-cleaner"

func main() {
	configPath := flag.String("config", config.DefaultPath(), "Path to configuration file")
	dryRun := flag.Bool("dry-run", false, "Count files without moving them to the trash")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.New().Error().Err(err).Str("config", *configPath).Msg("Failed to load config")
		os.Exit(exitcodes.InvalidConfig)
	}

	a, err := app.Open(cfg, app.Options{DryRun: *dryRun, ServeMetrics: true})
	if err != nil {
		logging.New().Error().Err(err).Msg("Failed to start")
		os.Exit(exitcodes.RuntimeError)
	}
	defer a.Close()

	a.Logger.Info().
		Str("config", *configPath).
		Str("settings", cfg.SettingsPath).
		Msg("Dragon Nest File Cleaner starting")

	window := ui.New(fyneapp.NewWithID(appID), a.Session, a.Logger)
	window.ShowAndRun()

	a.Logger.Info().Msg("Dragon Nest File Cleaner stopped")
}
