package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tekfaso/urgelec/internal/cli"
	"github.com/tekfaso/urgelec/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	logger := log.Level(level).With().Str("service", "urgelec").Logger()

	app := &cli.App{Config: cfg, Logger: logger}

	rootCmd := &cobra.Command{
		Use:   "urgelec",
		Short: "urgelec - report and track electrical-service emergencies",
	}
	rootCmd.AddCommand(cli.ReportCmd(app))
	rootCmd.AddCommand(cli.TrackCmd(app))
	rootCmd.AddCommand(cli.ListCmd(app))
	rootCmd.AddCommand(cli.LoginCmd(app))
	rootCmd.AddCommand(cli.LogoutCmd(app))
	rootCmd.AddCommand(cli.StubCmd(app))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
