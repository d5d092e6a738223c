package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	rootCmd = &cobra.Command{
		Use:              "whereip",
		Short:            "Offline IP geolocation and CDN provider lookup",
		PersistentPreRun: setupLogging,
	}

	configFile = pflag.String("config", "", "set config file")
	logLevel   = pflag.String("log", "warn", "set log level")
)

func init() {
	rootCmd.PersistentFlags().AddFlagSet(pflag.CommandLine)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogging(cmd *cobra.Command, args []string) {
	level := slog.LevelWarn
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		level = slog.LevelWarn
	}

	logOutput := os.Stderr
	slog.SetDefault(slog.New(
		tint.NewHandler(colorable.NewColorable(logOutput), &tint.Options{
			Level:      level,
			TimeFormat: time.DateTime,
			NoColor:    !isatty.IsTerminal(logOutput.Fd()),
		}),
	))
}
