package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/whereip/whereip/config"
	"github.com/whereip/whereip/provision"
)

func init() {
	rootCmd.AddCommand(updateCmd)
}

var updateCmd = &cobra.Command{
	Use:   "update [database ...]",
	Short: "Download database files from their configured sources",
	RunE:  update,
}

func update(cmd *cobra.Command, args []string) error {
	c, err := config.LoadOrCreate(*configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	downloader := provision.New(c)

	names := args
	if len(names) == 0 {
		// Update everything that has sources.
		for _, info := range c.Databases {
			if len(info.Sources) > 0 {
				names = append(names, info.Name)
			}
		}
	}

	var failed bool
	for _, name := range names {
		if err := downloader.FetchAndPlace(cmd.Context(), name); err != nil {
			slog.Error("database update failed", "name", name, "err", err)
			failed = true
			continue
		}
		fmt.Printf("updated %s\n", name)
	}
	if failed {
		return errors.New("some databases failed to update")
	}
	return nil
}
