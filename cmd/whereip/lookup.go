package main

import (
	"fmt"
	"net/netip"
	"strings"

	"github.com/spf13/cobra"

	"github.com/whereip/whereip/config"
	"github.com/whereip/whereip/geo"
	"github.com/whereip/whereip/provision"
	"github.com/whereip/whereip/registry"
)

func init() {
	rootCmd.AddCommand(lookupCmd)
}

var lookupCmd = &cobra.Command{
	Use:   "lookup <ip or domain> ...",
	Short: "Look up IP addresses and domains offline",
	Args:  cobra.MinimumNArgs(1),
	RunE:  lookup,
}

func lookup(cmd *cobra.Command, args []string) error {
	c, err := config.LoadOrCreate(*configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	reg := registry.New(c, provision.New(c))

	for _, arg := range args {
		if ip, err := netip.ParseAddr(arg); err == nil {
			record, err := reg.ResolveIP(cmd.Context(), ip)
			if err != nil {
				return fmt.Errorf("lookup %s: %w", arg, err)
			}
			printIP(arg, record)
			continue
		}

		record, err := reg.ResolveCDN(cmd.Context(), arg)
		if err != nil {
			return fmt.Errorf("lookup %s: %w", arg, err)
		}
		printCDN(arg, record)
	}
	return nil
}

func printIP(query string, record *geo.Record) {
	if record == nil {
		fmt.Printf("%s [unknown]\n", query)
		return
	}

	parts := make([]string, 0, 4)
	for _, part := range []string{record.Country, record.Region, record.City, record.ISP} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	if len(parts) == 0 {
		fmt.Printf("%s [unknown]\n", query)
		return
	}
	fmt.Printf("%s [%s]\n", query, strings.Join(parts, " "))
}

func printCDN(query string, record *geo.CDNRecord) {
	if record == nil {
		fmt.Printf("%s [unknown]\n", query)
		return
	}
	fmt.Printf("%s [%s]\n", query, record.Provider)
}
