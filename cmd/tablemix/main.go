// Package main is the tablemix command: it reads attendees from a CSV file,
// arranges them into diverse tables and writes the seating plan.
//
// Usage:
//
//	tablemix --config config.yml
//	tablemix --config config.yml --log-level debug
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "tablemix",
	Short: "Arrange attendees into diverse tables",
	Long: `tablemix assigns attendees to fixed-size tables so that each table mixes
the configured attributes (role, office, gender, ...) as evenly as possible.

Press Ctrl+C at any time to stop; the best arrangement found so far is still written.`,
	SilenceUsage: true,
	RunE:         runOptimize,
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "config.yml", "Path to the YAML configuration file")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn or error")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
