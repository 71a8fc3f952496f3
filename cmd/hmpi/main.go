// Package main is the entry point for the hmpi CLI: the HTTP service plus
// offline analysis, report validation, and mock data generation.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "hmpi",
	Short: "Groundwater heavy metal pollution index service",
	Long: `hmpi normalizes groundwater survey sheets, scores every sample with the
Heavy Metal Pollution Index, and classifies it as Safe, Moderate Risk, or
High Risk.

Run "hmpi serve" for the HTTP API, or use analyze, validate, and mock to work
with files offline.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "YAML config file (environment variables take precedence)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
