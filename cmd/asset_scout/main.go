// Package main provides the asset_scout CLI: it scans asset libraries, matches
// them against the Orbital Market and serves the HTTP API.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "asset_scout",
	Short: "Asset library scanner and marketplace matcher",
	Long: "asset_scout scans local asset libraries, finds each asset's Orbital Market listing " +
		"through the product API, product pages and search, and scores how confident the match is.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a JSON, TOML or YAML config file (env: ASSET_SCOUT_*)")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
