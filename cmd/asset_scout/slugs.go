package main

import (
	"errors"
	"strings"

	"github.com/jonathan/asset-scout/internal/observability"
	"github.com/jonathan/asset-scout/internal/slugs"
	"github.com/spf13/cobra"
)

var slugsCmd = &cobra.Command{
	Use:   "slugs <asset name>",
	Short: "Print the marketplace slug variations for an asset name",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSlugs,
}

func init() {
	rootCmd.AddCommand(slugsCmd)
}

func runSlugs(cmd *cobra.Command, args []string) error {
	name := strings.TrimSpace(strings.Join(args, " "))
	if name == "" {
		return errors.New("asset name is required")
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintSlugs(slugs.Generate(name))
	return nil
}
