package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jonathan/asset-scout/internal/observability"
	"github.com/jonathan/asset-scout/internal/ranking"
	"github.com/jonathan/asset-scout/internal/scan"
	"github.com/jonathan/asset-scout/internal/types"
	"github.com/spf13/cobra"
)

var (
	matchCategory string
)

var matchCmd = &cobra.Command{
	Use:   "match <asset name>",
	Short: "Find marketplace candidates for a name and score the best one",
	Long: `Run the API, page and search strategies for an asset name, list every candidate
and show the best match with its confidence breakdown. Nothing is stored.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runMatch,
}

func init() {
	matchCmd.Flags().StringVar(&matchCategory, "category", "", "Local category used for the category check (e.g. material, animation)")
	rootCmd.AddCommand(matchCmd)
}

func runMatch(cmd *cobra.Command, args []string) error {
	name := strings.TrimSpace(strings.Join(args, " "))
	if name == "" {
		return errors.New("asset name is required")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()
	a, err := newApp(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer a.close()

	listings, err := a.resolver.Resolve(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to resolve %q: %w", name, err)
	}

	printer := observability.NewPrinter(cmd.OutOrStdout())
	printer.PrintListings(listings)

	// An empty category skips the category check.
	var category string
	if matchCategory != "" {
		category = scan.NormalizeCategory(matchCategory)
	}
	engine := ranking.NewEngine()
	outcome := engine.Best(&types.Asset{Name: name, Category: category}, listings)

	var breakdown *ranking.Breakdown
	if outcome.Listing != nil {
		b := engine.Explain(name, category, outcome.Listing)
		breakdown = &b
	}
	printer.PrintOutcome(name, outcome, breakdown)
	return nil
}
