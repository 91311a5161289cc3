package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/asset-scout/internal/observability"
	"github.com/jonathan/asset-scout/internal/ranking"
	"github.com/jonathan/asset-scout/internal/types"
	"github.com/spf13/cobra"
)

var (
	reprocessRefresh bool
)

var assetsCmd = &cobra.Command{
	Use:   "assets <location-id>",
	Short: "List the stored assets of a location",
	Args:  cobra.ExactArgs(1),
	RunE:  runAssets,
}

var manualMatchCmd = &cobra.Command{
	Use:   "manual-match <asset-id> <listing-url>",
	Short: "Attach a marketplace listing to an asset by URL",
	Long:  `Fetch the listing behind a marketplace URL and store it on the asset as a manual match with full confidence.`,
	Args:  cobra.ExactArgs(2),
	RunE:  runManualMatch,
}

var reprocessCmd = &cobra.Command{
	Use:   "reprocess <asset-id>",
	Short: "Rebuild an asset's listing details from stored marketplace data",
	Long: `Re-parse the marketplace document stored with an asset into its listing columns without any network access.
With --refresh the listing is fetched again from the marketplace instead; assets without a match are matched from scratch.`,
	Args: cobra.ExactArgs(1),
	RunE: runReprocess,
}

func init() {
	reprocessCmd.Flags().BoolVar(&reprocessRefresh, "refresh", false, "Fetch the listing from the marketplace instead of re-parsing stored data")
	rootCmd.AddCommand(assetsCmd)
	rootCmd.AddCommand(manualMatchCmd)
	rootCmd.AddCommand(reprocessCmd)
}

func runAssets(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if _, ok := cfg.Location(args[0]); !ok {
		return fmt.Errorf("unknown location %q", args[0])
	}
	ctx := context.Background()
	a, err := newApp(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer a.close()

	assets, err := a.db.ListAssetsByLocation(ctx, args[0])
	if err != nil {
		return err
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintAssets(assets)
	return nil
}

func runManualMatch(cmd *cobra.Command, args []string) error {
	assetID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid asset id %q: %w", args[0], err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()
	a, err := newApp(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer a.close()

	outcome, err := a.enricher.ManualMatch(ctx, assetID, args[1])
	if err != nil {
		return err
	}
	asset, err := a.db.GetAsset(ctx, assetID)
	if err != nil {
		return err
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintOutcome(asset.Name, outcome, nil)
	return nil
}

func runReprocess(cmd *cobra.Command, args []string) error {
	assetID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid asset id %q: %w", args[0], err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()
	a, err := newApp(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer a.close()

	update := a.enricher.Reprocess
	if reprocessRefresh {
		update = a.enricher.Refresh
	}
	asset, err := update(ctx, assetID)
	if err != nil {
		return err
	}

	printer := observability.NewPrinter(cmd.OutOrStdout())
	if asset.Listing == nil {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "No marketplace match for %s\n", asset.Name)
		return nil
	}
	printer.PrintListing(asset.Listing)
	if asset.MatchConfidence != nil && asset.MatchType != nil {
		b := ranking.NewEngine().Explain(asset.Name, asset.Category, asset.Listing)
		printer.PrintOutcome(asset.Name, outcomeOf(asset, b), &b)
	}
	return nil
}

// outcomeOf rebuilds the stored match decision of an asset.
func outcomeOf(asset *types.Asset, b ranking.Breakdown) types.MatchOutcome {
	return types.MatchOutcome{
		AssetID:    asset.ID,
		Listing:    asset.Listing,
		Confidence: *asset.MatchConfidence,
		Type:       *asset.MatchType,
		Reasons:    ranking.Reasons(b),
	}
}
