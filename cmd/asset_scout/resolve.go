package main

import (
	"context"
	"fmt"

	"github.com/jonathan/asset-scout/internal/observability"
	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <slug-or-url>",
	Short: "Fetch one marketplace listing by slug or listing URL",
	Long:  `Look up a single listing through the product API, falling back to the product page.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
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

	listing, err := a.resolver.ResolveSlug(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", args[0], err)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintListing(listing)
	return nil
}
