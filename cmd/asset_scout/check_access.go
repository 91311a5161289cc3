package main

import (
	"context"
	"fmt"

	"github.com/jonathan/asset-scout/internal/marketplace"
	"github.com/spf13/cobra"
)

var checkAccessCmd = &cobra.Command{
	Use:   "check-access",
	Short: "Check that the marketplace answers anonymous requests",
	RunE:  runCheckAccess,
}

func init() {
	rootCmd.AddCommand(checkAccessCmd)
}

func runCheckAccess(cmd *cobra.Command, _ []string) error {
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

	ok, err := marketplace.CheckPublicAccess(ctx, a.fetcher, a.endpoints)
	if err != nil {
		return fmt.Errorf("marketplace unreachable: %w", err)
	}
	if !ok {
		return fmt.Errorf("%s did not return a marketplace page", a.endpoints.BaseURL())
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ %s is publicly accessible\n", a.endpoints.BaseURL())
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  Session: %s\n", sessionLabel(a.auth))
	return nil
}

func sessionLabel(auth marketplace.Authenticator) string {
	if auth.Authenticated() {
		return "signed in"
	}
	return "anonymous (public endpoints only)"
}
