package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// getBinaryPath returns the path to the asset_scout binary for testing
func getBinaryPath(t *testing.T) string {
	binaryName := "asset_scout"
	if testing.Short() {
		t.Skip("Skipping CLI tests in short mode")
	}

	binaryPath := filepath.Join("..", "..", "bin", binaryName)
	if _, err := os.Stat(binaryPath); os.IsNotExist(err) {
		t.Skipf("Binary not found at %s, build it first with 'go build -o bin/asset_scout ./cmd/asset_scout'", binaryPath)
	}

	return binaryPath
}

// executeCommand runs the root command in-process and returns its stdout.
// Package-level flag values are reset first since cobra keeps them between runs.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	configPath = ""
	scanAll = false
	matchCategory = ""
	reprocessRefresh = false
	servePort = 0

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

// isolateEnv clears settings a developer .env may carry.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DATABASE_URL", "ASSET_SCOUT_DATABASE_URL",
		"SELECTORS_FILE", "ASSET_SCOUT_MARKETPLACE_SELECTORS_FILE",
		"REDIS_URL", "ASSET_SCOUT_CACHE_REDIS_URL", "ASSET_SCOUT_CACHE_TYPE",
		"ASSET_SCOUT_MARKETPLACE_BASE_URL",
	} {
		t.Setenv(key, "")
	}
}
