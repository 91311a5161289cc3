package db

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanRunStatuses(t *testing.T) {
	statuses := []string{ScanRunRunning, ScanRunCompleted, ScanRunCancelled, ScanRunFailed}

	seen := make(map[string]bool)
	for _, status := range statuses {
		assert.NotEmpty(t, status)
		assert.False(t, seen[status], "duplicate status %q", status)
		seen[status] = true
	}
}

func TestScanRun_OmitsCompletedAtWhileRunning(t *testing.T) {
	run := ScanRun{LocationID: "library", Status: ScanRunRunning}

	data, err := json.Marshal(run)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "completed_at")
	assert.Contains(t, string(data), `"status":"running"`)
}

func TestClose_WithoutPool(t *testing.T) {
	db := &DB{}
	assert.NotPanics(t, db.Close)
}
