package db

import (
	"time"

	"github.com/google/uuid"
)

// ScanRun is the audit record of one location scan
type ScanRun struct {
	ID          uuid.UUID  `json:"id"`
	LocationID  string     `json:"location_id"`
	Status      string     `json:"status"`
	Processed   int        `json:"processed"`
	Total       int        `json:"total"`
	Failures    int        `json:"failures"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Scan run statuses
const (
	ScanRunRunning   = "running"
	ScanRunCompleted = "completed"
	ScanRunCancelled = "cancelled"
	ScanRunFailed    = "failed"
)
