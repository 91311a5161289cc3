package types

// ScanStatus labels the phase of a running scan.
type ScanStatus string

// Scan statuses reported to progress sinks.
const (
	ScanInitializing ScanStatus = "Initializing Scan"
	ScanScanning     ScanStatus = "Scanning"
	ScanCancelled    ScanStatus = "Cancelled"
	ScanError        ScanStatus = "Error"
	ScanCompleted    ScanStatus = "Completed"
)

// ScanProgress is one progress event for a location scan.
type ScanProgress struct {
	LocationID            string     `json:"location_id"`
	ScanID                string     `json:"scan_id"`
	Status                ScanStatus `json:"status"`
	CurrentPath           string     `json:"current_path,omitempty"`
	ProcessedItems        int        `json:"processed_items"`
	TotalItems            int        `json:"total_items"`
	CompletedSuccessfully bool       `json:"completed_successfully"`
	Error                 string     `json:"error,omitempty"`
}

// Terminal reports whether no further events follow this one.
func (p ScanProgress) Terminal() bool {
	return p.Status == ScanCancelled || p.Status == ScanError || p.Status == ScanCompleted
}
