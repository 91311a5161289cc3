// Package observability provides formatted output for the CLI.
package observability

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/jonathan/asset-scout/internal/ranking"
	"github.com/jonathan/asset-scout/internal/scan"
	"github.com/jonathan/asset-scout/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 72
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for the CLI.
type Printer struct {
	out      io.Writer
	terminal bool
}

// NewPrinter creates a new Printer that writes to the given writer. Tables use
// rounded borders when out is a terminal and plain ASCII otherwise.
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out, terminal: isTerminal(out)}
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(strings.TrimRight(content, "\n"), "\n") {
		if r := []rune(line); len(r) > boxWidth-4 {
			line = string(r[:boxWidth-7]) + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintListing outputs the details of one marketplace listing.
func (p *Printer) PrintListing(listing *types.Listing) {
	if listing == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Slug:       %s\n", listing.Slug))
	sb.WriteString(fmt.Sprintf("Seller:     %s\n", orDash(listing.Seller)))
	sb.WriteString(fmt.Sprintf("Categories: %s\n", orDash(strings.Join(listing.Categories, ", "))))
	sb.WriteString(fmt.Sprintf("Versions:   %s\n", orDash(strings.Join(listing.SupportedVersions, ", "))))
	sb.WriteString(fmt.Sprintf("Price:      %s\n", formatPrice(listing.Price)))
	sb.WriteString(fmt.Sprintf("Rating:     %s\n", formatRating(listing.RatingAverage, listing.RatingCount)))
	if listing.ReleaseDate != nil {
		sb.WriteString(fmt.Sprintf("Released:   %s\n", listing.ReleaseDate.Format("2006-01-02")))
	}
	if listing.SourceURL != "" {
		sb.WriteString(fmt.Sprintf("Source:     %s\n", listing.SourceURL))
	}
	if listing.Description != "" {
		sb.WriteString("\n")
		sb.WriteString(listing.Description)
		sb.WriteString("\n")
	}
	if n := len(listing.GalleryImages); n > 0 {
		sb.WriteString(fmt.Sprintf("\n%d gallery images\n", n))
	}

	p.printBox(orDash(listing.Title), sb.String())
}

// PrintOutcome outputs a match decision for an asset together with the score
// breakdown that produced it.
func (p *Printer) PrintOutcome(assetName string, outcome types.MatchOutcome, breakdown *ranking.Breakdown) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Match:      %s\n", outcome.Type))
	sb.WriteString(fmt.Sprintf("Confidence: %.1f%%\n", outcome.Confidence*100))
	if outcome.Listing != nil {
		sb.WriteString(fmt.Sprintf("Listing:    %s (%s)\n", outcome.Listing.Title, outcome.Listing.Slug))
	}

	if breakdown != nil {
		sb.WriteString("\nSignals:\n")
		if breakdown.HasName {
			sb.WriteString(fmt.Sprintf("  name         %.3f\n", breakdown.Name))
		}
		sb.WriteString(fmt.Sprintf("  category     %t\n", breakdown.CategoryCompatible))
		if breakdown.HasDescription {
			sb.WriteString(fmt.Sprintf("  description  %.3f\n", breakdown.Description))
		}
	}

	if len(outcome.Reasons) > 0 {
		sb.WriteString("\nReasons:\n")
		for _, reason := range outcome.Reasons {
			sb.WriteString(fmt.Sprintf("  • %s\n", reason))
		}
	}

	p.printBox(fmt.Sprintf("MATCH: %s", assetName), sb.String())
}

// PrintSummary outputs the counters of a finished scan.
func (p *Printer) PrintSummary(summary *scan.Summary) {
	if summary == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Folders:   %d/%d processed\n", summary.Processed, summary.Total))
	sb.WriteString(fmt.Sprintf("Added:     %d\n", summary.Added))
	sb.WriteString(fmt.Sprintf("Refreshed: %d\n", summary.Refreshed))
	sb.WriteString(fmt.Sprintf("Skipped:   %d\n", summary.Skipped))
	sb.WriteString(fmt.Sprintf("Matched:   %d\n", summary.Matched))
	if summary.Cancelled {
		sb.WriteString("Cancelled before completion\n")
	}

	if len(summary.Failures) > 0 {
		sb.WriteString(fmt.Sprintf("\nFailures (%d):\n", len(summary.Failures)))
		count := min(len(summary.Failures), maxItemsToShow)
		for _, f := range summary.Failures[:count] {
			sb.WriteString(fmt.Sprintf("  ✗ %s\n", f.Error()))
		}
		if len(summary.Failures) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(summary.Failures)-maxItemsToShow))
		}
	}

	p.printBox(fmt.Sprintf("SCAN: %s", summary.LocationID), sb.String())
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatPrice(price *float64) string {
	switch {
	case price == nil:
		return "-"
	case *price == 0:
		return "Free"
	default:
		return fmt.Sprintf("$%.2f", *price)
	}
}

func formatRating(avg *float64, count *int) string {
	if avg == nil {
		return "-"
	}
	if count == nil {
		return fmt.Sprintf("%.1f", *avg)
	}
	return fmt.Sprintf("%.1f (%d)", *avg, *count)
}

func formatConfidence(c *float64) string {
	if c == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", *c*100)
}
