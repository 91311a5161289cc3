package observability

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/jonathan/asset-scout/internal/types"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// maxTitleWidth caps free-text columns so rows stay on one line.
const maxTitleWidth = 48

func (p *Printer) renderTable(headers []string, rows [][]string, aligns []columnAlignment) {
	columns := len(headers)
	if columns == 0 {
		return
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(p.out)
	if p.terminal {
		tw.SetStyle(table.StyleRounded)
	} else {
		tw.SetStyle(table.StyleDefault)
	}

	header := make(table.Row, columns)
	for i := range columns {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
			WidthMax:    maxTitleWidth,
		})
	}
	tw.SetColumnConfigs(configs)
	tw.Render()
}

// PrintSlugs outputs the slug variations generated for name, in try order.
func (p *Printer) PrintSlugs(slugs []string) {
	rows := make([][]string, len(slugs))
	for i, slug := range slugs {
		rows[i] = []string{strconv.Itoa(i + 1), slug}
	}
	p.renderTable([]string{"#", "Slug"}, rows, []columnAlignment{alignRight, alignLeft})
}

// PrintListings outputs one row per candidate listing.
func (p *Printer) PrintListings(listings []types.Listing) {
	if len(listings) == 0 {
		fmt.Fprintln(p.out, "No listings found") //nolint:errcheck
		return
	}
	rows := make([][]string, len(listings))
	for i, l := range listings {
		rows[i] = []string{
			l.Slug,
			orDash(l.Title),
			orDash(l.Seller),
			orDash(strings.Join(l.Categories, ", ")),
			formatRating(l.RatingAverage, l.RatingCount),
			formatPrice(l.Price),
		}
	}
	p.renderTable(
		[]string{"Slug", "Title", "Seller", "Categories", "Rating", "Price"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight},
	)
}

// PrintAssets outputs the stored assets of a location with their match state.
func (p *Printer) PrintAssets(assets []types.Asset) {
	if len(assets) == 0 {
		fmt.Fprintln(p.out, "No assets found") //nolint:errcheck
		return
	}
	rows := make([][]string, len(assets))
	for i, a := range assets {
		match, slug := "-", "-"
		if a.MatchType != nil {
			match = string(*a.MatchType)
		}
		if a.MatchedSlug != nil {
			slug = *a.MatchedSlug
		}
		rows[i] = []string{a.Name, a.Category, match, formatConfidence(a.MatchConfidence), slug}
	}
	p.renderTable(
		[]string{"Name", "Category", "Match", "Confidence", "Slug"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	)
}
