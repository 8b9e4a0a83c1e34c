// Package report renders refinement run statistics as a human table or as
// JSON, for the refbench CLI.
package report

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/sugawarayuuta/sonnet"
)

// Run holds the statistics collected from one RefineBackwardReferences call.
type Run struct {
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	CacheBits      int     `json:"cache_bits"`
	SeedTokens     int     `json:"seed_tokens"`
	RefinedTokens  int     `json:"refined_tokens"`
	TotalCostBits  float64 `json:"total_cost_bits"`
	PathLength     int     `json:"path_length"`
	PeakIntervals  int     `json:"peak_intervals"`
	OverflowEvents int64   `json:"overflow_events"`
	DurationMillis float64 `json:"duration_millis"`
}

// WriteTable renders runs as a colored table on w, using color to flag runs
// that hit interval-table overflow.
func WriteTable(w io.Writer, runs []Run) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Image", "Cache Bits", "Tokens", "Cost (bits)", "Path Len", "Peak Intervals", "Overflow", "Duration"})

	warn := color.New(color.FgYellow).SprintFunc()
	ok := color.New(color.FgGreen).SprintFunc()

	for _, r := range runs {
		overflowCell := ok("no")
		if r.OverflowEvents > 0 {
			overflowCell = warn(humanize.Comma(r.OverflowEvents))
		}
		t.AppendRow(table.Row{
			fmt.Sprintf("%dx%d", r.Width, r.Height),
			r.CacheBits,
			humanize.Comma(int64(r.RefinedTokens)),
			fmt.Sprintf("%.1f", r.TotalCostBits),
			humanize.Comma(int64(r.PathLength)),
			humanize.Comma(int64(r.PeakIntervals)),
			overflowCell,
			fmt.Sprintf("%.2fms", r.DurationMillis),
		})
	}
	t.Render()
}

// WriteJSON marshals runs as JSON using sonnet, a drop-in faster
// encoding/json replacement.
func WriteJSON(w io.Writer, runs []Run) error {
	b, err := sonnet.MarshalIndent(runs, "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(append(b, '\n'))
	return err
}
