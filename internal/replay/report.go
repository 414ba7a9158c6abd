package replay

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/okian/posecom/internal/adapters/export"
	"github.com/okian/posecom/internal/domain/source"
)

// Report is the outcome of a run.
type Report struct {
	SessionID  string
	Drive      source.Stats
	Accepted   int
	Duplicates int
	Rejected   int
	Frames     []export.FrameSummary
	Output     string
}

// Render writes a per-frame table followed by the run totals.
func (r Report) Render(w io.Writer) error {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Frame", "Timestamp", "Joints", "Avg Visibility", "COM X", "COM Y"})
	for _, f := range r.Frames {
		t.AppendRow(table.Row{
			f.Frame,
			fmt.Sprintf("%.3f", f.Timestamp),
			f.DetectedJoints,
			fmt.Sprintf("%.3f", f.AvgVisibility),
			optional(f.TotalBodyCOMX),
			optional(f.TotalBodyCOMY),
		})
	}
	t.AppendFooter(table.Row{"", "", "", "", "Frames", len(r.Frames)})
	t.Render()

	s := table.NewWriter()
	s.SetOutputMirror(w)
	s.AppendRows([]table.Row{
		{"Session", r.SessionID},
		{"Processed", r.Drive.Frames},
		{"Skipped", r.Drive.Skipped},
		{"Accepted", r.Accepted},
		{"Duplicates", r.Duplicates},
		{"Rejected", r.Rejected},
		{"Elapsed", r.Drive.Elapsed.Round(time.Millisecond).String()},
		{"Output", r.Output},
	})
	s.Render()
	return nil
}

func optional(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 4, 64)
}
