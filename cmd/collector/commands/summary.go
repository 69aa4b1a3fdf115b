package commands

import (
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"pianosheets/internal/models"
)

// printSummary renders the run counters and, when present, the failed items
func printSummary(w io.Writer, summary *models.RunSummary) {
	if summary == nil {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Collector run " + summary.RunID)
	t.AppendHeader(table.Row{"Sink", "Existing", "Discovered", "Skipped", "Successful", "Failed", "Duration", "Aborted"})
	t.AppendRow(table.Row{
		summary.Sink,
		summary.Existing,
		summary.Discovered,
		summary.Skipped,
		summary.Successful,
		summary.Failed,
		summary.Duration().Round(time.Second),
		summary.Aborted,
	})
	t.SetStyle(table.StyleRounded)
	t.Render()

	if summary.Failed == 0 {
		return
	}

	failed := table.NewWriter()
	failed.SetOutputMirror(w)
	failed.AppendHeader(table.Row{"Title", "Artist", "URL", "Reason"})
	for _, item := range summary.Items {
		if item.Status != models.ItemFailed {
			continue
		}
		failed.AppendRow(table.Row{item.Title, item.Artist, item.URL, item.Reason})
	}
	failed.SetStyle(table.StyleRounded)
	failed.Render()
}
