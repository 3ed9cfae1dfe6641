package runner

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
)

// RenderSummary formats the per-cycle results as a terminal table so the
// operator can see at a glance which cycles left stragglers.
func RenderSummary(summaries []CycleSummary) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Cycle", "Auth", "Attempted", "Succeeded", "Timed out", "Skipped", "Failed", "Duration"})

	var attempted, succeeded int
	for _, s := range summaries {
		auth := "ok"
		if !s.AuthOK {
			auth = "failed"
		}
		cycleLabel := fmt.Sprintf("%d", s.Cycle)
		if s.Halted {
			cycleLabel += " (halted)"
		}

		t.AppendRow(table.Row{
			cycleLabel, auth, s.Attempted, s.Succeeded, s.TimedOut, s.Skipped, s.Failed,
			s.Duration.Round(time.Millisecond),
		})
		attempted += s.Attempted
		succeeded += s.Succeeded
	}

	t.AppendFooter(table.Row{"total", "", attempted, succeeded, "", "", "", ""})

	return t.Render()
}
