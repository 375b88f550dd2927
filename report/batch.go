package report

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/seo-optimizer/opportunity/batch"
)

// RenderBatch writes one row per task followed by the totals
func RenderBatch(w io.Writer, r *batch.Report, format string) error {
	render, err := renderer(format)
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetTitle("Batch " + r.BatchID)
	t.AppendHeader(table.Row{"#", "Batch", "Keyword", "Location", "Attempts", "Opportunities", "Status"})
	for _, res := range r.Results {
		status, opportunities := "ok", "-"
		switch {
		case res.Error != "":
			status = "failed: " + res.Error
		case res.Degraded:
			status = "degraded"
		}
		if res.Analysis != nil {
			opportunities = fmt.Sprint(res.Analysis.Summary.OpportunitiesIdentified)
		}
		t.AppendRow(table.Row{res.Index, res.Batch, res.Keyword, res.Location, res.Attempts, opportunities, status})
	}
	t.AppendFooter(table.Row{"", r.Summary.TotalBatches, "Total", r.Summary.TotalTasks, r.Summary.Retries,
		fmt.Sprintf("%d ok / %d failed", r.Summary.Succeeded, r.Summary.Failed), fmt.Sprintf("%dms", r.Summary.DurationMs)})

	_, err = fmt.Fprintln(w, render(t))
	return err
}
