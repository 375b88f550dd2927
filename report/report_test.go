package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seo-optimizer/opportunity/analysis"
	"github.com/seo-optimizer/opportunity/batch"
)

func sampleResult() *analysis.Result {
	return &analysis.Result{
		AnalysisID: "abc-123",
		Config:     analysis.RunConfig{Type: analysis.TypeKeywords, Location: "United States"},
		KeywordStats: []analysis.KeywordStat{
			{Keyword: "crm software", SearchVolume: 12000, CPCEstimate: 3.5, DistinctDomains: 4,
				CompetitionLevel: analysis.LevelLow, OpportunityScore: analysis.LevelHigh},
		},
		Phase2: &analysis.LookalikeDiscovery{
			ExpandedKeywords: []analysis.ExpandedKeyword{{
				Original: "crm software",
				Lookalikes: []analysis.LookalikeKeyword{
					{Keyword: "crm software tutorial", ResultCount: 7, Source: analysis.SourceReal},
				},
			}},
		},
		Phase3: &analysis.CompetitiveMatrix{
			TopCompetitors: []analysis.CompetitorEntry{
				{Domain: "hubspot.com", Appearances: 2, AvgPosition: 1.5, MarketSharePct: 100, StrengthScore: analysis.LevelHigh},
			},
		},
		Summary: analysis.Summary{TotalKeywords: 1, SuccessRate: 95.2, APISource: "ValueSerp API"},
	}
}

func TestRenderTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleResult(), FormatTable))

	out := buf.String()
	assert.Contains(t, strings.ToLower(out), "abc-123")
	assert.Contains(t, out, "crm software")
	assert.Contains(t, out, "hubspot.com")
	assert.Contains(t, out, "95.2%")
	assert.Contains(t, out, "7 (real)")
}

func TestRenderMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleResult(), FormatMarkdown))
	assert.Contains(t, buf.String(), "| crm software |")
}

func TestRenderCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleResult(), FormatCSV))
	assert.Contains(t, buf.String(), "hubspot.com,2,1.50,100%,high")
}

func TestRenderUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Render(&buf, sampleResult(), "pdf"))
}

func TestTablesSkipMissingPhases(t *testing.T) {
	r := sampleResult()
	r.Phase2, r.Phase3 = nil, nil
	assert.Len(t, Tables(r), 2)
}

func TestRenderBatch(t *testing.T) {
	r := &batch.Report{
		BatchID: "batch-1",
		Results: []batch.Result{
			{Index: 1, Batch: 1, Keyword: "crm", Location: "United States", Attempts: 1, Analysis: sampleResult()},
			{Index: 2, Batch: 1, Keyword: "crm", Location: "United Kingdom", Attempts: 3, Error: "quota exhausted"},
		},
		Summary: batch.Summary{TotalTasks: 2, TotalBatches: 1, Succeeded: 1, Failed: 1, Retries: 2},
	}

	var buf bytes.Buffer
	require.NoError(t, RenderBatch(&buf, r, FormatMarkdown))
	out := buf.String()
	assert.Contains(t, out, "United Kingdom")
	assert.Contains(t, out, "failed: quota exhausted")
	assert.Contains(t, strings.ToLower(out), "1 ok / 1 failed")
}
