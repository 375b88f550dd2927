package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/seo-optimizer/opportunity/analysis"
)

// Output formats accepted by Render
const (
	FormatTable    = "table"
	FormatMarkdown = "markdown"
	FormatCSV      = "csv"
)

// Render writes result to w as a set of tables
func Render(w io.Writer, result *analysis.Result, format string) error {
	render, err := renderer(format)
	if err != nil {
		return err
	}

	for _, t := range Tables(result) {
		if _, err := fmt.Fprintln(w, render(t)); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}

func renderer(format string) (func(table.Writer) string, error) {
	switch strings.ToLower(format) {
	case "", FormatTable:
		return func(t table.Writer) string {
			t.SetStyle(table.StyleRounded)
			return t.Render()
		}, nil
	case FormatMarkdown:
		return func(t table.Writer) string { return t.RenderMarkdown() }, nil
	case FormatCSV:
		return func(t table.Writer) string { return t.RenderCSV() }, nil
	default:
		return nil, fmt.Errorf("unknown report format %q (want table, markdown or csv)", format)
	}
}

// Tables builds the summary, keyword, competitor and lookalike tables
func Tables(result *analysis.Result) []table.Writer {
	tables := []table.Writer{summaryTable(result), keywordTable(result)}
	if result.Phase3 != nil && len(result.Phase3.TopCompetitors) > 0 {
		tables = append(tables, competitorTable(result.Phase3.TopCompetitors))
	}
	if result.Phase2 != nil && len(result.Phase2.ExpandedKeywords) > 0 {
		tables = append(tables, lookalikeTable(result.Phase2))
	}
	return tables
}

func summaryTable(result *analysis.Result) table.Writer {
	s := result.Summary
	t := table.NewWriter()
	t.SetTitle("Analysis " + result.AnalysisID)
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"Type", result.Config.Type},
		{"Location", result.Config.Location},
		{"Total keywords", s.TotalKeywords},
		{"Phases completed", s.PhasesCompleted},
		{"Provider calls", s.ProviderCalls},
		{"Fallback queries", len(s.FallbackQueries)},
		{"Opportunities identified", s.OpportunitiesIdentified},
		{"Success rate", fmt.Sprintf("%.1f%%", s.SuccessRate)},
		{"API source", s.APISource},
	})
	return t
}

func keywordTable(result *analysis.Result) table.Writer {
	t := table.NewWriter()
	t.SetTitle("Keyword statistics")
	t.AppendHeader(table.Row{"Keyword", "Search volume", "CPC", "Domains", "Competition", "Opportunity"})
	for _, k := range result.KeywordStats {
		t.AppendRow(table.Row{
			k.Keyword,
			k.SearchVolume,
			fmt.Sprintf("$%.2f", k.CPCEstimate),
			k.DistinctDomains,
			k.CompetitionLevel,
			k.OpportunityScore,
		})
	}
	return t
}

func competitorTable(competitors []analysis.CompetitorEntry) table.Writer {
	t := table.NewWriter()
	t.SetTitle("Top competitors")
	t.AppendHeader(table.Row{"#", "Domain", "Appearances", "Avg position", "Market share", "Strength"})
	for i, c := range competitors {
		t.AppendRow(table.Row{
			i + 1,
			c.Domain,
			c.Appearances,
			fmt.Sprintf("%.2f", c.AvgPosition),
			fmt.Sprintf("%d%%", c.MarketSharePct),
			c.StrengthScore,
		})
	}
	return t
}

func lookalikeTable(discovery *analysis.LookalikeDiscovery) table.Writer {
	t := table.NewWriter()
	t.SetTitle("Lookalike keywords")
	t.AppendHeader(table.Row{"Seed", "Lookalike", "Search volume", "Competition", "Opportunity", "Results"})
	for _, e := range discovery.ExpandedKeywords {
		for _, la := range e.Lookalikes {
			results := "-"
			if la.Source != "" {
				results = fmt.Sprintf("%d (%s)", la.ResultCount, la.Source)
			}
			t.AppendRow(table.Row{e.Original, la.Keyword, la.SearchVolume, la.CompetitionLevel, la.OpportunityScore, results})
		}
	}
	return t
}
