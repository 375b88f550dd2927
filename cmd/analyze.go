package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/seo-optimizer/opportunity/analysis"
	"github.com/seo-optimizer/opportunity/report"
	"github.com/seo-optimizer/opportunity/sitescan"
)

var (
	analyzeKeywords []string
	analyzeLocation string
	analyzeType     string
	analyzePhases   []string
	analyzeFormat   string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [config-json]",
	Short: "Run one analysis and print the result",
	Long: `Run one three-phase analysis.

The optional argument is a JSON request such as
  {"analysisType":"keywords","data":["crm software"],"location":"United States"}
Flags override fields of the JSON request. The API key is read from
VALUE_SERP_API_KEY; without it mock data is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringSliceVarP(&analyzeKeywords, "keywords", "k", nil, "Keywords or URLs to analyse")
	analyzeCmd.Flags().StringVarP(&analyzeLocation, "location", "l", "", "Search location")
	analyzeCmd.Flags().StringVarP(&analyzeType, "type", "t", "", "Analysis type: keywords or urls")
	analyzeCmd.Flags().StringSliceVar(&analyzePhases, "phases", nil, "Phases to run (phase1,phase2,phase3)")
	analyzeCmd.Flags().StringVarP(&analyzeFormat, "format", "f", "json", "Output format: json, table, markdown or csv")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	var req analysis.Request
	if len(args) == 1 {
		if err := json.Unmarshal([]byte(args[0]), &req); err != nil {
			return fmt.Errorf("invalid config argument: %w", err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("keywords") {
		req.Data = analyzeKeywords
	}
	if flags.Changed("location") {
		req.Location = analyzeLocation
	}
	if flags.Changed("type") {
		req.AnalysisType = analyzeType
	}
	if flags.Changed("phases") {
		req.Phases = analyzePhases
	}

	orchestrator, key := newAnalyzer(analysis.WithScanner(sitescan.New()))
	if strings.TrimSpace(req.APIKey) == "" {
		req.APIKey = key
	}

	result, err := orchestrator.Run(cmd.Context(), req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if strings.EqualFold(analyzeFormat, "json") {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	return report.Render(out, result, analyzeFormat)
}
