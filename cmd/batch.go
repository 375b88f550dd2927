package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/seo-optimizer/opportunity/batch"
	"github.com/seo-optimizer/opportunity/report"
)

var (
	batchConfig string
	batchOut    string
	batchFormat string
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Process keyword batches from a config file",
	RunE:  runBatch,
}

func init() {
	batchCmd.Flags().StringVarP(&batchConfig, "config", "c", "batch.yaml", "Batch config file")
	batchCmd.Flags().StringVarP(&batchOut, "out", "o", "", "Write the JSON report to this file and each batch next to it")
	batchCmd.Flags().StringVar(&batchFormat, "format", report.FormatTable, "Summary format: table, markdown or csv")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	bc, err := batch.LoadConfig(batchConfig)
	if err != nil {
		return err
	}

	var opts []batch.Option
	if batchOut != "" {
		opts = append(opts, batch.WithOutputDir(filepath.Dir(batchOut)))
	}

	orchestrator, key := newAnalyzer()
	result, runErr := batch.NewProcessor(orchestrator, key, opts...).Process(cmd.Context(), *bc)
	if result == nil {
		return runErr
	}

	var out io.Writer = cmd.OutOrStdout()
	summary := cmd.ErrOrStderr()
	if batchOut != "" {
		f, err := os.Create(batchOut)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", batchOut, err)
		}
		defer f.Close()
		out = f
		summary = cmd.OutOrStdout()
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("failed to write batch report: %w", err)
	}

	if err := report.RenderBatch(summary, result, batchFormat); err != nil {
		return err
	}
	return runErr
}
