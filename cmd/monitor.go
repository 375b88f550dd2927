package cmd

import (
	"encoding/json"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/seo-optimizer/opportunity/analysis"
	"github.com/seo-optimizer/opportunity/monitor"
)

var (
	monitorConfig string
	monitorOnce   bool
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Watch keyword interest and send alerts",
	RunE:  runMonitor,
}

func init() {
	monitorCmd.Flags().StringVarP(&monitorConfig, "config", "c", "monitor.yaml", "Monitor config file")
	monitorCmd.Flags().BoolVar(&monitorOnce, "once", false, "Run a single cycle and print the observations")
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	mc, err := monitor.LoadConfig(monitorConfig)
	if err != nil {
		return err
	}

	if mc.DataDir == "" {
		mc.DataDir = filepath.Join(cfg.DataDir, "monitoring")
	}

	m := monitor.New(mc, analysis.NewRandomEstimator(), monitor.Notifiers(mc.Notifications)...)
	if !monitorOnce {
		return m.Run(cmd.Context())
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(m.RunCycle(cmd.Context()))
}
