package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/seo-optimizer/opportunity/analysis"
	"github.com/seo-optimizer/opportunity/config"
	"github.com/seo-optimizer/opportunity/serp"
)

const mockAPISource = "Mock data"

var (
	configFile string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "opportunity",
	Short: "Keyword opportunity analysis service",
	Long: `Keyword opportunity analysis over the Value SERP search API.

Commands:
  opportunity serve      Run the HTTP service (default)
  opportunity analyze    Run one analysis and print the result
  opportunity batch      Process keyword batches from a config file
  opportunity monitor    Watch keyword interest and send alerts`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	SilenceUsage: true,
	RunE:         runServe,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config.LoadEnv()

		c, err := config.Load(configFile)
		if err != nil {
			return err
		}
		cfg = c
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "env-file", "",
		"Optional settings file (yaml, json, toml or .env); environment variables override it")
}

// Execute runs the root command until it finishes or the process is signalled
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// newAnalyzer returns an orchestrator over the Value SERP client and the key
// to use with it. Without a configured key it falls back to mock data.
func newAnalyzer(opts ...analysis.Option) (*analysis.Orchestrator, string) {
	if !cfg.HasServerKey() {
		log.Printf("[SERP] VALUE_SERP_API_KEY not configured, using mock data")
		opts = append(opts, analysis.WithAPISource(mockAPISource))
		return analysis.New(serp.MockProvider{}, opts...), "mock"
	}
	client := serp.NewClient(cfg.SerpBaseURL, cfg.SerpTimeout)
	return analysis.New(client, opts...), cfg.ValueSerpAPIKey
}
