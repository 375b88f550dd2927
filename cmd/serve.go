package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/seo-optimizer/opportunity/analysis"
	"github.com/seo-optimizer/opportunity/api"
	"github.com/seo-optimizer/opportunity/automation"
	"github.com/seo-optimizer/opportunity/logging"
	"github.com/seo-optimizer/opportunity/serp"
	"github.com/seo-optimizer/opportunity/sitescan"
	"github.com/seo-optimizer/opportunity/stats"
)

const (
	shutdownTimeout = 10 * time.Second
	retainMonths    = 1
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP service",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "Listen port (overrides PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	gin.SetMode(cfg.GinMode)

	port := cfg.Port
	if servePort != "" {
		port = servePort
	}

	statistics := logging.Initialize(cfg.DataDir, cfg.DevMode)

	storage, err := stats.NewStorage(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to open statistics storage: %w", err)
	}
	storage.Cleanup(retainMonths)

	runner, err := automation.NewRunner(cfg.AutomationCommand, cfg.AutomationTimeout)
	if err != nil {
		return err
	}

	client := serp.NewClient(cfg.SerpBaseURL, cfg.SerpTimeout)
	server := api.NewServer(api.Deps{
		Analyzer: analysis.New(client,
			analysis.WithScanner(sitescan.New()),
			analysis.WithRecorder(storage)),
		Fallback:      analysis.New(serp.MockProvider{}, analysis.WithAPISource(mockAPISource)),
		Runner:        runner,
		Statistics:    statistics,
		Storage:       storage,
		ServerKey:     serverKey(),
		AllowedOrigin: cfg.AllowedOrigin,
	})

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on http://localhost:%s\n", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			storage.Shutdown()
			return fmt.Errorf("failed to start server: %w", err)
		}
	case <-cmd.Context().Done():
		log.Println("Shutting down server...")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	if err := statistics.Save(); err != nil {
		log.Printf("Error saving statistics: %v", err)
	}
	if err := storage.Shutdown(); err != nil {
		log.Printf("Error flushing monthly statistics: %v", err)
	}

	log.Println("Server stopped")
	return nil
}

func serverKey() string {
	if cfg.HasServerKey() {
		return cfg.ValueSerpAPIKey
	}
	return ""
}
