package batch

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/seo-optimizer/opportunity/analysis"
)

const (
	DefaultBatchSize  = 5
	DefaultMaxWorkers = 4
	DefaultRetryDelay = 5 * time.Second
)

// Config describes one batch job. Every keyword x location pair is one task;
// tasks are grouped into batches of BatchSize and each batch runs on at most
// MaxWorkers goroutines.
type Config struct {
	Keywords            []string      `yaml:"keywords" json:"keywords"`
	Locations           []string      `yaml:"locations" json:"locations"`
	BatchSize           int           `yaml:"batchSize" json:"batchSize"`
	MaxWorkers          int           `yaml:"maxWorkers" json:"maxWorkers"`
	DelayBetweenBatches time.Duration `yaml:"delayBetweenBatches" json:"delayBetweenBatches"`
	RetryAttempts       int           `yaml:"retryAttempts" json:"retryAttempts"`
	RetryDelay          time.Duration `yaml:"retryDelay" json:"retryDelay"`
	AnalysisType        string        `yaml:"analysisType" json:"analysisType"`
	Phases              []string      `yaml:"phases" json:"phases,omitempty"`
}

// LoadConfig reads a YAML (or JSON) batch config from path
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse batch config %s: %w", path, err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() error {
	keywords := make([]string, 0, len(c.Keywords))
	for _, k := range c.Keywords {
		if k = strings.TrimSpace(k); k != "" {
			keywords = append(keywords, k)
		}
	}
	c.Keywords = keywords
	if len(c.Keywords) == 0 {
		return fmt.Errorf("batch config has no keywords")
	}

	if len(c.Locations) == 0 {
		c.Locations = []string{analysis.DefaultLocation}
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.MaxWorkers <= 0 {
		c.MaxWorkers = DefaultMaxWorkers
	}
	if c.DelayBetweenBatches < 0 {
		c.DelayBetweenBatches = 0
	}
	if c.RetryAttempts < 0 {
		c.RetryAttempts = 0
	}
	if c.RetryAttempts > 0 && c.RetryDelay <= 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	if c.AnalysisType == "" {
		c.AnalysisType = analysis.TypeKeywords
	}
	return nil
}
