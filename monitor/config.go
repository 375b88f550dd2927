package monitor

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/seo-optimizer/opportunity/analysis"
)

const (
	DefaultSchedule       = "0 * * * *"
	DefaultAlertThreshold = 20.0
	DefaultAlertCooldown  = time.Hour
)

// Config describes what the monitor watches and where alerts go
type Config struct {
	Keywords       []string      `yaml:"keywords"`
	Locations      []string      `yaml:"locations"`
	Schedule       string        `yaml:"schedule"`
	AlertThreshold float64       `yaml:"alertThreshold"`
	AlertCooldown  time.Duration `yaml:"alertCooldown"`
	// DataDir receives one JSON snapshot per cycle; empty disables saving
	DataDir       string        `yaml:"dataDir"`
	Notifications Notifications `yaml:"notifications"`
}

type Notifications struct {
	Slack   SlackConfig   `yaml:"slack"`
	Webhook WebhookConfig `yaml:"webhook"`
}

type SlackConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhookUrl"`
	Channel    string `yaml:"channel"`
}

type WebhookConfig struct {
	Enabled bool              `yaml:"enabled"`
	URL     string            `yaml:"url"`
	Headers map[string]string `yaml:"headers"`
}

// LoadConfig reads a YAML (or JSON) monitor config from path
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read monitor config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse monitor config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate applies defaults and checks the schedule and notification targets
func (c *Config) Validate() error {
	keywords := make([]string, 0, len(c.Keywords))
	for _, k := range c.Keywords {
		if k = strings.TrimSpace(k); k != "" {
			keywords = append(keywords, k)
		}
	}
	if len(keywords) == 0 {
		return fmt.Errorf("monitor config has no keywords")
	}
	c.Keywords = keywords

	if len(c.Locations) == 0 {
		c.Locations = []string{analysis.DefaultLocation}
	}
	if c.AlertThreshold <= 0 {
		c.AlertThreshold = DefaultAlertThreshold
	}
	if c.AlertCooldown <= 0 {
		c.AlertCooldown = DefaultAlertCooldown
	}

	if strings.TrimSpace(c.Schedule) == "" {
		c.Schedule = DefaultSchedule
	}
	c.Schedule = normalizeCron(c.Schedule)
	if _, err := cronParser.Parse(c.Schedule); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", c.Schedule, err)
	}

	if c.Notifications.Slack.Enabled && c.Notifications.Slack.WebhookURL == "" {
		return fmt.Errorf("slack notifications enabled without webhookUrl")
	}
	if c.Notifications.Webhook.Enabled && c.Notifications.Webhook.URL == "" {
		return fmt.Errorf("webhook notifications enabled without url")
	}
	return nil
}

var cronParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// normalizeCron prepends "0 " to standard 5-field expressions so they work
// with the 6-field (with seconds) parser.
func normalizeCron(schedule string) string {
	schedule = strings.TrimSpace(schedule)
	if len(strings.Fields(schedule)) == 5 {
		return "0 " + schedule
	}
	return schedule
}
