package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the service settings
type Config struct {
	Port              string
	GinMode           string
	DevMode           bool
	DataDir           string
	AllowedOrigin     string
	ValueSerpAPIKey   string
	SerpBaseURL       string
	SerpTimeout       time.Duration
	AutomationCommand string
	AutomationTimeout time.Duration
}

// LoadEnv loads .env.development, falling back to .env. Variables already set
// in the environment win.
func LoadEnv() {
	if err := godotenv.Load(".env.development"); err != nil {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found, using environment variables")
		}
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8082")
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("DEV_MODE", false)
	v.SetDefault("DATA_DIR", "./data")
	v.SetDefault("ALLOWED_ORIGIN", "*")
	v.SetDefault("VALUE_SERP_API_KEY", "")
	v.SetDefault("VALUE_SERP_BASE_URL", "https://api.valueserp.com")
	v.SetDefault("SERP_TIMEOUT", "30s")
	v.SetDefault("AUTOMATION_COMMAND", "")
	v.SetDefault("AUTOMATION_TIMEOUT", "5m")
}

// Load reads configuration from the environment and, when configFile is set,
// from that file. Environment variables override file values.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	cfg := &Config{
		Port:              v.GetString("PORT"),
		GinMode:           v.GetString("GIN_MODE"),
		DevMode:           v.GetBool("DEV_MODE"),
		DataDir:           v.GetString("DATA_DIR"),
		AllowedOrigin:     v.GetString("ALLOWED_ORIGIN"),
		ValueSerpAPIKey:   v.GetString("VALUE_SERP_API_KEY"),
		SerpBaseURL:       v.GetString("VALUE_SERP_BASE_URL"),
		SerpTimeout:       v.GetDuration("SERP_TIMEOUT"),
		AutomationCommand: v.GetString("AUTOMATION_COMMAND"),
		AutomationTimeout: v.GetDuration("AUTOMATION_TIMEOUT"),
	}

	if cfg.SerpTimeout <= 0 {
		return nil, fmt.Errorf("SERP_TIMEOUT must be positive")
	}
	if cfg.AutomationTimeout <= 0 {
		return nil, fmt.Errorf("AUTOMATION_TIMEOUT must be positive")
	}

	return cfg, nil
}

// HasServerKey reports whether a usable Value SERP key is configured
func (c *Config) HasServerKey() bool {
	return c.ValueSerpAPIKey != "" && c.ValueSerpAPIKey != "your_valueserp_api_key_here"
}
