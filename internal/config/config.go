package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Model     ModelConfig     `yaml:"model"`
	Selector  SelectorConfig  `yaml:"selector"`
	Generator GeneratorConfig `yaml:"generator"`
	Repair    RepairConfig    `yaml:"repair"`
	Cache     CacheConfig     `yaml:"cache"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Trace     TraceConfig     `yaml:"trace"`
}

type ModelConfig struct {
	Provider string `yaml:"provider"`
	BaseURL  string `yaml:"base_url"`
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	Timeout  string `yaml:"timeout"`
}

// CallTimeout parses the configured timeout, defaulting to 30s.
func (m ModelConfig) CallTimeout() time.Duration {
	if m.Timeout == "" {
		return 30 * time.Second
	}
	d, err := time.ParseDuration(m.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// SelectorConfig holds the action-selection scoring weights and the
// confidence/margin policy. Zero values are replaced with defaults that
// match the shipped scoring model.
type SelectorConfig struct {
	IntentWeight    float64 `yaml:"intent_weight"`
	EntityWeight    float64 `yaml:"entity_weight"`
	CoverageWeight  float64 `yaml:"coverage_weight"`
	ConfidenceFloor float64 `yaml:"confidence_floor"`
	ClarifyMargin   float64 `yaml:"clarify_margin"`
	MaxAlternatives int     `yaml:"max_alternatives"`
}

type GeneratorConfig struct {
	AllowModelInference bool `yaml:"allow_model_inference"`
}

type RepairConfig struct {
	MaxAttempts int `yaml:"max_attempts"`
}

type CacheConfig struct {
	RedisAddr string `yaml:"redis_addr"`
	TTL       string `yaml:"ttl"`
}

// EntryTTL parses the configured cache TTL, defaulting to one hour.
func (c CacheConfig) EntryTTL() time.Duration {
	if c.TTL == "" {
		return time.Hour
	}
	d, err := time.ParseDuration(c.TTL)
	if err != nil {
		return time.Hour
	}
	return d
}

type CatalogConfig struct {
	ActionsPath     string `yaml:"actions_path"`
	ContextPath     string `yaml:"context_path"`
	RefreshSchedule string `yaml:"refresh_schedule"`
	Watch           bool   `yaml:"watch"`
}

type TraceConfig struct {
	DataDir string `yaml:"data_dir"`
}

var envPattern = regexp.MustCompile(`\$\{([^}]+)}`)

func expandEnv(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := envPattern.FindStringSubmatch(match)[1]
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.Model.BaseURL = expandEnv(cfg.Model.BaseURL)
	cfg.Model.APIKey = expandEnv(cfg.Model.APIKey)
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Model.Provider == "" {
		cfg.Model.Provider = "anthropic"
	}
	if cfg.Selector.IntentWeight == 0 {
		cfg.Selector.IntentWeight = 0.4
	}
	if cfg.Selector.EntityWeight == 0 {
		cfg.Selector.EntityWeight = 0.4
	}
	if cfg.Selector.CoverageWeight == 0 {
		cfg.Selector.CoverageWeight = 0.2
	}
	if cfg.Selector.ConfidenceFloor == 0 {
		cfg.Selector.ConfidenceFloor = 0.5
	}
	if cfg.Selector.ClarifyMargin == 0 {
		cfg.Selector.ClarifyMargin = 0.3
	}
	if cfg.Selector.MaxAlternatives == 0 {
		cfg.Selector.MaxAlternatives = 2
	}
	if cfg.Repair.MaxAttempts == 0 {
		cfg.Repair.MaxAttempts = 2
	}
}
