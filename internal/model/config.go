package model

import "time"

// Config is the full runtime configuration, assembled by the CLI from
// flags, environment and the YAML config file.
type Config struct {
	LLM      LLMConfig      `yaml:"llm"`
	Governor GovernorConfig `yaml:"governor"`
	Extract  ExtractConfig  `yaml:"extract"`
	Verify   VerifyConfig   `yaml:"verify"`
	Cache    CacheConfig    `yaml:"cache"`
	Database DatabaseConfig `yaml:"database"`
	Output   OutputConfig   `yaml:"output"`
}

// LLMConfig selects and configures the completion provider.
type LLMConfig struct {
	Provider    string        `yaml:"provider"` // openai, anthropic, ollama
	Model       string        `yaml:"model"`
	APIKey      string        `yaml:"api_key,omitempty"`
	BaseURL     string        `yaml:"base_url,omitempty"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxRetries  int           `yaml:"max_retries"`
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float64       `yaml:"temperature"`
}

// GovernorConfig bounds outbound call rate and concurrency.
type GovernorConfig struct {
	MaxCallsPerMinute int     `yaml:"max_calls_per_minute"`
	MaxConcurrent     int     `yaml:"max_concurrent"`
	CallsPerSecond    float64 `yaml:"calls_per_second"` // smoothing cap, 0 disables
}

// ExtractConfig tunes claim extraction batching.
type ExtractConfig struct {
	MaxDocsPerBatch     int `yaml:"max_docs_per_batch"`
	TokenBudgetPerDoc   int `yaml:"token_budget_per_doc"`
	TokenBudgetPerBatch int `yaml:"token_budget_per_batch"`
	EntityBatchSize     int `yaml:"entity_batch_size"`
}

// VerifyConfig tunes fact verification.
type VerifyConfig struct {
	ConfidenceThreshold  float64 `yaml:"confidence_threshold"`
	MinSourcesRequired   int     `yaml:"min_sources_required"`
	DateToleranceDays    int     `yaml:"date_tolerance_days"`
	CoarseBatchSize      int     `yaml:"coarse_batch_size"`
	MaxCoarseSources     int     `yaml:"max_coarse_sources"`
	MaxContradictionSrcs int     `yaml:"max_contradiction_sources"`
	ContentExcerptChars  int     `yaml:"content_excerpt_chars"`
	Workers              int     `yaml:"workers"`
}

// CacheConfig controls the LLM response cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Dir     string        `yaml:"dir,omitempty"`
	TTL     time.Duration `yaml:"ttl"`
}

// DatabaseConfig points at the optional Postgres store.
type DatabaseConfig struct {
	DSN string `yaml:"dsn,omitempty"`
}

// OutputConfig controls report rendering.
type OutputConfig struct {
	Verbose       bool `yaml:"verbose"`
	IncludeFooter bool `yaml:"include_footer"`
}

// DefaultConfig returns the built-in defaults. Thresholds mirror the
// research pipeline this tool grew out of: two independent sources and a
// 0.7 score to call a claim verified, 30 days of slack when comparing dates.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "",
			Timeout:     60 * time.Second,
			MaxRetries:  5,
			MaxTokens:   2000,
			Temperature: 0.1,
		},
		Governor: GovernorConfig{
			MaxCallsPerMinute: 60,
			MaxConcurrent:     4,
			CallsPerSecond:    0,
		},
		Extract: ExtractConfig{
			MaxDocsPerBatch:     5,
			TokenBudgetPerDoc:   750,
			TokenBudgetPerBatch: 3000,
			EntityBatchSize:     10,
		},
		Verify: VerifyConfig{
			ConfidenceThreshold:  0.7,
			MinSourcesRequired:   2,
			DateToleranceDays:    30,
			CoarseBatchSize:      10,
			MaxCoarseSources:     8,
			MaxContradictionSrcs: 10,
			ContentExcerptChars:  1500,
			Workers:              4,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     24 * time.Hour,
		},
		Output: OutputConfig{
			IncludeFooter: true,
		},
	}
}
