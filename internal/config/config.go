package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fodder-io/masticator/internal/core/domain"
)

type Config struct {
	Monitoring     MonitoringConfig     `yaml:"monitoring"`
	Processing     ProcessingConfig     `yaml:"processing"`
	LLM            LLMConfig            `yaml:"llm"`
	Classification ClassificationConfig `yaml:"classification"`
	Headers        map[string]string    `yaml:"headers"`
	Discord        DiscordConfig        `yaml:"discord"`
	Ledger         LedgerConfig         `yaml:"ledger"`
	Events         EventsConfig         `yaml:"events"`
	Metrics        MetricsConfig        `yaml:"metrics"`
	LogLevel       string               `yaml:"log_level"`

	// Resolved from the environment, never from YAML.
	APIKey       string `yaml:"-"`
	DiscordToken string `yaml:"-"`
}

type MonitoringConfig struct {
	InputDir       string   `yaml:"input_dir"`
	OutputDir      string   `yaml:"output_dir"`
	FileExtensions []string `yaml:"file_extensions"`
	SettleDelay    string   `yaml:"settle_delay"`

	settleDelay time.Duration
}

type ProcessingConfig struct {
	MaxFileSize           int64 `yaml:"max_file_size"`
	DeleteAfterProcessing bool  `yaml:"delete_after_processing"`
	OverwriteExisting     bool  `yaml:"overwrite_existing"`
}

type LLMConfig struct {
	BaseURL       string  `yaml:"base_url"`
	Model         string  `yaml:"model"`
	Temperature   float32 `yaml:"temperature"`
	MaxTokens     int     `yaml:"max_tokens"`
	SystemPrompt  string  `yaml:"system_prompt"`
	Timeout       string  `yaml:"timeout"`
	RetryAttempts int     `yaml:"retry_attempts"`

	timeout time.Duration
}

type ClassificationConfig struct {
	Categories []string          `yaml:"categories"`
	Guidelines map[string]string `yaml:"guidelines"`
}

type DiscordConfig struct {
	FodderChannelID          string `yaml:"fodder_channel_id"`
	ClassificationsChannelID string `yaml:"classifications_channel_id"`
	GuildID                  string `yaml:"guild_id"`
	MessageLimit             int    `yaml:"message_limit"`
	RequestsPerSecond        int    `yaml:"requests_per_second"`
	Burst                    int    `yaml:"burst"`
}

type LedgerConfig struct {
	DSN string `yaml:"dsn"`
}

type EventsConfig struct {
	NATSURL string `yaml:"nats_url"`
	Subject string `yaml:"subject"`
}

type MetricsConfig struct {
	Port string `yaml:"port"`
}

// Load reads the YAML file, resolves secrets from the environment, applies
// defaults and validates. The returned config is immutable for the process
// lifetime.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}

	cfg.APIKey = firstEnv("OPENROUTER_API_KEY", "OPENAI_API_KEY")
	cfg.DiscordToken = os.Getenv("DISCORD_BOT_TOKEN")

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() error {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Monitoring.SettleDelay == "" {
		c.Monitoring.SettleDelay = "500ms"
	}
	settle, err := time.ParseDuration(c.Monitoring.SettleDelay)
	if err != nil {
		return fmt.Errorf("invalid monitoring.settle_delay: %w", err)
	}
	c.Monitoring.settleDelay = settle

	if c.Processing.MaxFileSize <= 0 {
		c.Processing.MaxFileSize = 1 << 20
	}
	if c.LLM.Timeout == "" {
		c.LLM.Timeout = "120s"
	}
	timeout, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil {
		return fmt.Errorf("invalid llm.timeout: %w", err)
	}
	c.LLM.timeout = timeout
	if c.LLM.MaxTokens <= 0 {
		c.LLM.MaxTokens = 1024
	}
	if c.LLM.RetryAttempts <= 0 {
		c.LLM.RetryAttempts = 3
	}

	if c.Discord.MessageLimit <= 0 {
		c.Discord.MessageLimit = 2000
	}
	if c.Discord.RequestsPerSecond <= 0 {
		c.Discord.RequestsPerSecond = 5
	}
	if c.Discord.Burst <= 0 {
		c.Discord.Burst = c.Discord.RequestsPerSecond
	}

	if c.Events.Subject == "" {
		c.Events.Subject = "fodder.classified"
	}
	if c.Metrics.Port == "" {
		c.Metrics.Port = "9090"
	}

	for i, ext := range c.Monitoring.FileExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		c.Monitoring.FileExtensions[i] = ext
	}
	return nil
}

func (c *Config) validate() error {
	if c.Monitoring.InputDir == "" {
		return fmt.Errorf("monitoring.input_dir is required")
	}
	if c.Monitoring.OutputDir == "" {
		return fmt.Errorf("monitoring.output_dir is required")
	}
	if len(c.Monitoring.FileExtensions) == 0 {
		return fmt.Errorf("monitoring.file_extensions is required")
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("llm.model is required")
	}
	if c.APIKey == "" {
		return fmt.Errorf("no API key found: set OPENROUTER_API_KEY or OPENAI_API_KEY")
	}
	for cat := range c.Classification.Guidelines {
		if !domain.CategoryAllowed(cat, c.Classification.Categories) {
			return fmt.Errorf("classification.guidelines references unknown category %q", cat)
		}
	}
	return nil
}

// PromptProfile resolves the prompt mode once, at load time. A non-empty
// category list switches the pipeline into classification mode.
func (c *Config) PromptProfile() domain.PromptProfile {
	profile := domain.PromptProfile{
		Mode:         domain.ModeGeneric,
		SystemPrompt: c.LLM.SystemPrompt,
	}
	if len(c.Classification.Categories) > 0 {
		profile.Mode = domain.ModeClassification
		profile.Categories = c.Classification.Categories
		profile.Guidelines = c.Classification.Guidelines
	}
	return profile
}

func (c *Config) SettleDelay() time.Duration { return c.Monitoring.settleDelay }

func (c *Config) LLMTimeout() time.Duration { return c.LLM.timeout }

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}
