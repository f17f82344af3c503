package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	OpenAI   ProviderConfig `envPrefix:"OPENAI_"`
	Gemini   GeminiConfig   `envPrefix:"GEMINI_"`
	Database DatabaseConfig
	Server   ServerConfig

	ProviderTimeout        time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"30s"`
	SummaryMaxPromptTokens int           `env:"SUMMARY_MAX_PROMPT_TOKENS" envDefault:"2048"`
}

// ProviderConfig describes one provider slot. An empty APIKey disables the
// slot; that is a normal configuration, not an error.
type ProviderConfig struct {
	APIKey  string `env:"API_KEY"`
	APIBase string `env:"API_BASE"`
	Model   string `env:"MODEL"`
}

func (p ProviderConfig) Enabled() bool {
	return strings.TrimSpace(p.APIKey) != ""
}

// GeminiConfig has no endpoint override; the Gemini client always talks to
// Google's API.
type GeminiConfig struct {
	APIKey string `env:"API_KEY"`
	Model  string `env:"MODEL"`
}

func (g GeminiConfig) Enabled() bool {
	return strings.TrimSpace(g.APIKey) != ""
}

type DatabaseConfig struct {
	URL string `env:"DATABASE_URL" envDefault:"sqlite:///elias.db"`
}

// Path strips the sqlite:// scheme so the value can be handed to the driver.
// "sqlite:///foo.db" is relative, "sqlite:////tmp/foo.db" is absolute.
func (d DatabaseConfig) Path() string {
	u := strings.TrimSpace(d.URL)
	if rest, ok := strings.CutPrefix(u, "sqlite:///"); ok {
		return rest
	}
	if rest, ok := strings.CutPrefix(u, "sqlite://"); ok {
		return rest
	}
	return u
}

type ServerConfig struct {
	Host string `env:"HOST" envDefault:"127.0.0.1"`
	Port int    `env:"PORT" envDefault:"8000"`
}

func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

const (
	defaultOpenAIModel = "gpt-3.5-turbo"
	defaultGeminiModel = "gemini-pro"
)

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	return parse(env.Options{})
}

// LoadFrom reads the configuration from environ instead of the process
// environment.
func LoadFrom(environ map[string]string) (*Config, error) {
	return parse(env.Options{Environment: environ})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if cfg.OpenAI.Model == "" {
		cfg.OpenAI.Model = defaultOpenAIModel
	}
	if cfg.Gemini.Model == "" {
		cfg.Gemini.Model = defaultGeminiModel
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.ProviderTimeout <= 0 {
		return fmt.Errorf("PROVIDER_TIMEOUT must be positive, got %s", c.ProviderTimeout)
	}
	if c.SummaryMaxPromptTokens <= 0 {
		return fmt.Errorf("SUMMARY_MAX_PROMPT_TOKENS must be positive, got %d", c.SummaryMaxPromptTokens)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("PORT out of range: %d", c.Server.Port)
	}
	if c.Database.Path() == "" {
		return fmt.Errorf("DATABASE_URL is empty")
	}
	return nil
}
