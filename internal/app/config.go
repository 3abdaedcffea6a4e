package app

import (
	"fmt"
	"time"

	coreconfig "github.com/m3rciful/craftbot/core/config"
	coredatabase "github.com/m3rciful/craftbot/core/database"
	"github.com/m3rciful/craftbot/internal/flow"
	"github.com/m3rciful/craftbot/internal/session"
)

// SessionConfig controls in-memory conversation sessions.
type SessionConfig struct {
	IdleTimeout   time.Duration `yaml:"idle_timeout" envconfig:"SESSION_IDLE_TIMEOUT"`
	SweepInterval time.Duration `yaml:"sweep_interval" envconfig:"SESSION_SWEEP_INTERVAL"`
}

// AIConfig selects and tunes the question and description generator.
// Without an API key the bot falls back to static templates.
type AIConfig struct {
	GeminiAPIKey    string        `yaml:"gemini_api_key" envconfig:"GEMINI_API_KEY"`
	Model           string        `yaml:"model" envconfig:"GEMINI_MODEL"`
	Temperature     float32       `yaml:"temperature" envconfig:"AI_TEMPERATURE"`
	Timeout         time.Duration `yaml:"timeout" envconfig:"AI_TIMEOUT"`
	BreakerTimeout  time.Duration `yaml:"breaker_timeout" envconfig:"AI_BREAKER_TIMEOUT"`
	BreakerFailures uint32        `yaml:"breaker_failures" envconfig:"AI_BREAKER_FAILURES"`
}

// StorageConfig bounds persistence of finished listings.
type StorageConfig struct {
	SaveTimeout time.Duration `yaml:"save_timeout" envconfig:"STORAGE_SAVE_TIMEOUT"`
}

// Config is the full craftbot configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database coredatabase.Config `yaml:"database"`
	Session  SessionConfig       `yaml:"session"`
	AI       AIConfig            `yaml:"ai"`
	Storage  StorageConfig       `yaml:"storage"`
}

// CoreConfig exposes the transport and logging part.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// LoadConfig reads path and the environment, validates and applies defaults.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.LoadInto(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() error {
	if err := coreconfig.Normalize(&c.Config); err != nil {
		return err
	}
	c.Database = c.Database.WithDefaults()

	if c.Session.IdleTimeout <= 0 {
		c.Session.IdleTimeout = session.DefaultIdleTimeout
	}
	if c.Session.SweepInterval <= 0 {
		c.Session.SweepInterval = time.Minute
	}
	if c.AI.Timeout <= 0 {
		c.AI.Timeout = flow.DefaultAITimeout
	}
	if c.AI.Temperature < 0 || c.AI.Temperature > 2 {
		return fmt.Errorf("ai.temperature must be within [0, 2], got %v", c.AI.Temperature)
	}
	if c.AI.Temperature == 0 {
		c.AI.Temperature = 0.7
	}
	if c.Storage.SaveTimeout <= 0 {
		c.Storage.SaveTimeout = flow.DefaultSaveTimeout
	}
	return nil
}
