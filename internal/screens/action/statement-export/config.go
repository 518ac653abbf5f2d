package statementexport

import (
	"fmt"
	"regexp"
	"time"

	"borrower-client/internal/common/config"
)

var tableNamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

type Config struct {
	Enabled      bool          `mapstructure:"enabled"`
	Timeout      time.Duration `mapstructure:"timeout"`
	Table        string        `mapstructure:"table"`
	EnsureSchema bool          `mapstructure:"ensure_schema"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:      true,
		Timeout:      30 * time.Second,
		Table:        "emi_statements",
		EnsureSchema: true,
		RetryBackoff: 250 * time.Millisecond,
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if !tableNamePattern.MatchString(c.Table) {
		return fmt.Errorf("table must be a lower-case identifier, got %q", c.Table)
	}
	if c.RetryBackoff < 0 {
		return fmt.Errorf("retry_backoff cannot be negative")
	}
	return nil
}

func createConfigFromAppConfig(appCfg *config.Config, custom *Config) *Config {
	if custom != nil {
		return custom
	}
	cfg := DefaultConfig()
	if appCfg == nil {
		return cfg
	}
	screen := config.GetScreenConfig(appCfg, ScreenID)
	cfg.Enabled = screen.Enabled
	if screen.Timeout > 0 {
		cfg.Timeout = config.GetDuration(screen.Timeout)
	}
	return cfg
}
