package repayments

import (
	"fmt"
	"time"

	"borrower-client/internal/common/config"
)

type Config struct {
	Enabled bool          `mapstructure:"enabled"`
	Timeout time.Duration `mapstructure:"timeout"`
}

func DefaultConfig() *Config {
	return &Config{
		Enabled: true,
		Timeout: 15 * time.Second,
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
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
