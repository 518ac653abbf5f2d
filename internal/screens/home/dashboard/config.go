package dashboard

import (
	"fmt"
	"time"

	"borrower-client/internal/common/config"
)

type Config struct {
	Enabled     bool          `mapstructure:"enabled"`
	Timeout     time.Duration `mapstructure:"timeout"`
	RecentLimit int           `mapstructure:"recent_limit"`
	DisplayName string        `mapstructure:"display_name"`
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:     true,
		Timeout:     20 * time.Second,
		RecentLimit: 5,
		DisplayName: "TechCorp Solutions",
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.RecentLimit < 0 {
		return fmt.Errorf("recent_limit cannot be negative")
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
	if appCfg.Flows.DisplayName != "" {
		cfg.DisplayName = appCfg.Flows.DisplayName
	}
	return cfg
}
