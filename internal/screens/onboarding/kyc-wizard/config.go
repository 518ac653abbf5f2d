package kycwizard

import (
	"fmt"
	"time"

	"borrower-client/internal/common/config"
)

type Config struct {
	Enabled       bool          `mapstructure:"enabled"`
	Timeout       time.Duration `mapstructure:"timeout"`
	PersistDrafts bool          `mapstructure:"persist_drafts"`
	RedirectDelay time.Duration `mapstructure:"redirect_delay"`
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:       true,
		Timeout:       15 * time.Second,
		PersistDrafts: false,
		RedirectDelay: 2500 * time.Millisecond,
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.RedirectDelay < 0 {
		return fmt.Errorf("redirect_delay must not be negative")
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
	cfg.PersistDrafts = appCfg.Flows.PersistKYCDrafts
	if appCfg.Flows.OnboardingRedirect > 0 {
		cfg.RedirectDelay = config.GetDuration(appCfg.Flows.OnboardingRedirect)
	}
	return cfg
}
