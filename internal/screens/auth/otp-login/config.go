package otplogin

import (
	"fmt"
	"time"

	"borrower-client/internal/common/config"
)

type Config struct {
	Enabled         bool          `mapstructure:"enabled"`
	Timeout         time.Duration `mapstructure:"timeout"`
	OTPLength       int           `mapstructure:"otp_length"`
	ResendCountdown time.Duration `mapstructure:"resend_countdown"`
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		Timeout:         15 * time.Second,
		OTPLength:       6,
		ResendCountdown: 59 * time.Second,
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.OTPLength != 4 && c.OTPLength != 6 {
		return fmt.Errorf("otp_length must be 4 or 6")
	}
	if c.ResendCountdown < 0 {
		return fmt.Errorf("resend_countdown must not be negative")
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
	if appCfg.Flows.OTPLength > 0 {
		cfg.OTPLength = appCfg.Flows.OTPLength
	}
	if appCfg.Flows.ResendCountdown > 0 {
		cfg.ResendCountdown = time.Duration(appCfg.Flows.ResendCountdown) * time.Second
	}
	return cfg
}
