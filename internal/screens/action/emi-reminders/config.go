package emireminders

import (
	"fmt"
	"time"

	"borrower-client/internal/common/config"
	"borrower-client/internal/common/validation"
)

type Config struct {
	Enabled      bool          `mapstructure:"enabled"`
	Timeout      time.Duration `mapstructure:"timeout"`
	WindowDays   int           `mapstructure:"window_days"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`

	SMSEnabled bool   `mapstructure:"sms_enabled"`
	SMSPhone   string `mapstructure:"sms_phone"`

	EmailEnabled bool   `mapstructure:"email_enabled"`
	EmailTo      string `mapstructure:"email_to"`
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:      true,
		Timeout:      60 * time.Second,
		WindowDays:   3,
		RetryBackoff: 200 * time.Millisecond,
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.WindowDays <= 0 {
		return fmt.Errorf("window_days must be positive")
	}
	if c.RetryBackoff < 0 {
		return fmt.Errorf("retry_backoff cannot be negative")
	}
	if c.SMSEnabled && !validation.ValidatePhone(c.SMSPhone) {
		return fmt.Errorf("a valid sms phone is required when sms reminders are enabled")
	}
	if c.EmailEnabled && !validation.ValidateEmail(c.EmailTo) {
		return fmt.Errorf("a valid email recipient is required when email reminders are enabled")
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

	r := appCfg.Reminders
	if r.WindowDays > 0 {
		cfg.WindowDays = r.WindowDays
	}
	cfg.SMSEnabled = r.SMS.Enabled
	cfg.SMSPhone = r.SMS.Phone
	cfg.EmailEnabled = r.Email.Enabled
	cfg.EmailTo = r.Email.To
	return cfg
}
