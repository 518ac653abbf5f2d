package loanoffer

import (
	"fmt"
	"time"

	"borrower-client/internal/common/config"
)

// Financing modes.
const (
	ModeSecured   = "secured"
	ModeUnsecured = "unsecured"
)

type Config struct {
	Enabled               bool          `mapstructure:"enabled"`
	Timeout               time.Duration `mapstructure:"timeout"`
	RedirectDelay         time.Duration `mapstructure:"redirect_delay"`
	SimulateCompliance    bool          `mapstructure:"simulate_compliance"`
	ComplianceDelay       time.Duration `mapstructure:"compliance_delay"`
	FinancingMode         string        `mapstructure:"financing_mode"`
	CollateralDescription string        `mapstructure:"collateral_description"`
	CollateralValue       int64         `mapstructure:"collateral_value"`
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:               true,
		Timeout:               15 * time.Second,
		RedirectDelay:         3 * time.Second,
		SimulateCompliance:    true,
		ComplianceDelay:       1200 * time.Millisecond,
		FinancingMode:         ModeUnsecured,
		CollateralDescription: "Business collateral",
		CollateralValue:       250000,
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.RedirectDelay < 0 || c.ComplianceDelay < 0 {
		return fmt.Errorf("delays must not be negative")
	}
	switch c.FinancingMode {
	case ModeSecured:
		if c.CollateralDescription == "" || c.CollateralValue <= 0 {
			return fmt.Errorf("secured financing requires a collateral description and a positive value")
		}
	case ModeUnsecured:
	default:
		return fmt.Errorf("financing_mode must be %q or %q, got %q", ModeSecured, ModeUnsecured, c.FinancingMode)
	}
	return nil
}

// EffectiveComplianceDelay is zero when the simulated check is off.
func (c *Config) EffectiveComplianceDelay() time.Duration {
	if !c.SimulateCompliance {
		return 0
	}
	return c.ComplianceDelay
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

	flows := appCfg.Flows
	if flows.LoanRedirect > 0 {
		cfg.RedirectDelay = config.GetDuration(flows.LoanRedirect)
	}
	cfg.SimulateCompliance = flows.SimulateCompliance
	if flows.ComplianceDelay > 0 {
		cfg.ComplianceDelay = config.GetDuration(flows.ComplianceDelay)
	}
	if flows.FinancingMode != "" {
		cfg.FinancingMode = flows.FinancingMode
	}
	if flows.CollateralDescription != "" {
		cfg.CollateralDescription = flows.CollateralDescription
	}
	if flows.CollateralValue > 0 {
		cfg.CollateralValue = flows.CollateralValue
	}
	return cfg
}
