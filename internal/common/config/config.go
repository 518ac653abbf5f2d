// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App       AppConfig               `mapstructure:"app"`
	API       APIConfig               `mapstructure:"api"`
	Session   SessionConfig           `mapstructure:"session"`
	Database  DatabaseConfig          `mapstructure:"database"`
	Flows     FlowsConfig             `mapstructure:"flows"`
	Screens   map[string]ScreenConfig `mapstructure:"screens"`
	Reminders ReminderConfig          `mapstructure:"reminders"`
	Metrics   MetricsConfig           `mapstructure:"metrics"`
	Logging   LoggingConfig           `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// APIConfig points the client at the lending backend.
type APIConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
	// ProactiveRefresh refreshes an access token whose JWT exp has passed before sending.
	ProactiveRefresh bool `mapstructure:"proactive_refresh"`
}

// Session backends.
const (
	SessionBackendMemory = "memory"
	SessionBackendFile   = "file"
	SessionBackendRedis  = "redis"
)

type SessionConfig struct {
	Backend   string `mapstructure:"backend"`
	FilePath  string `mapstructure:"file_path"`
	KeyPrefix string `mapstructure:"key_prefix"`
	TTL       int    `mapstructure:"ttl"` // seconds, redis only; 0 keeps keys forever
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// FlowsConfig holds the knobs of the login, onboarding and loan wizards.
type FlowsConfig struct {
	OTPLength             int    `mapstructure:"otp_length"`
	ResendCountdown       int    `mapstructure:"resend_countdown"` // seconds
	PersistKYCDrafts      bool   `mapstructure:"persist_kyc_drafts"`
	OnboardingRedirect    int    `mapstructure:"onboarding_redirect"` // milliseconds
	LoanRedirect          int    `mapstructure:"loan_redirect"`       // milliseconds
	SimulateCompliance    bool   `mapstructure:"simulate_compliance"`
	ComplianceDelay       int    `mapstructure:"compliance_delay"` // milliseconds
	FinancingMode         string `mapstructure:"financing_mode"`   // secured | unsecured
	CollateralDescription string `mapstructure:"collateral_description"`
	CollateralValue       int64  `mapstructure:"collateral_value"`
	DisplayName           string `mapstructure:"display_name"`
}

// ScreenConfig holds the settings applicable to every screen.
type ScreenConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Timeout int  `mapstructure:"timeout"` // milliseconds
}

// ReminderConfig drives the EMI reminder job.
type ReminderConfig struct {
	WindowDays int    `mapstructure:"window_days"`
	Region     string `mapstructure:"region"`
	SMS        struct {
		Enabled  bool   `mapstructure:"enabled"`
		SenderID string `mapstructure:"sender_id"`
		Phone    string `mapstructure:"phone"`
	} `mapstructure:"sms"`
	Email struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
		To        string `mapstructure:"to"`
	} `mapstructure:"email"`
}

// MetricsConfig enables the prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
