// internal/common/config/loader.go
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const DefaultBaseURL = "http://localhost:8000"

func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")
	if home, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, "borrower-client"))
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	// base config is optional for a client; defaults cover a local backend
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig()

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	overrideFromEnv(&cfg)
	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile loads the first .env found walking up to the module root.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideFromEnv applies the documented environment overrides; env wins over files.
func overrideFromEnv(cfg *Config) {
	if val := os.Getenv("API_BASE_URL"); val != "" {
		cfg.API.BaseURL = val
	}
	if val := os.Getenv("SESSION_BACKEND"); val != "" {
		cfg.Session.Backend = val
	}
	if val := os.Getenv("SESSION_FILE"); val != "" {
		cfg.Session.FilePath = val
	}
	if val := os.Getenv("REDIS_ADDRESS"); val != "" {
		cfg.Database.Redis.Address = val
	}
	if val := os.Getenv("REDIS_PASSWORD"); val != "" {
		cfg.Database.Redis.Password = val
	}
	if cfg.Database.Postgres.User == "" {
		cfg.Database.Postgres.User = os.Getenv("DB_USER")
	}
	if cfg.Database.Postgres.Password == "" {
		cfg.Database.Postgres.Password = os.Getenv("DB_PASSWORD")
	}
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "borrower-client"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}

	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = DefaultBaseURL
	}
	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")
	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = 15000
	}

	if cfg.Session.Backend == "" {
		cfg.Session.Backend = SessionBackendFile
	}
	if cfg.Session.FilePath == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			dir = os.TempDir()
		}
		cfg.Session.FilePath = filepath.Join(dir, "borrower-client", "session.json")
	}
	if cfg.Session.KeyPrefix == "" {
		cfg.Session.KeyPrefix = "borrower:session:"
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 5
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 2
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Redis.Address == "" {
		cfg.Database.Redis.Address = "localhost:6379"
	}

	if cfg.Flows.OTPLength == 0 {
		cfg.Flows.OTPLength = 6
	}
	if cfg.Flows.ResendCountdown == 0 {
		cfg.Flows.ResendCountdown = 59
	}
	if cfg.Flows.OnboardingRedirect == 0 {
		cfg.Flows.OnboardingRedirect = 2500
	}
	if cfg.Flows.LoanRedirect == 0 {
		cfg.Flows.LoanRedirect = 3000
	}
	if cfg.Flows.ComplianceDelay == 0 {
		cfg.Flows.ComplianceDelay = 1200
	}
	if cfg.Flows.FinancingMode == "" {
		cfg.Flows.FinancingMode = "unsecured"
	}
	if cfg.Flows.CollateralDescription == "" {
		cfg.Flows.CollateralDescription = "Business collateral"
	}
	if cfg.Flows.CollateralValue == 0 {
		cfg.Flows.CollateralValue = 250000
	}
	if cfg.Flows.DisplayName == "" {
		cfg.Flows.DisplayName = "TechCorp Solutions"
	}

	if cfg.Reminders.WindowDays == 0 {
		cfg.Reminders.WindowDays = 3
	}
	if cfg.Reminders.Region == "" {
		cfg.Reminders.Region = "ap-south-1"
	}

	if cfg.Metrics.Address == "" {
		cfg.Metrics.Address = ":9464"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "warn"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stderr"
	}

	for key, screen := range cfg.Screens {
		if screen.Timeout == 0 {
			screen.Timeout = cfg.API.Timeout
		}
		cfg.Screens[key] = screen
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	u, err := url.Parse(cfg.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api.base_url must be an absolute URL, got %q", cfg.API.BaseURL)
	}

	switch cfg.Session.Backend {
	case SessionBackendMemory, SessionBackendFile, SessionBackendRedis:
	default:
		return fmt.Errorf("session.backend must be one of memory, file, redis; got %q", cfg.Session.Backend)
	}

	if cfg.Flows.OTPLength != 4 && cfg.Flows.OTPLength != 6 {
		return fmt.Errorf("flows.otp_length must be 4 or 6, got %d", cfg.Flows.OTPLength)
	}

	switch cfg.Flows.FinancingMode {
	case "secured", "unsecured":
	default:
		return fmt.Errorf("flows.financing_mode must be secured or unsecured, got %q", cfg.Flows.FinancingMode)
	}

	if cfg.Reminders.WindowDays < 0 {
		return fmt.Errorf("reminders.window_days must not be negative")
	}
	if cfg.Reminders.Email.Enabled && cfg.Reminders.Email.FromEmail == "" {
		return fmt.Errorf("reminders.email.from_email is required when email reminders are enabled")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetScreenConfig retrieves screen-specific configuration with fallback to defaults
func GetScreenConfig(cfg *Config, screen string) ScreenConfig {
	if sc, exists := cfg.Screens[screen]; exists {
		return sc
	}
	return ScreenConfig{
		Enabled: true,
		Timeout: cfg.API.Timeout,
	}
}

// IsScreenEnabled checks if a specific screen is enabled
func IsScreenEnabled(cfg *Config, screen string) bool {
	if sc, exists := cfg.Screens[screen]; exists {
		return sc.Enabled
	}
	return true
}

// Default returns a configuration with every default applied and no files read.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}
