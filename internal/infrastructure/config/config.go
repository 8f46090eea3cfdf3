package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Statutory StatutoryConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	MaxBodySize      int64
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
	TrustedProxies   []string
}

// StatutoryConfig holds the statutory contribution and tax constants that
// apply when a run request does not override them. Rates are fractions
// (0.05 = 5%), amounts are monthly pesos.
type StatutoryConfig struct {
	HealthRate    float64
	HealthMinBase float64
	HealthMaxBase float64

	HousingEmployeeRate float64
	HousingEmployerRate float64
	HousingBaseCap      float64
	HousingMonthlyFloor float64

	BenefitExemptionCeiling float64
	CitizenNationality      string
	CutoffsPerYear          int
	WorkingDaysPerYear      int
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with PAYROLL_ prefix (e.g., PAYROLL_APP_PORT)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	// Set config file settings
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	// Enable environment variable override
	v.SetEnvPrefix("PAYROLL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			MaxBodySize:      v.GetInt64("http.max_body_size"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
		},
		Statutory: StatutoryConfig{
			HealthRate:              v.GetFloat64("statutory.health_rate"),
			HealthMinBase:           v.GetFloat64("statutory.health_min_base"),
			HealthMaxBase:           v.GetFloat64("statutory.health_max_base"),
			HousingEmployeeRate:     v.GetFloat64("statutory.housing_employee_rate"),
			HousingEmployerRate:     v.GetFloat64("statutory.housing_employer_rate"),
			HousingBaseCap:          v.GetFloat64("statutory.housing_base_cap"),
			HousingMonthlyFloor:     v.GetFloat64("statutory.housing_monthly_floor"),
			BenefitExemptionCeiling: v.GetFloat64("statutory.benefit_exemption_ceiling"),
			CitizenNationality:      v.GetString("statutory.citizen_nationality"),
			CutoffsPerYear:          v.GetInt("statutory.cutoffs_per_year"),
			WorkingDaysPerYear:      v.GetInt("statutory.working_days_per_year"),
		},
	}

	// Apply defaults for empty values
	applyDefaults(cfg)

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "payroll-engine"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		// Large runs serialize a row per employee, give writes headroom.
		cfg.HTTP.WriteTimeout = 60 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		// Run requests carry the full masterfile and bracket tables inline.
		cfg.HTTP.MaxBodySize = 32 << 20 // 32MB
	}
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "X-Request-ID", "X-Tenant-ID"}
	}
	if cfg.Statutory.HealthRate == 0 {
		cfg.Statutory.HealthRate = 0.05
	}
	if cfg.Statutory.HealthMinBase == 0 {
		cfg.Statutory.HealthMinBase = 10000
	}
	if cfg.Statutory.HealthMaxBase == 0 {
		cfg.Statutory.HealthMaxBase = 100000
	}
	if cfg.Statutory.HousingEmployeeRate == 0 {
		cfg.Statutory.HousingEmployeeRate = 0.02
	}
	if cfg.Statutory.HousingEmployerRate == 0 {
		cfg.Statutory.HousingEmployerRate = 0.02
	}
	if cfg.Statutory.HousingBaseCap == 0 {
		cfg.Statutory.HousingBaseCap = 10000
	}
	if cfg.Statutory.HousingMonthlyFloor == 0 {
		cfg.Statutory.HousingMonthlyFloor = 100
	}
	if cfg.Statutory.BenefitExemptionCeiling == 0 {
		cfg.Statutory.BenefitExemptionCeiling = 90000
	}
	if cfg.Statutory.CitizenNationality == "" {
		cfg.Statutory.CitizenNationality = "Filipino"
	}
	if cfg.Statutory.CutoffsPerYear == 0 {
		cfg.Statutory.CutoffsPerYear = 24
	}
	if cfg.Statutory.WorkingDaysPerYear == 0 {
		cfg.Statutory.WorkingDaysPerYear = 261
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Statutory.HealthRate < 0 || c.Statutory.HealthRate > 1 {
		return fmt.Errorf("statutory.health_rate must be between 0 and 1, got %f", c.Statutory.HealthRate)
	}
	if c.Statutory.HousingEmployeeRate < 0 || c.Statutory.HousingEmployeeRate > 1 {
		return fmt.Errorf("statutory.housing_employee_rate must be between 0 and 1, got %f", c.Statutory.HousingEmployeeRate)
	}
	if c.Statutory.HousingEmployerRate < 0 || c.Statutory.HousingEmployerRate > 1 {
		return fmt.Errorf("statutory.housing_employer_rate must be between 0 and 1, got %f", c.Statutory.HousingEmployerRate)
	}
	if c.Statutory.HealthMinBase > c.Statutory.HealthMaxBase {
		return fmt.Errorf("statutory.health_min_base (%f) cannot exceed statutory.health_max_base (%f)",
			c.Statutory.HealthMinBase, c.Statutory.HealthMaxBase)
	}
	if c.Statutory.CutoffsPerYear <= 0 {
		return fmt.Errorf("statutory.cutoffs_per_year must be positive")
	}
	if c.Statutory.WorkingDaysPerYear <= 0 {
		return fmt.Errorf("statutory.working_days_per_year must be positive")
	}

	// Production-specific validations
	if c.App.Env == "production" {
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
	}

	return nil
}
