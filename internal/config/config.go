package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string   `mapstructure:"PORT"`
	Env         string   `mapstructure:"ENV"`
	DatabaseURL string   `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32    `mapstructure:"DB_MIN_CONNS"`
	RedisURL    string   `mapstructure:"REDIS_URL"`
	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`
	JWTSecret   string   `mapstructure:"JWT_SECRET"`

	FacilityNumber int    `mapstructure:"FACILITY_NUMBER"`
	CorIDVersion   int    `mapstructure:"COR_ID_VERSION"`
	VersionBits    int    `mapstructure:"COR_ID_VERSION_BITS"`
	DaysBits       int    `mapstructure:"COR_ID_DAYS_BITS"`
	FacilityBits   int    `mapstructure:"COR_ID_FACILITY_BITS"`
	PatientBits    int    `mapstructure:"COR_ID_PATIENT_BITS"`
	Charset        string `mapstructure:"COR_ID_CHARSET"`
	EpochDate      string `mapstructure:"COR_ID_EPOCH"`
	SexSymbols     string `mapstructure:"COR_ID_SEX_SYMBOLS"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("FACILITY_NUMBER", 1)
	v.SetDefault("COR_ID_VERSION", 0)
	v.SetDefault("COR_ID_VERSION_BITS", 1)
	v.SetDefault("COR_ID_DAYS_BITS", 16)
	v.SetDefault("COR_ID_FACILITY_BITS", 16)
	v.SetDefault("COR_ID_PATIENT_BITS", 16)
	v.SetDefault("COR_ID_CHARSET", "0123456789ABCDEFGHJKLMNPRSTUVWXYZ")
	v.SetDefault("COR_ID_EPOCH", "2024-01-01")
	v.SetDefault("COR_ID_SEX_SYMBOLS", "MF")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("REDIS_URL")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("JWT_SECRET")
	v.BindEnv("FACILITY_NUMBER")
	v.BindEnv("COR_ID_VERSION")
	v.BindEnv("COR_ID_VERSION_BITS")
	v.BindEnv("COR_ID_DAYS_BITS")
	v.BindEnv("COR_ID_FACILITY_BITS")
	v.BindEnv("COR_ID_PATIENT_BITS")
	v.BindEnv("COR_ID_CHARSET")
	v.BindEnv("COR_ID_EPOCH")
	v.BindEnv("COR_ID_SEX_SYMBOLS")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Epoch parses COR_ID_EPOCH as a UTC calendar date.
func (c *Config) Epoch() (time.Time, error) {
	t, err := time.Parse("2006-01-02", c.EpochDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("COR_ID_EPOCH %q: %w", c.EpochDate, err)
	}
	return t, nil
}

// Validate checks that the configuration is safe to run.
func (c *Config) Validate() error {
	if c.IsProduction() && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required in production")
	}
	if len(c.Charset) < 2 {
		return fmt.Errorf("COR_ID_CHARSET must contain at least 2 symbols, got %d", len(c.Charset))
	}
	seen := map[rune]bool{}
	for _, r := range c.Charset {
		if seen[r] {
			return fmt.Errorf("COR_ID_CHARSET contains duplicate symbol %q", r)
		}
		seen[r] = true
	}
	for _, b := range []struct {
		name string
		val  int
	}{
		{"COR_ID_VERSION_BITS", c.VersionBits},
		{"COR_ID_DAYS_BITS", c.DaysBits},
		{"COR_ID_FACILITY_BITS", c.FacilityBits},
		{"COR_ID_PATIENT_BITS", c.PatientBits},
	} {
		if b.val < 1 {
			return fmt.Errorf("%s must be positive, got %d", b.name, b.val)
		}
	}
	if total := c.VersionBits + c.DaysBits + c.FacilityBits + c.PatientBits; total > 63 {
		return fmt.Errorf("identifier bit widths sum to %d, must not exceed 63", total)
	}
	if _, err := c.Epoch(); err != nil {
		return err
	}
	if len(c.SexSymbols) < 1 {
		return fmt.Errorf("COR_ID_SEX_SYMBOLS must not be empty")
	}
	return nil
}
