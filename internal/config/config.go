package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port          string   `mapstructure:"PORT"`
	Env           string   `mapstructure:"ENV"`
	DataPath      string   `mapstructure:"DATA_PATH"`
	DatabaseURL   string   `mapstructure:"DATABASE_URL"`
	CORSOrigins   []string `mapstructure:"CORS_ORIGINS"`
	JWTSecret     string   `mapstructure:"JWT_SECRET"`
	TokenTTLHours int      `mapstructure:"TOKEN_TTL_HOURS"`

	// Role-gate passwords. These mirror the fixed front-desk passwords the
	// archive has always used; they are a gate, not a security boundary.
	AdminPassword     string `mapstructure:"ADMIN_PASSWORD"`
	RegistrarPassword string `mapstructure:"REGISTRAR_PASSWORD"`
	StudentPassword   string `mapstructure:"STUDENT_PASSWORD"`

	// AI assistant settings.
	GeminiAPIKey   string `mapstructure:"GEMINI_API_KEY"`
	AIQueryModel   string `mapstructure:"AI_QUERY_MODEL"`
	AISummaryModel string `mapstructure:"AI_SUMMARY_MODEL"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DATA_PATH", "archive.db")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("TOKEN_TTL_HOURS", 12)
	v.SetDefault("ADMIN_PASSWORD", "admin2024")
	v.SetDefault("REGISTRAR_PASSWORD", "registro2024")
	v.SetDefault("STUDENT_PASSWORD", "alumno2024")
	v.SetDefault("AI_QUERY_MODEL", "gemini-3-pro-preview")
	v.SetDefault("AI_SUMMARY_MODEL", "gemini-3-flash-preview")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATA_PATH")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("JWT_SECRET")
	v.BindEnv("TOKEN_TTL_HOURS")
	v.BindEnv("ADMIN_PASSWORD")
	v.BindEnv("REGISTRAR_PASSWORD")
	v.BindEnv("STUDENT_PASSWORD")
	v.BindEnv("GEMINI_API_KEY")
	v.BindEnv("AI_QUERY_MODEL")
	v.BindEnv("AI_SUMMARY_MODEL")

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

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// RolePassword returns the configured password for a role, or "" for an
// unknown role.
func (c *Config) RolePassword(role string) string {
	switch role {
	case "admin":
		return c.AdminPassword
	case "registrar":
		return c.RegistrarPassword
	case "student":
		return c.StudentPassword
	}
	return ""
}

// Validate checks that the configuration is safe to run. Outside development
// a JWT_SECRET must be provided so that role tokens survive restarts and
// cannot be forged with a guessable default.
func (c *Config) Validate() error {
	if c.Env != "development" && c.Env != "production" && c.Env != "test" {
		return fmt.Errorf("ENV must be \"development\", \"production\", or \"test\", got %q", c.Env)
	}
	if c.IsProduction() && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required in production")
	}
	if c.TokenTTLHours <= 0 {
		return fmt.Errorf("TOKEN_TTL_HOURS must be positive, got %d", c.TokenTTLHours)
	}
	if c.DataPath == "" && c.DatabaseURL == "" {
		return fmt.Errorf("DATA_PATH or DATABASE_URL is required")
	}
	return nil
}
