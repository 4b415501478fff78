package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	AppEnv         string        `mapstructure:"APP_ENV"`
	Port           string        `mapstructure:"PORT"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	Timezone       string        `mapstructure:"TIMEZONE"`
	LogLevel       string        `mapstructure:"LOG_LEVEL"`
	CORSOrigins    string        `mapstructure:"CORS_ORIGINS"`

	DatabaseURL     string        `mapstructure:"DATABASE_URL"`
	DBHost          string        `mapstructure:"DB_HOST"`
	DBPort          string        `mapstructure:"DB_PORT"`
	DBUser          string        `mapstructure:"DB_USER"`
	DBPassword      string        `mapstructure:"DB_PASSWORD"`
	DBName          string        `mapstructure:"DB_NAME"`
	DBSSLMode       string        `mapstructure:"DB_SSLMODE"`
	DBMaxOpenConns  int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns  int           `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBConnLifetime  time.Duration `mapstructure:"DB_CONN_MAX_LIFETIME"`
	DBSlowThreshold time.Duration `mapstructure:"DB_SLOW_THRESHOLD"`

	JWTSecret          string        `mapstructure:"JWT_SECRET"`
	JWTTTL             time.Duration `mapstructure:"JWT_TTL"`
	SessionIdleTimeout time.Duration `mapstructure:"SESSION_IDLE_TIMEOUT"`
	AdminEmail         string        `mapstructure:"ADMIN_EMAIL"`
	AdminPassword      string        `mapstructure:"ADMIN_PASSWORD"`

	LoginRatePerSec float64 `mapstructure:"LOGIN_RATE_PER_SEC"`
	LoginBurst      int     `mapstructure:"LOGIN_BURST"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`
}

var defaults = map[string]interface{}{
	"APP_ENV":              "development",
	"PORT":                 "3000",
	"REQUEST_TIMEOUT":      "10s",
	"TIMEZONE":             "UTC",
	"LOG_LEVEL":            "info",
	"CORS_ORIGINS":         "*",
	"DATABASE_URL":         "",
	"DB_HOST":              "localhost",
	"DB_PORT":              "5432",
	"DB_USER":              "postgres",
	"DB_PASSWORD":          "",
	"DB_NAME":              "warehouse",
	"DB_SSLMODE":           "disable",
	"DB_MAX_OPEN_CONNS":    100,
	"DB_MAX_IDLE_CONNS":    10,
	"DB_CONN_MAX_LIFETIME": "1h",
	"DB_SLOW_THRESHOLD":    "1s",
	"JWT_SECRET":           "",
	"JWT_TTL":              "24h",
	"SESSION_IDLE_TIMEOUT": "0s",
	"ADMIN_EMAIL":          "",
	"ADMIN_PASSWORD":       "",
	"LOGIN_RATE_PER_SEC":   1.0,
	"LOGIN_BURST":          5,
	"REDIS_ADDR":           "",
	"REDIS_PASSWORD":       "",
	"REDIS_DB":             0,
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, relying on system env")
	}
	return FromViper(viper.New())
}

// FromViper binds every known key on v to the environment and decodes it.
func FromViper(v *viper.Viper) (*Config, error) {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []string
	if c.JWTSecret == "" {
		errs = append(errs, "JWT_SECRET is required")
	} else if c.IsProduction() && len(c.JWTSecret) < 32 {
		errs = append(errs, "JWT_SECRET must be at least 32 characters in production")
	}
	if c.AdminEmail == "" {
		errs = append(errs, "ADMIN_EMAIL is required")
	}
	if c.DBMaxIdleConns > c.DBMaxOpenConns {
		errs = append(errs, "DB_MAX_IDLE_CONNS cannot be greater than DB_MAX_OPEN_CONNS")
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, "REQUEST_TIMEOUT must be positive")
	}
	if c.JWTTTL <= 0 {
		errs = append(errs, "JWT_TTL must be positive")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Sprintf("TIMEZONE %q: %v", c.Timezone, err))
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// DSN prefers DATABASE_URL and otherwise assembles a key/value DSN.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode, c.Timezone,
	)
}

// Location is the zone calendar buckets and date filters are computed in.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
