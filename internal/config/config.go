// Package config loads the service configuration from the environment, an
// optional .env file and an optional config file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

// DevJWTSecret is used when no secret is configured outside production.
const DevJWTSecret = "dev-secret-change-me"

// Config holds every setting the service reads at startup.
type Config struct {
	Env  string
	Port string

	JWTSecret      string
	InsecureSecret bool // true when DevJWTSecret was substituted
	TokenTTL       time.Duration
	BcryptCost     int

	DBDriver      string
	DatabaseDSN   string
	MongoURI      string
	MongoDatabase string

	RabbitMQURL string
	EventsQueue string

	CORSOrigins   []string
	AuthRateLimit float64
	AuthRateBurst int

	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	SeedProducts    bool
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Load reads configuration with a fresh viper instance.
func Load() (*Config, error) {
	return LoadWith(viper.New())
}

// LoadWith reads configuration into v and builds a validated Config.
func LoadWith(v *viper.Viper) (*Config, error) {
	v.SetDefault("ENV_FILE", ".env")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_PORT", ":3000")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("TOKEN_TTL", 24*time.Hour)
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("DB_DRIVER", "mongo")
	v.SetDefault("DATABASE_DSN", "host=127.0.0.1 user=postgres password=postgres dbname=ecommerce port=5432 sslmode=disable")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DATABASE", "ecommerce")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("EVENTS_QUEUE", "cart_events")
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173,http://127.0.0.1:5173,http://localhost:3000,http://127.0.0.1:3000")
	v.SetDefault("AUTH_RATE_LIMIT", 5.0)
	v.SetDefault("AUTH_RATE_BURST", 10)
	v.SetDefault("REQUEST_TIMEOUT", 10*time.Second)
	v.SetDefault("SHUTDOWN_TIMEOUT", 15*time.Second)
	v.SetDefault("SEED_PRODUCTS", true)
	v.AutomaticEnv()

	// .env never overrides variables that are already set
	if err := godotenv.Load(v.GetString("ENV_FILE")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	if path := v.GetString("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		Env:             v.GetString("APP_ENV"),
		Port:            v.GetString("APP_PORT"),
		JWTSecret:       v.GetString("JWT_SECRET"),
		TokenTTL:        v.GetDuration("TOKEN_TTL"),
		BcryptCost:      v.GetInt("BCRYPT_COST"),
		DBDriver:        strings.ToLower(v.GetString("DB_DRIVER")),
		DatabaseDSN:     v.GetString("DATABASE_DSN"),
		MongoURI:        v.GetString("MONGO_URI"),
		MongoDatabase:   v.GetString("MONGO_DATABASE"),
		RabbitMQURL:     v.GetString("RABBITMQ_URL"),
		EventsQueue:     v.GetString("EVENTS_QUEUE"),
		CORSOrigins:     splitList(v.GetString("CORS_ORIGINS")),
		AuthRateLimit:   v.GetFloat64("AUTH_RATE_LIMIT"),
		AuthRateBurst:   v.GetInt("AUTH_RATE_BURST"),
		RequestTimeout:  v.GetDuration("REQUEST_TIMEOUT"),
		ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),
		SeedProducts:    v.GetBool("SEED_PRODUCTS"),
	}

	if cfg.JWTSecret == "" && !cfg.IsProduction() {
		cfg.JWTSecret = DevJWTSecret
		cfg.InsecureSecret = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required in production"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL))
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, c.BcryptCost))
	}
	switch c.DBDriver {
	case "mongo", "postgres", "sqlite", "memory":
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER %q is not one of mongo, postgres, sqlite, memory", c.DBDriver))
	}
	if c.AuthRateLimit <= 0 || c.AuthRateBurst <= 0 {
		errs = append(errs, errors.New("AUTH_RATE_LIMIT and AUTH_RATE_BURST must be positive"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("REQUEST_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
