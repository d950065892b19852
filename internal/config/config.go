package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	StoreFile     = "file"
	StorePostgres = "postgres"

	LockMemory = "memory"
	LockRedis  = "redis"
)

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type SendGridConfig struct {
	APIKey    string `yaml:"api_key"`
	FromEmail string `yaml:"from_email"`
	FromName  string `yaml:"from_name"`
}

type TwilioConfig struct {
	AccountSID string `yaml:"account_sid"`
	AuthToken  string `yaml:"auth_token"`
	FromNumber string `yaml:"from_number"`
}

// Config holds the server settings.
type Config struct {
	Port                    string         `yaml:"port"`
	LedgerStore             string         `yaml:"ledger_store"`
	LedgerFile              string         `yaml:"ledger_file"`
	DatabaseURL             string         `yaml:"database_url"`
	LockBackend             string         `yaml:"lock_backend"`
	LockTTL                 time.Duration  `yaml:"lock_ttl"`
	Redis                   RedisConfig    `yaml:"redis"`
	Timezone                string         `yaml:"timezone"`
	OccupancyReportSchedule string         `yaml:"occupancy_report_schedule"`
	RateLimitRPS            float64        `yaml:"rate_limit_rps"`
	RateLimitBurst          int            `yaml:"rate_limit_burst"`
	CORSAllowedOrigins      []string       `yaml:"cors_allowed_origins"`
	SendGrid                SendGridConfig `yaml:"sendgrid"`
	Twilio                  TwilioConfig   `yaml:"twilio"`
}

// Load reads .env when present, then the environment, then the YAML file named by PARKSLOT_CONFIG.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found; using system environment")
	}
	return FromEnv()
}

// FromEnv builds the config from defaults and environment variables, applies the
// optional YAML overlay and validates the result.
func FromEnv() (Config, error) {
	cfg := Config{
		Port:                    getenvDefault("PORT", "8080"),
		LedgerStore:             getenvDefault("LEDGER_STORE", StoreFile),
		LedgerFile:              getenvDefault("LEDGER_FILE", "parking_data.json"),
		DatabaseURL:             os.Getenv("DATABASE_URL"),
		LockBackend:             getenvDefault("LOCK_BACKEND", LockMemory),
		LockTTL:                 getenvDurationDefault("LOCK_TTL", 10*time.Second),
		Timezone:                getenvDefault("TIMEZONE", "Local"),
		OccupancyReportSchedule: "@every 15m",
		RateLimitRPS:            getenvFloatDefault("RATE_LIMIT_RPS", 5),
		RateLimitBurst:          getenvIntDefault("RATE_LIMIT_BURST", 10),
		CORSAllowedOrigins:      splitList(getenvDefault("CORS_ALLOWED_ORIGINS", "*")),
		Redis: RedisConfig{
			Addr:     getenvDefault("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getenvIntDefault("REDIS_DB", 0),
		},
		SendGrid: SendGridConfig{
			APIKey:    os.Getenv("SENDGRID_API_KEY"),
			FromEmail: os.Getenv("SENDGRID_FROM_EMAIL"),
			FromName:  getenvDefault("SENDGRID_FROM_NAME", "ParkSlot"),
		},
		Twilio: TwilioConfig{
			AccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
			AuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
			FromNumber: os.Getenv("TWILIO_FROM_NUMBER"),
		},
	}
	// An explicitly empty schedule disables the report job.
	if v, ok := os.LookupEnv("OCCUPANCY_REPORT_SCHEDULE"); ok {
		cfg.OccupancyReportSchedule = strings.TrimSpace(v)
	}

	if path := os.Getenv("PARKSLOT_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.LedgerStore {
	case StoreFile:
		if c.LedgerFile == "" {
			return errors.New("LEDGER_FILE is required for the file store")
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL not set")
		}
	default:
		return fmt.Errorf("unknown LEDGER_STORE %q", c.LedgerStore)
	}
	switch c.LockBackend {
	case LockMemory, LockRedis:
	default:
		return fmt.Errorf("unknown LOCK_BACKEND %q", c.LockBackend)
	}
	if c.LockTTL <= 0 {
		return errors.New("LOCK_TTL must be positive")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location is the zone used to read the hour for the night window.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// LockHoldTimeout caps a booking's store calls while it holds the ledger lock.
// It stays below LockTTL so a Redis lease cannot expire under a write in flight.
func (c Config) LockHoldTimeout() time.Duration {
	return c.LockTTL * 3 / 4
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvIntDefault(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Ignoring invalid %s=%q: %v", key, v, err)
		return def
	}
	return n
}

func getenvFloatDefault(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("Ignoring invalid %s=%q: %v", key, v, err)
		return def
	}
	return f
}

func getenvDurationDefault(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("Ignoring invalid %s=%q: %v", key, v, err)
		return def
	}
	return d
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
