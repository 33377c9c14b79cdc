package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
	LogLevel    string `koanf:"log_level"`

	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Redis    RedisConfig    `koanf:"redis"`
	Kafka    KafkaConfig    `koanf:"kafka"`

	Bidding  BiddingConfig  `koanf:"bidding"`
	Fare     FareConfig     `koanf:"fare"`
	Payments PaymentsConfig `koanf:"payments"`
	Maps     MapsConfig     `koanf:"maps"`
	Security SecurityConfig `koanf:"security"`
}

type ServerConfig struct {
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
}

type RedisConfig struct {
	URL         string        `koanf:"url"`
	Password    string        `koanf:"password"`
	DB          int           `koanf:"db"`
	DialTimeout time.Duration `koanf:"dial_timeout"`
	SnapshotTTL time.Duration `koanf:"snapshot_ttl"`
}

type KafkaConfig struct {
	Brokers []string `koanf:"brokers"`
	Topic   string   `koanf:"topic"`
}

type BiddingConfig struct {
	Window     time.Duration `koanf:"window"`
	AutoExtend bool          `koanf:"auto_extend"`
	Extension  time.Duration `koanf:"extension"`
	MaxExtends int           `koanf:"max_extends"`
}

type FareConfig struct {
	Currency    string  `koanf:"currency"`
	BaseFare    float64 `koanf:"base_fare"`
	PerKm       float64 `koanf:"per_km"`
	PerMinute   float64 `koanf:"per_minute"`
	MinimumFare float64 `koanf:"minimum_fare"`
}

type PaymentsConfig struct {
	StripeKey string `koanf:"stripe_key"`
	Enabled   bool   `koanf:"enabled"`
}

type MapsConfig struct {
	APIKey  string `koanf:"api_key"`
	Enabled bool   `koanf:"enabled"`
}

type SecurityConfig struct {
	JWTSecret   string          `koanf:"jwt_secret"`
	TokenExpiry time.Duration   `koanf:"token_expiry"`
	RateLimit   RateLimitConfig `koanf:"rate_limit"`
}

type RateLimitConfig struct {
	RequestsPerSecond int `koanf:"requests_per_second"`
	BurstSize         int `koanf:"burst_size"`
}

// Load reads configuration from defaults, the optional configs/config.yaml
// and RYDEIQ_-prefixed environment variables, in ascending precedence.
func Load() (*Config, error) {
	return loadFrom("configs/config.yaml")
}

func loadFrom(path string) (*Config, error) {
	k := koanf.New(".")

	defaults := &Config{
		Version:     "dev",
		Environment: "development",
		LogLevel:    "info",
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			DB:          0,
			DialTimeout: 5 * time.Second,
			SnapshotTTL: time.Hour,
		},
		Kafka: KafkaConfig{
			Topic: "ride-lifecycle",
		},
		Bidding: BiddingConfig{
			Window:     2 * time.Minute,
			AutoExtend: false,
			Extension:  time.Minute,
			MaxExtends: 3,
		},
		Fare: FareConfig{
			Currency:    "USD",
			BaseFare:    2.50,
			PerKm:       1.10,
			PerMinute:   0.35,
			MinimumFare: 6.00,
		},
		Security: SecurityConfig{
			TokenExpiry: 24 * time.Hour,
			RateLimit: RateLimitConfig{
				RequestsPerSecond: 100,
				BurstSize:         200,
			},
		},
	}

	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	// Config file is optional, but a present file must parse
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	// Environment variables override everything: RYDEIQ_SERVER_PORT, etc.
	if err := k.Load(env.Provider("RYDEIQ_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "RYDEIQ_")), "_", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}
