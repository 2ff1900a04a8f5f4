package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	// Часовые пояса без системной tzdata в контейнере
	_ "time/tzdata"
)

type Environment string

const (
	EnvLocal      Environment = "local"
	EnvDev        Environment = "dev"
	EnvStage      Environment = "stage"
	EnvProduction Environment = "production"
)

type StorageMode string

const (
	StorageMemory      StorageMode = "memory"
	StorageRecordStore StorageMode = "recordstore"
)

type ConfigBasicClient struct {
	Username string
	Password string
}

type Config struct {
	App struct {
		Version  string      `env:"APP_VERSION" envDefault:"local"`
		Env      Environment `env:"APP_ENV" envDefault:"local"`
		Timezone string      `env:"APP_TIMEZONE" envDefault:"Europe/Moscow"`
	}

	HTTP struct {
		Port string `env:"HTTP_SERVER_PORT" envDefault:"8080"`
		Host string `env:"HTTP_SERVER_HOST" envDefault:"localhost"`
	}

	Storage struct {
		Mode StorageMode `env:"STORAGE_MODE" envDefault:"memory"`
	}

	RecordStore struct {
		URL      string        `env:"RECORD_STORE_URL"`
		Username string        `env:"RECORD_STORE_USERNAME"`
		Password string        `env:"RECORD_STORE_PASSWORD"`
		Timeout  time.Duration `env:"RECORD_STORE_TIMEOUT" envDefault:"10s"`
	}

	Auth struct {
		BasicClientsString string `env:"AUTH_BASIC_CLIENTS" envDefault:"availability:availability"`
		BasicClients       []ConfigBasicClient
	}

	RabbitMQ struct {
		Enabled  bool   `env:"RABBITMQ_ENABLED"`
		URL      string `env:"RABBITMQ_URL"`
		Queue    string `env:"RABBITMQ_QUEUE"`
		Exchange string `env:"RABBITMQ_EXCHANGE" envDefault:"records"`
		Bind     string `env:"RABBITMQ_BIND" envDefault:"#"`
	}

	Cache struct {
		Enabled bool `env:"CACHE_ENABLED"`
		Size    int  `env:"CACHE_SIZE" envDefault:"1000"`
	}

	Redis struct {
		Enabled  bool          `env:"REDIS_ENABLED"`
		Addr     string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
		Password string        `env:"REDIS_PASSWORD"`
		DB       int           `env:"REDIS_DB"`
		ClaimTTL time.Duration `env:"REDIS_CLAIM_TTL" envDefault:"720h"`
	}

	Booking struct {
		ResolutionSessions int `env:"BOOKING_RESOLUTION_SESSIONS" envDefault:"1024"`
	}
}

// NewConfig читает .env (если есть) и переменные окружения
func NewConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	return Parse()
}

// Parse собирает конфигурацию только из переменных окружения
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	// Приведение окружения к нижнему регистру для унификации
	cfg.App.Env = Environment(strings.ToLower(string(cfg.App.Env)))
	cfg.Storage.Mode = StorageMode(strings.ToLower(string(cfg.Storage.Mode)))

	cfg.Auth.BasicClients = parseBasicClients(cfg.Auth.BasicClientsString)

	if cfg.Storage.Mode != StorageMemory && cfg.Storage.Mode != StorageRecordStore {
		return nil, fmt.Errorf("unknown storage mode %q", cfg.Storage.Mode)
	}
	if cfg.Storage.Mode == StorageRecordStore && cfg.RecordStore.URL == "" {
		return nil, errors.New("RECORD_STORE_URL is required for recordstore storage")
	}
	if _, err := time.LoadLocation(cfg.App.Timezone); err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE: %w", err)
	}

	// Если RabbitMQ не включен, то кэш тоже не включаем: без событий его нечем инвалидировать
	if !cfg.RabbitMQ.Enabled {
		cfg.Cache.Enabled = false
	}
	if cfg.Booking.ResolutionSessions <= 0 {
		cfg.Booking.ResolutionSessions = 1024
	}

	return cfg, nil
}

func parseBasicClients(raw string) []ConfigBasicClient {
	clients := []ConfigBasicClient{}
	for _, pair := range strings.Split(raw, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), ":", 2)
		if len(parts) == 2 && parts[0] != "" {
			clients = append(clients, ConfigBasicClient{
				Username: parts[0],
				Password: parts[1],
			})
		}
	}
	return clients
}

// Location — часовой пояс, в котором считаются календарные даты и "сейчас"
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) IsLocal() bool {
	return c.App.Env == EnvLocal
}

func (c *Config) IsNotLocal() bool {
	return c.App.Env == EnvDev || c.App.Env == EnvStage || c.App.Env == EnvProduction
}
