package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/baajur/payments-gateway/pkg/logger"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Broker     BrokerConfig     `yaml:"broker"`
	Ledger     LedgerConfig     `yaml:"ledger"`
	Exchange   ExchangeConfig   `yaml:"exchange"`
	Settlement SettlementConfig `yaml:"settlement"`
	Logger     logger.Config    `yaml:"logger"`
}

type ServerConfig struct {
	Host        string `yaml:"host"`
	Port        string `yaml:"port"`
	Environment string `yaml:"environment"`
}

type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	User            string        `yaml:"user"`
	DBName          string        `yaml:"name"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"ssl_mode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	// Workers bounds how many storage transactions may be in flight at once.
	Workers int `yaml:"workers"`
}

type BrokerConfig struct {
	URL             string        `yaml:"url"`
	ChannelPoolSize int           `yaml:"channel_pool_size"`
	PublishTimeout  time.Duration `yaml:"publish_timeout"`
}

type LedgerConfig struct {
	// NotifyAttempts bounds best-effort notification retries after a commit.
	NotifyAttempts int           `yaml:"notify_attempts"`
	NotifyBackoff  time.Duration `yaml:"notify_backoff"`
	SweepInterval  time.Duration `yaml:"sweep_interval"`
	SweepBatchSize int           `yaml:"sweep_batch_size"`
}

type ExchangeConfig struct {
	BaseURL    string        `yaml:"base_url"`
	APIKey     string        `yaml:"api_key"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
	RetryDelay time.Duration `yaml:"retry_delay"`
}

type SettlementConfig struct {
	BaseURL    string        `yaml:"base_url"`
	APIKey     string        `yaml:"api_key"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
	RetryDelay time.Duration `yaml:"retry_delay"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	var config Config
	configData, err := os.ReadFile("./config.yaml")
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(configData, &config); err != nil {
		return nil, err
	}

	if config.Database.Workers <= 0 {
		config.Database.Workers = 16
	}
	if config.Broker.ChannelPoolSize <= 0 {
		config.Broker.ChannelPoolSize = 8
	}
	if config.Ledger.NotifyAttempts <= 0 {
		config.Ledger.NotifyAttempts = 3
	}
	if config.Ledger.SweepBatchSize <= 0 {
		config.Ledger.SweepBatchSize = 100
	}

	return &config, nil
}
