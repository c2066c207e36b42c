// Package config загружает конфигурацию сервиса: файл config.yaml рядом
// с бинарём плюс переменные окружения с префиксом ISLAND_.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	HTTPAddr   string `mapstructure:"http_addr"`
	AdminToken string `mapstructure:"admin_token"`
	LogLevel   string `mapstructure:"log_level"`

	// DSN журнала заказов; пустая строка отключает журнал
	DatabaseURL string `mapstructure:"database_url"`

	Webhook WebhookConfig `mapstructure:"webhook"`
	Stan    StanConfig    `mapstructure:"stan"`
	Order   OrderConfig   `mapstructure:"order"`
	Worker  WorkerConfig  `mapstructure:"worker"`
}

// WebhookConfig — доставка чат-уведомлений; пустой URL отключает канал.
type WebhookConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// StanConfig — публикация событий в NATS Streaming; пустой URL отключает.
type StanConfig struct {
	ClusterID string `mapstructure:"cluster_id"`
	ClientID  string `mapstructure:"client_id"`
	URL       string `mapstructure:"url"`
	Subject   string `mapstructure:"subject"`
}

// OrderConfig — параметры приёма заказов и оценки ожидания (секунды).
type OrderConfig struct {
	ArrivalAllowance   int    `mapstructure:"arrival_allowance"`
	SetupAllowance     int    `mapstructure:"setup_allowance"`
	UserTimeAllowed    int    `mapstructure:"user_time_allowed"`
	WaitForArriverTime int    `mapstructure:"wait_for_arriver_time"`
	ShowIDs            bool   `mapstructure:"show_ids"`
	IDBase             uint64 `mapstructure:"id_base"`
	SpritesPath        string `mapstructure:"sprites_path"`
	IslandName         string `mapstructure:"island_name"`
}

// WorkerConfig — поведение воркера выдачи.
type WorkerConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// Load читает конфигурацию. Отсутствие файла — не ошибка: всё можно
// задать окружением.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("http_addr", ":8080")
	v.SetDefault("admin_token", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("database_url", "")

	v.SetDefault("webhook.url", "")
	v.SetDefault("webhook.timeout", 10*time.Second)

	v.SetDefault("stan.cluster_id", "island-cluster")
	v.SetDefault("stan.client_id", "")
	v.SetDefault("stan.url", "")
	v.SetDefault("stan.subject", "orders.events")

	v.SetDefault("order.arrival_allowance", 90)
	v.SetDefault("order.setup_allowance", 95)
	v.SetDefault("order.user_time_allowed", 120)
	v.SetDefault("order.wait_for_arriver_time", 60)
	v.SetDefault("order.show_ids", false)
	v.SetDefault("order.id_base", 0)
	v.SetDefault("order.sprites_path", "")
	v.SetDefault("order.island_name", "")

	v.SetDefault("worker.poll_interval", time.Second)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("ISLAND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	o := c.Order
	if o.ArrivalAllowance < 0 || o.SetupAllowance < 0 || o.UserTimeAllowed < 0 || o.WaitForArriverTime < 0 {
		return fmt.Errorf("order timing values must be non-negative")
	}
	if c.Worker.PollInterval <= 0 {
		return fmt.Errorf("worker.poll_interval must be positive")
	}
	return nil
}
