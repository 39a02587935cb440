package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"DayTrader/pkg/logger"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		// CORSOrigins empty allows any origin.
		CORSOrigins []string `yaml:"cors_origins"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Log struct {
		logger.Config `yaml:",inline"`
		Collector     struct {
			Enabled        bool          `yaml:"enabled"`
			Topic          string        `yaml:"topic"`
			FlushInterval  time.Duration `yaml:"flush_interval"`
			CountThreshold int           `yaml:"count_threshold"`
		} `yaml:"collector"`
	} `yaml:"log"`
	Scheduler struct {
		CryptoPeriod         time.Duration `yaml:"crypto_period"`
		ForexPeriod          time.Duration `yaml:"forex_period"`
		CycleTimeout         time.Duration `yaml:"cycle_timeout"`
		MaxConcurrentFetches int           `yaml:"max_concurrent_fetches"`
	} `yaml:"scheduler"`
	Window struct {
		Size int `yaml:"size"`
	} `yaml:"window"`
	Providers struct {
		Binance struct {
			BaseURL      string        `yaml:"base_url"`
			StreamURL    string        `yaml:"stream_url"`
			StreamPrices bool          `yaml:"stream_prices"`
			StreamMaxRPS int           `yaml:"stream_max_rps"`
			Timeout      time.Duration `yaml:"timeout"`
			RatePerSec   float64       `yaml:"rate_per_sec"`
			Burst        float64       `yaml:"burst"`
		} `yaml:"binance"`
		Yahoo struct {
			BaseURL    string        `yaml:"base_url"`
			Timeout    time.Duration `yaml:"timeout"`
			RatePerSec float64       `yaml:"rate_per_sec"`
			Burst      float64       `yaml:"burst"`
		} `yaml:"yahoo"`
		PriceCacheTTL time.Duration `yaml:"price_cache_ttl"`
	} `yaml:"providers"`
	Instruments []Instrument `yaml:"instruments"`
	Notify      struct {
		Timeout  time.Duration `yaml:"timeout"`
		Telegram struct {
			Enabled bool   `yaml:"enabled"`
			Token   string `yaml:"token"`
			ChatID  string `yaml:"chat_id"`
			APIURL  string `yaml:"api_url"`
		} `yaml:"telegram"`
		WhatsApp struct {
			Enabled  bool   `yaml:"enabled"`
			URL      string `yaml:"url"`
			Token    string `yaml:"token"`
			Phone    string `yaml:"phone"`
			Attempts int    `yaml:"attempts"`
		} `yaml:"whatsapp"`
		Kafka struct {
			Enabled bool   `yaml:"enabled"`
			Topic   string `yaml:"topic"`
		} `yaml:"kafka"`
		// Redelivery retries failed report sends through a Redis queue.
		Redelivery struct {
			Enabled    bool          `yaml:"enabled"`
			Workers    int           `yaml:"workers"`
			RetryLimit int           `yaml:"retry_limit"`
			RetryDelay time.Duration `yaml:"retry_delay"`
		} `yaml:"redelivery"`
	} `yaml:"notify"`
	Chart struct {
		Enabled bool   `yaml:"enabled"`
		Dir     string `yaml:"dir"`
		Width   int    `yaml:"width"`
		Height  int    `yaml:"height"`
	} `yaml:"chart"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
		} `yaml:"producer"`
		Consumer struct {
			Enabled     bool          `yaml:"enabled"`
			LimitsTopic string        `yaml:"limits_topic"`
			GroupID     string        `yaml:"group_id"`
			Workers     int           `yaml:"workers"`
			RetryMax    int           `yaml:"retry_max"`
			BackoffMin  time.Duration `yaml:"backoff_min"`
			BackoffMax  time.Duration `yaml:"backoff_max"`
			DLQTopic    string        `yaml:"dlq_topic"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled      bool          `yaml:"enabled"`
		Host         string        `yaml:"host"`
		Port         int           `yaml:"port"`
		Database     string        `yaml:"database"`
		User         string        `yaml:"user"`
		Password     string        `yaml:"password"`
		UseHTTP      bool          `yaml:"use_http"`
		AsyncInsert  bool          `yaml:"async_insert"`
		DialTimeout  time.Duration `yaml:"dial_timeout"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"clickhouse"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`
}

// Instrument is the YAML form of one monitored symbol.
type Instrument struct {
	Symbol     string   `yaml:"symbol"`
	Class      string   `yaml:"class"`
	UpperLimit float64  `yaml:"upper_limit"`
	LowerLimit float64  `yaml:"lower_limit"`
	Intervals  []string `yaml:"intervals"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML, fills defaults and validates.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads an optional .env file, the YAML config, then applies environment overrides.
func LoadWithEnv(path string) (*Config, error) {
	// .env is optional; real environment variables win over it
	_ = godotenv.Load()

	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	c.ApplyEnv(os.Getenv)
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// ApplyEnv overrides secrets and endpoints from the environment.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("TELEGRAM_TOKEN"); v != "" {
		c.Notify.Telegram.Token = v
	}
	if v := getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Notify.Telegram.ChatID = v
	}
	if v := getenv("WHATSAPP_URL"); v != "" {
		c.Notify.WhatsApp.URL = v
	}
	if v := getenv("WHATSAPP_TOKEN"); v != "" {
		c.Notify.WhatsApp.Token = v
	}
	if v := getenv("WHATSAPP_PHONE"); v != "" {
		c.Notify.WhatsApp.Phone = v
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := getenv("REDIS_HOST"); v != "" {
		c.Redis.Host = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 3000
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 10 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if c.Scheduler.CryptoPeriod == 0 {
		c.Scheduler.CryptoPeriod = time.Minute
	}
	if c.Scheduler.ForexPeriod == 0 {
		c.Scheduler.ForexPeriod = time.Minute
	}
	if c.Scheduler.CycleTimeout == 0 {
		c.Scheduler.CycleTimeout = 50 * time.Second
	}
	if c.Scheduler.MaxConcurrentFetches == 0 {
		c.Scheduler.MaxConcurrentFetches = 8
	}
	if c.Window.Size == 0 {
		c.Window.Size = 50
	}
	if c.Providers.Binance.BaseURL == "" {
		c.Providers.Binance.BaseURL = "https://api.binance.com"
	}
	if c.Providers.Binance.StreamURL == "" {
		c.Providers.Binance.StreamURL = "wss://stream.binance.com:9443/stream"
	}
	if c.Providers.Binance.Timeout == 0 {
		c.Providers.Binance.Timeout = 10 * time.Second
	}
	if c.Providers.Yahoo.BaseURL == "" {
		c.Providers.Yahoo.BaseURL = "https://query1.finance.yahoo.com"
	}
	if c.Providers.Yahoo.Timeout == 0 {
		c.Providers.Yahoo.Timeout = 10 * time.Second
	}
	if c.Providers.PriceCacheTTL == 0 {
		c.Providers.PriceCacheTTL = 5 * time.Second
	}
	if c.Notify.Timeout == 0 {
		c.Notify.Timeout = 15 * time.Second
	}
	if c.Notify.Kafka.Topic == "" {
		c.Notify.Kafka.Topic = "daytrader.reports"
	}
	if c.Notify.Redelivery.RetryLimit == 0 {
		c.Notify.Redelivery.RetryLimit = 5
	}
	if c.Notify.Redelivery.RetryDelay == 0 {
		c.Notify.Redelivery.RetryDelay = 30 * time.Second
	}
	if c.Notify.WhatsApp.Attempts == 0 {
		c.Notify.WhatsApp.Attempts = 3
	}
	if c.Chart.Dir == "" {
		c.Chart.Dir = "./content"
	}
	if c.Chart.Width == 0 {
		c.Chart.Width = 800
	}
	if c.Chart.Height == 0 {
		c.Chart.Height = 600
	}
	if c.Kafka.Consumer.LimitsTopic == "" {
		c.Kafka.Consumer.LimitsTopic = "daytrader.limits"
	}
	if c.Kafka.Consumer.GroupID == "" {
		c.Kafka.Consumer.GroupID = "daytrader"
	}
	if c.Log.Collector.Topic == "" {
		c.Log.Collector.Topic = "daytrader.logs"
	}
	if c.Redis.Prefix == "" {
		c.Redis.Prefix = "daytrader"
	}
}

// KafkaEnabled reports whether any component needs brokers.
func (c *Config) KafkaEnabled() bool {
	return c.Notify.Kafka.Enabled || c.Kafka.Consumer.Enabled || c.Log.Collector.Enabled
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if len(c.Instruments) == 0 {
		return fmt.Errorf("instruments cannot be empty")
	}
	seen := make(map[string]struct{}, len(c.Instruments))
	for i, in := range c.Instruments {
		if in.Symbol == "" {
			return fmt.Errorf("instruments[%d].symbol is required", i)
		}
		if _, dup := seen[in.Symbol]; dup {
			return fmt.Errorf("instruments[%d]: duplicate symbol %s", i, in.Symbol)
		}
		seen[in.Symbol] = struct{}{}
		if in.UpperLimit <= in.LowerLimit {
			return fmt.Errorf("instruments[%d] %s: upper_limit must be greater than lower_limit", i, in.Symbol)
		}
		if len(in.Intervals) == 0 {
			return fmt.Errorf("instruments[%d] %s: intervals cannot be empty", i, in.Symbol)
		}
	}
	if c.Window.Size < 2 {
		return fmt.Errorf("window.size must be at least 2, got %d", c.Window.Size)
	}
	if c.Notify.Telegram.Enabled && c.Notify.Telegram.Token == "" {
		return fmt.Errorf("notify.telegram.token is required when telegram is enabled")
	}
	if c.Notify.WhatsApp.Enabled && c.Notify.WhatsApp.URL == "" {
		return fmt.Errorf("notify.whatsapp.url is required when whatsapp is enabled")
	}
	if c.KafkaEnabled() && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when a kafka component is enabled")
	}
	if c.Notify.Redelivery.Enabled && !c.Redis.Enabled {
		return fmt.Errorf("notify.redelivery requires redis.enabled")
	}
	if c.ClickHouse.Enabled && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required when clickhouse is enabled")
	}
	return nil
}
