package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	// Paused short-circuits every pipeline run.
	Paused bool `yaml:"paused"`

	Log struct {
		Level      string `yaml:"level"`
		Format     string `yaml:"format"`
		Output     string `yaml:"output"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
	} `yaml:"log"`
	Server struct {
		Host            string        `yaml:"host"`
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		RateLimitRPS    float64       `yaml:"rate_limit_rps"`
		RateLimitBurst  int           `yaml:"rate_limit_burst"`
		CacheTTL        time.Duration `yaml:"cache_ttl"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"metrics"`
	Storage struct {
		Backend string `yaml:"backend"` // sqlite | clickhouse
		SQLite  struct {
			Path        string        `yaml:"path"`
			BusyTimeout time.Duration `yaml:"busy_timeout"`
		} `yaml:"sqlite"`
	} `yaml:"storage"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Transport    string   `yaml:"transport"` // direct | kafka
		Brokers      []string `yaml:"brokers"`
		MarketsTopic string   `yaml:"markets_topic"`
		ScoresTopic  string   `yaml:"scores_topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	Upstream struct {
		Timeout      time.Duration `yaml:"timeout"`
		RetryCount   int           `yaml:"retry_count"`
		RetryWait    time.Duration `yaml:"retry_wait"`
		RetryMaxWait time.Duration `yaml:"retry_max_wait"`
		Workers      int           `yaml:"workers"`
		PagesPerSec  float64       `yaml:"pages_per_sec"`
	} `yaml:"upstream"`
	Markets struct {
		Provider   string `yaml:"provider"` // coingecko | coinmarketcap
		Pages      int    `yaml:"pages"`
		PerPage    int    `yaml:"per_page"`
		VsCurrency string `yaml:"vs_currency"`
	} `yaml:"markets"`
	CoinGecko struct {
		BaseURL    string `yaml:"base_url"`
		ProBaseURL string `yaml:"pro_base_url"`
		APIKey     string `yaml:"api_key"`
	} `yaml:"coingecko"`
	CoinMarketCap struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
	} `yaml:"coinmarketcap"`
	CoinMarketCal struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
		Max     int    `yaml:"max"`
	} `yaml:"coinmarketcal"`
	CryptoPanic struct {
		BaseURL   string `yaml:"base_url"`
		AuthToken string `yaml:"auth_token"`
		Limit     int    `yaml:"limit"`
	} `yaml:"cryptopanic"`
	Finnhub struct {
		BaseURL string   `yaml:"base_url"`
		APIKey  string   `yaml:"api_key"`
		Symbols []string `yaml:"symbols"`
	} `yaml:"finnhub"`
	AlphaVantage struct {
		BaseURL string   `yaml:"base_url"`
		APIKey  string   `yaml:"api_key"`
		Symbols []string `yaml:"symbols"`
	} `yaml:"alphavantage"`
	Analytics struct {
		Mode       string  `yaml:"mode"` // series | latest
		EMAFast    int     `yaml:"ema_fast"`
		EMASlow    int     `yaml:"ema_slow"`
		RSIPeriod  int     `yaml:"rsi_period"`
		MACDFast   int     `yaml:"macd_fast"`
		MACDSlow   int     `yaml:"macd_slow"`
		MACDSignal int     `yaml:"macd_signal"`
		BullishCut float64 `yaml:"bullish_cut"`
		BearishCut float64 `yaml:"bearish_cut"`
		Lookback   int     `yaml:"lookback"` // observations read per asset, 0 = all
	} `yaml:"analytics"`
	Scheduler struct {
		Enabled   bool   `yaml:"enabled"`
		Markets   string `yaml:"markets"`
		Feeds     string `yaml:"feeds"`
		Quotes    string `yaml:"quotes"`
		Analytics string `yaml:"analytics"`
	} `yaml:"scheduler"`
}

// Default returns a configuration usable without a YAML file.
func Default() *Config {
	c := &Config{Environment: "development"}
	c.Log.Level = "info"
	c.Log.Format = "console"
	c.Log.Output = "stdout"

	c.Server.Host = "0.0.0.0"
	c.Server.Port = 8000
	c.Server.ReadTimeout = 10 * time.Second
	c.Server.WriteTimeout = 10 * time.Second
	c.Server.ShutdownTimeout = 10 * time.Second
	c.Server.RateLimitRPS = 20
	c.Server.RateLimitBurst = 40
	c.Server.CacheTTL = 30 * time.Second
	c.Metrics.Enabled = true

	c.Storage.Backend = "sqlite"
	c.Storage.SQLite.Path = "data/markets.db"
	c.Storage.SQLite.BusyTimeout = 5 * time.Second

	c.ClickHouse.Host = "localhost"
	c.ClickHouse.Port = 9000
	c.ClickHouse.Database = "certus"
	c.ClickHouse.User = "default"
	c.ClickHouse.DialTimeout = 5 * time.Second
	c.ClickHouse.ReadTimeout = 30 * time.Second
	c.ClickHouse.MaxExecutionTime = 60 * time.Second

	c.Redis.Addr = "localhost:6379"
	c.Redis.Prefix = "certus"

	c.Kafka.Transport = "direct"
	c.Kafka.MarketsTopic = "certus.markets"
	c.Kafka.ScoresTopic = "certus.scores"
	c.Kafka.RequiredAcks = -1
	c.Kafka.Compression = "snappy"
	c.Kafka.Producer.MaxAttempts = 5
	c.Kafka.Producer.Linger = 50 * time.Millisecond
	c.Kafka.Producer.BatchSize = 500
	c.Kafka.Producer.WriteTimeout = 10 * time.Second
	c.Kafka.Consumer.GroupID = "certus-ingest"
	c.Kafka.Consumer.Workers = 2
	c.Kafka.Consumer.BufferSize = 256
	c.Kafka.Consumer.RetryMax = 3
	c.Kafka.Consumer.BackoffMin = 200 * time.Millisecond
	c.Kafka.Consumer.BackoffMax = 5 * time.Second

	c.Upstream.Timeout = 20 * time.Second
	c.Upstream.RetryCount = 3
	c.Upstream.RetryWait = 500 * time.Millisecond
	c.Upstream.RetryMaxWait = 8 * time.Second
	c.Upstream.Workers = 4
	c.Upstream.PagesPerSec = 0.5

	c.Markets.Provider = "coingecko"
	c.Markets.Pages = 2
	c.Markets.PerPage = 250
	c.Markets.VsCurrency = "usd"

	c.CoinGecko.BaseURL = "https://api.coingecko.com/api/v3"
	c.CoinGecko.ProBaseURL = "https://pro-api.coingecko.com/api/v3"
	c.CoinMarketCap.BaseURL = "https://pro-api.coinmarketcap.com"
	c.CoinMarketCal.BaseURL = "https://developers.coinmarketcal.com"
	c.CoinMarketCal.Max = 50
	c.CryptoPanic.BaseURL = "https://cryptopanic.com"
	c.CryptoPanic.Limit = 50
	c.Finnhub.BaseURL = "https://finnhub.io/api/v1"
	c.AlphaVantage.BaseURL = "https://www.alphavantage.co"

	c.Analytics.Mode = "series"
	c.Analytics.EMAFast = 9
	c.Analytics.EMASlow = 20
	c.Analytics.RSIPeriod = 14
	c.Analytics.MACDFast = 12
	c.Analytics.MACDSlow = 26
	c.Analytics.MACDSignal = 9
	c.Analytics.BullishCut = 65
	c.Analytics.BearishCut = 40
	c.Analytics.Lookback = 500

	c.Scheduler.Markets = "0 */5 * * * *"
	c.Scheduler.Feeds = "0 */15 * * * *"
	c.Scheduler.Quotes = "0 */10 * * * *"
	c.Scheduler.Analytics = "30 */5 * * * *"
	return c
}

// Load reads a YAML configuration file on top of Default().
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

// LoadWithEnv loads .env (when present), the YAML file (when present) and
// applies environment overrides.
func LoadWithEnv(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	c := Default()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if c, err = Load(path); err != nil {
				return nil, err
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat config: %w", err)
		}
	}

	c.applyEnv(os.Getenv)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	str := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	list := func(key string, dst *[]string) {
		if v := getenv(key); v != "" {
			*dst = splitList(v)
		}
	}

	if v := getenv("CERTUS_PAUSED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Paused = b
		}
	}
	str("LOG_LEVEL", &c.Log.Level)
	str("STORAGE_BACKEND", &c.Storage.Backend)
	str("SQLITE_PATH", &c.Storage.SQLite.Path)
	str("CLICKHOUSE_HOST", &c.ClickHouse.Host)
	str("CLICKHOUSE_USER", &c.ClickHouse.User)
	str("CLICKHOUSE_PASSWORD", &c.ClickHouse.Password)
	if v := getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
		c.Kafka.Enabled = true
	}
	str("COINGECKO_API_KEY", &c.CoinGecko.APIKey)
	str("CMC_API_KEY", &c.CoinMarketCap.APIKey)
	str("COINMARKETCAL_API_KEY", &c.CoinMarketCal.APIKey)
	str("CRYPTOPANIC_TOKEN", &c.CryptoPanic.AuthToken)
	str("FINNHUB_API_KEY", &c.Finnhub.APIKey)
	str("ALPHAVANTAGE_API_KEY", &c.AlphaVantage.APIKey)
	list("FINNHUB_SYMBOLS", &c.Finnhub.Symbols)
	list("ALPHAVANTAGE_SYMBOLS", &c.AlphaVantage.Symbols)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	switch c.Storage.Backend {
	case "sqlite":
		if c.Storage.SQLite.Path == "" {
			return fmt.Errorf("storage.sqlite.path is required")
		}
	case "clickhouse":
		if c.ClickHouse.Host == "" || c.ClickHouse.Database == "" {
			return fmt.Errorf("clickhouse.host and clickhouse.database are required")
		}
	default:
		return fmt.Errorf("storage.backend must be 'sqlite' or 'clickhouse', got '%s'", c.Storage.Backend)
	}
	switch c.Markets.Provider {
	case "coingecko", "coinmarketcap":
	default:
		return fmt.Errorf("markets.provider must be 'coingecko' or 'coinmarketcap', got '%s'", c.Markets.Provider)
	}
	if c.Markets.Provider == "coinmarketcap" && c.CoinMarketCap.APIKey == "" {
		return fmt.Errorf("coinmarketcap.api_key is required for the coinmarketcap provider")
	}
	if c.Markets.Pages < 1 || c.Markets.PerPage < 1 {
		return fmt.Errorf("markets.pages and markets.per_page must be positive")
	}
	if c.Upstream.Workers < 1 || c.Upstream.Workers > 20 {
		return fmt.Errorf("upstream.workers must be within 1..20, got %d", c.Upstream.Workers)
	}
	if c.Upstream.RetryCount < 0 {
		return fmt.Errorf("upstream.retry_count cannot be negative")
	}
	if c.Analytics.Mode != "series" && c.Analytics.Mode != "latest" {
		return fmt.Errorf("analytics.mode must be 'series' or 'latest', got '%s'", c.Analytics.Mode)
	}
	if c.Analytics.BearishCut >= c.Analytics.BullishCut {
		return fmt.Errorf("analytics.bearish_cut must be below analytics.bullish_cut")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Kafka.Transport == "kafka" && !c.Kafka.Enabled {
		return fmt.Errorf("kafka.transport 'kafka' requires kafka.enabled")
	}
	return nil
}
