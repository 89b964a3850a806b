package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"log"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Kafka struct {
		Enabled       bool     `yaml:"enabled"`
		Brokers       []string `yaml:"brokers"`
		SignalTopic   string   `yaml:"signal_topic"`
		PumpDumpTopic string   `yaml:"pump_dump_topic"`
		CandlesTopic  string   `yaml:"candles_topic"`
		RequiredAcks  int      `yaml:"required_acks"`
		Compression   string   `yaml:"compression"`
		Producer      struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			Enabled    bool          `yaml:"enabled"`
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Exchange struct {
		RESTURL        string        `yaml:"rest_url"`
		WebSocketURL   string        `yaml:"websocket_url"`
		Symbols        []string      `yaml:"symbols"`
		RequestTimeout time.Duration `yaml:"request_timeout"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
	} `yaml:"exchange"`
	Detectors struct {
		SmartMoneyVolumeRatio float64 `yaml:"smart_money_volume_ratio"`
		LiquidityLookback     int     `yaml:"liquidity_lookback"`
		WhaleStdMultiplier    float64 `yaml:"whale_std_multiplier"`
		PumpDumpThreshold     float64 `yaml:"pump_dump_threshold"`
		PumpDumpWindow        int     `yaml:"pump_dump_window"`
		MaxEvents             int     `yaml:"max_events"`
	} `yaml:"detectors"`
	Scanner struct {
		Interval      time.Duration `yaml:"interval"`
		WindowBars    int           `yaml:"window_bars"`
		Timeframe     string        `yaml:"timeframe"`
		MinStrength   float64       `yaml:"min_strength"`
		TargetPercent float64       `yaml:"target_percent"`
		StopPercent   float64       `yaml:"stop_percent"`
		Horizon       time.Duration `yaml:"horizon"`
	} `yaml:"scanner"`
	Validator struct {
		Interval       time.Duration `yaml:"interval"`
		SignalMinAge   time.Duration `yaml:"signal_min_age"`
		PumpDumpMinAge time.Duration `yaml:"pump_dump_min_age"`
	} `yaml:"validator"`
	Backfill struct {
		Enabled  bool          `yaml:"enabled"`
		Bars     int           `yaml:"bars"`
		Interval time.Duration `yaml:"interval"`
	} `yaml:"backfill"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Exchange.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("EXCHANGE_REST_URL"); v != "" {
		c.Exchange.RESTURL = v
	}
	if v := os.Getenv("EXCHANGE_WS_URL"); v != "" {
		c.Exchange.WebSocketURL = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if len(c.Exchange.Symbols) == 0 {
		return fmt.Errorf("exchange.symbols cannot be empty")
	}
	if c.Exchange.RESTURL == "" {
		return fmt.Errorf("exchange.rest_url is required")
	}
	if c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Scanner.MinStrength < 0 || c.Scanner.MinStrength > 100 {
		return fmt.Errorf("scanner.min_strength must be within [0,100]")
	}
	return nil
}
