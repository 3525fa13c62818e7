package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Kafka      KafkaConfig      `yaml:"kafka"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
	Redis      RedisConfig      `yaml:"redis"`
	Postgres   PostgresConfig   `yaml:"postgres"`
	Server     ServerConfig     `yaml:"server"`
	Business   BusinessConfig   `yaml:"business"`
	Analysis   AnalysisConfig   `yaml:"analysis"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Learning   LearningConfig   `yaml:"learning"`
	Batch      BatchConfig      `yaml:"batch"`
}

type KafkaConfig struct {
	Brokers       []string          `yaml:"brokers"`
	Topics        map[string]string `yaml:"topics"`
	ConsumerGroup string            `yaml:"consumer_group"`
}

type ClickHouseConfig struct {
	Addr         string `yaml:"addr"`
	Database     string `yaml:"database"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// PostgresConfig points at the element index. Empty DSN disables validation.
type PostgresConfig struct {
	DSN       string `yaml:"dsn"`
	ProjectID string `yaml:"project_id"`
}

type ServerConfig struct {
	HTTPPort int `yaml:"http_port"`
}

// BusinessConfig feeds the revenue estimate
type BusinessConfig struct {
	AverageOrderValue     float64 `yaml:"average_order_value"`
	MonthlyVisitors       float64 `yaml:"monthly_visitors"`
	CurrentConversionRate float64 `yaml:"current_conversion_rate"`
}

type AnalysisConfig struct {
	Interval   time.Duration `yaml:"interval"`
	WindowSize int           `yaml:"window_size"`
	MinEvents  int           `yaml:"min_events"`
}

type ClassifierConfig struct {
	Enabled       bool          `yaml:"enabled"`
	APIKey        string        `yaml:"api_key"`
	Model         string        `yaml:"model"`
	BaseURL       string        `yaml:"base_url"`
	Timeout       time.Duration `yaml:"timeout"`
	CacheTTL      time.Duration `yaml:"cache_ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

type LearningConfig struct {
	Cooldown                    time.Duration `yaml:"cooldown"`
	EventThreshold              int           `yaml:"event_threshold"`
	AnomalyWindow               int           `yaml:"anomaly_window"`
	HistorySize                 int           `yaml:"history_size"`
	AutoApplyRecordConfidence   float64       `yaml:"auto_apply_record_confidence"`
	AutoApplyIdentityConfidence float64       `yaml:"auto_apply_identity_confidence"`
}

type BatchConfig struct {
	Size          int           `yaml:"size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse expands environment variables in data, decodes it and fills defaults
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	return &cfg, nil
}

// setDefaults fills zero and negative values; a non-positive interval would
// panic in time.NewTicker.
func (cfg *Config) setDefaults() {
	if cfg.Kafka.ConsumerGroup == "" {
		cfg.Kafka.ConsumerGroup = "gosight-optimizer"
	}
	if cfg.Batch.Size <= 0 {
		cfg.Batch.Size = 1000
	}
	if cfg.Batch.FlushInterval <= 0 {
		cfg.Batch.FlushInterval = 5 * time.Second
	}
	if cfg.ClickHouse.MaxOpenConns <= 0 {
		cfg.ClickHouse.MaxOpenConns = 10
	}
	if cfg.ClickHouse.MaxIdleConns <= 0 {
		cfg.ClickHouse.MaxIdleConns = 5
	}
	if cfg.Server.HTTPPort <= 0 {
		cfg.Server.HTTPPort = 8090
	}

	if cfg.Business.AverageOrderValue <= 0 {
		cfg.Business.AverageOrderValue = 50
	}
	if cfg.Business.MonthlyVisitors <= 0 {
		cfg.Business.MonthlyVisitors = 10000
	}
	if cfg.Business.CurrentConversionRate <= 0 {
		cfg.Business.CurrentConversionRate = 2
	}

	if cfg.Analysis.Interval <= 0 {
		cfg.Analysis.Interval = time.Minute
	}
	if cfg.Analysis.WindowSize <= 0 {
		cfg.Analysis.WindowSize = 5000
	}
	if cfg.Analysis.MinEvents <= 0 {
		cfg.Analysis.MinEvents = 5
	}

	if cfg.Classifier.Timeout <= 0 {
		cfg.Classifier.Timeout = 3 * time.Second
	}
	if cfg.Classifier.CacheTTL <= 0 {
		cfg.Classifier.CacheTTL = time.Minute
	}
	if cfg.Classifier.SweepInterval <= 0 {
		cfg.Classifier.SweepInterval = time.Minute
	}

	if cfg.Learning.Cooldown <= 0 {
		cfg.Learning.Cooldown = 5 * time.Minute
	}
	if cfg.Learning.EventThreshold <= 0 {
		cfg.Learning.EventThreshold = 50
	}
	if cfg.Learning.AnomalyWindow <= 0 {
		cfg.Learning.AnomalyWindow = 20
	}
	if cfg.Learning.HistorySize <= 0 {
		cfg.Learning.HistorySize = 100
	}
	if cfg.Learning.AutoApplyRecordConfidence <= 0 {
		cfg.Learning.AutoApplyRecordConfidence = 0.9
	}
	if cfg.Learning.AutoApplyIdentityConfidence <= 0 {
		cfg.Learning.AutoApplyIdentityConfidence = 0.8
	}
}
