package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Postgres    PostgresConfig    `yaml:"postgres"`
	Scraper     ScraperConfig     `yaml:"scraper"`
	Server      ServerConfig      `yaml:"server"`
	Logging     LoggingConfig     `yaml:"logging"`
	Telegram    TelegramConfig    `yaml:"telegram"`
	Predictions PredictionsConfig `yaml:"predictions"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

type ScraperConfig struct {
	EnabledSources []string      `yaml:"enabled_sources"` // Empty = scrape all registered sources
	Interval       time.Duration `yaml:"interval"`
	NavTimeout     time.Duration `yaml:"nav_timeout"`
	NavRetries     int           `yaml:"nav_retries"`
	RetryWait      time.Duration `yaml:"retry_wait"`
	SelectorWait   time.Duration `yaml:"selector_wait"`
	SettleWait     time.Duration `yaml:"settle_wait"`
	UserAgent      string        `yaml:"user_agent"`
	DebugHTMLDir   string        `yaml:"debug_html_dir"` // Empty = don't dump fetched pages
}

type ServerConfig struct {
	Port              int           `yaml:"port"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	ScrapeTimeout     time.Duration `yaml:"scrape_timeout"` // Bound for a manually triggered run
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	JSONFile string `yaml:"json_file"` // Empty = stdout only
}

type TelegramConfig struct {
	Enabled  bool   `yaml:"enabled"`
	BotToken string `yaml:"bot_token"`
	ChatID   int64  `yaml:"chat_id"`
}

type PredictionsConfig struct {
	HistoryLimit int `yaml:"history_limit"` // How many past results feed the frequency map
	PickCount    int `yaml:"pick_count"`    // Numbers per generated prediction
}

func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	config.applyDefaults()

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Scraper.Interval <= 0 {
		c.Scraper.Interval = time.Hour
	}
	if c.Scraper.NavTimeout <= 0 {
		c.Scraper.NavTimeout = 30 * time.Second
	}
	if c.Scraper.NavRetries <= 0 {
		c.Scraper.NavRetries = 3
	}
	if c.Scraper.RetryWait <= 0 {
		c.Scraper.RetryWait = 5 * time.Second
	}
	if c.Scraper.SelectorWait <= 0 {
		c.Scraper.SelectorWait = 30 * time.Second
	}
	if c.Scraper.SettleWait <= 0 {
		c.Scraper.SettleWait = 5 * time.Second
	}
	if c.Server.ScrapeTimeout <= 0 {
		c.Server.ScrapeTimeout = 10 * time.Minute
	}
	if c.Predictions.HistoryLimit <= 0 {
		c.Predictions.HistoryLimit = 100
	}
	if c.Predictions.PickCount <= 0 {
		c.Predictions.PickCount = 3
	}
}
