package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone = "UTC"
	configPathEnv   = "NEWS_ALERTER_CONFIG"
	dotenvPathEnv   = "NEWS_ALERTER_DOTENV"

	newsAPIKeyEnv      = "API_KEY"
	alphaVantageKeyEnv = "ALPHA_VANTAGE_API_KEY"
	telegramTokenEnv   = "TELEGRAM_BOT_TOKEN"
	databaseDSNEnv     = "DATABASE_DSN"
	redisURLEnv        = "REDIS_URL"
	storageBackendEnv  = "STORAGE_BACKEND"
	schedulerModeEnv   = "SCHEDULER_MODE"
	logLevelEnv        = "LOG_LEVEL"
	httpAddrEnv        = "HTTP_ADDR"
	sentimentURLEnv    = "SENTIMENT_ENDPOINT"
	sentimentAPIKeyEnv = "SENTIMENT_API_KEY"
	checkIntervalEnv   = "CHECK_INTERVAL_SECONDS"
	topicKeywordEnv    = "TOPIC_KEYWORD"
	newsProviderEnv    = "NEWS_PROVIDER"
	newsFeedURLEnv     = "NEWS_FEED_URL"
	priceSymbolEnv     = "PRICE_SYMBOL"
	storagePathEnv     = "DATA_DIR"
	sqlitePathEnv      = "SQLITE_PATH"
	telegramAPIBaseEnv = "TELEGRAM_API_BASE"
	logFormatEnv       = "LOG_FORMAT"
	schedulerZoneEnv   = "SCHEDULER_TIMEZONE"
)

// Scheduler modes. Auto prefers the cron driver and falls back to the loop
// only when cron cannot start; set loop to run the cooldown loop outright.
const (
	ModeAuto    = "auto"
	ModeManaged = "managed"
	ModeLoop    = "loop"
)

// Storage backends.
const (
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendSQLite   = "sqlite"
)

// News providers.
const (
	ProviderAlphaVantage = "alphavantage"
	ProviderRSS          = "rss"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Topic     TopicConfig     `yaml:"topic"`
	News      NewsConfig      `yaml:"news"`
	Price     PriceConfig     `yaml:"price"`
	Alerts    AlertsConfig    `yaml:"alerts"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Storage   StorageConfig   `yaml:"storage"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Sentiment SentimentConfig `yaml:"sentiment"`
	HTTP      HTTPConfig      `yaml:"http"`
}

// LoggingConfig selects level and handler format (text or json).
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// TopicConfig names the tracked subject. Keyword is matched case-insensitively
// as a plain substring of title or summary.
type TopicConfig struct {
	Name    string `yaml:"name"`
	Keyword string `yaml:"keyword"`
}

// NewsConfig groups settings for the upstream news provider.
type NewsConfig struct {
	Provider string        `yaml:"provider"`
	BaseURL  string        `yaml:"baseUrl"`
	APIKey   string        `yaml:"apiKey"`
	Topics   string        `yaml:"topics"`
	Sort     string        `yaml:"sort"`
	Limit    int           `yaml:"limit"`
	FeedURL  string        `yaml:"feedUrl"`
	Timeout  time.Duration `yaml:"timeout"`
}

// PriceConfig describes the market-data line appended to messages.
type PriceConfig struct {
	Enabled *bool  `yaml:"enabled"`
	Symbol  string `yaml:"symbol"`
}

// IsEnabled defaults to true when unset.
func (p PriceConfig) IsEnabled() bool {
	return p.Enabled == nil || *p.Enabled
}

// AlertsConfig bounds fan-out and dedup history.
type AlertsConfig struct {
	MaxLatest         int `yaml:"maxLatest"`
	MaxAlertsPerCheck int `yaml:"maxAlertsPerCheck"`
	SeenCapacity      int `yaml:"seenCapacity"`
}

// SchedulerConfig defines when and how the alert cycle runs.
type SchedulerConfig struct {
	Mode         string         `yaml:"mode"`
	Interval     time.Duration  `yaml:"interval"`
	InitialDelay time.Duration  `yaml:"initialDelay"`
	Cooldown     time.Duration  `yaml:"cooldown"`
	Timezone     string         `yaml:"timezone"`
	location     *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// StorageConfig selects the blob backend.
type StorageConfig struct {
	Backend     string `yaml:"backend"`
	Path        string `yaml:"path"`
	DSN         string `yaml:"dsn"`
	Table       string `yaml:"table"`
	RedisURL    string `yaml:"redisUrl"`
	RedisPrefix string `yaml:"redisPrefix"`
	SQLitePath  string `yaml:"sqlitePath"`
}

// TelegramConfig wires the bot API client.
type TelegramConfig struct {
	BotToken      string        `yaml:"botToken"`
	APIBase       string        `yaml:"apiBase"`
	PollTimeout   time.Duration `yaml:"pollTimeout"`
	RatePerSecond float64       `yaml:"ratePerSecond"`
	Burst         int           `yaml:"burst"`
}

// SentimentConfig points at an optional remote scorer. Empty Endpoint keeps
// the built-in VADER scorer.
type SentimentConfig struct {
	Endpoint string        `yaml:"endpoint"`
	APIKey   string        `yaml:"apiKey"`
	Timeout  time.Duration `yaml:"timeout"`
}

// HTTPConfig configures the health endpoint. Empty Addr disables it.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// Load reads .env, YAML configuration (if present) and applies environment overrides.
func Load() Config {
	loadDotenv()

	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()
	cfg.sanitize()

	return cfg
}

func loadDotenv() {
	path := os.Getenv(dotenvPathEnv)
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
		log.Printf("config: cannot load %s: %v", path, err)
	}
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(newsAPIKeyEnv); v != "" {
		c.News.APIKey = v
	}
	if v := os.Getenv(alphaVantageKeyEnv); v != "" {
		c.News.APIKey = v
	}
	if v := os.Getenv(newsProviderEnv); v != "" {
		c.News.Provider = v
	}
	if v := os.Getenv(newsFeedURLEnv); v != "" {
		c.News.FeedURL = v
	}
	if v := os.Getenv(topicKeywordEnv); v != "" {
		c.Topic.Keyword = v
	}
	if v := os.Getenv(priceSymbolEnv); v != "" {
		c.Price.Symbol = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv(telegramAPIBaseEnv); v != "" {
		c.Telegram.APIBase = v
	}

	if v := os.Getenv(storageBackendEnv); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv(storagePathEnv); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Storage.DSN = v
	}
	if v := os.Getenv(redisURLEnv); v != "" {
		c.Storage.RedisURL = v
	}
	if v := os.Getenv(sqlitePathEnv); v != "" {
		c.Storage.SQLitePath = v
	}

	if v := os.Getenv(schedulerModeEnv); v != "" {
		c.Scheduler.Mode = v
	}
	if v := os.Getenv(schedulerZoneEnv); v != "" {
		c.Scheduler.Timezone = v
	}
	if v := os.Getenv(checkIntervalEnv); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			c.Scheduler.Interval = time.Duration(secs) * time.Second
		} else {
			log.Printf("config: ignoring invalid %s=%q", checkIntervalEnv, v)
		}
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(logFormatEnv); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv(httpAddrEnv); v != "" {
		c.HTTP.Addr = v
	}

	if v := os.Getenv(sentimentURLEnv); v != "" {
		c.Sentiment.Endpoint = v
	}
	if v := os.Getenv(sentimentAPIKeyEnv); v != "" {
		c.Sentiment.APIKey = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

// sanitize replaces values that would break the runtime with defaults.
func (c *Config) sanitize() {
	def := defaultConfig()

	c.Scheduler.Mode = strings.ToLower(strings.TrimSpace(c.Scheduler.Mode))
	switch c.Scheduler.Mode {
	case ModeAuto, ModeManaged, ModeLoop:
	default:
		log.Printf("config: unknown scheduler mode %q, using %s", c.Scheduler.Mode, ModeAuto)
		c.Scheduler.Mode = ModeAuto
	}
	if c.Scheduler.Interval <= 0 {
		c.Scheduler.Interval = def.Scheduler.Interval
	}
	if c.Scheduler.InitialDelay < 0 {
		c.Scheduler.InitialDelay = def.Scheduler.InitialDelay
	}
	if c.Scheduler.Cooldown <= 0 {
		c.Scheduler.Cooldown = def.Scheduler.Cooldown
	}

	if c.Alerts.MaxLatest <= 0 {
		c.Alerts.MaxLatest = def.Alerts.MaxLatest
	}
	if c.Alerts.MaxAlertsPerCheck <= 0 {
		c.Alerts.MaxAlertsPerCheck = def.Alerts.MaxAlertsPerCheck
	}
	if c.Alerts.SeenCapacity <= 0 {
		c.Alerts.SeenCapacity = def.Alerts.SeenCapacity
	}

	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	c.News.Provider = strings.ToLower(strings.TrimSpace(c.News.Provider))
	if strings.TrimSpace(c.Topic.Keyword) == "" {
		c.Topic.Keyword = def.Topic.Keyword
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	if override.Topic.Name != "" {
		base.Topic.Name = override.Topic.Name
	}
	if override.Topic.Keyword != "" {
		base.Topic.Keyword = override.Topic.Keyword
	}

	if override.News.Provider != "" {
		base.News.Provider = override.News.Provider
	}
	if override.News.BaseURL != "" {
		base.News.BaseURL = override.News.BaseURL
	}
	if override.News.APIKey != "" {
		base.News.APIKey = override.News.APIKey
	}
	if override.News.Topics != "" {
		base.News.Topics = override.News.Topics
	}
	if override.News.Sort != "" {
		base.News.Sort = override.News.Sort
	}
	if override.News.Limit > 0 {
		base.News.Limit = override.News.Limit
	}
	if override.News.FeedURL != "" {
		base.News.FeedURL = override.News.FeedURL
	}
	if override.News.Timeout > 0 {
		base.News.Timeout = override.News.Timeout
	}

	if override.Price.Enabled != nil {
		base.Price.Enabled = override.Price.Enabled
	}
	if override.Price.Symbol != "" {
		base.Price.Symbol = override.Price.Symbol
	}

	if override.Alerts.MaxLatest > 0 {
		base.Alerts.MaxLatest = override.Alerts.MaxLatest
	}
	if override.Alerts.MaxAlertsPerCheck > 0 {
		base.Alerts.MaxAlertsPerCheck = override.Alerts.MaxAlertsPerCheck
	}
	if override.Alerts.SeenCapacity > 0 {
		base.Alerts.SeenCapacity = override.Alerts.SeenCapacity
	}

	if override.Scheduler.Mode != "" {
		base.Scheduler.Mode = override.Scheduler.Mode
	}
	if override.Scheduler.Interval > 0 {
		base.Scheduler.Interval = override.Scheduler.Interval
	}
	if override.Scheduler.InitialDelay > 0 {
		base.Scheduler.InitialDelay = override.Scheduler.InitialDelay
	}
	if override.Scheduler.Cooldown > 0 {
		base.Scheduler.Cooldown = override.Scheduler.Cooldown
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	if override.Storage.Backend != "" {
		base.Storage.Backend = override.Storage.Backend
	}
	if override.Storage.Path != "" {
		base.Storage.Path = override.Storage.Path
	}
	if override.Storage.DSN != "" {
		base.Storage.DSN = override.Storage.DSN
	}
	if override.Storage.Table != "" {
		base.Storage.Table = override.Storage.Table
	}
	if override.Storage.RedisURL != "" {
		base.Storage.RedisURL = override.Storage.RedisURL
	}
	if override.Storage.RedisPrefix != "" {
		base.Storage.RedisPrefix = override.Storage.RedisPrefix
	}
	if override.Storage.SQLitePath != "" {
		base.Storage.SQLitePath = override.Storage.SQLitePath
	}

	if override.Telegram.BotToken != "" {
		base.Telegram.BotToken = override.Telegram.BotToken
	}
	if override.Telegram.APIBase != "" {
		base.Telegram.APIBase = override.Telegram.APIBase
	}
	if override.Telegram.PollTimeout > 0 {
		base.Telegram.PollTimeout = override.Telegram.PollTimeout
	}
	if override.Telegram.RatePerSecond > 0 {
		base.Telegram.RatePerSecond = override.Telegram.RatePerSecond
	}
	if override.Telegram.Burst > 0 {
		base.Telegram.Burst = override.Telegram.Burst
	}

	if override.Sentiment.Endpoint != "" {
		base.Sentiment.Endpoint = override.Sentiment.Endpoint
	}
	if override.Sentiment.APIKey != "" {
		base.Sentiment.APIKey = override.Sentiment.APIKey
	}
	if override.Sentiment.Timeout > 0 {
		base.Sentiment.Timeout = override.Sentiment.Timeout
	}

	if override.HTTP.Addr != "" {
		base.HTTP.Addr = override.HTTP.Addr
	}

	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Topic:   TopicConfig{Name: "Trump", Keyword: "trump"},
		News: NewsConfig{
			Provider: ProviderAlphaVantage,
			BaseURL:  "https://www.alphavantage.co/query",
			Topics:   "politics",
			Sort:     "LATEST",
			Limit:    50,
			Timeout:  15 * time.Second,
		},
		Price:  PriceConfig{Symbol: "VOO"},
		Alerts: AlertsConfig{MaxLatest: 5, MaxAlertsPerCheck: 3, SeenCapacity: 50},
		Scheduler: SchedulerConfig{
			Mode:         ModeAuto,
			Interval:     900 * time.Second,
			InitialDelay: 10 * time.Second,
			Cooldown:     60 * time.Second,
			Timezone:     defaultTimezone,
			location:     tz,
		},
		Storage: StorageConfig{
			Backend:     BackendFile,
			Path:        "data",
			Table:       "alert_blobs",
			RedisPrefix: "newsalerter:",
			SQLitePath:  "newsalerter.db",
		},
		Telegram: TelegramConfig{
			APIBase:       "https://api.telegram.org",
			PollTimeout:   30 * time.Second,
			RatePerSecond: 25,
			Burst:         5,
		},
		Sentiment: SentimentConfig{Timeout: 10 * time.Second},
		HTTP:      HTTPConfig{Addr: ":8080"},
	}
}
