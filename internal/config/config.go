// Package config provides application configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the complete application configuration.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Worker     WorkerConfig
	Cache      CacheConfig
	Scraper    ScraperConfig
	Sources    []SourceConfig
	Report     ReportConfig
	Recipients RecipientsConfig
	Mail       MailConfig
	Mailjet    MailjetConfig
	SMTP       SMTPConfig `mapstructure:"smtp"`
	Gmail      GmailConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port          int  `mapstructure:"port"`
	ServeSwagger  bool `mapstructure:"serve_swagger"`
	ServeAsynqmon bool `mapstructure:"serve_asynqmon"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host               string `mapstructure:"host"`
	Port               int    `mapstructure:"port"`
	User               string `mapstructure:"user"`
	Password           string `mapstructure:"password"`
	Name               string `mapstructure:"name"`
	SSLMode            string `mapstructure:"sslmode"`
	MaxOpenConns       int    `mapstructure:"max_open_conns"`
	MaxIdleConns       int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSec int    `mapstructure:"conn_max_lifetime_sec"`
	DSN                string
}

// RedisConfig holds connection settings for both Redis instances.
type RedisConfig struct {
	AsynqAddr string `mapstructure:"asynq_addr"` // Redis instance for Asynq task queue (required).
	CacheAddr string `mapstructure:"cache_addr"` // Redis instance for application cache (required).
}

// WorkerConfig holds background worker and task queue settings.
type WorkerConfig struct {
	Concurrency      int `mapstructure:"concurrency"`
	MaxRetry         int `mapstructure:"max_retry"`
	TimeoutSec       int `mapstructure:"timeout_sec"`
	CheckIntervalSec int `mapstructure:"check_interval_sec"`
}

// CacheConfig holds caching settings.
type CacheConfig struct {
	LatestReportTTLSec int `mapstructure:"latest_report_ttl_sec"`
	RatesTTLSec        int `mapstructure:"rates_ttl_sec"`
}

// ScraperConfig holds settings for fetching the bank rate pages.
type ScraperConfig struct {
	TimeoutSec  int    `mapstructure:"timeout_sec"`
	Concurrency int    `mapstructure:"concurrency"`
	UserAgent   string `mapstructure:"user_agent"`
}

// SourceConfig is one bank page to scrape. Sources are reported in list order.
type SourceConfig struct {
	Name   string `mapstructure:"name"`
	URL    string `mapstructure:"url"`
	Anchor string `mapstructure:"anchor"`
}

// ReportConfig holds rendering and artifact settings.
type ReportConfig struct {
	Name            string `mapstructure:"name"`
	Subject         string `mapstructure:"subject"`
	PreviewPath     string `mapstructure:"preview_path"`
	Timezone        string `mapstructure:"timezone"`
	LegacyUnescaped bool   `mapstructure:"legacy_unescaped"`
}

// RecipientsConfig selects where subscriber addresses come from.
type RecipientsConfig struct {
	Store           string   `mapstructure:"store"` // "sheets" or "static"
	Static          []string `mapstructure:"static"`
	CredentialsFile string   `mapstructure:"credentials_file"`
	SpreadsheetID   string   `mapstructure:"spreadsheet_id"`
	Tab             string   `mapstructure:"tab"`
	EmailColumn     int      `mapstructure:"email_column"` // 1-based
}

// MailConfig holds the sender identity and the transport choice.
type MailConfig struct {
	Transport   string `mapstructure:"transport"` // "mailjet", "smtp", "gmail" or "log"
	SenderEmail string `mapstructure:"sender_email"`
	SenderName  string `mapstructure:"sender_name"`
}

// MailjetConfig holds settings for the Mailjet send API.
type MailjetConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	APIKey    string `mapstructure:"api_key"`
	SecretKey string `mapstructure:"secret_key"`
	Timeout   int    `mapstructure:"timeout_sec"`
}

// SMTPConfig holds SMTP relay settings.
type SMTPConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	FallbackPort int    `mapstructure:"fallback_port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Timeout      int    `mapstructure:"timeout_sec"`
}

// GmailConfig holds settings for sending through the Gmail API.
type GmailConfig struct {
	CredentialsFile string `mapstructure:"credentials_file"`
}

// Mail transports.
const (
	TransportMailjet = "mailjet"
	TransportSMTP    = "smtp"
	TransportGmail   = "gmail"
	TransportLog     = "log"
)

// Recipient stores.
const (
	StoreSheets = "sheets"
	StoreStatic = "static"
)

// DefaultSources are the bank pages scraped when no sources are configured.
func DefaultSources() []SourceConfig {
	return []SourceConfig{
		{Name: "Banco Popular", URL: "https://www.infodolar.com.do/precio-dolar-entidad-banco-popular.aspx"},
		{Name: "Banreservas", URL: "https://www.infodolar.com.do/precio-dolar-entidad-banreservas.aspx"},
		{Name: "Banco BHD León", URL: "https://www.infodolar.com.do/precio-dolar-entidad-banco-bhd.aspx"},
	}
}

// LoadConfig reads configuration from config files, environment variables, and defaults,
// and validates all of it.
func LoadConfig() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Load reads configuration without validating it, so callers can override fields first.
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		fmt.Printf("No .env file found or error loading it: %v\n", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Config search paths
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./internal/config")

	v.SetEnvPrefix("RATEBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// It's okay if no config file, we have defaults and env
		fmt.Printf("Config file not found: %v\n", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.applyFallbacks()

	cfg.Database.DSN = fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Database.User, cfg.Database.Password,
		cfg.Database.Host, cfg.Database.Port,
		cfg.Database.Name, cfg.Database.SSLMode)

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.serve_swagger", true)
	v.SetDefault("server.serve_asynqmon", true)
	v.SetDefault("database.host", "db")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.name", "ratebot")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime_sec", 300)
	v.SetDefault("redis.asynq_addr", "redis_asynq:6380")
	v.SetDefault("redis.cache_addr", "redis_cache:6381")
	v.SetDefault("worker.concurrency", 1)
	v.SetDefault("worker.max_retry", 0)
	v.SetDefault("worker.timeout_sec", 120)
	v.SetDefault("worker.check_interval_sec", 5)
	v.SetDefault("cache.latest_report_ttl_sec", 86400)
	v.SetDefault("cache.rates_ttl_sec", 300)
	v.SetDefault("scraper.timeout_sec", 15)
	v.SetDefault("scraper.concurrency", 1)
	v.SetDefault("scraper.user_agent", "Mozilla/5.0 (compatible; ratebot/1.0)")
	v.SetDefault("report.name", "usd_dop")
	v.SetDefault("report.subject", "Tasas USD/DOP hoy")
	v.SetDefault("report.preview_path", "preview.html")
	v.SetDefault("report.timezone", "America/Santo_Domingo")
	v.SetDefault("report.legacy_unescaped", false)
	v.SetDefault("recipients.store", StoreSheets)
	v.SetDefault("recipients.static", []string{})
	v.SetDefault("recipients.credentials_file", "usd-dop-bot-credentials.json")
	v.SetDefault("recipients.spreadsheet_id", "")
	v.SetDefault("recipients.tab", "Form Responses 1")
	v.SetDefault("recipients.email_column", 2)
	v.SetDefault("mail.transport", TransportMailjet)
	v.SetDefault("mail.sender_email", "")
	v.SetDefault("mail.sender_name", "USD DOP Bot")
	v.SetDefault("mailjet.base_url", "https://api.mailjet.com")
	v.SetDefault("mailjet.api_key", "")
	v.SetDefault("mailjet.secret_key", "")
	v.SetDefault("mailjet.timeout_sec", 15)
	v.SetDefault("smtp.host", "smtp.gmail.com")
	v.SetDefault("smtp.port", 465)
	v.SetDefault("smtp.fallback_port", 587)
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.timeout_sec", 15)
	v.SetDefault("gmail.credentials_file", "")
}

func (c *Config) applyFallbacks() {
	if c.Database.MaxOpenConns <= 0 {
		c.Database.MaxOpenConns = 10
	}
	if c.Database.MaxIdleConns <= 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.ConnMaxLifetimeSec <= 0 {
		c.Database.ConnMaxLifetimeSec = 300
	}
	if len(c.Sources) == 0 {
		c.Sources = DefaultSources()
	}
	if c.SMTP.Username == "" {
		c.SMTP.Username = c.Mail.SenderEmail
	}
}

// Validate checks that all required configuration fields are set and valid.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 {
		errs = append(errs, fmt.Errorf("server.port must be positive, got %d", c.Server.Port))
	}

	if c.Database.Host == "" {
		errs = append(errs, fmt.Errorf("database.host is required"))
	}
	if c.Database.Port <= 0 {
		errs = append(errs, fmt.Errorf("database.port must be positive, got %d", c.Database.Port))
	}
	if c.Database.User == "" {
		errs = append(errs, fmt.Errorf("database.user is required"))
	}
	if c.Database.Name == "" {
		errs = append(errs, fmt.Errorf("database.name is required"))
	}

	if c.Redis.AsynqAddr == "" {
		errs = append(errs, fmt.Errorf("redis.asynq_addr is required (set RATEBOT_REDIS_ASYNQ_ADDR)"))
	}
	if c.Redis.CacheAddr == "" {
		errs = append(errs, fmt.Errorf("redis.cache_addr is required (set RATEBOT_REDIS_CACHE_ADDR)"))
	}

	if c.Worker.Concurrency <= 0 {
		errs = append(errs, fmt.Errorf("worker.concurrency must be positive, got %d", c.Worker.Concurrency))
	}
	if c.Worker.MaxRetry < 0 {
		errs = append(errs, fmt.Errorf("worker.max_retry must be non-negative, got %d", c.Worker.MaxRetry))
	}
	if c.Worker.TimeoutSec <= 0 {
		errs = append(errs, fmt.Errorf("worker.timeout_sec must be positive, got %d", c.Worker.TimeoutSec))
	}
	if c.Worker.CheckIntervalSec <= 0 {
		errs = append(errs, fmt.Errorf("worker.check_interval_sec must be positive, got %d", c.Worker.CheckIntervalSec))
	}

	if c.Cache.LatestReportTTLSec <= 0 {
		errs = append(errs, fmt.Errorf("cache.latest_report_ttl_sec must be positive, got %d", c.Cache.LatestReportTTLSec))
	}
	if c.Cache.RatesTTLSec < 0 {
		errs = append(errs, fmt.Errorf("cache.rates_ttl_sec must be non-negative, got %d", c.Cache.RatesTTLSec))
	}

	errs = append(errs, c.validatePipeline()...)
	return errors.Join(errs...)
}

// ValidatePipeline checks only what a one-shot run needs: sources, recipients and mail.
func (c *Config) ValidatePipeline() error {
	return errors.Join(c.validatePipeline()...)
}

func (c *Config) validatePipeline() []error {
	var errs []error

	if c.Scraper.TimeoutSec <= 0 {
		errs = append(errs, fmt.Errorf("scraper.timeout_sec must be positive, got %d", c.Scraper.TimeoutSec))
	}
	if c.Scraper.Concurrency <= 0 {
		errs = append(errs, fmt.Errorf("scraper.concurrency must be positive, got %d", c.Scraper.Concurrency))
	}

	seen := make(map[string]struct{}, len(c.Sources))
	for i, s := range c.Sources {
		if s.Name == "" {
			errs = append(errs, fmt.Errorf("sources[%d].name is required", i))
		}
		if s.URL == "" {
			errs = append(errs, fmt.Errorf("sources[%d].url is required", i))
		}
		if _, dup := seen[s.Name]; dup {
			errs = append(errs, fmt.Errorf("sources[%d].name %q is duplicated", i, s.Name))
		}
		seen[s.Name] = struct{}{}
	}

	if c.Report.Name == "" {
		errs = append(errs, fmt.Errorf("report.name is required"))
	}
	if c.Report.Subject == "" {
		errs = append(errs, fmt.Errorf("report.subject is required"))
	}

	switch c.Recipients.Store {
	case StoreSheets:
		if c.Recipients.SpreadsheetID == "" {
			errs = append(errs, fmt.Errorf("recipients.spreadsheet_id is required for the sheets store"))
		}
		if c.Recipients.CredentialsFile == "" {
			errs = append(errs, fmt.Errorf("recipients.credentials_file is required for the sheets store"))
		}
		if c.Recipients.EmailColumn <= 0 {
			errs = append(errs, fmt.Errorf("recipients.email_column must be positive, got %d", c.Recipients.EmailColumn))
		}
	case StoreStatic:
	default:
		errs = append(errs, fmt.Errorf("recipients.store must be %q or %q, got %q", StoreSheets, StoreStatic, c.Recipients.Store))
	}

	switch c.Mail.Transport {
	case TransportMailjet:
		if c.Mailjet.APIKey == "" || c.Mailjet.SecretKey == "" {
			errs = append(errs, fmt.Errorf("mailjet.api_key and mailjet.secret_key are required (set RATEBOT_MAILJET_API_KEY, RATEBOT_MAILJET_SECRET_KEY)"))
		}
	case TransportSMTP:
		if c.SMTP.Host == "" || c.SMTP.Port <= 0 {
			errs = append(errs, fmt.Errorf("smtp.host and a positive smtp.port are required"))
		}
	case TransportGmail:
		if c.Gmail.CredentialsFile == "" {
			errs = append(errs, fmt.Errorf("gmail.credentials_file is required for the gmail transport"))
		}
	case TransportLog:
	default:
		errs = append(errs, fmt.Errorf("mail.transport must be one of mailjet, smtp, gmail, log; got %q", c.Mail.Transport))
	}
	if c.Mail.Transport != TransportLog && c.Mail.SenderEmail == "" {
		errs = append(errs, fmt.Errorf("mail.sender_email is required (set RATEBOT_MAIL_SENDER_EMAIL)"))
	}

	return errs
}
