package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validConfig() Config {
	return Config{
		Server:   ServerConfig{Port: 8080},
		Database: DatabaseConfig{Host: "db", Port: 5432, User: "postgres", Name: "ratebot"},
		Redis:    RedisConfig{AsynqAddr: "localhost:6380", CacheAddr: "localhost:6381"},
		Worker:   WorkerConfig{Concurrency: 1, TimeoutSec: 60, CheckIntervalSec: 5},
		Cache:    CacheConfig{LatestReportTTLSec: 60, RatesTTLSec: 60},
		Scraper:  ScraperConfig{TimeoutSec: 5, Concurrency: 1},
		Sources:  DefaultSources(),
		Report:   ReportConfig{Name: "usd_dop", Subject: "Tasas USD/DOP hoy"},
		Recipients: RecipientsConfig{
			Store:           StoreSheets,
			CredentialsFile: "creds.json",
			SpreadsheetID:   "sheet-id",
			EmailColumn:     2,
		},
		Mail:    MailConfig{Transport: TransportMailjet, SenderEmail: "bot@example.com"},
		Mailjet: MailjetConfig{APIKey: "key", SecretKey: "secret"},
	}
}

func TestValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		cfg := validConfig()
		assert.NoError(t, cfg.Validate())
	})

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"missing cache redis", func(c *Config) { c.Redis.CacheAddr = "" }, "redis.cache_addr"},
		{"source without url", func(c *Config) { c.Sources[1].URL = "" }, "sources[1].url"},
		{"duplicated source", func(c *Config) { c.Sources[2].Name = c.Sources[0].Name }, "duplicated"},
		{"unknown store", func(c *Config) { c.Recipients.Store = "csv" }, "recipients.store"},
		{"sheet id", func(c *Config) { c.Recipients.SpreadsheetID = "" }, "recipients.spreadsheet_id"},
		{"mailjet keys", func(c *Config) { c.Mailjet.SecretKey = "" }, "mailjet.api_key"},
		{"unknown transport", func(c *Config) { c.Mail.Transport = "pigeon" }, "mail.transport"},
		{"sender", func(c *Config) { c.Mail.SenderEmail = "" }, "mail.sender_email"},
		{"scraper concurrency", func(c *Config) { c.Scraper.Concurrency = 0 }, "scraper.concurrency"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), tc.wantErr)
			}
		})
	}
}

func TestValidatePipeline_LogTransportNeedsNoSender(t *testing.T) {
	cfg := validConfig()
	cfg.Mail = MailConfig{Transport: TransportLog}
	cfg.Recipients = RecipientsConfig{Store: StoreStatic, Static: []string{"a@example.com"}}
	cfg.Database = DatabaseConfig{}

	assert.NoError(t, cfg.ValidatePipeline())
	assert.Error(t, cfg.Validate())
}

func TestApplyFallbacks(t *testing.T) {
	cfg := Config{Mail: MailConfig{SenderEmail: "bot@example.com"}}
	cfg.applyFallbacks()

	assert.Equal(t, DefaultSources(), cfg.Sources)
	assert.Equal(t, 10, cfg.Database.MaxOpenConns)
	assert.Equal(t, "bot@example.com", cfg.SMTP.Username)
}
