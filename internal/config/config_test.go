package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.SQLiteDBPath != "./data/condomini.db" {
		t.Errorf("SQLiteDBPath = %q, want default", cfg.SQLiteDBPath)
	}
	if cfg.AMQPExchange != "condomini" {
		t.Errorf("AMQPExchange = %q, want condomini", cfg.AMQPExchange)
	}
	if cfg.UpdateDelay != 15*time.Minute {
		t.Errorf("UpdateDelay = %v, want 15m", cfg.UpdateDelay)
	}
	if cfg.DailyJobInterval != 24*time.Hour {
		t.Errorf("DailyJobInterval = %v, want 24h", cfg.DailyJobInterval)
	}
	if cfg.DailyMaxAttempts != 3 {
		t.Errorf("DailyMaxAttempts = %d, want 3", cfg.DailyMaxAttempts)
	}
	if !cfg.DailyJobEnabled {
		t.Error("DailyJobEnabled = false, want true by default")
	}
	if cfg.SheetsExportEnabled {
		t.Error("SheetsExportEnabled = true, want false by default")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("UPDATE_DELAY", "30s")
	t.Setenv("DAILY_JOB_ENABLED", "false")
	t.Setenv("DAILY_MAX_ATTEMPTS", "5")
	t.Setenv("AMQP_CHANGE_QUEUE", "my_changes")

	cfg := Load()
	if cfg.UpdateDelay != 30*time.Second {
		t.Errorf("UpdateDelay = %v, want 30s", cfg.UpdateDelay)
	}
	if cfg.DailyJobEnabled {
		t.Error("DailyJobEnabled = true, want false from env")
	}
	if cfg.DailyMaxAttempts != 5 {
		t.Errorf("DailyMaxAttempts = %d, want 5", cfg.DailyMaxAttempts)
	}
	if cfg.AMQPChangeQueue != "my_changes" {
		t.Errorf("AMQPChangeQueue = %q, want my_changes", cfg.AMQPChangeQueue)
	}
}

func TestLoadIgnoresMalformedEnv(t *testing.T) {
	t.Setenv("UPDATE_DELAY", "not-a-duration")
	t.Setenv("DAILY_MAX_ATTEMPTS", "many")

	cfg := Load()
	if cfg.UpdateDelay != 15*time.Minute {
		t.Errorf("UpdateDelay = %v, want default on malformed env", cfg.UpdateDelay)
	}
	if cfg.DailyMaxAttempts != 3 {
		t.Errorf("DailyMaxAttempts = %d, want default on malformed env", cfg.DailyMaxAttempts)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := Load()
		cfg.SQLiteDBPath = t.TempDir() + "/test.db"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid defaults", func(c *Config) {}, ""},
		{"empty db path", func(c *Config) { c.SQLiteDBPath = "" }, "database path"},
		{"bad amqp scheme", func(c *Config) { c.AMQPURL = "http://localhost" }, "AMQP URL scheme"},
		{"empty exchange", func(c *Config) { c.AMQPExchange = "" }, "exchange"},
		{"empty change queue", func(c *Config) { c.AMQPChangeQueue = "" }, "change queue"},
		{"delay too short", func(c *Config) { c.UpdateDelay = time.Millisecond }, "update delay"},
		{"delay too long", func(c *Config) { c.UpdateDelay = 48 * time.Hour }, "update delay"},
		{"interval too short", func(c *Config) { c.DailyJobInterval = time.Second }, "daily job interval"},
		{"zero attempts", func(c *Config) { c.DailyMaxAttempts = 0 }, "max attempts"},
		{"export without spreadsheet", func(c *Config) {
			c.SheetsExportEnabled = true
			c.GoogleSpreadsheetID = ""
		}, "Spreadsheet ID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}
