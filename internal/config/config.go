package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port   int    `yaml:"port"`
		APIKey string `yaml:"api_key"`
		// RateLimit is requests per second across the API; RateBurst is the
		// token bucket size.
		RateLimit float64 `yaml:"rate_limit"`
		RateBurst int     `yaml:"rate_burst"`
	} `yaml:"server"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Redis struct {
		Address         string `yaml:"address"`
		Password        string `yaml:"password"`
		DB              int    `yaml:"db"`
		CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
	} `yaml:"redis"`

	Office struct {
		StartTime           string `yaml:"start_time"`            // "09:00"
		EndTime             string `yaml:"end_time"`              // "17:00"
		SlotDurationMinutes int    `yaml:"slot_duration_minutes"` // 30
		RequireContiguous   bool   `yaml:"require_contiguous"`
	} `yaml:"office"`

	Backup struct {
		Enabled       bool   `yaml:"enabled"`
		StoragePath   string `yaml:"storage_path"`
		IntervalHours int    `yaml:"interval_hours"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"backup"`

	Reminders struct {
		Enabled     bool `yaml:"enabled"`
		LeadMinutes int  `yaml:"lead_minutes"`
		ScanSeconds int  `yaml:"scan_seconds"`
	} `yaml:"reminders"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.Database.Path == "" {
		cfg.Database.Path = "data/staffroom.db"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}

	if err = os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// OfficeStart returns the configured office opening time-of-day.
func (c *Config) OfficeStart() string {
	if c.Office.StartTime == "" {
		return "09:00"
	}
	return c.Office.StartTime
}

// OfficeEnd returns the configured office closing time-of-day.
func (c *Config) OfficeEnd() string {
	if c.Office.EndTime == "" {
		return "17:00"
	}
	return c.Office.EndTime
}

// SlotDuration returns the configured slot width.
func (c *Config) SlotDuration() time.Duration {
	if c.Office.SlotDurationMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.Office.SlotDurationMinutes) * time.Minute
}

// BackupInterval returns how often database backups run.
func (c *Config) BackupInterval() time.Duration {
	if c.Backup.IntervalHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Backup.IntervalHours) * time.Hour
}

// ReminderLead returns how far ahead of a meeting start the reminder fires.
func (c *Config) ReminderLead() time.Duration {
	if c.Reminders.LeadMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(c.Reminders.LeadMinutes) * time.Minute
}

// ReminderScanInterval returns how often the reminder scheduler scans for
// upcoming bookings.
func (c *Config) ReminderScanInterval() time.Duration {
	if c.Reminders.ScanSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(c.Reminders.ScanSeconds) * time.Second
}

// CacheTTL returns the Redis day-sheet TTL; zero disables caching. Cached
// sheets are keyed by room and date only, so within the TTL a slot whose end
// has just passed may still read as available. Submissions always reclassify
// against fresh data, so the staleness is cosmetic and bounded by this TTL.
func (c *Config) CacheTTL() time.Duration {
	if c.Redis.CacheTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Redis.CacheTTLSeconds) * time.Second
}
