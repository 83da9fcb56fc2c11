package config

import (
	"errors"
	"strings"
	"time"

	"tgsched/internal/storage"
	logx "tgsched/pkg/logx"
)

type Config struct {
	Telegram  TelegramConfig  `json:"telegram"`
	Clock     ClockConfig     `json:"clock,omitempty"`
	Logging   LoggingConfig   `json:"logging"`
	Scheduler SchedulerConfig `json:"scheduler"`
	Topics    TopicsConfig    `json:"topics,omitempty"`
	Storage   *StorageConfig  `json:"storage,omitempty"`
}

type TelegramConfig struct {
	Token string `json:"token"`

	// PollTimeout is a Go duration string (e.g. "10s").
	PollTimeout string `json:"poll_timeout,omitempty"`
}

// ClockConfig controls startup clock correction.
//
// If NTPHost is empty, correction is skipped and the offset stays zero.
type ClockConfig struct {
	NTPHost string `json:"ntp_host,omitempty"`
}

type LoggingConfig struct {
	Level   string            `json:"level"`
	Console bool              `json:"console"`
	File    LoggingFileConfig `json:"file,omitempty"`
}

type LoggingFileConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path,omitempty"`
}

// SchedulerConfig controls the job scheduler.
//
// All durations are Go duration strings (e.g. "30s", "1m").
//
// Defaults (when fields are omitted/zero):
//   - cleanup_interval: "1m"
//   - send_rate_per_sec: 0 (no limit)
type SchedulerConfig struct {
	CleanupInterval string `json:"cleanup_interval,omitempty"`
	SendRatePerSec  int    `json:"send_rate_per_sec,omitempty"`
}

type TopicsConfig struct {
	// PageSize caps topics fetched per request; 0 means the default of 100.
	PageSize int `json:"page_size,omitempty"`
}

type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path,omitempty"`
	BusyTimeout string `json:"busy_timeout,omitempty"`
}

// Validate checks field values that the strict decoder cannot.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Telegram.Token) == "" {
		return errors.New("telegram.token is required")
	}
	if _, err := ParseDurationField("telegram.poll_timeout", c.Telegram.PollTimeout); err != nil {
		return err
	}
	if _, err := ParseDurationField("scheduler.cleanup_interval", c.Scheduler.CleanupInterval); err != nil {
		return err
	}
	if c.Scheduler.SendRatePerSec < 0 {
		return errors.New("scheduler.send_rate_per_sec must be >= 0")
	}
	if c.Topics.PageSize < 0 {
		return errors.New("topics.page_size must be >= 0")
	}
	if c.Storage != nil {
		if _, err := ParseDurationField("storage.busy_timeout", c.Storage.BusyTimeout); err != nil {
			return err
		}
	}
	return nil
}

// PollTimeout returns the long-poll timeout with its default applied.
func (c *Config) PollTimeout() time.Duration {
	d, err := ParseDurationOrDefault("telegram.poll_timeout", c.Telegram.PollTimeout, 10*time.Second)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// CleanupInterval returns the sweep interval with its default applied.
func (c *Config) CleanupInterval() time.Duration {
	d, err := ParseDurationOrDefault("scheduler.cleanup_interval", c.Scheduler.CleanupInterval, time.Minute)
	if err != nil {
		return time.Minute
	}
	return d
}

// LogxConfig maps the logging section onto the logger's own config type.
func (c *Config) LogxConfig() logx.Config {
	return logx.Config{
		Level:   c.Logging.Level,
		Console: c.Logging.Console,
		File: logx.FileConfig{
			Enabled: c.Logging.File.Enabled,
			Path:    c.Logging.File.Path,
		},
	}
}

// StorageSettings maps the storage section onto the store's config type.
// A nil section disables storage.
func (c *Config) StorageSettings() storage.Config {
	if c.Storage == nil {
		return storage.Config{}
	}
	busy, _ := ParseDurationField("storage.busy_timeout", c.Storage.BusyTimeout)
	return storage.Config{
		Driver:      c.Storage.Driver,
		Path:        c.Storage.Path,
		BusyTimeout: busy,
	}
}
