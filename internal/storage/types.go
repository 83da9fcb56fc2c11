package storage

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("storage disabled")

// Config configures storage.
//
// Driver values:
//   - "file": dependency-free file backend (jsonl)
//   - "sqlite": SQLite database file (optional build tag)
//
// If Driver is empty or "none", storage is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// HistoryEntry records the outcome of one scheduled job.
// Keep it compact and schema-stable.
type HistoryEntry struct {
	At       time.Time
	JobID    string
	ChatID   int64
	TopicID  int
	Label    string
	Outcome  string // "delivered", "failed" or "cancelled"
	Category string // error category, empty unless Outcome is "failed"
}
