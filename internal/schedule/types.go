package schedule

import (
	"context"
	"errors"
	"time"

	"tgsched/internal/delivery"
)

// Event types published on the bus.
const (
	EventScheduled = "job.scheduled"
	EventDelivered = "job.delivered"
	EventFailed    = "job.failed"
	EventCancelled = "job.cancelled"
)

// Sentinel validation errors returned by Schedule.
var (
	ErrEmptyMessage = errors.New("schedule: empty message text")
	ErrBadTime      = errors.New("schedule: unrecognized time format")
	ErrNotStarted   = errors.New("schedule: service not started")
)

// Config tunes the scheduler service.
type Config struct {
	// CleanupInterval is the period of the sweep that reaps finished
	// units and expired job records. Zero means the default of one
	// minute.
	CleanupInterval time.Duration
}

func (c Config) cleanupInterval() time.Duration {
	if c.CleanupInterval <= 0 {
		return time.Minute
	}
	return c.CleanupInterval
}

// Job is a pending delivery. The ID is unique for the lifetime of the
// process.
type Job struct {
	ID     string
	Target delivery.Target
	Text   string
	Due    time.Time
}

// JobEvent is the payload carried by job.* bus events.
type JobEvent struct {
	ID       string
	ChatID   int64
	TopicID  int
	Label    string
	Due      time.Time
	Category string // error category on job.failed, empty otherwise
}

func jobEvent(j Job) JobEvent {
	return JobEvent{
		ID:      j.ID,
		ChatID:  j.Target.Conversation.ID,
		TopicID: j.Target.TopicID,
		Label:   j.Target.Label(),
		Due:     j.Due,
	}
}

// Deliverer sends a scheduled message to its target. Implemented by
// delivery.Facade.
type Deliverer interface {
	Deliver(ctx context.Context, to delivery.Target, text string) error
}
