package domain

import "time"

// SyncSchedule is a durable row driving periodic sync for one event.
// The worker polls for rows with enabled = true and next_run_at in the past.
type SyncSchedule struct {
	EventID   string
	Interval  time.Duration
	Enabled   bool
	NextRunAt time.Time
	LastRunAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}
