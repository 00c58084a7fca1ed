package repository

import (
	"time"

	"hoursync/internal/scheduler"
)

// ListEntriesOptions holds the parameters for listing time entries.
type ListEntriesOptions struct {
	Since    time.Time // entries updated since this instant (zero = provider default)
	Running  *bool     // nil = all, otherwise filter by running state
	Priority scheduler.Priority
}
