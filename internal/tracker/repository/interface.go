package repository

import (
	"context"

	"hoursync/internal/model"
	"hoursync/internal/scheduler"
)

// TrackerRepository is the interface for time-tracking data access. All
// implementations route remote calls through the scheduler and retry
// wrapper; hours rollups and client lists are cached.
type TrackerRepository interface {
	// ListEntries fetches entries matching opt. Not cached: every poll
	// wants fresh data.
	ListEntries(ctx context.Context, opt ListEntriesOptions) ([]model.TimeEntry, error)

	// ListClients returns the tracker's client records (cached ~1 min).
	ListClients(ctx context.Context, pr scheduler.Priority) ([]model.TrackerClient, error)

	// LocalHours sums the hours of all entries in the lookback window whose
	// label and client match the given task (cached ~5 s — hours change more
	// often than task metadata).
	LocalHours(ctx context.Context, taskName, clientName string, pr scheduler.Priority) (float64, error)
}
