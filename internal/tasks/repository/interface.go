package repository

import (
	"context"

	"hoursync/internal/model"
	"hoursync/internal/scheduler"
)

// TaskPageRepository is the interface for workspace task-record access. All
// reads go through the scheduler's rate budget and the page/query caches;
// all writes go through the serialized write lane, and a successful write
// eagerly refreshes the page cache with the returned record.
type TaskPageRepository interface {
	// GetPage fetches one task record by id (cached ~1 min).
	GetPage(ctx context.Context, id string, pr scheduler.Priority) (model.TaskPage, error)

	// QueryTasks lists every record of the target database (cached ~1 min).
	// Name matching happens client-side against normalized titles.
	QueryTasks(ctx context.Context, pr scheduler.Priority) ([]model.TaskPage, error)

	// UpdateTimeSpent writes the aggregated hours summary into the record's
	// time-spent property and returns the updated record.
	UpdateTimeSpent(ctx context.Context, id string, hours float64, pr scheduler.Priority) (model.TaskPage, error)

	// MarkConflict writes a visible error marker into the record so a human
	// can resolve a data-integrity problem upstream.
	MarkConflict(ctx context.Context, id string, marker string, pr scheduler.Priority) error
}
