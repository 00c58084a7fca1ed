package toggl

import (
	"context"
	"fmt"
	"time"

	"hoursync/internal/model"
	"hoursync/internal/scheduler"
	"hoursync/internal/tracker/repository"
	"hoursync/pkg/retry"
	"hoursync/pkg/toggl"
)

// ListEntries fetches entries through the scheduler and retry wrapper.
func (r *implRepository) ListEntries(ctx context.Context, opt repository.ListEntriesOptions) ([]model.TimeEntry, error) {
	var raw []toggl.TimeEntry
	err := retry.Do(ctx, r.attempts, r.baseDelay, func(ctx context.Context) error {
		if _, err := r.sched.AcquireRead(ctx, scheduler.ProviderTracker, opt.Priority); err != nil {
			return err
		}
		var callErr error
		raw, callErr = r.client.ListTimeEntries(ctx, toggl.ListTimeEntriesOptions{
			Since:   opt.Since,
			Running: opt.Running,
		})
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list time entries: %w", err)
	}
	return mapEntries(raw), nil
}

// ListClients returns the tracker's client records, cached for a minute.
func (r *implRepository) ListClients(ctx context.Context, pr scheduler.Priority) ([]model.TrackerClient, error) {
	return r.clientsCache.Do(ctx, clientsKey{}, func(ctx context.Context) ([]model.TrackerClient, error) {
		var raw []toggl.TogglClient
		err := retry.Do(ctx, r.attempts, r.baseDelay, func(ctx context.Context) error {
			if _, err := r.sched.AcquireRead(ctx, scheduler.ProviderTracker, pr); err != nil {
				return err
			}
			var callErr error
			raw, callErr = r.client.ListClients(ctx, r.workspaceID)
			return callErr
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list clients: %w", err)
		}

		clients := make([]model.TrackerClient, 0, len(raw))
		for _, c := range raw {
			clients = append(clients, model.TrackerClient{ID: c.ID, Name: c.Name})
		}
		return clients, nil
	})
}

// LocalHours sums the window's entries matching the task. A task with no
// matching entries has zero hours; that is not an error.
func (r *implRepository) LocalHours(ctx context.Context, taskName, clientName string, pr scheduler.Priority) (float64, error) {
	key := hoursKey{task: taskName, client: clientName}
	return r.hoursCache.Do(ctx, key, func(ctx context.Context) (float64, error) {
		entries, err := r.windowEntries(ctx, pr)
		if err != nil {
			return 0, err
		}

		total := 0.0
		for _, e := range entries {
			if !r.matcher.MatchClientName(e.ClientName, clientName) {
				continue
			}
			if !r.matcher.MatchTaskName(e.Notes, taskName) {
				continue
			}
			total += e.Hours
		}
		return total, nil
	})
}

// windowEntries fetches the lookback window, cached under a minute-stable
// key so repeated rollups within the TTL share one fetch.
func (r *implRepository) windowEntries(ctx context.Context, pr scheduler.Priority) ([]model.TimeEntry, error) {
	since := time.Now().Add(-r.lookback).Truncate(time.Minute)
	return r.entriesCache.Do(ctx, entriesKey{sinceUnix: since.Unix()}, func(ctx context.Context) ([]model.TimeEntry, error) {
		return r.ListEntries(ctx, repository.ListEntriesOptions{Since: since, Priority: pr})
	})
}

func mapEntries(raw []toggl.TimeEntry) []model.TimeEntry {
	entries := make([]model.TimeEntry, 0, len(raw))
	for _, e := range raw {
		entries = append(entries, model.TimeEntry{
			ID:         e.ID,
			ClientID:   e.ClientID,
			ClientName: e.ClientName,
			Notes:      e.Description,
			Hours:      e.Hours(),
			UpdatedAt:  e.At,
			Running:    e.IsRunning(),
		})
	}
	return entries
}
