package notion

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"hoursync/internal/model"
	"hoursync/internal/scheduler"
	"hoursync/internal/tasks/repository"
	"hoursync/pkg/notion"
	"hoursync/pkg/retry"
)

// GetPage fetches one task record, memoized for concurrent and repeated
// lookups within the page TTL.
func (r *implRepository) GetPage(ctx context.Context, id string, pr scheduler.Priority) (model.TaskPage, error) {
	return r.pageCache.Do(ctx, id, func(ctx context.Context) (model.TaskPage, error) {
		var page *notion.Page
		err := retry.Do(ctx, r.attempts, r.baseDelay, func(ctx context.Context) error {
			slot, err := r.sched.AcquireRead(ctx, scheduler.ProviderWorkspace, pr)
			if err != nil {
				return err
			}
			page, err = r.client(slot).RetrievePage(ctx, id)
			return err
		})
		if err != nil {
			return model.TaskPage{}, translate(err, "get page")
		}
		return r.mapPage(page)
	})
}

// QueryTasks lists the whole target database, memoized so concurrent
// reconciliation chains share one (paginated) query per TTL window.
func (r *implRepository) QueryTasks(ctx context.Context, pr scheduler.Priority) ([]model.TaskPage, error) {
	return r.queryCache.Do(ctx, queryKey{}, func(ctx context.Context) ([]model.TaskPage, error) {
		var raw []notion.Page
		err := retry.Do(ctx, r.attempts, r.baseDelay, func(ctx context.Context) error {
			slot, err := r.sched.AcquireRead(ctx, scheduler.ProviderWorkspace, pr)
			if err != nil {
				return err
			}
			raw, err = r.client(slot).QueryDatabase(ctx, r.databaseID, nil)
			return err
		})
		if err != nil {
			return nil, translate(err, "query tasks")
		}

		pages := make([]model.TaskPage, 0, len(raw))
		for i := range raw {
			tp, err := r.mapPage(&raw[i])
			if err != nil {
				// one malformed record must not sink the whole query
				r.l.Debugf(ctx, "tasks: skipping malformed record %s: %v", raw[i].ID, err)
				continue
			}
			pages = append(pages, tp)
		}
		return pages, nil
	})
}

// UpdateTimeSpent writes the hours summary through the serialized write
// lane, then eagerly refreshes the page cache with the updated record.
func (r *implRepository) UpdateTimeSpent(ctx context.Context, id string, hours float64, pr scheduler.Priority) (model.TaskPage, error) {
	value := formatTimeSpent(hours)
	updated, err := r.writeTimeSpent(ctx, id, value, pr)
	if err != nil {
		return model.TaskPage{}, err
	}
	r.pageCache.Put(id, updated)
	return updated, nil
}

// MarkConflict writes a visible error marker into the record's time-spent
// property for a human to act on. An already-marked record is left alone so
// a sustained ambiguity does not burn write budget every pass.
func (r *implRepository) MarkConflict(ctx context.Context, id string, marker string, pr scheduler.Priority) error {
	value := "⚠ " + marker
	if cur, err := r.GetPage(ctx, id, pr); err == nil && cur.TimeSpent == value {
		return nil
	}
	updated, err := r.writeTimeSpent(ctx, id, value, pr)
	if err != nil {
		return err
	}
	r.pageCache.Put(id, updated)
	return nil
}

// writeTimeSpent retries around SubmitWrite, not inside it: every provider
// attempt is a fresh submission, so each consumes its own rate token.
func (r *implRepository) writeTimeSpent(ctx context.Context, id, value string, pr scheduler.Priority) (model.TaskPage, error) {
	var page *notion.Page
	err := retry.Do(ctx, r.attempts, r.baseDelay, func(ctx context.Context) error {
		return r.sched.SubmitWrite(ctx, pr, func(ctx context.Context, slot int) error {
			var callErr error
			page, callErr = r.client(slot).UpdatePage(ctx, id, map[string]notion.Property{
				r.schema.TimeSpentProp: notion.NewRichTextProperty(value),
			})
			return callErr
		})
	})
	if err != nil {
		return model.TaskPage{}, translate(err, "update page")
	}
	return r.mapPage(page)
}

// mapPage decodes a provider page against the configured schema.
func (r *implRepository) mapPage(page *notion.Page) (model.TaskPage, error) {
	title, err := page.TitleText(r.schema.TitleProp)
	if err != nil {
		return model.TaskPage{}, translate(err, "map page")
	}

	// relation props may be absent on databases without hierarchy; absence
	// is a schema mismatch only for the title
	parents, _ := page.RelationIDs(r.schema.ParentProp)
	children, _ := page.RelationIDs(r.schema.ChildrenProp)
	projects, _ := page.RelationIDs(r.schema.ProjectProp)
	spent, _ := page.RichTextValue(r.schema.TimeSpentProp)

	tp := model.TaskPage{
		ID:         page.ID,
		Title:      title,
		ProjectIDs: projects,
		ParentIDs:  parents,
		ChildIDs:   children,
		TimeSpent:  spent,
	}
	tp.TimeSpentHours, tp.HasTimeSpent = parseTimeSpent(spent)
	return tp, nil
}

// formatTimeSpent renders the human-readable summary stored in the
// workspace, e.g. "12.50 h (updated 2026-08-29T10:00:00Z)".
func formatTimeSpent(hours float64) string {
	return fmt.Sprintf("%.2f h (updated %s)", hours, time.Now().UTC().Format(time.RFC3339))
}

// parseTimeSpent extracts the hours value back out of the summary text.
func parseTimeSpent(s string) (float64, bool) {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func translate(err error, op string) error {
	switch {
	case errors.Is(err, notion.ErrNotFound):
		return fmt.Errorf("%w: %s", repository.ErrNotFound, op)
	case errors.Is(err, notion.ErrSchemaMismatch):
		return fmt.Errorf("%w: %s: %v", repository.ErrSchemaMismatch, op, err)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
