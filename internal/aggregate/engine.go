package aggregate

import (
	"context"
	"errors"
	"fmt"
	"math"

	"hoursync/internal/scheduler"
	tasksRepo "hoursync/internal/tasks/repository"
	trackerRepo "hoursync/internal/tracker/repository"
	pkgLog "hoursync/pkg/log"
)

// Engine recomputes a task's aggregated hours (its own plus the recursive
// sum of its children) and propagates changes upward through parents. It is
// safe against malformed graphs: cycles and self-references terminate via
// the per-node updating guard, at the cost of a possibly stale read within a
// single pass.
type Engine struct {
	l        pkgLog.Logger
	registry *Registry
	pages    tasksRepo.TaskPageRepository
	tracker  trackerRepo.TrackerRepository
	onWrite  func() // progress callback, optional
}

// New creates an aggregation engine over the given registry.
func New(l pkgLog.Logger, registry *Registry, pages tasksRepo.TaskPageRepository, tracker trackerRepo.TrackerRepository, onWrite func()) *Engine {
	return &Engine{
		l:        l,
		registry: registry,
		pages:    pages,
		tracker:  tracker,
		onWrite:  onWrite,
	}
}

// Registry exposes the node registry (ops status, poller scans).
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Update recomputes the node's totals and walks upward. Soft failures
// (deleted record, schema mismatch) abandon the update for this pass only;
// the node remains resolvable on the next discovery.
func (e *Engine) Update(ctx context.Context, id string, pr scheduler.Priority) error {
	node := e.registry.GetOrCreate(id)
	if !node.beginUpdate() {
		// already mid-update further down the call chain: a cycle or a
		// concurrent pass; read whatever state exists instead of recursing
		return nil
	}
	defer node.endUpdate()

	page, err := e.pages.GetPage(ctx, id, pr)
	if err != nil {
		switch {
		case errors.Is(err, tasksRepo.ErrNotFound):
			e.l.Debugf(ctx, "aggregate: record %s gone, dropped for this pass", id)
			return nil
		case errors.Is(err, tasksRepo.ErrSchemaMismatch):
			e.l.Debugf(ctx, "aggregate: record %s shape mismatch, skipped: %v", id, err)
			return nil
		}
		return fmt.Errorf("failed to fetch record %s: %w", id, err)
	}

	projectName := node.Project()
	if len(page.ProjectIDs) > 0 {
		if proj, perr := e.pages.GetPage(ctx, page.ProjectIDs[0], pr); perr == nil {
			projectName = proj.Title
		} else {
			e.l.Debugf(ctx, "aggregate: project lookup for %s failed, keeping %q: %v", id, projectName, perr)
		}
	}

	local, err := e.tracker.LocalHours(ctx, page.Title, projectName, pr)
	if err != nil {
		return fmt.Errorf("failed to compute local hours for %q: %w", page.Title, err)
	}

	childSum := 0.0
	for _, cid := range page.ChildIDs {
		if cid == id {
			continue // a record incorrectly listing itself as its own child
		}
		childSum += e.registry.GetOrCreate(cid).AggregatedHours()
	}

	total := round2(local + childSum)

	node.mu.Lock()
	node.name = page.Title
	node.project = projectName
	node.localHours = round2(local)
	node.aggregatedHours = total
	node.parents = append([]string(nil), page.ParentIDs...)
	node.children = append([]string(nil), page.ChildIDs...)
	node.mu.Unlock()

	// write only when the total differs from what the remote record last
	// showed; this bounds write volume and provider rate consumption
	if !page.HasTimeSpent || total != round2(page.TimeSpentHours) {
		if _, werr := e.pages.UpdateTimeSpent(ctx, id, total, pr); werr != nil {
			return fmt.Errorf("failed to write hours for %q: %w", page.Title, werr)
		}
		if e.onWrite != nil {
			e.onWrite()
		}
		e.l.Infof(ctx, "aggregate: %q now %.2f h (local %.2f, children %.2f)", page.Title, total, local, childSum)
	}

	for _, pid := range page.ParentIDs {
		if pid == id {
			continue
		}
		if perr := e.Update(ctx, pid, pr); perr != nil {
			e.l.Warnf(ctx, "aggregate: parent %s of %q failed: %v", pid, page.Title, perr)
		}
	}
	return nil
}

// MarkConflict flags every record of an ambiguous duplicate set with a
// visible error marker. Aggregation for these records is skipped until a
// human resolves the upstream ambiguity.
func (e *Engine) MarkConflict(ctx context.Context, ids []string, reason string, pr scheduler.Priority) {
	for _, id := range ids {
		if err := e.pages.MarkConflict(ctx, id, reason, pr); err != nil {
			e.l.Warnf(ctx, "aggregate: failed to mark conflict on %s: %v", id, err)
		}
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
