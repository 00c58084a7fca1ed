package poller

import (
	"context"
	"sync"
	"time"

	"hoursync/internal/match"
	"hoursync/internal/model"
	"hoursync/internal/scheduler"
	"hoursync/internal/tracker/repository"
)

// Run drives both loops until the context is done.
func (p *Poller) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		p.realtimeLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		p.bulkLoop(ctx)
	}()
	wg.Wait()
}

func (p *Poller) realtimeLoop(ctx context.Context) {
	ticker := time.NewTicker(p.realtimeEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.realtimeTick(ctx)
		}
	}
}

// realtimeTick reconciles the delta since the previous tick plus every
// currently running entry (their hours grow without new update events).
func (p *Poller) realtimeTick(ctx context.Context) {
	since := p.lastTick
	if since.IsZero() {
		since = time.Now().Add(-2 * p.realtimeEvery)
	}
	tick := time.Now()

	changed, err := p.tracker.ListEntries(ctx, repository.ListEntriesOptions{
		Since:    since,
		Priority: scheduler.PriorityRealtime,
	})
	if err != nil {
		p.l.Warnf(ctx, "poller: realtime fetch failed: %v", err)
		return
	}

	running := true
	live, err := p.tracker.ListEntries(ctx, repository.ListEntriesOptions{
		Running:  &running,
		Priority: scheduler.PriorityRealtime,
	})
	if err != nil {
		p.l.Warnf(ctx, "poller: running-entries fetch failed: %v", err)
		return
	}

	for _, e := range dedupe(changed, live) {
		p.process(ctx, e, scheduler.PriorityRealtime)
	}

	p.lastTick = tick
	if p.beat != nil {
		p.beat()
	}
}

func (p *Poller) bulkLoop(ctx context.Context) {
	// first full reconciliation right away, then hourly
	p.bulkTick(ctx)

	ticker := time.NewTicker(p.bulkEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.bulkTick(ctx)
		}
	}
}

func (p *Poller) bulkTick(ctx context.Context) {
	entries, err := p.tracker.ListEntries(ctx, repository.ListEntriesOptions{
		Since:    time.Now().Add(-p.bulkWindow),
		Priority: scheduler.PriorityBulk,
	})
	if err != nil {
		p.l.Warnf(ctx, "poller: bulk fetch failed: %v", err)
		return
	}

	p.l.Infof(ctx, "poller: bulk reconciliation over %d entries", len(entries))
	for _, e := range entries {
		if ctx.Err() != nil {
			return
		}
		p.process(ctx, e, scheduler.PriorityBulk)
	}

	if p.beat != nil {
		p.beat()
	}
}

// process resolves one time entry to exactly one task record and triggers
// its aggregation update. No-match and ambiguity are soft failures: the
// entry is skipped, the rest of the batch continues.
func (p *Poller) process(ctx context.Context, entry model.TimeEntry, pr scheduler.Priority) {
	label := match.TaskLabel(entry.Notes)
	if label == "" {
		p.l.Debugf(ctx, "poller: entry %d has no task label, skipped", entry.ID)
		return
	}
	if entry.ClientName == "" && entry.ClientID != 0 {
		entry.ClientName = p.resolveClientName(ctx, entry.ClientID, pr)
	}
	if entry.ClientName == "" {
		p.alerter.Alertf(ctx, "time entry %q has no client; cannot reconcile", label)
		return
	}

	// registry scan first: a known (name, project) pair must reuse its node
	// instead of re-querying the remote database
	if node := p.engine.Registry().FindByName(p.matcher, label, entry.ClientName); node != nil {
		if err := p.engine.Update(ctx, node.ID, pr); err != nil {
			p.l.Warnf(ctx, "poller: update of %q failed: %v", label, err)
		}
		return
	}

	pages, err := p.tasks.QueryTasks(ctx, pr)
	if err != nil {
		p.l.Warnf(ctx, "poller: task query for %q failed: %v", label, err)
		return
	}

	var titleMatches []model.TaskPage
	for _, page := range pages {
		if p.matcher.MatchTaskName(page.Title, label) {
			titleMatches = append(titleMatches, page)
		}
	}
	if len(titleMatches) == 0 {
		p.alerter.Alertf(ctx, "no task record matches %q (client %q)", label, entry.ClientName)
		return
	}

	matched := p.filterByClient(ctx, titleMatches, entry.ClientName, pr)
	switch len(matched) {
	case 0:
		p.alerter.Alertf(ctx, "no task record for client %q matches %q", entry.ClientName, label)
	case 1:
		if err := p.engine.Update(ctx, matched[0].ID, pr); err != nil {
			p.l.Warnf(ctx, "poller: update of %q failed: %v", label, err)
		}
	default:
		// duplicate records for one name are an upstream data-integrity
		// problem; flag every one and leave aggregation to a human fix
		ids := make([]string, 0, len(matched))
		for _, m := range matched {
			ids = append(ids, m.ID)
		}
		p.engine.MarkConflict(ctx, ids, "duplicate task name: "+label, pr)
		p.alerter.Alertf(ctx, "%d task records share the name %q (client %q); marked for review", len(matched), label, entry.ClientName)
	}
}

// resolveClientName looks a client id up in the (cached) client list, for
// entries that carry an id but no inlined name.
func (p *Poller) resolveClientName(ctx context.Context, clientID int64, pr scheduler.Priority) string {
	clients, err := p.tracker.ListClients(ctx, pr)
	if err != nil {
		p.l.Warnf(ctx, "poller: client list fetch failed: %v", err)
		return ""
	}
	for _, c := range clients {
		if c.ID == clientID {
			return c.Name
		}
	}
	return ""
}

// filterByClient keeps candidates whose project page matches the entry's
// client name. Candidates without a project relation stay in, matched on
// name alone.
func (p *Poller) filterByClient(ctx context.Context, candidates []model.TaskPage, clientName string, pr scheduler.Priority) []model.TaskPage {
	var out []model.TaskPage
	for _, c := range candidates {
		if len(c.ProjectIDs) == 0 {
			out = append(out, c)
			continue
		}
		proj, err := p.tasks.GetPage(ctx, c.ProjectIDs[0], pr)
		if err != nil {
			p.l.Debugf(ctx, "poller: project lookup for %s failed: %v", c.ID, err)
			continue
		}
		if p.matcher.MatchClientName(proj.Title, clientName) {
			out = append(out, c)
		}
	}
	return out
}

// dedupe merges entry batches, first occurrence winning, original order
// kept. The batches are fetched within one tick, so duplicates differ only
// by the milliseconds between the two calls.
func dedupe(batches ...[]model.TimeEntry) []model.TimeEntry {
	seen := make(map[int64]bool)
	var out []model.TimeEntry
	for _, batch := range batches {
		for _, e := range batch {
			if seen[e.ID] {
				continue
			}
			seen[e.ID] = true
			out = append(out, e)
		}
	}
	return out
}
