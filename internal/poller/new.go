package poller

import (
	"time"

	"hoursync/internal/aggregate"
	"hoursync/internal/alert"
	"hoursync/internal/match"
	tasksRepo "hoursync/internal/tasks/repository"
	trackerRepo "hoursync/internal/tracker/repository"
	pkgLog "hoursync/pkg/log"
)

// Poller drives the two reconciliation lanes: a fast realtime loop fetching
// the delta since the last tick, and a slow bulk loop re-reading a
// multi-month window. They share the scheduler and caches but run on
// independent priority tiers, so a bulk backfill cannot starve realtime
// updates.
type Poller struct {
	l       pkgLog.Logger
	tracker trackerRepo.TrackerRepository
	tasks   tasksRepo.TaskPageRepository
	engine  *aggregate.Engine
	matcher *match.Matcher
	alerter *alert.Alerter
	beat    func()

	realtimeEvery time.Duration
	bulkEvery     time.Duration
	bulkWindow    time.Duration

	lastTick time.Time // realtime loop only
}

// Config is the dependency bag passed to New().
type Config struct {
	Tracker trackerRepo.TrackerRepository
	Tasks   tasksRepo.TaskPageRepository
	Engine  *aggregate.Engine
	Matcher *match.Matcher
	Alerter *alert.Alerter
	Beat    func() // watchdog progress callback

	RealtimeInterval time.Duration
	BulkInterval     time.Duration
	BulkWindow       time.Duration
}

// New creates a Poller.
func New(l pkgLog.Logger, cfg Config) *Poller {
	if cfg.RealtimeInterval <= 0 {
		cfg.RealtimeInterval = 3 * time.Second
	}
	if cfg.BulkInterval <= 0 {
		cfg.BulkInterval = time.Hour
	}
	if cfg.BulkWindow <= 0 {
		cfg.BulkWindow = 90 * 24 * time.Hour
	}
	return &Poller{
		l:             l,
		tracker:       cfg.Tracker,
		tasks:         cfg.Tasks,
		engine:        cfg.Engine,
		matcher:       cfg.Matcher,
		alerter:       cfg.Alerter,
		beat:          cfg.Beat,
		realtimeEvery: cfg.RealtimeInterval,
		bulkEvery:     cfg.BulkInterval,
		bulkWindow:    cfg.BulkWindow,
	}
}
