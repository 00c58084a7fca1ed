package toggl

import (
	"context"
	"time"

	"hoursync/internal/cache"
	"hoursync/internal/match"
	"hoursync/internal/model"
	"hoursync/internal/scheduler"
	pkgLog "hoursync/pkg/log"
	"hoursync/pkg/toggl"
)

// Client is the subset of the Toggl API client the repository uses,
// narrowed to an interface so tests can fake the provider.
type Client interface {
	ListTimeEntries(ctx context.Context, opt toggl.ListTimeEntriesOptions) ([]toggl.TimeEntry, error)
	ListClients(ctx context.Context, workspaceID int64) ([]toggl.TogglClient, error)
}

// Limiter grants rate-limited read slots. Satisfied by *scheduler.Scheduler.
type Limiter interface {
	AcquireRead(ctx context.Context, provider scheduler.Provider, pr scheduler.Priority) (int, error)
}

type implRepository struct {
	l           pkgLog.Logger
	client      Client
	sched       Limiter
	matcher     *match.Matcher
	workspaceID int64
	lookback    time.Duration
	attempts    int
	baseDelay   time.Duration

	// entriesCache holds the lookback window used for hours rollups;
	// hoursCache memoizes per-task sums with a deliberately short TTL.
	entriesCache *cache.Cache[entriesKey, []model.TimeEntry]
	clientsCache *cache.Cache[clientsKey, []model.TrackerClient]
	hoursCache   *cache.Cache[hoursKey, float64]
}

type entriesKey struct {
	sinceUnix int64
}

type clientsKey struct{}

type hoursKey struct {
	task   string
	client string
}

// Config holds the repository tuning knobs.
type Config struct {
	WorkspaceID int64
	Lookback    time.Duration // window scanned when recomputing a task's hours
	Attempts    int
	BaseDelay   time.Duration
}

// New creates a Toggl-backed tracker repository.
func New(l pkgLog.Logger, client Client, sched Limiter, matcher *match.Matcher, cfg Config) *implRepository {
	if cfg.Lookback <= 0 {
		cfg.Lookback = 90 * 24 * time.Hour
	}
	return &implRepository{
		l:            l,
		client:       client,
		sched:        sched,
		matcher:      matcher,
		workspaceID:  cfg.WorkspaceID,
		lookback:     cfg.Lookback,
		attempts:     cfg.Attempts,
		baseDelay:    cfg.BaseDelay,
		entriesCache: cache.New[entriesKey, []model.TimeEntry](16, time.Minute),
		clientsCache: cache.New[clientsKey, []model.TrackerClient](1, time.Minute),
		hoursCache:   cache.New[hoursKey, float64](4096, 5*time.Second),
	}
}
