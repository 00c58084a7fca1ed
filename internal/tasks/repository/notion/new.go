package notion

import (
	"context"
	"time"

	"hoursync/config"
	"hoursync/internal/cache"
	"hoursync/internal/model"
	"hoursync/internal/scheduler"
	pkgLog "hoursync/pkg/log"
	"hoursync/pkg/notion"
)

// Client is the subset of the Notion API client the repository uses,
// narrowed to an interface so tests can fake the provider.
type Client interface {
	RetrievePage(ctx context.Context, id string) (*notion.Page, error)
	QueryDatabase(ctx context.Context, databaseID string, filter *notion.Filter) ([]notion.Page, error)
	UpdatePage(ctx context.Context, id string, properties map[string]notion.Property) (*notion.Page, error)
}

// Scheduler grants read slots and runs serialized writes. Satisfied by
// *scheduler.Scheduler.
type Scheduler interface {
	AcquireRead(ctx context.Context, provider scheduler.Provider, pr scheduler.Priority) (int, error)
	SubmitWrite(ctx context.Context, pr scheduler.Priority, op func(ctx context.Context, slot int) error) error
}

type implRepository struct {
	l          pkgLog.Logger
	clients    []Client // one per credential; the slot index picks which
	sched      Scheduler
	databaseID string
	schema     config.SchemaConfig
	attempts   int
	baseDelay  time.Duration

	pageCache  *cache.Cache[string, model.TaskPage]
	queryCache *cache.Cache[queryKey, []model.TaskPage]
}

type queryKey struct{}

// Config holds the repository tuning knobs.
type Config struct {
	DatabaseID string
	Schema     config.SchemaConfig
	Attempts   int
	BaseDelay  time.Duration
}

// New creates a Notion-backed task-page repository over a pool of
// per-credential clients.
func New(l pkgLog.Logger, clients []Client, sched Scheduler, cfg Config) *implRepository {
	return &implRepository{
		l:          l,
		clients:    clients,
		sched:      sched,
		databaseID: cfg.DatabaseID,
		schema:     cfg.Schema,
		attempts:   cfg.Attempts,
		baseDelay:  cfg.BaseDelay,
		pageCache:  cache.New[string, model.TaskPage](4096, time.Minute),
		queryCache: cache.New[queryKey, []model.TaskPage](1, time.Minute),
	}
}

func (r *implRepository) client(slot int) Client {
	if slot < 0 || slot >= len(r.clients) {
		return r.clients[0]
	}
	return r.clients[slot]
}
