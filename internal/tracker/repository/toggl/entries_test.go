package toggl_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"hoursync/internal/match"
	"hoursync/internal/scheduler"
	"hoursync/internal/tracker/repository"
	togglRepo "hoursync/internal/tracker/repository/toggl"
	"hoursync/pkg/retry"
	"hoursync/pkg/toggl"
)

type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, args ...any)                  {}
func (m *mockLogger) Debugf(ctx context.Context, format string, args ...any)  {}
func (m *mockLogger) Info(ctx context.Context, args ...any)                   {}
func (m *mockLogger) Infof(ctx context.Context, format string, args ...any)   {}
func (m *mockLogger) Warn(ctx context.Context, args ...any)                   {}
func (m *mockLogger) Warnf(ctx context.Context, format string, args ...any)   {}
func (m *mockLogger) Error(ctx context.Context, args ...any)                  {}
func (m *mockLogger) Errorf(ctx context.Context, format string, args ...any)  {}
func (m *mockLogger) DPanic(ctx context.Context, args ...any)                 {}
func (m *mockLogger) DPanicf(ctx context.Context, format string, args ...any) {}
func (m *mockLogger) Panic(ctx context.Context, args ...any)                  {}
func (m *mockLogger) Panicf(ctx context.Context, format string, args ...any)  {}
func (m *mockLogger) Fatal(ctx context.Context, args ...any)                  {}
func (m *mockLogger) Fatalf(ctx context.Context, format string, args ...any)  {}

// openLimiter grants every read immediately.
type openLimiter struct{ acquires int }

func (l *openLimiter) AcquireRead(ctx context.Context, provider scheduler.Provider, pr scheduler.Priority) (int, error) {
	l.acquires++
	return 0, nil
}

type fakeClient struct {
	entries  []toggl.TimeEntry
	clients  []toggl.TogglClient
	errs     []error // consumed per ListTimeEntries call, nil = success
	listCall int
}

func (f *fakeClient) ListTimeEntries(ctx context.Context, opt toggl.ListTimeEntriesOptions) ([]toggl.TimeEntry, error) {
	f.listCall++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return f.entries, nil
}

func (f *fakeClient) ListClients(ctx context.Context, workspaceID int64) ([]toggl.TogglClient, error) {
	return f.clients, nil
}

func newRepo(client *fakeClient, lim *openLimiter) repository.TrackerRepository {
	return togglRepo.New(&mockLogger{}, client, lim, match.New(nil), togglRepo.Config{
		WorkspaceID: 1,
		Lookback:    90 * 24 * time.Hour,
		Attempts:    3,
		BaseDelay:   time.Millisecond,
	})
}

func TestListEntriesMapsFields(t *testing.T) {
	at := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	client := &fakeClient{entries: []toggl.TimeEntry{
		{ID: 1, Description: "Build login page\nextra", ClientID: 7, ClientName: "Acme", Duration: 7200, At: at},
	}}
	repo := newRepo(client, &openLimiter{})

	entries, err := repo.ListEntries(context.Background(), repository.ListEntriesOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e.Notes != "Build login page\nextra" || e.ClientName != "Acme" || e.Hours != 2 || !e.UpdatedAt.Equal(at) || e.Running {
		t.Errorf("unexpected entry: %+v", e)
	}
}

func TestListEntriesRetriesTimeouts(t *testing.T) {
	client := &fakeClient{
		entries: []toggl.TimeEntry{{ID: 1, Duration: 3600}},
		errs:    []error{retry.ErrTimeout, retry.ErrTimeout, nil},
	}
	repo := newRepo(client, &openLimiter{})

	entries, err := repo.ListEntries(context.Background(), repository.ListEntriesOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if client.listCall != 3 {
		t.Errorf("provider calls = %d, want 3", client.listCall)
	}
}

func TestListEntriesGivesUpOnSemanticError(t *testing.T) {
	boom := errors.New("payment required")
	client := &fakeClient{errs: []error{boom}}
	repo := newRepo(client, &openLimiter{})

	_, err := repo.ListEntries(context.Background(), repository.ListEntriesOptions{})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want the provider error", err)
	}
	if client.listCall != 1 {
		t.Errorf("provider calls = %d, want 1 (no retry)", client.listCall)
	}
}

func TestLocalHoursSumsMatchingEntries(t *testing.T) {
	client := &fakeClient{entries: []toggl.TimeEntry{
		{ID: 1, Description: "Build login page", ClientName: "Acme Corp", Duration: 3600},
		{ID: 2, Description: "[Design] Build login page", ClientName: "acme", Duration: 1800},
		{ID: 3, Description: "Build login page", ClientName: "Globex", Duration: 7200}, // wrong client
		{ID: 4, Description: "Unrelated work", ClientName: "Acme Corp", Duration: 3600},
	}}
	repo := newRepo(client, &openLimiter{})

	hours, err := repo.LocalHours(context.Background(), "Build login page", "Acme", scheduler.PriorityRealtime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hours != 1.5 {
		t.Errorf("hours = %v, want 1.5 (1h + 0.5h)", hours)
	}
}

func TestLocalHoursNoMatchesIsZero(t *testing.T) {
	repo := newRepo(&fakeClient{}, &openLimiter{})

	hours, err := repo.LocalHours(context.Background(), "Anything", "Acme", scheduler.PriorityRealtime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hours != 0 {
		t.Errorf("hours = %v, want 0", hours)
	}
}

func TestLocalHoursSharesWindowFetch(t *testing.T) {
	client := &fakeClient{entries: []toggl.TimeEntry{
		{ID: 1, Description: "Task A", ClientName: "Acme", Duration: 3600},
		{ID: 2, Description: "Task B", ClientName: "Acme", Duration: 1800},
	}}
	repo := newRepo(client, &openLimiter{})
	ctx := context.Background()

	repo.LocalHours(ctx, "Task A", "Acme", scheduler.PriorityBulk)
	repo.LocalHours(ctx, "Task B", "Acme", scheduler.PriorityBulk)

	if client.listCall != 1 {
		t.Errorf("provider calls = %d, want 1 (window cached)", client.listCall)
	}
}

func TestListClientsCached(t *testing.T) {
	client := &fakeClient{clients: []toggl.TogglClient{{ID: 7, Name: "Acme Corp"}}}
	lim := &openLimiter{}
	repo := newRepo(client, lim)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		clients, err := repo.ListClients(ctx, scheduler.PriorityBackground)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(clients) != 1 || clients[0].Name != "Acme Corp" {
			t.Fatalf("unexpected clients: %+v", clients)
		}
	}
	if lim.acquires != 1 {
		t.Errorf("read slots consumed = %d, want 1 (cached)", lim.acquires)
	}
}
