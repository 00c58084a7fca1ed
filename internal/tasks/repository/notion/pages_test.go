package notion_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"hoursync/config"
	"hoursync/internal/scheduler"
	tasksRepo "hoursync/internal/tasks/repository"
	notionRepo "hoursync/internal/tasks/repository/notion"
	"hoursync/pkg/notion"
	"hoursync/pkg/retry"
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

// passScheduler grants reads on slot 0 and runs writes inline, recording
// how many of each happened.
type passScheduler struct {
	mu     sync.Mutex
	reads  int
	writes int
}

func (s *passScheduler) AcquireRead(ctx context.Context, provider scheduler.Provider, pr scheduler.Priority) (int, error) {
	s.mu.Lock()
	s.reads++
	s.mu.Unlock()
	return 0, nil
}

func (s *passScheduler) SubmitWrite(ctx context.Context, pr scheduler.Priority, op func(ctx context.Context, slot int) error) error {
	s.mu.Lock()
	s.writes++
	s.mu.Unlock()
	return op(ctx, 0)
}

type fakeNotion struct {
	pages       map[string]*notion.Page
	queried     []notion.Page
	updates     map[string]string // page id -> last written rich text content
	updateErrs  []error           // consumed per UpdatePage call, nil = success
	updateCalls int
}

func (f *fakeNotion) RetrievePage(ctx context.Context, id string) (*notion.Page, error) {
	p, ok := f.pages[id]
	if !ok {
		return nil, notion.ErrNotFound
	}
	return p, nil
}

func (f *fakeNotion) QueryDatabase(ctx context.Context, databaseID string, filter *notion.Filter) ([]notion.Page, error) {
	return f.queried, nil
}

func (f *fakeNotion) UpdatePage(ctx context.Context, id string, properties map[string]notion.Property) (*notion.Page, error) {
	f.updateCalls++
	if len(f.updateErrs) > 0 {
		err := f.updateErrs[0]
		f.updateErrs = f.updateErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	p, ok := f.pages[id]
	if !ok {
		return nil, notion.ErrNotFound
	}
	if f.updates == nil {
		f.updates = make(map[string]string)
	}
	for name, prop := range properties {
		content := prop.RichText[0].Text.Content
		f.updates[id] = content
		p.Properties[name] = notion.Property{
			Type:     "rich_text",
			RichText: []notion.RichText{{PlainText: content}},
		}
	}
	return p, nil
}

var testSchema = config.SchemaConfig{
	TitleProp:     "Name",
	ParentProp:    "Parent task",
	ChildrenProp:  "Sub-tasks",
	ProjectProp:   "Project",
	TimeSpentProp: "Time spent",
}

func taskPage(id, title string, spent string) *notion.Page {
	props := map[string]notion.Property{
		"Name":        {Type: "title", Title: []notion.RichText{{PlainText: title}}},
		"Parent task": {Type: "relation", Relation: []notion.Relation{{ID: "parent-1"}}},
		"Sub-tasks":   {Type: "relation"},
		"Project":     {Type: "relation", Relation: []notion.Relation{{ID: "proj-1"}}},
	}
	if spent != "" {
		props["Time spent"] = notion.Property{Type: "rich_text", RichText: []notion.RichText{{PlainText: spent}}}
	}
	return &notion.Page{ID: id, Properties: props}
}

func newRepo(client *fakeNotion, sched *passScheduler) tasksRepo.TaskPageRepository {
	return notionRepo.New(&mockLogger{}, []notionRepo.Client{client}, sched, notionRepo.Config{
		DatabaseID: "db-1",
		Schema:     testSchema,
		Attempts:   3,
		BaseDelay:  time.Millisecond,
	})
}

func TestGetPageMapsSchema(t *testing.T) {
	client := &fakeNotion{pages: map[string]*notion.Page{
		"p1": taskPage("p1", "Build login page", "2.50 h (updated 2026-08-20T10:00:00Z)"),
	}}
	repo := newRepo(client, &passScheduler{})

	page, err := repo.GetPage(context.Background(), "p1", scheduler.PriorityRealtime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Title != "Build login page" {
		t.Errorf("title = %q", page.Title)
	}
	if len(page.ParentIDs) != 1 || page.ParentIDs[0] != "parent-1" {
		t.Errorf("parents = %v", page.ParentIDs)
	}
	if len(page.ProjectIDs) != 1 || page.ProjectIDs[0] != "proj-1" {
		t.Errorf("projects = %v", page.ProjectIDs)
	}
	if !page.HasTimeSpent || page.TimeSpentHours != 2.5 {
		t.Errorf("time spent = (%v, %v), want (2.5, true)", page.TimeSpentHours, page.HasTimeSpent)
	}
}

func TestGetPageCachesWithinTTL(t *testing.T) {
	client := &fakeNotion{pages: map[string]*notion.Page{
		"p1": taskPage("p1", "Task", ""),
	}}
	sched := &passScheduler{}
	repo := newRepo(client, sched)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := repo.GetPage(ctx, "p1", scheduler.PriorityRealtime); err != nil {
			t.Fatalf("get %d: %v", i, err)
		}
	}
	if sched.reads != 1 {
		t.Errorf("read slots consumed = %d, want 1", sched.reads)
	}
}

func TestGetPageNotFound(t *testing.T) {
	repo := newRepo(&fakeNotion{pages: map[string]*notion.Page{}}, &passScheduler{})

	_, err := repo.GetPage(context.Background(), "gone", scheduler.PriorityRealtime)
	if !errors.Is(err, tasksRepo.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestGetPageMissingTitleIsSchemaMismatch(t *testing.T) {
	client := &fakeNotion{pages: map[string]*notion.Page{
		"p1": {ID: "p1", Properties: map[string]notion.Property{}},
	}}
	repo := newRepo(client, &passScheduler{})

	_, err := repo.GetPage(context.Background(), "p1", scheduler.PriorityRealtime)
	if !errors.Is(err, tasksRepo.ErrSchemaMismatch) {
		t.Fatalf("err = %v, want ErrSchemaMismatch", err)
	}
}

func TestQueryTasksSkipsMalformedRecords(t *testing.T) {
	client := &fakeNotion{queried: []notion.Page{
		*taskPage("p1", "Good task", ""),
		{ID: "p2", Properties: map[string]notion.Property{}}, // no title prop
	}}
	repo := newRepo(client, &passScheduler{})

	pages, err := repo.QueryTasks(context.Background(), scheduler.PriorityBulk)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pages) != 1 || pages[0].ID != "p1" {
		t.Fatalf("pages = %+v, want only p1", pages)
	}
}

func TestUpdateTimeSpentWritesAndRefreshesCache(t *testing.T) {
	client := &fakeNotion{pages: map[string]*notion.Page{
		"p1": taskPage("p1", "Task", ""),
	}}
	sched := &passScheduler{}
	repo := newRepo(client, sched)
	ctx := context.Background()

	updated, err := repo.UpdateTimeSpent(ctx, "p1", 12.5, scheduler.PriorityRealtime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sched.writes != 1 {
		t.Errorf("writes = %d, want 1", sched.writes)
	}
	if !strings.HasPrefix(client.updates["p1"], "12.50 h (updated ") {
		t.Errorf("written value = %q", client.updates["p1"])
	}
	if !updated.HasTimeSpent || updated.TimeSpentHours != 12.5 {
		t.Errorf("updated record = %+v", updated)
	}

	// a read in the same tick must see the write without a provider call
	page, err := repo.GetPage(ctx, "p1", scheduler.PriorityRealtime)
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if page.TimeSpentHours != 12.5 {
		t.Errorf("cached hours = %v, want 12.5", page.TimeSpentHours)
	}
	if sched.reads != 0 {
		t.Errorf("read slots consumed = %d, want 0", sched.reads)
	}
}

func TestUpdateTimeSpentRetriesConsumeOneSlotEach(t *testing.T) {
	client := &fakeNotion{
		pages:      map[string]*notion.Page{"p1": taskPage("p1", "Task", "")},
		updateErrs: []error{retry.ErrTimeout, retry.ErrTimeout, nil},
	}
	sched := &passScheduler{}
	repo := newRepo(client, sched)

	if _, err := repo.UpdateTimeSpent(context.Background(), "p1", 3, scheduler.PriorityRealtime); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.updateCalls != 3 {
		t.Fatalf("provider calls = %d, want 3", client.updateCalls)
	}
	// every provider attempt must go through its own write admission, so
	// a retried write can never exceed the rate window sized for one
	if sched.writes != client.updateCalls {
		t.Errorf("write submissions = %d, provider calls = %d; want equal", sched.writes, client.updateCalls)
	}
}

func TestUpdateTimeSpentGivesUpOnSemanticError(t *testing.T) {
	client := &fakeNotion{
		pages:      map[string]*notion.Page{"p1": taskPage("p1", "Task", "")},
		updateErrs: []error{errors.New("validation failed")},
	}
	sched := &passScheduler{}
	repo := newRepo(client, sched)

	if _, err := repo.UpdateTimeSpent(context.Background(), "p1", 3, scheduler.PriorityRealtime); err == nil {
		t.Fatal("expected an error")
	}
	if client.updateCalls != 1 {
		t.Errorf("provider calls = %d, want 1 (no retry)", client.updateCalls)
	}
}

func TestMarkConflictWritesMarker(t *testing.T) {
	client := &fakeNotion{pages: map[string]*notion.Page{
		"p1": taskPage("p1", "Dup", ""),
	}}
	repo := newRepo(client, &passScheduler{})

	if err := repo.MarkConflict(context.Background(), "p1", "duplicate task name: Dup", scheduler.PriorityRealtime); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := client.updates["p1"]; got != "⚠ duplicate task name: Dup" {
		t.Errorf("written value = %q", got)
	}

	// a marked record no longer parses as hours
	page, err := repo.GetPage(context.Background(), "p1", scheduler.PriorityRealtime)
	if err != nil {
		t.Fatalf("get after mark: %v", err)
	}
	if page.HasTimeSpent {
		t.Error("HasTimeSpent = true for a conflict marker")
	}
}

func TestMarkConflictAlreadyMarkedSkipsWrite(t *testing.T) {
	client := &fakeNotion{pages: map[string]*notion.Page{
		"p1": taskPage("p1", "Dup", ""),
	}}
	sched := &passScheduler{}
	repo := newRepo(client, sched)
	ctx := context.Background()

	// every reconciliation pass re-marks a sustained ambiguity; only the
	// first may reach the provider
	for i := 0; i < 3; i++ {
		if err := repo.MarkConflict(ctx, "p1", "duplicate task name: Dup", scheduler.PriorityBulk); err != nil {
			t.Fatalf("mark %d: %v", i, err)
		}
	}
	if sched.writes != 1 {
		t.Errorf("write submissions = %d, want 1", sched.writes)
	}
}
