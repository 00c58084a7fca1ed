package config

import (
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("TRACKER_API_TOKEN", "toggl-secret")
	t.Setenv("WORKSPACE_API_TOKENS", "notion-a, notion-b,notion-c")
	t.Setenv("WORKSPACE_DATABASE_ID", "db-123")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Tracker.URL != "https://api.track.toggl.com/api/v9" {
		t.Errorf("tracker url = %q", cfg.Tracker.URL)
	}
	if cfg.Workspace.URL != "https://api.notion.com/v1" {
		t.Errorf("workspace url = %q", cfg.Workspace.URL)
	}
	if cfg.Workspace.Schema.TitleProp != "Name" || cfg.Workspace.Schema.TimeSpentProp != "Time spent" {
		t.Errorf("schema = %+v", cfg.Workspace.Schema)
	}
	if cfg.Poller.RealtimeInterval != 3*time.Second {
		t.Errorf("realtime interval = %v", cfg.Poller.RealtimeInterval)
	}
	if cfg.Poller.BulkInterval != time.Hour {
		t.Errorf("bulk interval = %v", cfg.Poller.BulkInterval)
	}
	if cfg.Watchdog.StallTimeout != 3*time.Minute {
		t.Errorf("stall timeout = %v", cfg.Watchdog.StallTimeout)
	}
	if cfg.Scheduler.TrackerRequests != 100 || cfg.Scheduler.TrackerWindow != 15*time.Second {
		t.Errorf("tracker rate = %d/%v", cfg.Scheduler.TrackerRequests, cfg.Scheduler.TrackerWindow)
	}
	if cfg.Scheduler.WorkspaceRequests != 3 {
		t.Errorf("workspace rate = %d", cfg.Scheduler.WorkspaceRequests)
	}
	if cfg.Retry.Attempts != 3 || cfg.Retry.BaseDelay != 2*time.Second {
		t.Errorf("retry = %d/%v", cfg.Retry.Attempts, cfg.Retry.BaseDelay)
	}
}

func TestLoadSplitsWorkspaceTokens(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := []string{"notion-a", "notion-b", "notion-c"}
	if len(cfg.Workspace.APITokens) != len(want) {
		t.Fatalf("tokens = %v, want %v", cfg.Workspace.APITokens, want)
	}
	for i := range want {
		if cfg.Workspace.APITokens[i] != want[i] {
			t.Errorf("tokens[%d] = %q, want %q", i, cfg.Workspace.APITokens[i], want[i])
		}
	}
}

func TestLoadRequiresCredentials(t *testing.T) {
	tests := []struct {
		name string
		omit string
	}{
		{"tracker token", "TRACKER_API_TOKEN"},
		{"workspace tokens", "WORKSPACE_API_TOKENS"},
		{"database id", "WORKSPACE_DATABASE_ID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.omit, "")

			if _, err := Load(); err == nil {
				t.Errorf("Load succeeded without %s", tt.omit)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"a,b,c", 3},
		{"a, b , c", 3},
		{"a,,b", 2},
		{"", 0},
		{"  ", 0},
	}

	for _, tt := range tests {
		if got := splitList(tt.in); len(got) != tt.want {
			t.Errorf("splitList(%q) = %v, want %d items", tt.in, got, tt.want)
		}
	}
}
