package model

import "time"

// Environment identifies the deployment environment.
type Environment string

const (
	EnvironmentDevelopment Environment = "development"
	EnvironmentProduction  Environment = "production"
)

// TimeEntry is a single recorded span of work from the tracker provider.
// Transient: re-fetched every poll, never persisted locally.
type TimeEntry struct {
	ID         int64
	ClientID   int64
	ClientName string
	Notes      string // free text; the first line is the task label
	Hours      float64
	UpdatedAt  time.Time
	Running    bool
}

// TrackerClient is a client record from the tracker provider.
type TrackerClient struct {
	ID   int64
	Name string
}

// TaskPage is a task record from the workspace provider, reduced to the
// fields the reconciler needs.
type TaskPage struct {
	ID         string
	Title      string
	ProjectIDs []string
	ParentIDs  []string
	ChildIDs   []string

	// TimeSpent is the raw rich-text value of the time-spent property.
	// TimeSpentHours is the hours value parsed out of it; HasTimeSpent is
	// false when the property is empty or unparseable.
	TimeSpent      string
	TimeSpentHours float64
	HasTimeSpent   bool
}

// StatusSnapshot is the read-only state exposed by the ops server.
type StatusSnapshot struct {
	Nodes        int            `json:"nodes"`
	LastProgress time.Time      `json:"last_progress"`
	QueueDepths  map[string]int `json:"queue_depths"`
}
