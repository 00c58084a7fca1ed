package toggl

import "time"

// ListTimeEntriesOptions filters a time-entries fetch.
type ListTimeEntriesOptions struct {
	Since   time.Time // entries updated since this instant (zero = provider default window)
	Running *bool     // nil = all, otherwise filter by running state
}

// TimeEntry is the Toggl API time entry object. Negative duration means the
// entry is still running (Toggl encodes running entries as -start_unix).
type TimeEntry struct {
	ID          int64     `json:"id"`
	Description string    `json:"description"`
	ProjectID   int64     `json:"project_id"`
	ClientID    int64     `json:"client_id"`
	ClientName  string    `json:"client_name"`
	Duration    int64     `json:"duration"`
	Start       time.Time `json:"start"`
	At          time.Time `json:"at"`
}

// IsRunning reports whether the entry is currently being tracked.
func (e TimeEntry) IsRunning() bool {
	return e.Duration < 0
}

// Hours returns the entry's measured hours. Running entries measure from
// their start time to now.
func (e TimeEntry) Hours() float64 {
	if e.IsRunning() {
		return time.Since(e.Start).Hours()
	}
	return float64(e.Duration) / 3600.0
}

// TogglClient is the Toggl API client object.
type TogglClient struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
