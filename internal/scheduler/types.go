package scheduler

import (
	"time"

	"golang.org/x/time/rate"
)

// Priority is the scheduling class of a request. Lower value dispatches
// first under contention.
type Priority int

const (
	PriorityRealtime Priority = iota
	PriorityBulk
	PriorityBackground

	numPriorities
)

func (p Priority) String() string {
	switch p {
	case PriorityRealtime:
		return "realtime"
	case PriorityBulk:
		return "bulk"
	case PriorityBackground:
		return "background"
	}
	return "unknown"
}

// Provider identifies a rate-limited remote service.
type Provider string

const (
	ProviderTracker   Provider = "tracker"
	ProviderWorkspace Provider = "workspace"
)

// LimitConfig is a rate ceiling of Requests per Window.
type LimitConfig struct {
	Requests int
	Window   time.Duration
}

// limit converts the ceiling to a token refill rate. Burst stays at 1 so no
// sliding window of size Window ever sees more than Requests dispatches.
func (c LimitConfig) limit() rate.Limit {
	if c.Requests <= 0 || c.Window <= 0 {
		return rate.Inf
	}
	return rate.Every(c.Window / time.Duration(c.Requests))
}

// Config configures the scheduler.
type Config struct {
	Tracker   LimitConfig
	Workspace LimitConfig

	// WorkspaceCredentials is the number of independent workspace rate
	// budgets. Reads round-robin across them; each gets its own limiter.
	WorkspaceCredentials int
}
