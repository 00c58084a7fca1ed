package main

import (
	"hoursync/internal/aggregate"
	"hoursync/internal/model"
	"hoursync/internal/scheduler"
	"hoursync/internal/watchdog"
)

// statusProvider assembles the ops /status snapshot from live components.
type statusProvider struct {
	engine *aggregate.Engine
	wd     *watchdog.Watchdog
	sched  *scheduler.Scheduler
}

func (p *statusProvider) Snapshot() model.StatusSnapshot {
	return model.StatusSnapshot{
		Nodes:        p.engine.Registry().Len(),
		LastProgress: p.wd.LastProgress(),
		QueueDepths:  p.sched.QueueDepths(),
	}
}
