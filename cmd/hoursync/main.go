package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"hoursync/config"
	"hoursync/internal/aggregate"
	"hoursync/internal/alert"
	"hoursync/internal/httpserver"
	"hoursync/internal/match"
	"hoursync/internal/poller"
	"hoursync/internal/scheduler"
	notionRepo "hoursync/internal/tasks/repository/notion"
	togglRepo "hoursync/internal/tracker/repository/toggl"
	"hoursync/internal/watchdog"
	"hoursync/pkg/log"
	"hoursync/pkg/notion"
	"hoursync/pkg/telegram"
	"hoursync/pkg/toggl"
)

// main is the entry point for the hours reconciliation daemon.
//
// Pattern:
//  1. Load config, init logger
//  2. Wire providers → scheduler → repositories → engine → poller
//  3. Run loops; the watchdog decides the exit code
//
// Exit 0 on signal-driven shutdown; exit 1 on a liveness stall so the
// external supervisor restarts the process (crash-only recovery).
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Failed to load config: ", err)
		os.Exit(1)
	}

	logger := log.Init(log.ZapConfig{
		Level:        cfg.Logger.Level,
		Mode:         cfg.Logger.Mode,
		Encoding:     cfg.Logger.Encoding,
		ColorEnabled: cfg.Logger.ColorEnabled,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info(ctx, "Starting hoursync...")
	logger.Infof(ctx, "Environment: %s", cfg.Environment.Name)
	logger.Infof(ctx, "Workspace credentials: %d", len(cfg.Workspace.APITokens))

	// Alert channel (optional)
	var sender alert.Sender
	if cfg.Telegram.BotToken != "" && cfg.Telegram.AlertChatID != 0 {
		sender = telegram.NewBot(cfg.Telegram.BotToken)
		logger.Info(ctx, "Telegram alerting enabled")
	} else {
		logger.Warn(ctx, "Telegram alerting not configured, alerts go to the log only")
	}
	alerter := alert.New(logger, sender, cfg.Telegram.AlertChatID, cfg.Telegram.AlertCooldown)

	// Scheduler: shared rate budgets for both providers
	sched := scheduler.New(logger, scheduler.Config{
		Tracker: scheduler.LimitConfig{
			Requests: cfg.Scheduler.TrackerRequests,
			Window:   cfg.Scheduler.TrackerWindow,
		},
		Workspace: scheduler.LimitConfig{
			Requests: cfg.Scheduler.WorkspaceRequests,
			Window:   cfg.Scheduler.WorkspaceWindow,
		},
		WorkspaceCredentials: len(cfg.Workspace.APITokens),
	})
	defer sched.Close()

	// Providers & repositories
	matcher := match.New(cfg.Workspace.ClientAliases)

	togglClient := toggl.NewClient(cfg.Tracker.URL, cfg.Tracker.APIToken)
	trackerRepo := togglRepo.New(logger, togglClient, sched, matcher, togglRepo.Config{
		WorkspaceID: cfg.Tracker.WorkspaceID,
		Lookback:    cfg.Poller.HoursLookback,
		Attempts:    cfg.Retry.Attempts,
		BaseDelay:   cfg.Retry.BaseDelay,
	})

	notionClients := make([]notionRepo.Client, 0, len(cfg.Workspace.APITokens))
	for _, token := range cfg.Workspace.APITokens {
		notionClients = append(notionClients, notion.NewClient(cfg.Workspace.URL, token))
	}
	tasksRepo := notionRepo.New(logger, notionClients, sched, notionRepo.Config{
		DatabaseID: cfg.Workspace.DatabaseID,
		Schema:     cfg.Workspace.Schema,
		Attempts:   cfg.Retry.Attempts,
		BaseDelay:  cfg.Retry.BaseDelay,
	})

	// Watchdog & engine
	wd := watchdog.New(logger, cfg.Watchdog.CheckInterval, cfg.Watchdog.StallTimeout)
	engine := aggregate.New(logger, aggregate.NewRegistry(), tasksRepo, trackerRepo, wd.Beat)

	pol := poller.New(logger, poller.Config{
		Tracker:          trackerRepo,
		Tasks:            tasksRepo,
		Engine:           engine,
		Matcher:          matcher,
		Alerter:          alerter,
		Beat:             wd.Beat,
		RealtimeInterval: cfg.Poller.RealtimeInterval,
		BulkInterval:     cfg.Poller.BulkInterval,
		BulkWindow:       cfg.Poller.BulkWindow,
	})

	// Ops HTTP server
	httpServer, err := httpserver.New(logger, httpserver.Config{
		Logger:      logger,
		Port:        cfg.HTTPServer.Port,
		Mode:        cfg.HTTPServer.Mode,
		Environment: cfg.Environment.Name,
		Status:      &statusProvider{engine: engine, wd: wd, sched: sched},
	})
	if err != nil {
		logger.Error(ctx, "Failed to initialize HTTP server: ", err)
		os.Exit(1)
	}
	go func() {
		if err := httpServer.Run(); err != nil {
			logger.Error(ctx, "Ops server stopped: ", err)
		}
	}()

	go pol.Run(ctx)

	logger.Info(ctx, "Reconciliation loops running")
	if err := wd.Run(ctx); errors.Is(err, watchdog.ErrStalled) {
		logger.Error(ctx, "Liveness stall detected, exiting for supervisor restart")
		os.Exit(1)
	}

	logger.Info(ctx, "Stopped gracefully")
}
