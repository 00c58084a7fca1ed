package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all service configuration.
type Config struct {
	// Environment
	Environment EnvironmentConfig

	// Server
	HTTPServer HTTPServerConfig
	Logger     LoggerConfig

	// Providers
	Tracker   TrackerConfig
	Workspace WorkspaceConfig
	Telegram  TelegramConfig

	// Reconciliation loops
	Poller    PollerConfig
	Watchdog  WatchdogConfig
	Scheduler SchedulerConfig
	Retry     RetryConfig
}

type EnvironmentConfig struct {
	Name string
}

type HTTPServerConfig struct {
	Port int
	Mode string
}

type LoggerConfig struct {
	Level        string
	Mode         string
	Encoding     string
	ColorEnabled bool
}

// TrackerConfig configures the time-tracking provider (Toggl-compatible API).
type TrackerConfig struct {
	URL         string
	APIToken    string
	WorkspaceID int64
}

// WorkspaceConfig configures the workspace/document provider (Notion-compatible API).
// Multiple API tokens multiply read throughput: each token gets its own
// rate-limit budget and reads round-robin across them.
type WorkspaceConfig struct {
	URL           string
	APITokens     []string
	DatabaseID    string
	Schema        SchemaConfig
	ClientAliases map[string]string
}

// SchemaConfig names the properties of the target task database. The write
// payload shape is a contract supplied at configuration time, never hard-coded.
type SchemaConfig struct {
	TitleProp     string // title property of a task page
	ParentProp    string // relation to parent tasks
	ChildrenProp  string // relation to sub-tasks
	ProjectProp   string // relation to the project/client page
	TimeSpentProp string // rich-text property holding the time-spent summary
}

type TelegramConfig struct {
	BotToken      string
	AlertChatID   int64
	AlertCooldown time.Duration
}

type PollerConfig struct {
	RealtimeInterval time.Duration
	BulkInterval     time.Duration
	BulkWindow       time.Duration
	HoursLookback    time.Duration
}

type WatchdogConfig struct {
	CheckInterval time.Duration
	StallTimeout  time.Duration
}

// SchedulerConfig sets the per-provider rate ceilings.
type SchedulerConfig struct {
	TrackerRequests   int
	TrackerWindow     time.Duration
	WorkspaceRequests int
	WorkspaceWindow   time.Duration
}

type RetryConfig struct {
	Attempts  int
	BaseDelay time.Duration
}

// Load loads configuration using Viper.
// Config file name: config.yaml — searched in ./config, ., /etc/app/
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/app/")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{}

	// Environment & Server
	cfg.Environment.Name = viper.GetString("environment.name")
	cfg.HTTPServer.Port = viper.GetInt("http_server.port")
	cfg.HTTPServer.Mode = viper.GetString("http_server.mode")
	cfg.Logger.Level = viper.GetString("logger.level")
	cfg.Logger.Mode = viper.GetString("logger.mode")
	cfg.Logger.Encoding = viper.GetString("logger.encoding")
	cfg.Logger.ColorEnabled = viper.GetBool("logger.color_enabled")

	// Tracker provider
	cfg.Tracker.URL = viper.GetString("tracker.url")
	cfg.Tracker.APIToken = viper.GetString("tracker.api_token")
	cfg.Tracker.WorkspaceID = viper.GetInt64("tracker.workspace_id")
	if token := viper.GetString("tracker_api_token"); token != "" {
		cfg.Tracker.APIToken = token
	}

	// Workspace provider
	cfg.Workspace.URL = viper.GetString("workspace.url")
	cfg.Workspace.DatabaseID = viper.GetString("workspace.database_id")
	cfg.Workspace.APITokens = splitList(viper.GetString("workspace.api_tokens"))
	if tokens := viper.GetString("workspace_api_tokens"); tokens != "" {
		cfg.Workspace.APITokens = splitList(tokens)
	}
	cfg.Workspace.Schema.TitleProp = viper.GetString("workspace.schema.title")
	cfg.Workspace.Schema.ParentProp = viper.GetString("workspace.schema.parent")
	cfg.Workspace.Schema.ChildrenProp = viper.GetString("workspace.schema.children")
	cfg.Workspace.Schema.ProjectProp = viper.GetString("workspace.schema.project")
	cfg.Workspace.Schema.TimeSpentProp = viper.GetString("workspace.schema.time_spent")
	cfg.Workspace.ClientAliases = viper.GetStringMapString("workspace.client_aliases")

	// Telegram alerts
	cfg.Telegram.BotToken = viper.GetString("telegram.bot_token")
	cfg.Telegram.AlertChatID = viper.GetInt64("telegram.alert_chat_id")
	cfg.Telegram.AlertCooldown = viper.GetDuration("telegram.alert_cooldown")
	if tgToken := viper.GetString("telegram_bot_token"); tgToken != "" {
		cfg.Telegram.BotToken = tgToken
	}

	// Loops
	cfg.Poller.RealtimeInterval = viper.GetDuration("poller.realtime_interval")
	cfg.Poller.BulkInterval = viper.GetDuration("poller.bulk_interval")
	cfg.Poller.BulkWindow = viper.GetDuration("poller.bulk_window")
	cfg.Poller.HoursLookback = viper.GetDuration("poller.hours_lookback")

	cfg.Watchdog.CheckInterval = viper.GetDuration("watchdog.check_interval")
	cfg.Watchdog.StallTimeout = viper.GetDuration("watchdog.stall_timeout")

	cfg.Scheduler.TrackerRequests = viper.GetInt("scheduler.tracker_requests")
	cfg.Scheduler.TrackerWindow = viper.GetDuration("scheduler.tracker_window")
	cfg.Scheduler.WorkspaceRequests = viper.GetInt("scheduler.workspace_requests")
	cfg.Scheduler.WorkspaceWindow = viper.GetDuration("scheduler.workspace_window")

	cfg.Retry.Attempts = viper.GetInt("retry.attempts")
	cfg.Retry.BaseDelay = viper.GetDuration("retry.base_delay")

	if cfg.Tracker.APIToken == "" {
		return nil, fmt.Errorf("tracker api token is required - set tracker.api_token or TRACKER_API_TOKEN")
	}
	if len(cfg.Workspace.APITokens) == 0 {
		return nil, fmt.Errorf("workspace api tokens are required - set workspace.api_tokens or WORKSPACE_API_TOKENS")
	}
	if cfg.Workspace.DatabaseID == "" {
		return nil, fmt.Errorf("workspace database id is required - set workspace.database_id")
	}

	return cfg, nil
}

func setDefaults() {
	viper.SetDefault("environment.name", "development")
	viper.SetDefault("http_server.port", 8080)
	viper.SetDefault("http_server.mode", "debug")
	viper.SetDefault("logger.level", "debug")
	viper.SetDefault("logger.mode", "debug")
	viper.SetDefault("logger.encoding", "console")
	viper.SetDefault("logger.color_enabled", true)

	viper.SetDefault("tracker.url", "https://api.track.toggl.com/api/v9")
	viper.SetDefault("workspace.url", "https://api.notion.com/v1")
	viper.SetDefault("workspace.schema.title", "Name")
	viper.SetDefault("workspace.schema.parent", "Parent task")
	viper.SetDefault("workspace.schema.children", "Sub-tasks")
	viper.SetDefault("workspace.schema.project", "Project")
	viper.SetDefault("workspace.schema.time_spent", "Time spent")

	viper.SetDefault("telegram.alert_cooldown", 4*time.Hour)

	viper.SetDefault("poller.realtime_interval", 3*time.Second)
	viper.SetDefault("poller.bulk_interval", time.Hour)
	viper.SetDefault("poller.bulk_window", 90*24*time.Hour)
	viper.SetDefault("poller.hours_lookback", 90*24*time.Hour)

	viper.SetDefault("watchdog.check_interval", 30*time.Second)
	viper.SetDefault("watchdog.stall_timeout", 3*time.Minute)

	viper.SetDefault("scheduler.tracker_requests", 100)
	viper.SetDefault("scheduler.tracker_window", 15*time.Second)
	viper.SetDefault("scheduler.workspace_requests", 3)
	viper.SetDefault("scheduler.workspace_window", 1100*time.Millisecond)

	viper.SetDefault("retry.attempts", 3)
	viper.SetDefault("retry.base_delay", 2*time.Second)
}

// splitList splits comma-separated values since viper might not parse arrays
// seamlessly from env.
func splitList(raw string) []string {
	var out []string
	for _, v := range strings.Split(raw, ",") {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
