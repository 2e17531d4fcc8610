package core

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvSecretKey      = "BIP_SECRET"
	EnvSlackBotToken  = "SLACK_BOT_TOKEN"
	EnvSlackChannelID = "SLACK_CHANNEL_ID"
	EnvSlackAPIURL    = "SLACK_API_URL"
	EnvWebhookURL     = "WATCHER_WEBHOOK_URL"
	EnvNotifyTimeout  = "WATCHER_NOTIFY_TIMEOUT"
	EnvFlaggedCodes   = "WATCHER_FLAGGED_CODES"
	EnvServiceName    = "WATCHER_SERVICE_NAME"
	EnvServerMode     = "SERVER_MODE"
	EnvHost           = "HOST"
	EnvPort           = "PORT"
	EnvLogLevel       = "LOG_LEVEL"
	EnvLogFormat      = "LOG_FORMAT"
)

// LoadDotEnv loads .env style files into the process environment. Missing
// files are ignored; existing variables are never overridden.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("core: load env file %s: %w", path, err)
		}
	}
	return nil
}

// EnvConfigLoader maps process environment variables into the raw config
// tree consumed by CfgxConfigProvider. Only variables that are set appear in
// the tree.
type EnvConfigLoader struct {
	Lookup func(key string) (string, bool)
}

func NewEnvConfigLoader() *EnvConfigLoader {
	return &EnvConfigLoader{Lookup: os.LookupEnv}
}

func (l *EnvConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	lookup := os.LookupEnv
	if l != nil && l.Lookup != nil {
		lookup = l.Lookup
	}
	get := func(key string) (string, bool) {
		value, ok := lookup(key)
		value = strings.TrimSpace(value)
		return value, ok && value != ""
	}

	raw := map[string]any{}
	if value, ok := get(EnvServiceName); ok {
		raw["service_name"] = value
	}

	server := map[string]any{}
	if value, ok := get(EnvServerMode); ok {
		server["mode"] = strings.ToUpper(value)
	}
	if value, ok := get(EnvHost); ok {
		server["host"] = value
	}
	if value, ok := get(EnvPort); ok {
		port, err := strconv.Atoi(value)
		if err != nil || port <= 0 {
			return nil, fmt.Errorf("core: %s must be a positive integer, got %q", EnvPort, value)
		}
		server["port"] = port
	}
	if len(server) > 0 {
		raw["server"] = server
	}

	if value, ok := get(EnvSecretKey); ok {
		raw["crypto"] = map[string]any{"secret_key": value}
	}

	notify := map[string]any{}
	if value, ok := get(EnvSlackBotToken); ok {
		notify["slack_bot_token"] = value
	}
	if value, ok := get(EnvSlackChannelID); ok {
		notify["slack_channel_id"] = value
	}
	if value, ok := get(EnvSlackAPIURL); ok {
		notify["slack_api_url"] = value
	}
	if value, ok := get(EnvWebhookURL); ok {
		notify["webhook_url"] = value
	}
	if value, ok := get(EnvNotifyTimeout); ok {
		timeout, err := parseTimeout(value)
		if err != nil {
			return nil, fmt.Errorf("core: %s: %w", EnvNotifyTimeout, err)
		}
		notify["timeout"] = timeout
	}
	if len(notify) > 0 {
		raw["notify"] = notify
	}

	if value, ok := get(EnvFlaggedCodes); ok {
		codes := splitCSV(value)
		if len(codes) > 0 {
			raw["flagged_codes"] = codes
		}
	}

	logCfg := map[string]any{}
	if value, ok := get(EnvLogLevel); ok {
		logCfg["level"] = strings.ToLower(value)
	}
	if value, ok := get(EnvLogFormat); ok {
		logCfg["format"] = strings.ToLower(value)
	}
	if len(logCfg) > 0 {
		raw["log"] = logCfg
	}
	return raw, nil
}

// parseTimeout accepts Go durations ("5s") or whole seconds ("5").
func parseTimeout(value string) (time.Duration, error) {
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, fmt.Errorf("timeout must not be negative")
		}
		return time.Duration(seconds) * time.Second, nil
	}
	timeout, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", value, err)
	}
	return timeout, nil
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
