package core

import (
	"encoding/hex"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

const (
	// ServerModeTest binds to the local development address.
	ServerModeTest = "TEST"
	// ServerModePlatform binds to all interfaces on the platform provided port.
	ServerModePlatform = "PLATFORM"

	localListenHost    = "127.0.0.1"
	localListenPort    = 3000
	platformListenHost = "0.0.0.0"

	SecretKeySize = 32
)

type ServerConfig struct {
	Mode string `koanf:"mode" mapstructure:"mode"`
	Host string `koanf:"host" mapstructure:"host"`
	Port int    `koanf:"port" mapstructure:"port"`
}

type CryptoConfig struct {
	// SecretKey is the hex encoded AES-256 key shared with the gateway.
	SecretKey string `koanf:"secret_key" mapstructure:"secret_key"`
}

type NotifyConfig struct {
	SlackBotToken  string        `koanf:"slack_bot_token" mapstructure:"slack_bot_token"`
	SlackChannelID string        `koanf:"slack_channel_id" mapstructure:"slack_channel_id"`
	SlackAPIURL    string        `koanf:"slack_api_url" mapstructure:"slack_api_url"`
	WebhookURL     string        `koanf:"webhook_url" mapstructure:"webhook_url"`
	Timeout        time.Duration `koanf:"timeout" mapstructure:"timeout"`
}

type LogConfig struct {
	Level  string `koanf:"level" mapstructure:"level"`
	Format string `koanf:"format" mapstructure:"format"`
}

type Config struct {
	ServiceName  string       `koanf:"service_name" mapstructure:"service_name"`
	Server       ServerConfig `koanf:"server" mapstructure:"server"`
	Crypto       CryptoConfig `koanf:"crypto" mapstructure:"crypto"`
	Notify       NotifyConfig `koanf:"notify" mapstructure:"notify"`
	FlaggedCodes []string     `koanf:"flagged_codes" mapstructure:"flagged_codes"`
	Log          LogConfig    `koanf:"log" mapstructure:"log"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "watcher",
		// Port has no default; PLATFORM mode requires PORT from the environment.
		Server: ServerConfig{
			Mode: ServerModePlatform,
			Host: platformListenHost,
		},
		Notify: NotifyConfig{
			Timeout: 10 * time.Second,
		},
		FlaggedCodes: DefaultFlaggedCodeValues(),
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	switch normalizeServerMode(c.Server.Mode) {
	case ServerModeTest, ServerModePlatform:
	default:
		return fmt.Errorf("core: invalid server mode %q (expected TEST|PLATFORM)", c.Server.Mode)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("core: invalid server port %d", c.Server.Port)
	}
	if strings.TrimSpace(c.Crypto.SecretKey) != "" {
		if _, err := ParseSecretKey(c.Crypto.SecretKey); err != nil {
			return err
		}
	}
	if c.Notify.Timeout < 0 {
		return fmt.Errorf("core: notify timeout must not be negative")
	}
	return nil
}

// ValidateForServe applies the checks a running relay needs on top of Validate.
func (c Config) ValidateForServe() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.Crypto.SecretKey) == "" {
		return fmt.Errorf("core: crypto secret_key is required")
	}
	if normalizeServerMode(c.Server.Mode) == ServerModePlatform && c.Server.Port == 0 {
		return fmt.Errorf("core: server port is required in %s mode", ServerModePlatform)
	}
	if len(NewFlaggedCodeSet(c.FlaggedCodes...).Codes()) == 0 {
		return fmt.Errorf("core: flagged_codes must not be empty")
	}
	return nil
}

// ValidateSender reports whether a notification sender is configured.
func (c NotifyConfig) ValidateSender() error {
	if !c.SlackConfigured() && strings.TrimSpace(c.WebhookURL) == "" {
		return fmt.Errorf("core: notify requires slack_bot_token and slack_channel_id or webhook_url")
	}
	return nil
}

// ListenAddr resolves the bind address for the configured mode.
func (c Config) ListenAddr() string {
	if normalizeServerMode(c.Server.Mode) == ServerModeTest {
		return net.JoinHostPort(localListenHost, strconv.Itoa(localListenPort))
	}
	host := strings.TrimSpace(c.Server.Host)
	if host == "" {
		host = platformListenHost
	}
	return net.JoinHostPort(host, strconv.Itoa(c.Server.Port))
}

func (c Config) FlaggedCodeSet() FlaggedCodeSet {
	return NewFlaggedCodeSet(c.FlaggedCodes...)
}

func (c NotifyConfig) SlackConfigured() bool {
	return strings.TrimSpace(c.SlackBotToken) != "" && strings.TrimSpace(c.SlackChannelID) != ""
}

// ParseSecretKey decodes a hex AES-256 key.
func ParseSecretKey(value string) ([]byte, error) {
	key, err := hex.DecodeString(strings.TrimSpace(value))
	if err != nil {
		return nil, fmt.Errorf("core: secret key is not valid hex: %w", err)
	}
	if len(key) != SecretKeySize {
		return nil, fmt.Errorf("core: secret key must be %d bytes, got %d", SecretKeySize, len(key))
	}
	return key, nil
}

func normalizeServerMode(mode string) string {
	mode = strings.ToUpper(strings.TrimSpace(mode))
	if mode == "" {
		return ServerModePlatform
	}
	return mode
}
