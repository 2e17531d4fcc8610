package core

import (
	"context"
	"reflect"
	"strings"
	"testing"
	"time"
)

const testSecretHex = "4242424242424242424242424242424242424242424242424242424242424242"

type mapRawLoader struct {
	values map[string]any
}

func (l mapRawLoader) LoadRaw(context.Context) (map[string]any, error) {
	return l.values, nil
}

func envLookup(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}
}

func serveConfig() Config {
	cfg := DefaultConfig()
	cfg.Server.Port = 8080
	cfg.Crypto.SecretKey = testSecretHex
	cfg.Notify.WebhookURL = "https://hooks.example.test/T000/B000"
	return cfg
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate: %v", err)
	}
	if len(cfg.FlaggedCodes) != 18 {
		t.Fatalf("expected default flagged codes, got %d", len(cfg.FlaggedCodes))
	}
	if cfg.Notify.Timeout != 10*time.Second {
		t.Fatalf("unexpected notify timeout %s", cfg.Notify.Timeout)
	}
}

func TestConfigValidate_Rejects(t *testing.T) {
	cases := map[string]func(cfg *Config){
		"empty service name": func(cfg *Config) { cfg.ServiceName = " " },
		"unknown mode":       func(cfg *Config) { cfg.Server.Mode = "staging" },
		"port out of range":  func(cfg *Config) { cfg.Server.Port = 70000 },
		"short secret key":   func(cfg *Config) { cfg.Crypto.SecretKey = "abcd" },
		"negative timeout":   func(cfg *Config) { cfg.Notify.Timeout = -time.Second },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestConfigValidateForServe(t *testing.T) {
	if err := serveConfig().ValidateForServe(); err != nil {
		t.Fatalf("expected serve config to validate: %v", err)
	}

	missingKey := serveConfig()
	missingKey.Crypto.SecretKey = ""
	if err := missingKey.ValidateForServe(); err == nil || !strings.Contains(err.Error(), "secret_key") {
		t.Fatalf("expected missing secret key error, got %v", err)
	}

	missingPort := serveConfig()
	missingPort.Server.Port = 0
	if err := missingPort.ValidateForServe(); err == nil {
		t.Fatalf("expected missing platform port error")
	}

	testMode := missingPort
	testMode.Server.Mode = ServerModeTest
	if err := testMode.ValidateForServe(); err != nil {
		t.Fatalf("expected test mode without port to validate: %v", err)
	}

	noCodes := serveConfig()
	noCodes.FlaggedCodes = []string{" ", ""}
	if err := noCodes.ValidateForServe(); err == nil {
		t.Fatalf("expected empty flagged codes error")
	}
}

func TestNotifyConfigValidateSender(t *testing.T) {
	if err := (NotifyConfig{}).ValidateSender(); err == nil {
		t.Fatalf("expected missing sender error")
	}
	if err := (NotifyConfig{SlackBotToken: "xoxb-1"}).ValidateSender(); err == nil {
		t.Fatalf("expected token without channel to be rejected")
	}
	if err := (NotifyConfig{SlackBotToken: "xoxb-1", SlackChannelID: "C1"}).ValidateSender(); err != nil {
		t.Fatalf("expected slack sender to validate: %v", err)
	}
	if err := (NotifyConfig{WebhookURL: "https://hooks.example.test"}).ValidateSender(); err != nil {
		t.Fatalf("expected webhook sender to validate: %v", err)
	}
}

func TestConfigListenAddr(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.Mode = "test"
	cfg.Server.Port = 9999
	if got := cfg.ListenAddr(); got != "127.0.0.1:3000" {
		t.Fatalf("expected local test address, got %q", got)
	}

	cfg.Server.Mode = ServerModePlatform
	cfg.Server.Host = ""
	if got := cfg.ListenAddr(); got != "0.0.0.0:9999" {
		t.Fatalf("expected platform address, got %q", got)
	}

	cfg.Server.Mode = ""
	cfg.Server.Host = "10.0.0.5"
	if got := cfg.ListenAddr(); got != "10.0.0.5:9999" {
		t.Fatalf("expected default mode to behave as platform, got %q", got)
	}
}

func TestParseSecretKey(t *testing.T) {
	key, err := ParseSecretKey(" " + testSecretHex + "\n")
	if err != nil {
		t.Fatalf("parse secret key: %v", err)
	}
	if len(key) != SecretKeySize {
		t.Fatalf("expected %d byte key, got %d", SecretKeySize, len(key))
	}
	if _, err := ParseSecretKey("zz"); err == nil {
		t.Fatalf("expected hex error")
	}
	if _, err := ParseSecretKey(testSecretHex[:32]); err == nil {
		t.Fatalf("expected short key error")
	}
}

func TestEnvConfigLoader_MapsVariables(t *testing.T) {
	loader := &EnvConfigLoader{Lookup: envLookup(map[string]string{
		EnvSecretKey:      testSecretHex,
		EnvSlackBotToken:  "xoxb-1",
		EnvSlackChannelID: "C123",
		EnvServerMode:     "test",
		EnvPort:           "8081",
		EnvNotifyTimeout:  "5",
		EnvFlaggedCodes:   "900.100.600, 000.400.030,,",
		EnvLogLevel:       "DEBUG",
		EnvHost:           "  ",
	})}

	raw, err := loader.LoadRaw(context.Background())
	if err != nil {
		t.Fatalf("load raw: %v", err)
	}
	server := raw["server"].(map[string]any)
	if server["mode"] != ServerModeTest || server["port"] != 8081 {
		t.Fatalf("unexpected server section %#v", server)
	}
	if _, ok := server["host"]; ok {
		t.Fatalf("expected blank host to be skipped")
	}
	if raw["crypto"].(map[string]any)["secret_key"] != testSecretHex {
		t.Fatalf("unexpected crypto section %#v", raw["crypto"])
	}
	notify := raw["notify"].(map[string]any)
	if notify["slack_bot_token"] != "xoxb-1" || notify["slack_channel_id"] != "C123" {
		t.Fatalf("unexpected notify section %#v", notify)
	}
	if notify["timeout"] != 5*time.Second {
		t.Fatalf("expected 5s timeout, got %#v", notify["timeout"])
	}
	if !reflect.DeepEqual(raw["flagged_codes"], []string{"900.100.600", "000.400.030"}) {
		t.Fatalf("unexpected flagged codes %#v", raw["flagged_codes"])
	}
	if raw["log"].(map[string]any)["level"] != "debug" {
		t.Fatalf("unexpected log section %#v", raw["log"])
	}
}

func TestEnvConfigLoader_EmptyEnvironment(t *testing.T) {
	raw, err := (&EnvConfigLoader{Lookup: envLookup(nil)}).LoadRaw(context.Background())
	if err != nil {
		t.Fatalf("load raw: %v", err)
	}
	if len(raw) != 0 {
		t.Fatalf("expected empty raw config, got %#v", raw)
	}
}

func TestEnvConfigLoader_RejectsBadValues(t *testing.T) {
	cases := map[string]map[string]string{
		"port":    {EnvPort: "eighty"},
		"zero":    {EnvPort: "0"},
		"timeout": {EnvNotifyTimeout: "soon"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := (&EnvConfigLoader{Lookup: envLookup(env)}).LoadRaw(context.Background()); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestParseTimeout(t *testing.T) {
	for value, want := range map[string]time.Duration{
		"3":     3 * time.Second,
		"250ms": 250 * time.Millisecond,
		"1m":    time.Minute,
	} {
		got, err := parseTimeout(value)
		if err != nil {
			t.Fatalf("%s: %v", value, err)
		}
		if got != want {
			t.Fatalf("%s: expected %s, got %s", value, want, got)
		}
	}
	if _, err := parseTimeout("-1"); err == nil {
		t.Fatalf("expected negative timeout error")
	}
}

func TestLoadConfig_LayeringPrecedence(t *testing.T) {
	provider := NewCfgxConfigProvider(mapRawLoader{values: map[string]any{
		"service_name":  "from-config",
		"flagged_codes": []string{"900.100.600", "000.400.030"},
		"crypto":        map[string]any{"secret_key": testSecretHex},
	}})

	cfg, err := LoadConfig(context.Background(), Config{ServiceName: "from-runtime"}, provider, GoOptionsResolver{})
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.ServiceName != "from-runtime" {
		t.Fatalf("expected runtime value to win, got %q", cfg.ServiceName)
	}
	if !reflect.DeepEqual(cfg.FlaggedCodes, []string{"900.100.600", "000.400.030"}) {
		t.Fatalf("expected config list to replace defaults, got %#v", cfg.FlaggedCodes)
	}
	if cfg.Crypto.SecretKey != testSecretHex {
		t.Fatalf("expected secret key from config layer")
	}
	if cfg.Server.Mode != ServerModePlatform {
		t.Fatalf("expected default server mode, got %q", cfg.Server.Mode)
	}
}

func TestLoadConfig_PlatformModeRequiresPort(t *testing.T) {
	lookup := map[string]string{
		EnvSecretKey:    testSecretHex,
		EnvWebhookURL:   "https://hooks.example.test/T000/B000",
		EnvFlaggedCodes: "a,a,b",
	}
	provider := NewCfgxConfigProvider(&EnvConfigLoader{Lookup: envLookup(lookup)})

	cfg, err := LoadConfig(context.Background(), Config{}, provider, GoOptionsResolver{})
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Server.Mode != ServerModePlatform || cfg.Server.Port != 0 {
		t.Fatalf("expected platform mode without a port, got %+v", cfg.Server)
	}
	if !reflect.DeepEqual(cfg.FlaggedCodes, []string{"a", "a", "b"}) {
		t.Fatalf("expected duplicate codes to survive layering, got %#v", cfg.FlaggedCodes)
	}
	if err := cfg.ValidateForServe(); err == nil || !strings.Contains(err.Error(), "port") {
		t.Fatalf("expected missing port error, got %v", err)
	}

	lookup[EnvPort] = "8081"
	cfg, err = LoadConfig(context.Background(), Config{}, provider, GoOptionsResolver{})
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if err := cfg.ValidateForServe(); err != nil {
		t.Fatalf("expected config with PORT to validate: %v", err)
	}
	if got := cfg.ListenAddr(); got != "0.0.0.0:8081" {
		t.Fatalf("expected platform address, got %q", got)
	}

	delete(lookup, EnvPort)
	lookup[EnvServerMode] = ServerModeTest
	cfg, err = LoadConfig(context.Background(), Config{}, provider, GoOptionsResolver{})
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if err := cfg.ValidateForServe(); err != nil {
		t.Fatalf("expected test mode without PORT to validate: %v", err)
	}
	if got := cfg.ListenAddr(); got != "127.0.0.1:3000" {
		t.Fatalf("expected local test address, got %q", got)
	}
}

func TestLoadConfig_RejectsInvalidLayer(t *testing.T) {
	provider := NewCfgxConfigProvider(mapRawLoader{values: map[string]any{
		"server": map[string]any{"mode": "staging"},
	}})
	if _, err := LoadConfig(context.Background(), Config{}, provider, nil); err == nil {
		t.Fatalf("expected invalid mode to be rejected")
	}
}
