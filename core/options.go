package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-config/cfgx"
	goerrors "github.com/goliatone/go-errors"
	opts "github.com/goliatone/go-options"
	"github.com/google/uuid"
)

type ErrorMapper func(err error) *goerrors.Error

type IDGenerator func() string

type ConfigProvider interface {
	Load(ctx context.Context, defaults Config) (Config, error)
}

type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

type OptionsResolver interface {
	Resolve(defaults Config, loaded Config, runtime Config) (Config, error)
}

type watcherBuilder struct {
	runtimeConfig   Config
	logger          Logger
	loggerProvider  LoggerProvider
	metricsRecorder MetricsRecorder
	errorMapper     ErrorMapper
	configProvider  ConfigProvider
	optionsResolver OptionsResolver
	decryptor       Decryptor
	dispatcher      NotificationDispatcher
	flaggedCodes    *FlaggedCodeSet
	idGenerator     IDGenerator
}

type Option func(*watcherBuilder)

func WithLogger(logger Logger) Option {
	return func(b *watcherBuilder) {
		b.logger = logger
	}
}

func WithLoggerProvider(provider LoggerProvider) Option {
	return func(b *watcherBuilder) {
		b.loggerProvider = provider
	}
}

func WithMetricsRecorder(recorder MetricsRecorder) Option {
	return func(b *watcherBuilder) {
		b.metricsRecorder = recorder
	}
}

func WithErrorMapper(mapper ErrorMapper) Option {
	return func(b *watcherBuilder) {
		b.errorMapper = mapper
	}
}

func WithConfigProvider(provider ConfigProvider) Option {
	return func(b *watcherBuilder) {
		b.configProvider = provider
	}
}

func WithOptionsResolver(resolver OptionsResolver) Option {
	return func(b *watcherBuilder) {
		b.optionsResolver = resolver
	}
}

func WithDecryptor(decryptor Decryptor) Option {
	return func(b *watcherBuilder) {
		b.decryptor = decryptor
	}
}

func WithNotificationDispatcher(dispatcher NotificationDispatcher) Option {
	return func(b *watcherBuilder) {
		b.dispatcher = dispatcher
	}
}

// WithFlaggedCodes replaces the configured code list. Order and duplicates
// are preserved.
func WithFlaggedCodes(codes ...string) Option {
	return func(b *watcherBuilder) {
		set := NewFlaggedCodeSet(codes...)
		b.flaggedCodes = &set
	}
}

func WithIDGenerator(generator IDGenerator) Option {
	return func(b *watcherBuilder) {
		b.idGenerator = generator
	}
}

func defaultWatcherBuilder(runtime Config) watcherBuilder {
	return watcherBuilder{
		runtimeConfig:   runtime,
		metricsRecorder: NopMetricsRecorder{},
		errorMapper:     defaultErrorMapper,
		configProvider:  NewCfgxConfigProvider(nil),
		optionsResolver: GoOptionsResolver{},
		idGenerator:     uuid.NewString,
	}
}

func defaultErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}
	return watcherErrorMapper(err)
}

// LoadConfig resolves defaults, provider values and runtime overrides into a
// validated Config.
func LoadConfig(ctx context.Context, runtime Config, provider ConfigProvider, resolver OptionsResolver) (Config, error) {
	if provider == nil {
		provider = NewCfgxConfigProvider(nil)
	}
	if resolver == nil {
		resolver = GoOptionsResolver{}
	}
	defaults := DefaultConfig()
	loaded, err := provider.Load(ctx, defaults)
	if err != nil {
		return Config{}, err
	}
	return resolver.Resolve(defaults, loaded, runtime)
}

type staticRawConfigLoader struct {
	Values map[string]any
}

func (l staticRawConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.Values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.Values))
	for key, value := range l.Values {
		out[key] = value
	}
	return out, nil
}

type CfgxConfigProvider struct {
	Loader RawConfigLoader
}

func NewCfgxConfigProvider(loader RawConfigLoader) *CfgxConfigProvider {
	return &CfgxConfigProvider{Loader: loader}
}

func (p *CfgxConfigProvider) Load(ctx context.Context, defaults Config) (Config, error) {
	if p == nil {
		return defaults, nil
	}
	loader := p.Loader
	if loader == nil {
		loader = staticRawConfigLoader{}
	}
	raw, err := loader.LoadRaw(ctx)
	if err != nil {
		return Config{}, err
	}
	cfg, err := cfgx.Build[Config](raw,
		cfgx.WithDefaults(defaultsForRaw(raw, defaults)),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type GoOptionsResolver struct{}

func (GoOptionsResolver) Resolve(defaults Config, loaded Config, runtime Config) (Config, error) {
	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			configToLayerMap(defaults, true),
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("config", 10),
			configToLayerMap(loaded, false),
			opts.WithSnapshotID[map[string]any]("config"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 20),
			configToLayerMap(runtime, false),
			opts.WithSnapshotID[map[string]any]("runtime"),
		),
	)
	if err != nil {
		return Config{}, fmt.Errorf("core: options stack build failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, fmt.Errorf("core: options merge failed: %w", err)
	}
	resolved, err := cfgx.Build[Config](merged.Value,
		cfgx.WithDefaults(defaultsForRaw(merged.Value, defaults)),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	if err := resolved.Validate(); err != nil {
		return Config{}, err
	}
	return resolved, nil
}

// defaultsForRaw drops default list values that raw replaces, so slice
// decoding never merges element by element into the defaults.
func defaultsForRaw(raw map[string]any, defaults Config) Config {
	if _, ok := raw["flagged_codes"]; ok {
		defaults.FlaggedCodes = nil
	}
	return defaults
}

// configToLayerMap keeps only explicitly set values unless includeZero is
// true, so higher layers never reset lower ones to zero values.
func configToLayerMap(cfg Config, includeZero bool) map[string]any {
	layer := map[string]any{}
	setString := func(target map[string]any, key, value string) {
		if includeZero || strings.TrimSpace(value) != "" {
			target[key] = value
		}
	}

	setString(layer, "service_name", cfg.ServiceName)

	server := map[string]any{}
	setString(server, "mode", cfg.Server.Mode)
	setString(server, "host", cfg.Server.Host)
	if includeZero || cfg.Server.Port != 0 {
		server["port"] = cfg.Server.Port
	}
	if len(server) > 0 {
		layer["server"] = server
	}

	crypto := map[string]any{}
	setString(crypto, "secret_key", cfg.Crypto.SecretKey)
	if len(crypto) > 0 {
		layer["crypto"] = crypto
	}

	notify := map[string]any{}
	setString(notify, "slack_bot_token", cfg.Notify.SlackBotToken)
	setString(notify, "slack_channel_id", cfg.Notify.SlackChannelID)
	setString(notify, "slack_api_url", cfg.Notify.SlackAPIURL)
	setString(notify, "webhook_url", cfg.Notify.WebhookURL)
	if includeZero || cfg.Notify.Timeout != 0 {
		notify["timeout"] = cfg.Notify.Timeout
	}
	if len(notify) > 0 {
		layer["notify"] = notify
	}

	if includeZero || len(cfg.FlaggedCodes) > 0 {
		layer["flagged_codes"] = append([]string(nil), cfg.FlaggedCodes...)
	}

	logCfg := map[string]any{}
	setString(logCfg, "level", cfg.Log.Level)
	setString(logCfg, "format", cfg.Log.Format)
	if len(logCfg) > 0 {
		layer["log"] = logCfg
	}
	return layer
}
