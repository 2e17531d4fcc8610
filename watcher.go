package watcher

import "github.com/goliatone/go-watcher/core"

type Config = core.Config

type Option = core.Option

type Watcher = core.Watcher

type WatcherDependencies = core.WatcherDependencies

type EncryptedEnvelope = core.EncryptedEnvelope
type DecryptedPayload = core.DecryptedPayload
type NotificationMessage = core.NotificationMessage
type NotificationTask = core.NotificationTask
type WatchResult = core.WatchResult
type FlaggedCode = core.FlaggedCode
type FlaggedCodeSet = core.FlaggedCodeSet

type Decryptor = core.Decryptor
type Notifier = core.Notifier
type NotificationDispatcher = core.NotificationDispatcher
type MetricsRecorder = core.MetricsRecorder

var (
	WithLogger                 = core.WithLogger
	WithLoggerProvider         = core.WithLoggerProvider
	WithMetricsRecorder        = core.WithMetricsRecorder
	WithErrorMapper            = core.WithErrorMapper
	WithConfigProvider         = core.WithConfigProvider
	WithOptionsResolver        = core.WithOptionsResolver
	WithDecryptor              = core.WithDecryptor
	WithNotificationDispatcher = core.WithNotificationDispatcher
	WithFlaggedCodes           = core.WithFlaggedCodes
	WithIDGenerator            = core.WithIDGenerator
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewWatcher(cfg Config, opts ...Option) (*Watcher, error) {
	return core.NewWatcher(cfg, opts...)
}

func DefaultFlaggedCodes() []FlaggedCode {
	return core.DefaultFlaggedCodes()
}
