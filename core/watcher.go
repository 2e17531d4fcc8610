package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

// Watcher runs the decrypt, classify and notify pipeline for one gateway
// callback at a time. It holds no per-request state.
type Watcher struct {
	config          Config
	logger          Logger
	loggerProvider  LoggerProvider
	metricsRecorder MetricsRecorder
	errorMapper     ErrorMapper
	decryptor       Decryptor
	dispatcher      NotificationDispatcher
	flaggedCodes    FlaggedCodeSet
	newID           IDGenerator
}

type WatcherDependencies struct {
	Logger          Logger
	LoggerProvider  LoggerProvider
	MetricsRecorder MetricsRecorder
	ErrorMapper     ErrorMapper
	Decryptor       Decryptor
	Dispatcher      NotificationDispatcher
}

func NewWatcher(cfg Config, opts ...Option) (*Watcher, error) {
	builder := defaultWatcherBuilder(cfg)
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("watcher", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("watcher"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = defaultErrorMapper
	}
	if builder.idGenerator == nil {
		builder.idGenerator = defaultWatcherBuilder(cfg).idGenerator
	}
	if builder.decryptor == nil {
		return nil, mapBuildError(builder.errorMapper, InternalError("core: decryptor is required", nil))
	}
	if builder.dispatcher == nil {
		return nil, mapBuildError(builder.errorMapper, InternalError("core: notification dispatcher is required", nil))
	}

	finalConfig, err := LoadConfig(context.Background(), builder.runtimeConfig, builder.configProvider, builder.optionsResolver)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	flagged := finalConfig.FlaggedCodeSet()
	if builder.flaggedCodes != nil {
		flagged = *builder.flaggedCodes
	}

	return &Watcher{
		config:          finalConfig,
		logger:          logger,
		loggerProvider:  provider,
		metricsRecorder: builder.metricsRecorder,
		errorMapper:     builder.errorMapper,
		decryptor:       builder.decryptor,
		dispatcher:      builder.dispatcher,
		flaggedCodes:    flagged,
		newID:           builder.idGenerator,
	}, nil
}

func (w *Watcher) Config() Config {
	if w == nil {
		return Config{}
	}
	return w.config
}

func (w *Watcher) FlaggedCodes() FlaggedCodeSet {
	if w == nil {
		return FlaggedCodeSet{}
	}
	return w.flaggedCodes
}

func (w *Watcher) Dependencies() WatcherDependencies {
	if w == nil {
		return WatcherDependencies{}
	}
	return WatcherDependencies{
		Logger:          w.logger,
		LoggerProvider:  w.loggerProvider,
		MetricsRecorder: w.metricsRecorder,
		ErrorMapper:     w.errorMapper,
		Decryptor:       w.decryptor,
		Dispatcher:      w.dispatcher,
	}
}

// Watch decrypts env, checks the result code against the flagged set and
// starts one notification task per match. It returns as soon as the tasks are
// started; callers must not wait on them to answer the webhook.
func (w *Watcher) Watch(ctx context.Context, env EncryptedEnvelope) (WatchResult, error) {
	if w == nil {
		return WatchResult{}, InternalError("core: watcher is nil", nil)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	startedAt := time.Now()

	requestID := RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = w.newID()
		ctx = ContextWithRequestID(ctx, requestID)
	}
	fields := map[string]any{"request_id": requestID}

	payload, err := w.decryptor.Decrypt(ctx, env)
	if err != nil {
		err = w.mapError(err)
		w.observeOperation(ctx, startedAt, "watch", err, fields)
		return WatchResult{RequestID: requestID}, err
	}

	code := payload.ResultCode()
	fields["result_code"] = code
	fields["payload_id"] = payload.PayloadID()
	w.logInfo(ctx, "result code received", fields)

	result := WatchResult{RequestID: requestID, Code: code}
	for _, match := range w.flaggedCodes.Match(code) {
		msg := RenderNotification(requestID, payload, match)
		w.logWarn(ctx, "flagged result code detected", map[string]any{
			"request_id":  requestID,
			"result_code": match,
			"payload_id":  msg.PayloadID,
			"entity_id":   msg.EntityID,
		})
		result.Matches = append(result.Matches, match)
		result.Tasks = append(result.Tasks, w.dispatcher.Dispatch(ctx, msg))
	}
	if result.Flagged() {
		w.recordCounter(ctx, "watcher.match.total", int64(len(result.Matches)), map[string]string{
			"result_code": code,
		})
	}

	fields["matches"] = len(result.Matches)
	w.observeOperation(ctx, startedAt, "watch", nil, fields)
	return result, nil
}

func (w *Watcher) mapError(err error) error {
	if err == nil {
		return nil
	}
	if w == nil || w.errorMapper == nil {
		return err
	}
	if mapped := w.errorMapper(err); mapped != nil {
		return mapped
	}
	return err
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	if mapped := mapper(err); mapped != nil {
		return mapped
	}
	return err
}
