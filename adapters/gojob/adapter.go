package gojob

import (
	"context"
	"strings"
	"time"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue/worker"
	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-watcher/core"
)

const (
	JobIDNotify      = "watcher.notify"
	ScriptPathNotify = "watcher.command.notify"
)

// ToExecutionMessage describes one notification task as a go-job message.
// The task id doubles as the idempotency key.
func ToExecutionMessage(taskID string, msg core.NotificationMessage) *job.ExecutionMessage {
	return &job.ExecutionMessage{
		JobID:      JobIDNotify,
		ScriptPath: ScriptPathNotify,
		Parameters: map[string]any{
			"task_id":     strings.TrimSpace(taskID),
			"request_id":  msg.RequestID,
			"result_code": msg.Code,
			"payload_id":  msg.PayloadID,
			"entity_id":   msg.EntityID,
		},
		IdempotencyKey: strings.TrimSpace(taskID),
	}
}

// LoggingHook reports notification task lifecycle through a glog logger.
type LoggingHook struct {
	logger glog.Logger
}

func NewLoggingHook(logger glog.Logger) *LoggingHook {
	return &LoggingHook{logger: glog.Ensure(logger)}
}

func (h *LoggingHook) OnStart(ctx context.Context, event worker.Event) {
	h.log(ctx, "debug", "notification task started", event)
}

func (h *LoggingHook) OnSuccess(ctx context.Context, event worker.Event) {
	h.log(ctx, "info", "notification delivered", event)
}

func (h *LoggingHook) OnFailure(ctx context.Context, event worker.Event) {
	h.log(ctx, "error", "notification delivery failed", event)
}

func (h *LoggingHook) OnRetry(ctx context.Context, event worker.Event) {
	h.log(ctx, "warn", "notification delivery retry", event)
}

func (h *LoggingHook) log(ctx context.Context, level string, msg string, event worker.Event) {
	if h == nil || h.logger == nil {
		return
	}
	logger := h.logger
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	args := eventArgs(event)
	switch level {
	case "error":
		logger.Error(msg, args...)
	case "warn":
		logger.Warn(msg, args...)
	case "debug":
		logger.Debug(msg, args...)
	default:
		logger.Info(msg, args...)
	}
}

func eventArgs(event worker.Event) []any {
	message := event.Message
	if message == nil && event.Delivery != nil {
		message = event.Delivery.Message()
	}
	args := make([]any, 0, 16)
	if message != nil {
		args = append(args, "job_id", message.JobID)
		for _, key := range []string{"task_id", "request_id", "result_code", "payload_id", "entity_id"} {
			if value, ok := message.Parameters[key]; ok {
				args = append(args, key, value)
			}
		}
	}
	if event.Attempt > 0 {
		args = append(args, "attempt", event.Attempt)
	}
	if event.Duration > 0 {
		args = append(args, "duration_ms", event.Duration.Milliseconds())
	}
	if event.Delay > 0 {
		args = append(args, "delay", event.Delay.String())
	}
	if event.Err != nil {
		args = append(args, "error", event.Err.Error())
		if code := core.TextCode(event.Err); code != "" {
			args = append(args, "error_text_code", code)
		}
	}
	return args
}

// NewEvent builds the worker event reported for one task attempt.
func NewEvent(message *job.ExecutionMessage, attempt int, startedAt time.Time, err error) worker.Event {
	event := worker.Event{
		Message:   message,
		Attempt:   attempt,
		Err:       err,
		StartedAt: startedAt,
	}
	if !startedAt.IsZero() {
		event.Duration = time.Since(startedAt)
	}
	return event
}

var _ worker.Hook = (*LoggingHook)(nil)
