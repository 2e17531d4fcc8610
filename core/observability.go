package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

type requestIDKey struct{}

func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, requestIDKey{}, strings.TrimSpace(requestID))
}

func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(requestIDKey{}).(string)
	return value
}

func (w *Watcher) observeOperation(
	ctx context.Context,
	startedAt time.Time,
	operation string,
	err error,
	fields map[string]any,
) {
	if w == nil {
		return
	}
	operation = normalizeOperation(operation)
	if operation == "" {
		operation = "unknown"
	}
	status := "success"
	if err != nil {
		status = "failure"
	}

	contextFields := cloneFields(fields)
	contextFields["event_type"] = operation
	contextFields["status"] = status
	contextFields["duration_ms"] = time.Since(startedAt).Milliseconds()
	if err != nil {
		contextFields["error"] = err.Error()
		if code := TextCode(err); code != "" {
			contextFields["error_text_code"] = code
		}
	}

	tags := map[string]string{
		"operation": operation,
		"status":    status,
	}
	for _, key := range []string{"result_code", "error_text_code"} {
		if value := strings.TrimSpace(fmt.Sprint(contextFields[key])); value != "" && value != "<nil>" {
			tags[key] = value
		}
	}

	w.recordCounter(ctx, "watcher."+operation+".total", 1, tags)
	w.recordHistogram(ctx, "watcher."+operation+".duration_ms", float64(time.Since(startedAt).Milliseconds()), tags)

	if err != nil {
		w.logError(ctx, operation+" failed", contextFields)
		return
	}
	w.logInfo(ctx, operation+" succeeded", contextFields)
}

func (w *Watcher) logInfo(ctx context.Context, message string, fields map[string]any) {
	w.logWithLevel(ctx, "info", message, fields)
}

func (w *Watcher) logWarn(ctx context.Context, message string, fields map[string]any) {
	w.logWithLevel(ctx, "warn", message, fields)
}

func (w *Watcher) logError(ctx context.Context, message string, fields map[string]any) {
	w.logWithLevel(ctx, "error", message, fields)
}

func (w *Watcher) logWithLevel(ctx context.Context, level string, message string, fields map[string]any) {
	if w == nil || w.logger == nil {
		return
	}
	logger := w.logger
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	if fieldsLogger, ok := logger.(FieldsLogger); ok {
		logger = fieldsLogger.WithFields(cloneFields(fields))
		fields = nil
	}
	args := flattenFields(fields)
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "error":
		logger.Error(message, args...)
	case "warn":
		logger.Warn(message, args...)
	default:
		logger.Info(message, args...)
	}
}

func (w *Watcher) recordCounter(ctx context.Context, name string, value int64, tags map[string]string) {
	if w == nil || w.metricsRecorder == nil {
		return
	}
	w.metricsRecorder.IncCounter(ctx, strings.TrimSpace(name), value, cloneTags(tags))
}

func (w *Watcher) recordHistogram(ctx context.Context, name string, value float64, tags map[string]string) {
	if w == nil || w.metricsRecorder == nil {
		return
	}
	w.metricsRecorder.ObserveHistogram(ctx, strings.TrimSpace(name), value, cloneTags(tags))
}

func cloneFields(fields map[string]any) map[string]any {
	if len(fields) == 0 {
		return map[string]any{}
	}
	copied := make(map[string]any, len(fields))
	for key, value := range fields {
		copied[key] = value
	}
	return copied
}

func flattenFields(fields map[string]any) []any {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	args := make([]any, 0, len(keys)*2)
	for _, key := range keys {
		args = append(args, key, fields[key])
	}
	return args
}

func normalizeOperation(operation string) string {
	operation = strings.TrimSpace(strings.ToLower(operation))
	operation = strings.ReplaceAll(operation, " ", "_")
	operation = strings.ReplaceAll(operation, "-", "_")
	return operation
}
