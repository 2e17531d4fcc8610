package core

import (
	"context"
	"sync"
)

type capturedCounter struct {
	name  string
	value int64
	tags  map[string]string
}

type capturedHistogram struct {
	name  string
	value float64
	tags  map[string]string
}

type captureMetricsRecorder struct {
	mu         sync.Mutex
	counters   []capturedCounter
	histograms []capturedHistogram
}

func (m *captureMetricsRecorder) IncCounter(_ context.Context, name string, value int64, tags map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters = append(m.counters, capturedCounter{name: name, value: value, tags: cloneTags(tags)})
}

func (m *captureMetricsRecorder) ObserveHistogram(_ context.Context, name string, value float64, tags map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.histograms = append(m.histograms, capturedHistogram{name: name, value: value, tags: cloneTags(tags)})
}

func (m *captureMetricsRecorder) counter(name string) (capturedCounter, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, counter := range m.counters {
		if counter.name == name {
			return counter, true
		}
	}
	return capturedCounter{}, false
}

type capturedLog struct {
	level  string
	msg    string
	fields map[string]any
}

type captureLogger struct {
	mu       *sync.Mutex
	records  *[]capturedLog
	defaults map[string]any
}

func newCaptureLogger() *captureLogger {
	records := []capturedLog{}
	return &captureLogger{mu: &sync.Mutex{}, records: &records, defaults: map[string]any{}}
}

func (l *captureLogger) WithFields(fields map[string]any) Logger {
	merged := cloneFields(l.defaults)
	for key, value := range fields {
		merged[key] = value
	}
	return &captureLogger{mu: l.mu, records: l.records, defaults: merged}
}

func (l *captureLogger) Trace(msg string, args ...any) { l.record("trace", msg, args...) }
func (l *captureLogger) Debug(msg string, args ...any) { l.record("debug", msg, args...) }
func (l *captureLogger) Info(msg string, args ...any)  { l.record("info", msg, args...) }
func (l *captureLogger) Warn(msg string, args ...any)  { l.record("warn", msg, args...) }
func (l *captureLogger) Error(msg string, args ...any) { l.record("error", msg, args...) }
func (l *captureLogger) Fatal(msg string, args ...any) { l.record("fatal", msg, args...) }

func (l *captureLogger) WithContext(context.Context) Logger {
	return &captureLogger{mu: l.mu, records: l.records, defaults: cloneFields(l.defaults)}
}

func (l *captureLogger) record(level string, msg string, args ...any) {
	fields := cloneFields(l.defaults)
	for index := 0; index+1 < len(args); index += 2 {
		key, ok := args[index].(string)
		if !ok {
			continue
		}
		fields[key] = args[index+1]
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.records = append(*l.records, capturedLog{level: level, msg: msg, fields: fields})
}

func (l *captureLogger) snapshot() []capturedLog {
	l.mu.Lock()
	defer l.mu.Unlock()
	items := *l.records
	out := make([]capturedLog, len(items))
	copy(out, items)
	return out
}

type captureLoggerProvider struct {
	logger Logger
}

func (p captureLoggerProvider) GetLogger(string) Logger {
	return p.logger
}

func withCaptureLogger(logger *captureLogger) Option {
	return func(b *watcherBuilder) {
		b.logger = logger
		b.loggerProvider = captureLoggerProvider{logger: logger}
	}
}

type stubDecryptor struct {
	payload DecryptedPayload
	err     error
	calls   int
}

func (d *stubDecryptor) Decrypt(context.Context, EncryptedEnvelope) (DecryptedPayload, error) {
	d.calls++
	if d.err != nil {
		return DecryptedPayload{}, d.err
	}
	return d.payload, nil
}

type resolvedTask struct {
	id   string
	done chan struct{}
}

func newResolvedTask(id string) resolvedTask {
	done := make(chan struct{})
	close(done)
	return resolvedTask{id: id, done: done}
}

func (t resolvedTask) ID() string                 { return t.id }
func (t resolvedTask) Done() <-chan struct{}      { return t.done }
func (t resolvedTask) Err() error                 { return nil }
func (t resolvedTask) Wait(context.Context) error { return nil }

type recordingDispatcher struct {
	mu       sync.Mutex
	messages []NotificationMessage
	requests []string
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, msg NotificationMessage) NotificationTask {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.messages = append(d.messages, msg)
	d.requests = append(d.requests, RequestIDFromContext(ctx))
	return newResolvedTask("task")
}

func flaggedPayload(code string) DecryptedPayload {
	return DecryptedPayload{Payload: PayloadBody{
		ID:             "abc123",
		Result:         PayloadResult{Code: code, Description: "connector/acquirer currently down"},
		Authentication: PayloadAuthentication{EntityID: "ent-42"},
	}}
}

var (
	_ FieldsLogger           = (*captureLogger)(nil)
	_ LoggerProvider         = captureLoggerProvider{}
	_ MetricsRecorder        = (*captureMetricsRecorder)(nil)
	_ Decryptor              = (*stubDecryptor)(nil)
	_ NotificationDispatcher = (*recordingDispatcher)(nil)
)
