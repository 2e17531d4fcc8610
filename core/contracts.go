package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

// Decryptor turns a verified envelope into a parsed payload. Implementations
// must authenticate the envelope before any plaintext is parsed.
type Decryptor interface {
	Decrypt(ctx context.Context, env EncryptedEnvelope) (DecryptedPayload, error)
}

// Notifier delivers a rendered notification to a chat channel.
type Notifier interface {
	Notify(ctx context.Context, msg NotificationMessage) error
}

// NotificationTask is the handle of a single detached notification send.
type NotificationTask interface {
	ID() string
	Done() <-chan struct{}
	// Err is only meaningful after Done is closed.
	Err() error
	Wait(ctx context.Context) error
}

type NotificationDispatcher interface {
	Dispatch(ctx context.Context, msg NotificationMessage) NotificationTask
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

// TransportRequest is one outbound HTTP call made by a notifier.
type TransportRequest struct {
	Method               string
	URL                  string
	Headers              map[string]string
	Query                map[string]string
	Body                 []byte
	Metadata             map[string]any
	Timeout              time.Duration
	MaxResponseBodyBytes int64
}

type TransportResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
	Metadata   map[string]any
}

type TransportAdapter interface {
	Kind() string
	Do(ctx context.Context, req TransportRequest) (TransportResponse, error)
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger
