package gologger

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/sirupsen/logrus"
)

const (
	FormatJSON = "json"
	FormatText = "text"
)

type LogrusOption func(*logrus.Logger)

func WithOutput(w io.Writer) LogrusOption {
	return func(l *logrus.Logger) {
		if w != nil {
			l.SetOutput(w)
		}
	}
}

func WithLevel(level string) LogrusOption {
	return func(l *logrus.Logger) {
		parsed, err := logrus.ParseLevel(strings.TrimSpace(level))
		if err != nil {
			parsed = logrus.InfoLevel
		}
		l.SetLevel(parsed)
	}
}

func WithFormat(format string) LogrusOption {
	return func(l *logrus.Logger) {
		switch strings.ToLower(strings.TrimSpace(format)) {
		case FormatText:
			l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		default:
			l.SetFormatter(&logrus.JSONFormatter{})
		}
	}
}

// LogrusProvider hands out named glog loggers backed by one logrus instance.
// The logger name is attached as the "logger" field.
type LogrusProvider struct {
	base *logrus.Logger
}

func NewLogrusProvider(opts ...LogrusOption) *LogrusProvider {
	base := logrus.New()
	base.SetOutput(os.Stdout)
	base.SetFormatter(&logrus.JSONFormatter{})
	base.SetLevel(logrus.InfoLevel)
	for _, opt := range opts {
		if opt != nil {
			opt(base)
		}
	}
	return &LogrusProvider{base: base}
}

func (p *LogrusProvider) Base() *logrus.Logger {
	if p == nil {
		return nil
	}
	return p.base
}

func (p *LogrusProvider) GetLogger(name string) glog.Logger {
	if p == nil || p.base == nil {
		return glog.Nop()
	}
	entry := logrus.NewEntry(p.base)
	if name = strings.TrimSpace(name); name != "" {
		entry = entry.WithField("logger", name)
	}
	return &LogrusLogger{entry: entry}
}

type LogrusLogger struct {
	entry *logrus.Entry
}

func NewLogrusLogger(entry *logrus.Entry) *LogrusLogger {
	if entry == nil {
		entry = logrus.NewEntry(logrus.StandardLogger())
	}
	return &LogrusLogger{entry: entry}
}

func (l *LogrusLogger) Trace(msg string, args ...any) { l.log(logrus.TraceLevel, msg, args) }
func (l *LogrusLogger) Debug(msg string, args ...any) { l.log(logrus.DebugLevel, msg, args) }
func (l *LogrusLogger) Info(msg string, args ...any)  { l.log(logrus.InfoLevel, msg, args) }
func (l *LogrusLogger) Warn(msg string, args ...any)  { l.log(logrus.WarnLevel, msg, args) }
func (l *LogrusLogger) Error(msg string, args ...any) { l.log(logrus.ErrorLevel, msg, args) }
func (l *LogrusLogger) Fatal(msg string, args ...any) { l.log(logrus.FatalLevel, msg, args) }

func (l *LogrusLogger) WithContext(ctx context.Context) glog.Logger {
	if l == nil || ctx == nil {
		return l
	}
	return &LogrusLogger{entry: l.entry.WithContext(ctx)}
}

func (l *LogrusLogger) WithFields(fields map[string]any) glog.Logger {
	if l == nil || len(fields) == 0 {
		return l
	}
	return &LogrusLogger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

func (l *LogrusLogger) log(level logrus.Level, msg string, args []any) {
	if l == nil || l.entry == nil {
		return
	}
	entry := l.entry
	if fields := argsToFields(args); len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	if level == logrus.FatalLevel {
		entry.Fatal(msg)
		return
	}
	entry.Log(level, msg)
}

// argsToFields pairs alternating key/value args. A trailing key without a
// value is kept under "!BADKEY".
func argsToFields(args []any) logrus.Fields {
	if len(args) == 0 {
		return nil
	}
	fields := make(logrus.Fields, len(args)/2+1)
	for i := 0; i < len(args); i += 2 {
		key := fmt.Sprint(args[i])
		if i+1 >= len(args) {
			fields["!BADKEY"] = args[i]
			break
		}
		fields[key] = args[i+1]
	}
	return fields
}

var (
	_ glog.LoggerProvider = (*LogrusProvider)(nil)
	_ glog.Logger         = (*LogrusLogger)(nil)
	_ glog.FieldsLogger   = (*LogrusLogger)(nil)
)
