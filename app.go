package watcher

import (
	"context"
	"net/http"
	"strings"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-watcher/adapters/gologger"
	"github.com/goliatone/go-watcher/command"
	"github.com/goliatone/go-watcher/core"
	"github.com/goliatone/go-watcher/inbound"
	"github.com/goliatone/go-watcher/notify"
	"github.com/goliatone/go-watcher/security"
	"github.com/goliatone/go-watcher/transport"
)

// App is the fully wired relay: notifier, task dispatcher, watcher and the
// HTTP router serving it.
type App struct {
	config     Config
	watcher    *Watcher
	dispatcher *notify.TaskDispatcher
	handler    http.Handler
	logger     glog.Logger
}

type AppOption func(*appOptions)

type appOptions struct {
	loggerProvider glog.LoggerProvider
	notifier       core.Notifier
	transport      *transport.RESTAdapter
	watcherOptions []Option
}

func WithAppLoggerProvider(provider glog.LoggerProvider) AppOption {
	return func(o *appOptions) {
		o.loggerProvider = provider
	}
}

// WithNotifier replaces the sender selected from the notify config.
func WithNotifier(notifier core.Notifier) AppOption {
	return func(o *appOptions) {
		o.notifier = notifier
	}
}

func WithTransport(adapter *transport.RESTAdapter) AppOption {
	return func(o *appOptions) {
		o.transport = adapter
	}
}

func WithWatcherOptions(opts ...Option) AppOption {
	return func(o *appOptions) {
		o.watcherOptions = append(o.watcherOptions, opts...)
	}
}

func NewApp(cfg Config, opts ...AppOption) (*App, error) {
	options := appOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	provider, logger := gologger.Resolve(serviceName(cfg), options.loggerProvider, nil)

	if err := cfg.ValidateForServe(); err != nil {
		return nil, err
	}
	key, err := core.ParseSecretKey(cfg.Crypto.SecretKey)
	if err != nil {
		return nil, err
	}

	notifier := options.notifier
	if notifier == nil {
		notifier, err = notify.NewNotifier(cfg.Notify, options.transport)
		if err != nil {
			return nil, err
		}
	}
	dispatcher := notify.NewTaskDispatcher(
		command.NewNotifyCommand(notifier),
		notify.WithLogger(provider.GetLogger("notify")),
		notify.WithTimeout(cfg.Notify.Timeout),
	)

	watcherOpts := []Option{
		core.WithLoggerProvider(provider),
		core.WithDecryptor(security.NewGCMDecryptor()),
		core.WithNotificationDispatcher(dispatcher),
	}
	watcherOpts = append(watcherOpts, options.watcherOptions...)
	w, err := core.NewWatcher(cfg, watcherOpts...)
	if err != nil {
		return nil, err
	}

	handler, err := inbound.NewHandler(w, key, inbound.WithLogger(provider.GetLogger("inbound")))
	if err != nil {
		return nil, err
	}

	return &App{
		config:     w.Config(),
		watcher:    w,
		dispatcher: dispatcher,
		handler:    inbound.NewRouter(handler, provider.GetLogger("http")),
		logger:     logger,
	}, nil
}

func (a *App) Config() Config {
	return a.config
}

func (a *App) Watcher() *Watcher {
	return a.watcher
}

func (a *App) Handler() http.Handler {
	return a.handler
}

func (a *App) Logger() glog.Logger {
	return a.logger
}

// Drain waits for in-flight notification tasks.
func (a *App) Drain(ctx context.Context) error {
	if a == nil || a.dispatcher == nil {
		return nil
	}
	return a.dispatcher.Wait(ctx)
}

func serviceName(cfg Config) string {
	if name := strings.TrimSpace(cfg.ServiceName); name != "" {
		return name
	}
	return "watcher"
}
