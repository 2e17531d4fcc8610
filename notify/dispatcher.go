package notify

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-job/queue/worker"
	glog "github.com/goliatone/go-logger/glog"
	"github.com/google/uuid"

	"github.com/goliatone/go-watcher/adapters/gocommand"
	"github.com/goliatone/go-watcher/adapters/gojob"
	"github.com/goliatone/go-watcher/command"
	"github.com/goliatone/go-watcher/core"
)

const DefaultTimeout = 10 * time.Second

type DispatcherOption func(*TaskDispatcher)

func WithLogger(logger glog.Logger) DispatcherOption {
	return func(d *TaskDispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

func WithHook(hook worker.Hook) DispatcherOption {
	return func(d *TaskDispatcher) {
		if hook != nil {
			d.hook = hook
		}
	}
}

// WithTimeout bounds each delivery attempt. Zero disables the bound.
func WithTimeout(timeout time.Duration) DispatcherOption {
	return func(d *TaskDispatcher) {
		if timeout >= 0 {
			d.timeout = timeout
		}
	}
}

func WithIDGenerator(generator func() string) DispatcherOption {
	return func(d *TaskDispatcher) {
		if generator != nil {
			d.newID = generator
		}
	}
}

// TaskDispatcher starts one background task per notification. Tasks are
// detached from the caller's cancellation and are never retried; failures
// are logged and reported on the returned task only.
type TaskDispatcher struct {
	command gocmd.Commander[command.NotifyMessage]
	logger  glog.Logger
	hook    worker.Hook
	timeout time.Duration
	newID   func() string
	wg      sync.WaitGroup
}

func NewTaskDispatcher(cmd gocmd.Commander[command.NotifyMessage], opts ...DispatcherOption) *TaskDispatcher {
	d := &TaskDispatcher{
		command: cmd,
		logger:  glog.Nop(),
		timeout: DefaultTimeout,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	if d.hook == nil {
		d.hook = gojob.NewLoggingHook(d.logger)
	}
	return d
}

func (d *TaskDispatcher) Dispatch(ctx context.Context, msg core.NotificationMessage) core.NotificationTask {
	if d == nil {
		task := newNotificationTask(uuid.NewString())
		task.resolve(core.InternalError("notify: dispatcher is nil", nil))
		return task
	}
	if ctx == nil {
		ctx = context.Background()
	}
	task := newNotificationTask(d.newID())
	if d.command == nil {
		err := core.InternalError("notify: notify command is required", nil)
		d.logFailure(ctx, task.id, msg, err)
		task.resolve(err)
		return task
	}

	d.wg.Add(1)
	go d.run(context.WithoutCancel(ctx), task, msg)
	return task
}

// Wait blocks until every started task has finished or ctx is done.
func (d *TaskDispatcher) Wait(ctx context.Context) error {
	if d == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	finished := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *TaskDispatcher) run(ctx context.Context, task *notificationTask, msg core.NotificationMessage) {
	defer d.wg.Done()

	execution := gojob.ToExecutionMessage(task.id, msg)
	startedAt := time.Now()
	d.hook.OnStart(ctx, gojob.NewEvent(execution, 1, startedAt, nil))

	err := d.execute(ctx, msg)
	if err != nil {
		if core.TextCode(err) == "" {
			err = core.DeliveryError(err, "notify: deliver notification", nil)
		}
		d.hook.OnFailure(ctx, gojob.NewEvent(execution, 1, startedAt, err))
		task.resolve(err)
		return
	}
	d.hook.OnSuccess(ctx, gojob.NewEvent(execution, 1, startedAt, nil))
	task.resolve(nil)
}

func (d *TaskDispatcher) execute(ctx context.Context, msg core.NotificationMessage) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = core.InternalError(fmt.Sprintf("notify: notifier panic: %v", recovered), nil)
		}
	}()

	runCtx := ctx
	cancel := func() {}
	if d.timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, d.timeout)
	}
	defer cancel()

	return gocommand.Execute[command.NotifyMessage](runCtx, d.command, command.NotifyMessage{Message: msg})
}

func (d *TaskDispatcher) logFailure(ctx context.Context, taskID string, msg core.NotificationMessage, err error) {
	d.logger.WithContext(ctx).Error("notification dispatch failed",
		"task_id", strings.TrimSpace(taskID),
		"request_id", msg.RequestID,
		"result_code", msg.Code,
		"error", err.Error(),
	)
}

var _ core.NotificationDispatcher = (*TaskDispatcher)(nil)
