package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-job/queue/worker"

	"github.com/goliatone/go-watcher/command"
	"github.com/goliatone/go-watcher/core"
)

type ctxKey struct{}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []core.NotificationMessage
	ctxErr   []error
	values   []any
	err      error
	block    chan struct{}
	panicMsg string
}

func (n *recordingNotifier) Notify(ctx context.Context, msg core.NotificationMessage) error {
	if n.block != nil {
		<-n.block
	}
	if n.panicMsg != "" {
		panic(n.panicMsg)
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
	n.ctxErr = append(n.ctxErr, ctx.Err())
	n.values = append(n.values, ctx.Value(ctxKey{}))
	return n.err
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages)
}

type recordingHook struct {
	mu     sync.Mutex
	events []string
	last   worker.Event
}

func (h *recordingHook) record(name string, event worker.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, name)
	h.last = event
}

func (h *recordingHook) OnStart(_ context.Context, e worker.Event)   { h.record("start", e) }
func (h *recordingHook) OnSuccess(_ context.Context, e worker.Event) { h.record("success", e) }
func (h *recordingHook) OnFailure(_ context.Context, e worker.Event) { h.record("failure", e) }
func (h *recordingHook) OnRetry(_ context.Context, e worker.Event)   { h.record("retry", e) }

func testMessage() core.NotificationMessage {
	return core.NotificationMessage{
		RequestID: "req-1",
		Code:      "900.100.600",
		PayloadID: "abc123",
		EntityID:  "ent-42",
		Text:      "alert",
	}
}

func waitTask(t *testing.T, task core.NotificationTask) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := task.Wait(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("task %s did not finish", task.ID())
	}
	return err
}

func TestTaskDispatcher_DeliversDetachedFromCallerCancellation(t *testing.T) {
	notifier := &recordingNotifier{block: make(chan struct{})}
	hook := &recordingHook{}
	dispatcher := NewTaskDispatcher(command.NewNotifyCommand(notifier),
		WithHook(hook),
		WithIDGenerator(func() string { return "task-1" }),
	)

	ctx, cancel := context.WithCancel(context.WithValue(context.Background(), ctxKey{}, "carried"))
	task := dispatcher.Dispatch(ctx, testMessage())
	cancel()
	close(notifier.block)

	if err := waitTask(t, task); err != nil {
		t.Fatalf("expected delivery success, got %v", err)
	}
	if task.ID() != "task-1" {
		t.Fatalf("unexpected task id %q", task.ID())
	}
	if notifier.count() != 1 {
		t.Fatalf("expected one delivery, got %d", notifier.count())
	}
	if notifier.ctxErr[0] != nil {
		t.Fatalf("expected delivery context to ignore caller cancellation, got %v", notifier.ctxErr[0])
	}
	if notifier.values[0] != "carried" {
		t.Fatalf("expected context values to be kept, got %#v", notifier.values[0])
	}

	hook.mu.Lock()
	defer hook.mu.Unlock()
	if len(hook.events) != 2 || hook.events[0] != "start" || hook.events[1] != "success" {
		t.Fatalf("unexpected hook events: %v", hook.events)
	}
	if hook.last.Message == nil || hook.last.Message.IdempotencyKey != "task-1" {
		t.Fatalf("expected execution message for task, got %#v", hook.last.Message)
	}
}

func TestTaskDispatcher_FailureResolvesTaskWithoutRetry(t *testing.T) {
	notifier := &recordingNotifier{err: errors.New("slack down")}
	hook := &recordingHook{}
	dispatcher := NewTaskDispatcher(command.NewNotifyCommand(notifier), WithHook(hook))

	task := dispatcher.Dispatch(context.Background(), testMessage())
	err := waitTask(t, task)
	if err == nil {
		t.Fatalf("expected delivery error")
	}
	if core.TextCode(err) != core.WatcherErrorNotificationDelivery {
		t.Fatalf("expected delivery text code, got %q", core.TextCode(err))
	}
	if task.Err() == nil {
		t.Fatalf("expected Err to report failure after completion")
	}
	if notifier.count() != 1 {
		t.Fatalf("expected exactly one attempt, got %d", notifier.count())
	}
	hook.mu.Lock()
	defer hook.mu.Unlock()
	if hook.events[len(hook.events)-1] != "failure" {
		t.Fatalf("expected failure hook, got %v", hook.events)
	}
	for _, name := range hook.events {
		if name == "retry" {
			t.Fatalf("expected no retries")
		}
	}
}

func TestTaskDispatcher_TasksAreIndependent(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	cmd := gocmd.CommandFunc[command.NotifyMessage](func(_ context.Context, msg command.NotifyMessage) error {
		mu.Lock()
		calls++
		mu.Unlock()
		if msg.Message.PayloadID == "fail" {
			return errors.New("boom")
		}
		return nil
	})
	dispatcher := NewTaskDispatcher(cmd)

	failing := testMessage()
	failing.PayloadID = "fail"
	first := dispatcher.Dispatch(context.Background(), failing)
	second := dispatcher.Dispatch(context.Background(), testMessage())

	if err := waitTask(t, first); err == nil {
		t.Fatalf("expected first task to fail")
	}
	if err := waitTask(t, second); err != nil {
		t.Fatalf("expected second task to succeed, got %v", err)
	}
	if first.ID() == second.ID() {
		t.Fatalf("expected distinct task ids")
	}
	if err := dispatcher.Wait(context.Background()); err != nil {
		t.Fatalf("wait: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if calls != 2 {
		t.Fatalf("expected two executions, got %d", calls)
	}
}

func TestTaskDispatcher_RecoversNotifierPanic(t *testing.T) {
	dispatcher := NewTaskDispatcher(command.NewNotifyCommand(&recordingNotifier{panicMsg: "nil map"}))

	err := waitTask(t, dispatcher.Dispatch(context.Background(), testMessage()))
	if core.TextCode(err) != core.WatcherErrorInternal {
		t.Fatalf("expected internal error from panic, got %v", err)
	}
}

func TestTaskDispatcher_TimeoutBoundsDelivery(t *testing.T) {
	cmd := gocmd.CommandFunc[command.NotifyMessage](func(ctx context.Context, _ command.NotifyMessage) error {
		<-ctx.Done()
		return ctx.Err()
	})
	dispatcher := NewTaskDispatcher(cmd, WithTimeout(20*time.Millisecond))

	started := time.Now()
	err := waitTask(t, dispatcher.Dispatch(context.Background(), testMessage()))
	if core.TextCode(err) != core.WatcherErrorNotificationDelivery {
		t.Fatalf("expected delivery error after timeout, got %v", err)
	}
	if time.Since(started) > time.Second {
		t.Fatalf("expected timeout to bound delivery")
	}
}

func TestTaskDispatcher_InvalidMessageAndMissingCommand(t *testing.T) {
	notifier := &recordingNotifier{}
	dispatcher := NewTaskDispatcher(command.NewNotifyCommand(notifier))

	err := waitTask(t, dispatcher.Dispatch(context.Background(), core.NotificationMessage{}))
	if core.TextCode(err) != core.WatcherErrorBadInput {
		t.Fatalf("expected validation error, got %v", err)
	}
	if notifier.count() != 0 {
		t.Fatalf("expected notifier to be skipped")
	}

	missing := NewTaskDispatcher(nil)
	task := missing.Dispatch(context.Background(), testMessage())
	select {
	case <-task.Done():
	default:
		t.Fatalf("expected task to be resolved immediately")
	}
	if core.TextCode(task.Err()) != core.WatcherErrorInternal {
		t.Fatalf("expected internal error, got %v", task.Err())
	}
}

func TestTaskDispatcher_WaitHonorsContext(t *testing.T) {
	notifier := &recordingNotifier{block: make(chan struct{})}
	dispatcher := NewTaskDispatcher(command.NewNotifyCommand(notifier))
	task := dispatcher.Dispatch(context.Background(), testMessage())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := dispatcher.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected wait to time out, got %v", err)
	}
	if task.Err() != nil {
		t.Fatalf("expected nil Err while pending")
	}

	close(notifier.block)
	if err := dispatcher.Wait(context.Background()); err != nil {
		t.Fatalf("wait: %v", err)
	}
}
