package notify

import (
	"context"
	"sync"

	"github.com/goliatone/go-watcher/core"
)

type notificationTask struct {
	id   string
	done chan struct{}
	once sync.Once
	err  error
}

func newNotificationTask(id string) *notificationTask {
	return &notificationTask{id: id, done: make(chan struct{})}
}

func (t *notificationTask) ID() string {
	return t.id
}

func (t *notificationTask) Done() <-chan struct{} {
	return t.done
}

// Err returns the delivery error once the task has finished, nil before.
func (t *notificationTask) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

func (t *notificationTask) Wait(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *notificationTask) resolve(err error) {
	t.once.Do(func() {
		t.err = err
		close(t.done)
	})
}

var _ core.NotificationTask = (*notificationTask)(nil)
