package command

import (
	"context"

	"github.com/goliatone/go-watcher/core"
)

type NotifyCommand struct {
	notifier core.Notifier
}

func NewNotifyCommand(notifier core.Notifier) *NotifyCommand {
	return &NotifyCommand{notifier: notifier}
}

func (c *NotifyCommand) Execute(ctx context.Context, msg NotifyMessage) error {
	if c == nil || c.notifier == nil {
		return commandDependencyError("command: notifier is required")
	}
	return c.notifier.Notify(ctx, msg.Message)
}
