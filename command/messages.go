package command

import (
	"strings"

	"github.com/goliatone/go-watcher/core"
)

const TypeNotify = "watcher.command.notify"

// NotifyMessage carries one rendered alert to the configured notifier.
type NotifyMessage struct {
	Message core.NotificationMessage
}

func (NotifyMessage) Type() string { return TypeNotify }

func (m NotifyMessage) Validate() error {
	if strings.TrimSpace(m.Message.Code) == "" {
		return commandValidationError("code", "result code is required")
	}
	if strings.TrimSpace(m.Message.Text) == "" {
		return commandValidationError("text", "notification text is required")
	}
	return nil
}
