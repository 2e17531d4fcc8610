package gocommand

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-command"
)

// ValidateMessageContract enforces Type() plus optional Validate() contract.
func ValidateMessageContract(msg any) error {
	if err := command.ValidateMessage(msg); err != nil {
		return err
	}
	m, ok := msg.(command.Message)
	if !ok {
		return fmt.Errorf("gocommand: message must implement Type() string")
	}
	if strings.TrimSpace(m.Type()) == "" {
		return fmt.Errorf("gocommand: message type is required")
	}
	return nil
}

// Execute validates msg against the message contract and runs cmd.
func Execute[T any](ctx context.Context, cmd command.Commander[T], msg T) error {
	if cmd == nil {
		return fmt.Errorf("gocommand: command is required")
	}
	if err := ValidateMessageContract(msg); err != nil {
		return err
	}
	return cmd.Execute(ctx, msg)
}
