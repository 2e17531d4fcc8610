package core

import (
	"fmt"
	"strings"
)

const notificationTemplate = ":warning: *Detected Undesireable Result Code* :warning: \n\n" +
	"*%s*\n%s\n\n" +
	"*ID*\n%s\n\n" +
	"*Entity ID*\n%s\n\n\n" +
	"Please check the entity for further investigation."

// RenderNotification builds the chat alert for a payload that matched code.
func RenderNotification(requestID string, payload DecryptedPayload, code string) NotificationMessage {
	msg := NotificationMessage{
		RequestID:   strings.TrimSpace(requestID),
		Code:        code,
		Description: payload.ResultDescription(),
		PayloadID:   payload.PayloadID(),
		EntityID:    payload.EntityID(),
	}
	msg.Text = fmt.Sprintf(notificationTemplate, msg.Code, msg.Description, msg.PayloadID, msg.EntityID)
	return msg
}
