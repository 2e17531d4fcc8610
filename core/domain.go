package core

import (
	"encoding/json"
	"strings"
)

// EncryptedEnvelope holds the decoded inputs of one gateway callback.
// Key comes from configuration; IV and AuthTag from request headers;
// Ciphertext from the request body.
type EncryptedEnvelope struct {
	Key        []byte
	IV         []byte
	AuthTag    []byte
	Ciphertext []byte
}

type PayloadResult struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type PayloadAuthentication struct {
	EntityID string `json:"entityId"`
}

type PayloadBody struct {
	ID             string                `json:"id"`
	Result         PayloadResult         `json:"result"`
	Authentication PayloadAuthentication `json:"authentication"`
}

// DecryptedPayload is the gateway notification document after decryption.
type DecryptedPayload struct {
	Type    string          `json:"type,omitempty"`
	Payload PayloadBody     `json:"payload"`
	Raw     json.RawMessage `json:"-"`
}

func (p DecryptedPayload) ResultCode() string {
	return p.Payload.Result.Code
}

func (p DecryptedPayload) ResultDescription() string {
	return p.Payload.Result.Description
}

func (p DecryptedPayload) PayloadID() string {
	return p.Payload.ID
}

func (p DecryptedPayload) EntityID() string {
	return p.Payload.Authentication.EntityID
}

// ParseDecryptedPayload decodes plaintext into a payload. The document must be
// a JSON object; the result code is not required to be present.
func ParseDecryptedPayload(plaintext []byte) (DecryptedPayload, error) {
	trimmed := strings.TrimSpace(string(plaintext))
	if trimmed == "" || !strings.HasPrefix(trimmed, "{") {
		return DecryptedPayload{}, payloadParseError(nil, "core: decrypted payload is not a json object")
	}
	var parsed DecryptedPayload
	if err := json.Unmarshal([]byte(trimmed), &parsed); err != nil {
		return DecryptedPayload{}, payloadParseError(err, "core: decode decrypted payload")
	}
	parsed.Raw = append(json.RawMessage(nil), trimmed...)
	return parsed, nil
}

// NotificationMessage is the alert derived from a flagged payload.
type NotificationMessage struct {
	RequestID   string
	Code        string
	Description string
	PayloadID   string
	EntityID    string
	Text        string
}

type WatchResult struct {
	RequestID string
	Code      string
	Matches   []string
	Tasks     []NotificationTask
}

// Flagged reports whether at least one notification was produced.
func (r WatchResult) Flagged() bool {
	return len(r.Matches) > 0
}
