package security

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/goliatone/go-watcher/core"
)

const (
	HeaderInitializationVector = "X-Initialization-Vector"
	HeaderAuthenticationTag    = "X-Authentication-Tag"
)

// DecodeEnvelope hex decodes the transmitted envelope fields and pairs them
// with the configured key. Every field is required.
func DecodeEnvelope(key []byte, ivHex, tagHex, bodyHex string) (core.EncryptedEnvelope, error) {
	if len(key) == 0 {
		return core.EncryptedEnvelope{}, core.InputDecodingError(nil, "security: secret key is required", nil)
	}
	iv, err := decodeHexField("iv", ivHex)
	if err != nil {
		return core.EncryptedEnvelope{}, err
	}
	tag, err := decodeHexField("auth_tag", tagHex)
	if err != nil {
		return core.EncryptedEnvelope{}, err
	}
	ciphertext, err := decodeHexField("ciphertext", bodyHex)
	if err != nil {
		return core.EncryptedEnvelope{}, err
	}
	return core.EncryptedEnvelope{
		Key:        append([]byte(nil), key...),
		IV:         iv,
		AuthTag:    tag,
		Ciphertext: ciphertext,
	}, nil
}

// EncodeEnvelope is the transport inverse of DecodeEnvelope.
func EncodeEnvelope(env core.EncryptedEnvelope) (ivHex, tagHex, bodyHex string) {
	return hex.EncodeToString(env.IV), hex.EncodeToString(env.AuthTag), hex.EncodeToString(env.Ciphertext)
}

func decodeHexField(field string, value string) ([]byte, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, core.InputDecodingError(
			nil,
			fmt.Sprintf("security: %s is required", field),
			map[string]any{"field": field},
		)
	}
	decoded, err := hex.DecodeString(trimmed)
	if err != nil {
		return nil, core.InputDecodingError(
			err,
			fmt.Sprintf("security: decode %s hex", field),
			map[string]any{"field": field},
		)
	}
	return decoded, nil
}

// SealHex encrypts plaintext under key with a random iv and returns the
// fields in gateway transport form.
func SealHex(key, plaintext []byte) (ivHex, tagHex, bodyHex string, err error) {
	env, err := Seal(key, nil, plaintext)
	if err != nil {
		return "", "", "", err
	}
	ivHex, tagHex, bodyHex = EncodeEnvelope(env)
	return ivHex, tagHex, bodyHex, nil
}
