package security

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	"github.com/goliatone/go-watcher/core"
)

const envelopeAlgorithm = "aes-256-gcm"

// GCMDecryptor opens AES-256-GCM envelopes carrying a detached auth tag.
type GCMDecryptor struct{}

func NewGCMDecryptor() *GCMDecryptor {
	return &GCMDecryptor{}
}

func (d *GCMDecryptor) Decrypt(_ context.Context, env core.EncryptedEnvelope) (core.DecryptedPayload, error) {
	plaintext, err := Open(env)
	if err != nil {
		return core.DecryptedPayload{}, err
	}
	return core.ParseDecryptedPayload(plaintext)
}

// Open verifies the auth tag and returns the plaintext. No plaintext is
// returned unless verification succeeds.
func Open(env core.EncryptedEnvelope) ([]byte, error) {
	gcm, err := newGCM(env.Key)
	if err != nil {
		return nil, err
	}
	if len(env.IV) != gcm.NonceSize() {
		return nil, core.InputDecodingError(
			nil,
			fmt.Sprintf("security: iv must be %d bytes, got %d", gcm.NonceSize(), len(env.IV)),
			map[string]any{"field": "iv", "algorithm": envelopeAlgorithm},
		)
	}
	if len(env.AuthTag) != gcm.Overhead() {
		return nil, core.InputDecodingError(
			nil,
			fmt.Sprintf("security: auth tag must be %d bytes, got %d", gcm.Overhead(), len(env.AuthTag)),
			map[string]any{"field": "auth_tag", "algorithm": envelopeAlgorithm},
		)
	}

	sealed := make([]byte, 0, len(env.Ciphertext)+len(env.AuthTag))
	sealed = append(sealed, env.Ciphertext...)
	sealed = append(sealed, env.AuthTag...)

	plaintext, err := gcm.Open(nil, env.IV, sealed, nil)
	if err != nil {
		return nil, core.AuthenticationError(
			err,
			"security: decrypt payload",
			map[string]any{"algorithm": envelopeAlgorithm},
		)
	}
	return plaintext, nil
}

// Seal encrypts plaintext the way the gateway does and returns the envelope
// with a detached tag. A random iv is generated when iv is empty.
func Seal(key, iv, plaintext []byte) (core.EncryptedEnvelope, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return core.EncryptedEnvelope{}, err
	}
	if len(iv) == 0 {
		iv = make([]byte, gcm.NonceSize())
		if _, err := io.ReadFull(rand.Reader, iv); err != nil {
			return core.EncryptedEnvelope{}, fmt.Errorf("security: iv generation failed: %w", err)
		}
	}
	if len(iv) != gcm.NonceSize() {
		return core.EncryptedEnvelope{}, core.InputDecodingError(
			nil,
			fmt.Sprintf("security: iv must be %d bytes, got %d", gcm.NonceSize(), len(iv)),
			map[string]any{"field": "iv", "algorithm": envelopeAlgorithm},
		)
	}

	sealed := gcm.Seal(nil, iv, plaintext, nil)
	split := len(sealed) - gcm.Overhead()
	return core.EncryptedEnvelope{
		Key:        append([]byte(nil), key...),
		IV:         append([]byte(nil), iv...),
		AuthTag:    append([]byte(nil), sealed[split:]...),
		Ciphertext: append([]byte(nil), sealed[:split]...),
	}, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != core.SecretKeySize {
		return nil, core.InputDecodingError(
			nil,
			fmt.Sprintf("security: key must be %d bytes, got %d", core.SecretKeySize, len(key)),
			map[string]any{"field": "key", "algorithm": envelopeAlgorithm},
		)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, core.InputDecodingError(err, "security: create cipher", nil)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, core.InputDecodingError(err, "security: create gcm", nil)
	}
	return gcm, nil
}

var _ core.Decryptor = (*GCMDecryptor)(nil)
