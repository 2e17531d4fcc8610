package core

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	WatcherErrorBadInput             = "WATCHER_BAD_INPUT"
	WatcherErrorInputDecoding        = "WATCHER_INPUT_DECODING"
	WatcherErrorAuthenticationFailed = "WATCHER_AUTHENTICATION_FAILED"
	WatcherErrorPayloadParse         = "WATCHER_PAYLOAD_PARSE"
	WatcherErrorNotificationDelivery = "WATCHER_NOTIFICATION_DELIVERY"
	WatcherErrorInternal             = "WATCHER_INTERNAL_ERROR"
)

// DecryptionFailedMessage is the only failure detail returned to webhook callers.
const DecryptionFailedMessage = "Decryption failed"

func InputDecodingError(source error, message string, metadata map[string]any) error {
	return watcherError(source, goerrors.CategoryBadInput, message, WatcherErrorInputDecoding, metadata)
}

func AuthenticationError(source error, message string, metadata map[string]any) error {
	return watcherError(source, goerrors.CategoryAuth, message, WatcherErrorAuthenticationFailed, metadata)
}

func payloadParseError(source error, message string) error {
	return watcherError(source, goerrors.CategoryBadInput, message, WatcherErrorPayloadParse, nil)
}

func DeliveryError(source error, message string, metadata map[string]any) error {
	return watcherError(source, goerrors.CategoryExternal, message, WatcherErrorNotificationDelivery, metadata)
}

func InternalError(message string, metadata map[string]any) error {
	return watcherError(nil, goerrors.CategoryInternal, message, WatcherErrorInternal, metadata)
}

func watcherError(
	source error,
	category goerrors.Category,
	message string,
	textCode string,
	metadata map[string]any,
) error {
	var err *goerrors.Error
	if source == nil {
		err = goerrors.New(message, category)
	} else {
		err = goerrors.Wrap(source, category, message)
	}
	err = err.WithCode(watcherHTTPStatus(textCode, category)).WithTextCode(textCode)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

// TextCode returns the watcher text code carried by err, if any.
func TextCode(err error) string {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) || richErr == nil {
		return ""
	}
	return strings.TrimSpace(richErr.TextCode)
}

// IsDecryptionFailure reports whether err is an input decoding, tag
// verification or payload parse failure.
func IsDecryptionFailure(err error) bool {
	switch TextCode(err) {
	case WatcherErrorInputDecoding, WatcherErrorAuthenticationFailed, WatcherErrorPayloadParse:
		return true
	default:
		return false
	}
}

func watcherErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureWatcherErrorEnvelope(richErr)
	}
	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureWatcherErrorEnvelope(mapped)
}

func ensureWatcherErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultWatcherTextCode(err.Category)
	}
	if err.Code == 0 {
		err.Code = watcherHTTPStatus(err.TextCode, err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultWatcherTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return WatcherErrorBadInput
	case goerrors.CategoryAuth:
		return WatcherErrorAuthenticationFailed
	case goerrors.CategoryExternal:
		return WatcherErrorNotificationDelivery
	default:
		return WatcherErrorInternal
	}
}

// Decryption failures always map to 500.
func watcherHTTPStatus(textCode string, category goerrors.Category) int {
	switch textCode {
	case WatcherErrorInputDecoding, WatcherErrorAuthenticationFailed, WatcherErrorPayloadParse:
		return http.StatusInternalServerError
	case WatcherErrorNotificationDelivery:
		return http.StatusBadGateway
	}
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
