package inbound

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-watcher/core"
	"github.com/goliatone/go-watcher/security"
)

const (
	PathWatcher = "/watcher"
	PathHealth  = "/healthz"

	HeaderRequestID = "X-Request-Id"

	DefaultMaxBodyBytes int64 = 1 << 20 // 1 MiB

	internalErrorMessage = "Internal server error"
)

type WatchService interface {
	Watch(ctx context.Context, env core.EncryptedEnvelope) (core.WatchResult, error)
}

type HandlerOption func(*Handler)

func WithLogger(logger glog.Logger) HandlerOption {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

func WithMaxBodyBytes(limit int64) HandlerOption {
	return func(h *Handler) {
		if limit > 0 {
			h.maxBodyBytes = limit
		}
	}
}

// Handler serves POST /watcher. The key never comes from the request.
type Handler struct {
	service      WatchService
	key          []byte
	logger       glog.Logger
	maxBodyBytes int64
}

func NewHandler(service WatchService, key []byte, opts ...HandlerOption) (*Handler, error) {
	if service == nil {
		return nil, inboundInternal("inbound: watch service is required", nil)
	}
	if len(key) == 0 {
		return nil, inboundInternal("inbound: secret key is required", nil)
	}
	h := &Handler{
		service:      service,
		key:          append([]byte(nil), key...),
		logger:       glog.Nop(),
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h, nil
}

type errorResponse struct {
	Msg string `json:"msg"`
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if requestID := middleware.GetReqID(ctx); requestID != "" {
		ctx = core.ContextWithRequestID(ctx, requestID)
	}

	body, err := readBodyLimited(r.Body, h.maxBodyBytes)
	if err != nil {
		h.fail(ctx, w, err)
		return
	}

	env, err := security.DecodeEnvelope(
		h.key,
		r.Header.Get(security.HeaderInitializationVector),
		r.Header.Get(security.HeaderAuthenticationTag),
		unquoteBody(body),
	)
	if err != nil {
		h.fail(ctx, w, err)
		return
	}

	result, err := h.service.Watch(ctx, env)
	if err != nil {
		h.fail(ctx, w, err)
		return
	}
	if result.RequestID != "" {
		w.Header().Set(HeaderRequestID, result.RequestID)
	}
	w.WriteHeader(http.StatusOK)
}

// fail writes the generic failure response. Detail stays in the logs.
func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, err error) {
	status := errorStatus(err)
	message := internalErrorMessage
	if core.IsDecryptionFailure(err) {
		status = http.StatusInternalServerError
		message = core.DecryptionFailedMessage
	}

	args := []any{"error", err.Error(), "status", status}
	if code := core.TextCode(err); code != "" {
		args = append(args, "error_text_code", code)
	}
	if requestID := core.RequestIDFromContext(ctx); requestID != "" {
		args = append(args, "request_id", requestID)
	}
	h.logger.WithContext(ctx).Error("watcher request failed", args...)

	writeJSON(w, status, errorResponse{Msg: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func readBodyLimited(r io.Reader, max int64) ([]byte, error) {
	if r == nil {
		return nil, nil
	}
	b, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return nil, inboundWrapError(
			err,
			goerrors.CategoryBadInput,
			"inbound: read request body",
			http.StatusInternalServerError,
			core.WatcherErrorInputDecoding,
			nil,
		)
	}
	if int64(len(b)) > max {
		return nil, inboundError(
			fmt.Sprintf("inbound: request body exceeds limit of %d bytes", max),
			goerrors.CategoryBadInput,
			http.StatusInternalServerError,
			core.WatcherErrorInputDecoding,
			map[string]any{"limit_bytes": max},
		)
	}
	return b, nil
}

// unquoteBody accepts the ciphertext either raw or as a JSON string.
func unquoteBody(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if len(trimmed) >= 2 && strings.HasPrefix(trimmed, `"`) && strings.HasSuffix(trimmed, `"`) {
		var unquoted string
		if err := json.Unmarshal([]byte(trimmed), &unquoted); err == nil {
			return unquoted
		}
	}
	return trimmed
}
