package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/regportal-api/internal/domain"
	"github.com/regportal-api/internal/pkg/logger"
	"go.uber.org/zap"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Success bool   `json:"success,omitempty"`
	Message string `json:"message,omitempty"`
}

// ErrorEnvelope is written for every failed request. Code names the failure
// kind so clients can branch without parsing Error.
type ErrorEnvelope struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Error codes carried in ErrorEnvelope.Code.
const (
	CodeInvalidArgument  = "invalid-argument"
	CodeNotFound         = "not-found"
	CodeAborted          = "aborted"
	CodeInternal         = "internal"
	CodeUnauthenticated  = "unauthenticated"
	CodePermissionDenied = "permission-denied"
	CodeAlreadyExists    = "already-exists"
)

type errorKind struct {
	sentinel error
	status   int
	code     string
}

var errorKinds = []errorKind{
	{domain.ErrInvalidArgument, http.StatusBadRequest, CodeInvalidArgument},
	{domain.ErrNotFound, http.StatusNotFound, CodeNotFound},
	{domain.ErrAborted, http.StatusConflict, CodeAborted},
	{domain.ErrUnauthorized, http.StatusUnauthorized, CodeUnauthenticated},
	{domain.ErrForbidden, http.StatusForbidden, CodePermissionDenied},
	{domain.ErrConflict, http.StatusConflict, CodeAlreadyExists},
	{domain.ErrInternal, http.StatusInternalServerError, CodeInternal},
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorEnvelope{Error: msg, Code: code})
}

// writeServiceError maps a service error onto its status and code. Internal
// and unrecognised errors are logged and answered with a generic message.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	for _, k := range errorKinds {
		if !errors.Is(err, k.sentinel) {
			continue
		}
		if k.sentinel == domain.ErrInternal {
			break
		}
		writeError(w, k.status, k.code, publicMessage(err, k.sentinel))
		return
	}
	logger.Error(r.Context(), "request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	writeError(w, http.StatusInternalServerError, CodeInternal, "internal error")
}

// publicMessage drops the trailing sentinel text added by %w wrapping.
func publicMessage(err, sentinel error) string {
	msg := strings.TrimSuffix(err.Error(), ": "+sentinel.Error())
	if msg == "" {
		return sentinel.Error()
	}
	return msg
}
