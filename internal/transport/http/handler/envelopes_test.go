package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/regportal-api/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestWriteServiceError_Mapping(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{domain.ErrInvalidArgument, http.StatusBadRequest, CodeInvalidArgument},
		{domain.ErrNotFound, http.StatusNotFound, CodeNotFound},
		{domain.ErrAborted, http.StatusConflict, CodeAborted},
		{domain.ErrUnauthorized, http.StatusUnauthorized, CodeUnauthenticated},
		{domain.ErrForbidden, http.StatusForbidden, CodePermissionDenied},
		{domain.ErrConflict, http.StatusConflict, CodeAlreadyExists},
		{domain.ErrInternal, http.StatusInternalServerError, CodeInternal},
		{errors.New("dynamodb: connection reset"), http.StatusInternalServerError, CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rr := httptest.NewRecorder()
			writeServiceError(rr, httptest.NewRequest(http.MethodGet, "/", nil), fmt.Errorf("op: %w", tt.err))
			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, rr).Code)
		})
	}
}

func TestWriteServiceError_HidesInternalDetail(t *testing.T) {
	rr := httptest.NewRecorder()
	err := fmt.Errorf("store verification: table missing: %w", domain.ErrInternal)
	writeServiceError(rr, httptest.NewRequest(http.MethodPost, "/v1/otp/issue", nil), err)
	assert.Equal(t, "internal error", decodeError(t, rr).Error)
}

func TestPublicMessage_BareSentinel(t *testing.T) {
	assert.Equal(t, "not found", publicMessage(domain.ErrNotFound, domain.ErrNotFound))
	assert.Equal(t, "record missing", publicMessage(fmt.Errorf("record missing: %w", domain.ErrNotFound), domain.ErrNotFound))
}
