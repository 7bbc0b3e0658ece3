package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/regportal-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestStatsCurrent_Found(t *testing.T) {
	svc := &mockStatsSvc{}
	svc.On("Current", mock.Anything).Return(&domain.LiveStats{
		StatID:      domain.RegistrationCountsID,
		Total:       3,
		StateCounts: []domain.StateCount{{State: "Lagos", Count: 2}, {State: "Kano", Count: 1}},
		LastUpdated: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	}, nil)
	h := NewStatsHandler(svc)

	rr := httptest.NewRecorder()
	h.Current(rr, httptest.NewRequest(http.MethodGet, "/v1/stats", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp domain.LiveStats
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, 3, resp.Total)
	require.Len(t, resp.StateCounts, 2)
	assert.Equal(t, "Lagos", resp.StateCounts[0].State)
}

func TestStatsCurrent_NotComputedYet(t *testing.T) {
	svc := &mockStatsSvc{}
	svc.On("Current", mock.Anything).Return(nil, domain.ErrNotFound)
	h := NewStatsHandler(svc)

	rr := httptest.NewRecorder()
	h.Current(rr, httptest.NewRequest(http.MethodGet, "/v1/stats", nil))

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestStatsRefresh_Failure(t *testing.T) {
	svc := &mockStatsSvc{}
	svc.On("Refresh", mock.Anything).Return(nil, errors.New("scan registrations: throttled"))
	h := NewStatsHandler(svc)

	rr := httptest.NewRecorder()
	h.Refresh(rr, httptest.NewRequest(http.MethodPost, "/v1/admin/stats/refresh", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "internal error", decodeError(t, rr).Error)
}
