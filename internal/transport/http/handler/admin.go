package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/regportal-api/internal/application/admin"
	"github.com/regportal-api/internal/domain"
	"github.com/regportal-api/internal/pkg/logger"
	"go.uber.org/zap"
)

// LoginEnvelope wraps a successful admin login.
type LoginEnvelope struct {
	AccessToken string        `json:"access_token"`
	ExpiresAt   time.Time     `json:"expires_at"`
	Admin       *domain.Admin `json:"admin"`
}

// RegistrationsEnvelope wraps one page of registrations.
type RegistrationsEnvelope struct {
	Data       []domain.Registration `json:"data"`
	NextCursor string                `json:"next_cursor,omitempty"`
}

// AdminHandler serves the dashboard endpoints.
type AdminHandler struct {
	svc admin.Service
}

func NewAdminHandler(svc admin.Service) *AdminHandler { return &AdminHandler{svc: svc} }

func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req admin.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidArgument, "invalid request body")
		return
	}
	res, err := h.svc.Login(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, LoginEnvelope{
		AccessToken: res.AccessToken,
		ExpiresAt:   res.ExpiresAt,
		Admin:       res.Admin,
	})
}

func (h *AdminHandler) ListRegistrations(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, CodeInvalidArgument, "limit must be a positive integer")
			return
		}
		limit = n
	}
	page, err := h.svc.ListRegistrations(r.Context(), limit, r.URL.Query().Get("cursor"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	items := page.Items
	if items == nil {
		items = []domain.Registration{}
	}
	writeJSON(w, http.StatusOK, RegistrationsEnvelope{Data: items, NextCursor: page.NextCursor})
}

func (h *AdminHandler) GetRegistration(w http.ResponseWriter, r *http.Request) {
	reg, err := h.svc.GetRegistration(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reg)
}

// Document streams a stored passport or NIN image.
func (h *AdminHandler) Document(w http.ResponseWriter, r *http.Request) {
	doc, err := h.svc.OpenDocument(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "kind"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	defer doc.Body.Close()

	contentType := doc.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", path.Base(doc.Key)))
	w.Header().Set("Cache-Control", "private, no-store")
	if _, err := io.Copy(w, doc.Body); err != nil {
		logger.Warn(r.Context(), "document stream interrupted", zap.String("key", doc.Key), zap.Error(err))
	}
}
