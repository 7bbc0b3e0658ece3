package handler

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/regportal-api/internal/application/document"
	"github.com/regportal-api/internal/application/registration"
	"github.com/regportal-api/internal/domain"
)

// maxRegistrationBody bounds the whole multipart request: two documents plus
// the JSON form and multipart framing.
const maxRegistrationBody = 1 << 20

// RegistrationHandler accepts applicant submissions.
type RegistrationHandler struct {
	svc registration.Service
}

func NewRegistrationHandler(svc registration.Service) *RegistrationHandler {
	return &RegistrationHandler{svc: svc}
}

// Submit expects multipart/form-data with a "data" field holding the JSON
// form and "passport" and "nin" file parts.
func (h *RegistrationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRegistrationBody)
	if err := r.ParseMultipartForm(maxRegistrationBody); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, CodeInvalidArgument, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, CodeInvalidArgument, "invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	var req registration.SubmitRequest
	if err := json.Unmarshal([]byte(r.FormValue("data")), &req); err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidArgument, "data field must be a JSON object")
		return
	}

	passport, closePassport := formUpload(r, domain.DocumentPassport)
	defer closePassport()
	nin, closeNIN := formUpload(r, domain.DocumentNIN)
	defer closeNIN()

	reg, err := h.svc.Submit(r.Context(), req, registration.Documents{Passport: passport, NIN: nin})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, reg)
}

// formUpload returns an empty Upload when the part is absent; the service
// reports the missing document.
func formUpload(r *http.Request, field string) (document.Upload, func()) {
	f, header, err := r.FormFile(field)
	if err != nil {
		return document.Upload{}, func() {}
	}
	return document.Upload{Reader: f, Filename: header.Filename}, func() { closeFile(f) }
}

func closeFile(f multipart.File) { _ = f.Close() }
