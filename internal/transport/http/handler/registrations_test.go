package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/regportal-api/internal/application/registration"
	"github.com/regportal-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func validForm() registration.SubmitRequest {
	return registration.SubmitRequest{
		FirstName: "Ada", LastName: "Obi", Email: "ada@example.com", Phone: "08012345678",
		DOB: "2000-01-01", Sex: "Female", StateOfOrigin: "Lagos", State: "Lagos",
		LGA: "Ikeja", Address: "1 Allen Avenue", Landmark: "Computer Village", TrainingArea: "Metal Recycling",
	}
}

// multipartRequest builds a registration request. A nil file body omits the part.
func multipartRequest(t *testing.T, data string, files map[string][]byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if data != "" {
		require.NoError(t, mw.WriteField("data", data))
	}
	for field, body := range files {
		if body == nil {
			continue
		}
		fw, err := mw.CreateFormFile(field, field+".png")
		require.NoError(t, err)
		_, err = fw.Write(body)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	r := httptest.NewRequest(http.MethodPost, "/v1/registrations", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	return r
}

func formJSON(t *testing.T, req registration.SubmitRequest) string {
	t.Helper()
	b, err := json.Marshal(req)
	require.NoError(t, err)
	return string(b)
}

func TestSubmit_HappyPath(t *testing.T) {
	svc := &mockRegistrationSvc{}
	reg := &domain.Registration{RegistrationID: "01J0", Email: "ada@example.com", CreatedAt: time.Now()}
	svc.On("Submit", mock.Anything, validForm(), mock.MatchedBy(func(d registration.Documents) bool {
		if d.Passport.Reader == nil || d.NIN.Reader == nil {
			return false
		}
		got, err := io.ReadAll(d.Passport.Reader)
		return err == nil && bytes.Equal(got, pngBytes) && d.Passport.Filename == "passport.png"
	})).Return(reg, nil)
	h := NewRegistrationHandler(svc)

	rr := httptest.NewRecorder()
	h.Submit(rr, multipartRequest(t, formJSON(t, validForm()), map[string][]byte{
		"passport": pngBytes,
		"nin":      pngBytes,
	}))

	assert.Equal(t, http.StatusCreated, rr.Code)
	var resp domain.Registration
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "01J0", resp.RegistrationID)
	svc.AssertExpectations(t)
}

func TestSubmit_MissingDataField(t *testing.T) {
	svc := &mockRegistrationSvc{}
	h := NewRegistrationHandler(svc)

	rr := httptest.NewRecorder()
	h.Submit(rr, multipartRequest(t, "", map[string][]byte{"passport": pngBytes, "nin": pngBytes}))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	svc.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmit_NotMultipart(t *testing.T) {
	svc := &mockRegistrationSvc{}
	h := NewRegistrationHandler(svc)

	rr := httptest.NewRecorder()
	h.Submit(rr, postJSON("/v1/registrations", `{"first_name":"Ada"}`))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, CodeInvalidArgument, decodeError(t, rr).Code)
}

func TestSubmit_MissingFilePassedThroughAsEmpty(t *testing.T) {
	svc := &mockRegistrationSvc{}
	svc.On("Submit", mock.Anything, mock.Anything, mock.MatchedBy(func(d registration.Documents) bool {
		return d.Passport.Reader != nil && d.NIN.Reader == nil
	})).Return(nil, fmt.Errorf("nin document is required: %w", domain.ErrInvalidArgument))
	h := NewRegistrationHandler(svc)

	rr := httptest.NewRecorder()
	h.Submit(rr, multipartRequest(t, formJSON(t, validForm()), map[string][]byte{"passport": pngBytes}))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "nin document is required", decodeError(t, rr).Error)
	svc.AssertExpectations(t)
}

func TestSubmit_UnverifiedEmail_IsForbidden(t *testing.T) {
	svc := &mockRegistrationSvc{}
	svc.On("Submit", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("email not verified: %w", domain.ErrForbidden))
	h := NewRegistrationHandler(svc)

	rr := httptest.NewRecorder()
	h.Submit(rr, multipartRequest(t, formJSON(t, validForm()), map[string][]byte{"passport": pngBytes, "nin": pngBytes}))

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, CodePermissionDenied, decodeError(t, rr).Code)
}

func TestSubmit_Duplicate_IsConflict(t *testing.T) {
	svc := &mockRegistrationSvc{}
	svc.On("Submit", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("a registration already exists for this email: %w", domain.ErrConflict))
	h := NewRegistrationHandler(svc)

	rr := httptest.NewRecorder()
	h.Submit(rr, multipartRequest(t, formJSON(t, validForm()), map[string][]byte{"passport": pngBytes, "nin": pngBytes}))

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, CodeAlreadyExists, decodeError(t, rr).Code)
}

func TestSubmit_BodyTooLarge(t *testing.T) {
	svc := &mockRegistrationSvc{}
	h := NewRegistrationHandler(svc)

	big := bytes.Repeat([]byte{0xAA}, maxRegistrationBody+1)
	rr := httptest.NewRecorder()
	h.Submit(rr, multipartRequest(t, formJSON(t, validForm()), map[string][]byte{"passport": big, "nin": pngBytes}))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	svc.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything, mock.Anything)
}
