// Package verification drives the applicant side of the registration flow:
// request a code, prove control of the email, accept the terms, submit.
//
// The controller's state is a convenience for the caller only. The server
// re-checks the email's verification record when the registration arrives.
package verification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/regportal-api/internal/application/document"
	"github.com/regportal-api/internal/application/registration"
	"github.com/regportal-api/internal/domain"
)

// State is a step of the applicant flow.
type State int

const (
	Idle State = iota
	CodeSent
	Verified
	Consented
	Submitted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case CodeSent:
		return "code_sent"
	case Verified:
		return "verified"
	case Consented:
		return "consented"
	case Submitted:
		return "submitted"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

var (
	// ErrWrongState is returned when an action is not allowed in the current state.
	ErrWrongState = errors.New("action not allowed in current state")
	// ErrRateLimited is returned when the server answers 429.
	ErrRateLimited = errors.New("rate limited")
)

var codeErrors = map[string]error{
	"invalid-argument":  domain.ErrInvalidArgument,
	"not-found":         domain.ErrNotFound,
	"aborted":           domain.ErrAborted,
	"internal":          domain.ErrInternal,
	"unauthenticated":   domain.ErrUnauthorized,
	"permission-denied": domain.ErrForbidden,
	"already-exists":    domain.ErrConflict,
}

// Controller is safe for concurrent use; calls are serialised.
type Controller struct {
	baseURL string
	client  *http.Client

	mu    sync.Mutex
	state State
	email string
}

// Option configures a Controller.
type Option func(*Controller)

// WithHTTPClient replaces the default client (10s timeout).
func WithHTTPClient(c *http.Client) Option {
	return func(ctl *Controller) { ctl.client = c }
}

func NewController(baseURL string, opts ...Option) *Controller {
	c := &Controller{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsEmailVerified reports whether the code step has been passed in this session.
func (c *Controller) IsEmailVerified() bool {
	switch c.State() {
	case Verified, Consented, Submitted:
		return true
	}
	return false
}

// Email is the address the last code was requested for.
func (c *Controller) Email() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.email
}

// RequestCode asks the server to email a fresh code. Allowed before consent;
// a new request always returns the flow to CodeSent because the server
// overwrites any earlier code and its verified flag.
func (c *Controller) RequestCode(ctx context.Context, email, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Idle && c.state != CodeSent && c.state != Verified {
		return c.wrongState("request a code")
	}
	email = strings.TrimSpace(email)
	body := map[string]string{"email": email, "name": strings.TrimSpace(name)}
	if err := c.postJSON(ctx, "/v1/otp/issue", body, nil); err != nil {
		return err
	}
	c.email = email
	c.state = CodeSent
	return nil
}

// SubmitCode verifies the code for the email given to RequestCode.
func (c *Controller) SubmitCode(ctx context.Context, code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != CodeSent {
		return c.wrongState("submit a code")
	}
	body := map[string]string{"email": c.email, "code": code}
	if err := c.postJSON(ctx, "/v1/otp/verify", body, nil); err != nil {
		return err
	}
	c.state = Verified
	return nil
}

// Consent records acceptance of the terms.
func (c *Controller) Consent() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Verified {
		return c.wrongState("consent")
	}
	c.state = Consented
	return nil
}

// Submit sends the registration. The form's email must match the verified
// one exactly, since the server keys verification on the string as entered.
// An empty email is filled in.
func (c *Controller) Submit(ctx context.Context, form registration.SubmitRequest, docs registration.Documents) (*domain.Registration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Consented {
		return nil, c.wrongState("submit")
	}
	if form.Email == "" {
		form.Email = c.email
	}
	if form.Email != c.email {
		return nil, fmt.Errorf("form email differs from verified email: %w", domain.ErrInvalidArgument)
	}

	body, contentType, err := encodeRegistration(form, docs)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/registrations", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)

	var reg domain.Registration
	if err := c.do(req, &reg); err != nil {
		return nil, err
	}
	c.state = Submitted
	return &reg, nil
}

// Reset starts a new flow.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Idle
	c.email = ""
}

func (c *Controller) wrongState(action string) error {
	return fmt.Errorf("cannot %s while %s: %w", action, c.state, ErrWrongState)
}

func (c *Controller) postJSON(ctx context.Context, path string, in, out interface{}) error {
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Controller) do(req *http.Request, out interface{}) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// decodeError turns the server's error envelope back into a sentinel error.
func decodeError(resp *http.Response) error {
	var env struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&env)
	if env.Error == "" {
		env.Error = resp.Status
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%s: %w", env.Error, ErrRateLimited)
	}
	if sentinel, ok := codeErrors[env.Code]; ok {
		return fmt.Errorf("%s: %w", env.Error, sentinel)
	}
	return fmt.Errorf("unexpected status %d: %s: %w", resp.StatusCode, env.Error, domain.ErrInternal)
}

func encodeRegistration(form registration.SubmitRequest, docs registration.Documents) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	data, err := json.Marshal(form)
	if err != nil {
		return nil, "", err
	}
	if err := mw.WriteField("data", string(data)); err != nil {
		return nil, "", err
	}
	for _, part := range []struct {
		field string
		doc   document.Upload
	}{
		{domain.DocumentPassport, docs.Passport},
		{domain.DocumentNIN, docs.NIN},
	} {
		if part.doc.Reader == nil {
			return nil, "", fmt.Errorf("%s document is required: %w", part.field, domain.ErrInvalidArgument)
		}
		name := part.doc.Filename
		if name == "" {
			name = part.field
		}
		fw, err := mw.CreateFormFile(part.field, name)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(fw, part.doc.Reader); err != nil {
			return nil, "", fmt.Errorf("read %s document: %w", part.field, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}
