// Command portalctl walks an applicant through registration from a terminal:
// it requests an email code, prompts for it, records consent and submits the
// form with both documents.
//
//	portalctl -url http://localhost:3000 -form form.json -passport face.png -nin nin.png -accept-terms
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/regportal-api/internal/application/document"
	"github.com/regportal-api/internal/application/registration"
	"github.com/regportal-api/internal/client/verification"
	"github.com/regportal-api/internal/domain"
	"github.com/regportal-api/internal/pkg/logger"
	"go.uber.org/zap"
)

const maxCodeAttempts = 3

type options struct {
	baseURL     string
	formPath    string
	passport    string
	nin         string
	acceptTerms bool
}

func main() {
	var opts options
	flag.StringVar(&opts.baseURL, "url", "http://localhost:3000", "portal API base URL")
	flag.StringVar(&opts.formPath, "form", "", "path to the registration form JSON")
	flag.StringVar(&opts.passport, "passport", "", "path to the passport photo")
	flag.StringVar(&opts.nin, "nin", "", "path to the NIN slip image")
	flag.BoolVar(&opts.acceptTerms, "accept-terms", false, "accept the data-processing terms")
	flag.Parse()

	logger.Init("development")
	defer logger.Sync()

	if opts.formPath == "" || opts.passport == "" || opts.nin == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdin, os.Stdout); err != nil {
		logger.L().Error("registration failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, in io.Reader, out io.Writer) error {
	form, err := readForm(opts.formPath)
	if err != nil {
		return err
	}
	form.Email = strings.TrimSpace(form.Email)
	if form.Email == "" {
		return errors.New("form email is required")
	}

	ctl := verification.NewController(opts.baseURL)
	name := strings.TrimSpace(form.FirstName + " " + form.LastName)
	if err := ctl.RequestCode(ctx, form.Email, name); err != nil {
		return fmt.Errorf("request code: %w", err)
	}
	fmt.Fprintf(out, "A verification code was sent to %s.\n", form.Email)

	scanner := bufio.NewScanner(in)
	for attempt := 1; ctl.State() == verification.CodeSent; attempt++ {
		fmt.Fprint(out, "Code: ")
		if !scanner.Scan() {
			return errors.New("no code entered")
		}
		err := ctl.SubmitCode(ctx, strings.TrimSpace(scanner.Text()))
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrInvalidArgument) && attempt < maxCodeAttempts:
			fmt.Fprintln(out, "That code is not correct, try again.")
		case errors.Is(err, domain.ErrAborted):
			return errors.New("the code has expired, run portalctl again to get a new one")
		default:
			return fmt.Errorf("verify code: %w", err)
		}
	}
	fmt.Fprintln(out, "Email verified.")

	if !opts.acceptTerms {
		return errors.New("the terms were not accepted, rerun with -accept-terms")
	}
	if err := ctl.Consent(); err != nil {
		return err
	}

	passport, err := os.Open(opts.passport)
	if err != nil {
		return err
	}
	defer passport.Close()
	nin, err := os.Open(opts.nin)
	if err != nil {
		return err
	}
	defer nin.Close()

	reg, err := ctl.Submit(ctx, form, registration.Documents{
		Passport: document.Upload{Reader: passport, Filename: filepath.Base(opts.passport)},
		NIN:      document.Upload{Reader: nin, Filename: filepath.Base(opts.nin)},
	})
	if err != nil {
		return fmt.Errorf("submit registration: %w", err)
	}
	fmt.Fprintf(out, "Registration received. Reference: %s\n", reg.RegistrationID)
	return nil
}

func readForm(path string) (registration.SubmitRequest, error) {
	var form registration.SubmitRequest
	b, err := os.ReadFile(path)
	if err != nil {
		return form, err
	}
	if err := json.Unmarshal(b, &form); err != nil {
		return form, fmt.Errorf("parse %s: %w", path, err)
	}
	return form, nil
}
