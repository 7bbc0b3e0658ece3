package otp

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/regportal-api/internal/domain"
)

const genericSalutation = "Applicant"

var htmlBody = template.Must(template.New("otp").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #111827;">
  <p>Hello {{.Name}},</p>
  <p>Use the code below to verify your email address for {{.AppName}}:</p>
  <p style="font-size: 28px; font-weight: bold; letter-spacing: 6px;">{{.Code}}</p>
  <p>This code expires in {{.Minutes}} minutes. If you did not request it, you can ignore this email.</p>
</body>
</html>`))

func (s *service) buildMessage(to, name, code string) (domain.EmailMessage, error) {
	salutation := name
	if salutation == "" {
		salutation = genericSalutation
	}
	minutes := int(domain.OTPLifetime.Minutes())

	var buf bytes.Buffer
	err := htmlBody.Execute(&buf, struct {
		Name, AppName, Code string
		Minutes             int
	}{salutation, s.appName, code, minutes})
	if err != nil {
		return domain.EmailMessage{}, err
	}

	text := fmt.Sprintf("Hello %s,\n\nYour %s verification code is %s.\nIt expires in %d minutes.\n\nIf you did not request this code, ignore this email.\n",
		salutation, s.appName, code, minutes)

	return domain.EmailMessage{
		From:     s.from,
		FromName: s.fromName,
		To:       to,
		ToName:   name,
		Subject:  s.appName + " verification code",
		Text:     text,
		HTML:     buf.String(),
	}, nil
}
