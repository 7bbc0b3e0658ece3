package domain

// EmailMessage is one transactional email with both a plain-text and an HTML body.
type EmailMessage struct {
	From     string
	FromName string
	To       string
	ToName   string
	Subject  string
	Text     string
	HTML     string
}
