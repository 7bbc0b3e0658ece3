package domain

import "time"

// RegistrationKind is the constant GSI partition value that lets all
// registrations be listed in created_at order.
const RegistrationKind = "registration"

// MinApplicantAge is the youngest age accepted at submission.
const MinApplicantAge = 18

// MaxDocumentSize bounds each uploaded document (25 KiB).
const MaxDocumentSize = 25 * 1024

// Document kinds stored with a registration.
const (
	DocumentPassport = "passport"
	DocumentNIN      = "nin"
)

// Registration is an accepted applicant submission.
// PK: registration_id. GSI kind-created_at-index orders by submission time.
type Registration struct {
	RegistrationID string    `json:"id" dynamodbav:"registration_id"`
	Kind           string    `json:"-" dynamodbav:"kind"`
	FirstName      string    `json:"first_name" dynamodbav:"first_name"`
	MiddleName     string    `json:"middle_name,omitempty" dynamodbav:"middle_name"`
	LastName       string    `json:"last_name" dynamodbav:"last_name"`
	Email          string    `json:"email" dynamodbav:"email"`
	Phone          string    `json:"phone" dynamodbav:"phone"`
	DOB            string    `json:"dob" dynamodbav:"dob"`
	Age            int       `json:"age" dynamodbav:"age"`
	Sex            string    `json:"sex" dynamodbav:"sex"`
	StateOfOrigin  string    `json:"state_of_origin" dynamodbav:"state_of_origin"`
	State          string    `json:"state" dynamodbav:"state"`
	LGA            string    `json:"lga" dynamodbav:"lga"`
	Address        string    `json:"address" dynamodbav:"address"`
	Landmark       string    `json:"landmark" dynamodbav:"landmark"`
	TrainingArea   string    `json:"training_area" dynamodbav:"training_area"`
	PassportKey    string    `json:"passport_key" dynamodbav:"passport_key"`
	PassportType   string    `json:"passport_type" dynamodbav:"passport_type"`
	NINKey         string    `json:"nin_key" dynamodbav:"nin_key"`
	NINType        string    `json:"nin_type" dynamodbav:"nin_type"`
	CreatedAt      time.Time `json:"created" dynamodbav:"created_at"`
}

// DocumentKey returns the object key and content type for a document kind.
func (r *Registration) DocumentKey(kind string) (key, contentType string, ok bool) {
	switch kind {
	case DocumentPassport:
		return r.PassportKey, r.PassportType, r.PassportKey != ""
	case DocumentNIN:
		return r.NINKey, r.NINType, r.NINKey != ""
	}
	return "", "", false
}
