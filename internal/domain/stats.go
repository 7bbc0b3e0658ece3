package domain

import "time"

// RegistrationCountsID is the key of the cached per-state counts item.
const RegistrationCountsID = "registration_counts"

// StateCount is the number of registrations for one state.
type StateCount struct {
	State string `json:"state" dynamodbav:"state"`
	Count int    `json:"count" dynamodbav:"count"`
}

// LiveStats is the cached aggregate served on the public stats endpoint.
// PK: stat_id.
type LiveStats struct {
	StatID      string       `json:"-" dynamodbav:"stat_id"`
	Total       int          `json:"total" dynamodbav:"total"`
	StateCounts []StateCount `json:"state_counts" dynamodbav:"state_counts"`
	LastUpdated time.Time    `json:"last_updated" dynamodbav:"last_updated"`
}
