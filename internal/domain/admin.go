package domain

import "time"

// RoleAdmin is the only role allowed on the dashboard routes.
const RoleAdmin = "admin"

// Admin is a dashboard operator.
// PK: admin_id. GSI email-index for login lookups.
type Admin struct {
	AdminID      string    `json:"id" dynamodbav:"admin_id"`
	Email        string    `json:"email" dynamodbav:"email"`
	PasswordHash string    `json:"-" dynamodbav:"password_hash"`
	Role         string    `json:"role" dynamodbav:"role"`
	Enable       bool      `json:"enable" dynamodbav:"enable"`
	CreatedAt    time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt    time.Time `json:"updated" dynamodbav:"updated_at"`
}
