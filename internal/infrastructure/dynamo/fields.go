package dynamo

// DynamoDB attribute names used in keys and expressions across all repos.
const (
	fieldEmail          = "email"
	fieldVerified       = "verified"
	fieldRegistrationID = "registration_id"
	fieldKind           = "kind"
	fieldCreatedAtKey   = "created_at_key"
	fieldState          = "state"
	fieldAdminID        = "admin_id"
	fieldStatID         = "stat_id"
	fieldTTL            = "ttl"
)

// GSI names.
const (
	indexEmail         = "email-index"
	indexKindCreatedAt = "kind-created_at_key-index"
)
