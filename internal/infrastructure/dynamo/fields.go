package dynamo

// Attribute names on the users table.
const (
	fieldUserID       = "user_id"
	fieldEmail        = "email"
	fieldPasswordHash = "password_hash"
	fieldAvatar       = "avatar"
	fieldUpdatedAt    = "updated_at"
)

const emailIndex = "email-index"
