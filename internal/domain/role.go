package domain

// Role names carried in access tokens and stored on the user record.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)
