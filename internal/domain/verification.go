package domain

// PendingRegistration is staged in the ephemeral store under a random verification
// token until the owner clicks the emailed link. Password holds the bcrypt hash.
type PendingRegistration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ResetTicket is staged under a random reset token for the forgot-password flow.
type ResetTicket struct {
	UserID string `json:"userId"`
}
