package identity

// User is the authenticated caller, as reported by the identity provider.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}
