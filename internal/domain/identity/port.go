package identity

import "context"

// Verifier validates a bearer token. Invalid tokens return domain.ErrUnauthorized.
type Verifier interface {
	ValidateToken(ctx context.Context, token string) (*User, error)
}

// Provider issues passwordless login links and ends sessions.
type Provider interface {
	SendLoginLink(ctx context.Context, email, redirectTo string) error
	Logout(ctx context.Context, token string) error
}
