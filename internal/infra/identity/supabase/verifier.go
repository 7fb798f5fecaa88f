package supabase

import (
	"context"
	"errors"
	"fmt"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/bryanwahyu/aeo-tracker/internal/domain"
	"github.com/bryanwahyu/aeo-tracker/internal/domain/identity"
)

// Claims carried by Supabase access tokens.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Verifier validates Supabase access tokens. Asymmetric tokens are checked
// against the project's JWKS, HS256 tokens against the shared JWT secret.
type Verifier struct {
	jwks   keyfunc.Keyfunc
	secret []byte
	logger *zap.Logger
}

// NewVerifier needs at least one of jwksURL or secret.
func NewVerifier(ctx context.Context, jwksURL, secret string, logger *zap.Logger) (*Verifier, error) {
	if jwksURL == "" && secret == "" {
		return nil, errors.New("either a JWKS URL or a JWT secret is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	v := &Verifier{logger: logger}
	if secret != "" {
		v.secret = []byte(secret)
	}
	if jwksURL != "" {
		jwks, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
		if err != nil {
			return nil, fmt.Errorf("failed to create JWKS client: %w", err)
		}
		v.jwks = jwks
		logger.Info("JWT verifier initialized", zap.String("jwks_url", jwksURL))
	}
	return v, nil
}

// ValidateToken implements identity.Verifier.
func (v *Verifier) ValidateToken(_ context.Context, tokenString string) (*identity.User, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, v.keyFunc,
		jwt.WithValidMethods([]string{"HS256", "RS256", "ES256"}),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		v.logger.Debug("token rejected", zap.Error(err))
		return nil, unauthorized()
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || claims.Subject == "" {
		return nil, unauthorized()
	}
	// reject anon / service tokens
	if claims.Role != "authenticated" {
		v.logger.Warn("token has invalid role", zap.String("role", claims.Role), zap.String("user_id", claims.Subject))
		return nil, unauthorized()
	}

	return &identity.User{ID: claims.Subject, Email: claims.Email, Role: claims.Role}, nil
}

func (v *Verifier) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); ok {
		if v.secret == nil {
			return nil, errors.New("HS256 tokens are not accepted")
		}
		return v.secret, nil
	}
	if v.jwks == nil {
		return nil, errors.New("no JWKS configured")
	}
	return v.jwks.Keyfunc(token)
}

func unauthorized() error {
	return &domain.UnauthorizedError{Message: "Unauthorized"}
}
