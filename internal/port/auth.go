package port

import (
	"context"

	"github.com/Nitindeep65/gemini-clone-2.0/internal/domain"
)

// IdentityProvider abstracts the hosted auth backend (Supabase GoTrue).
// Every call maps to one externally observable provider flow; the provider's
// internal protocol is opaque to this system. Implementations must return a
// session that carries both tokens and a user, or an error, never a partial
// success.
type IdentityProvider interface {
	// SetSession adopts an existing access/refresh token pair as a session.
	// The provider validates the access token and reports the owning user.
	SetSession(ctx context.Context, accessToken, refreshToken string) (*domain.Session, error)

	// ExchangeCode exchanges a one-time authorization code for a session.
	// Codes are single-use by provider contract; a second exchange fails.
	ExchangeCode(ctx context.Context, code string) (*domain.Session, error)

	// VerifyToken verifies a one-time email verification token hash and
	// returns the resulting session. Single-use, like ExchangeCode.
	VerifyToken(ctx context.Context, tokenHash string) (*domain.Session, error)

	// SendMagicLink asks the provider to email a one-time login link that
	// redirects back to redirectTo when followed.
	SendMagicLink(ctx context.Context, email, redirectTo string) error

	// GetUser fetches the user that owns the given access token.
	GetUser(ctx context.Context, accessToken string) (*domain.User, error)
}
