package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Nitindeep65/gemini-clone-2.0/internal/domain"
	"github.com/Nitindeep65/gemini-clone-2.0/internal/port"
)

// ProofKind identifies which form of login proof an authentication callback
// carries.
type ProofKind int

const (
	// ProofDirectTokens: access_token + refresh_token in the query string.
	ProofDirectTokens ProofKind = iota
	// ProofCode: a one-time authorization code.
	ProofCode
	// ProofTokenHash: a one-time email verification token hash.
	ProofTokenHash
	// ProofFragmentOnly: no server-visible proof; the provider put the
	// tokens after '#', which never reaches the server.
	ProofFragmentOnly
)

func (k ProofKind) String() string {
	switch k {
	case ProofDirectTokens:
		return "direct_tokens"
	case ProofCode:
		return "code"
	case ProofTokenHash:
		return "token_hash"
	default:
		return "fragment_only"
	}
}

// Proof is a classified login proof extracted from callback query parameters.
type Proof struct {
	Kind         ProofKind
	AccessToken  string
	RefreshToken string
	Code         string
	TokenHash    string
}

// ClassifyProof inspects callback query parameters and picks exactly one
// proof form, in fixed priority order: direct tokens, then authorization
// code, then token hash ("token_hash" or legacy "token"), else fragment-only.
// The order mirrors the provider's observed callback shapes and is kept
// as-is even when multiple forms are present at once.
func ClassifyProof(query map[string]string) Proof {
	if at, rt := query["access_token"], query["refresh_token"]; at != "" && rt != "" {
		return Proof{Kind: ProofDirectTokens, AccessToken: at, RefreshToken: rt}
	}
	if code := query["code"]; code != "" {
		return Proof{Kind: ProofCode, Code: code}
	}
	tokenHash := query["token_hash"]
	if tokenHash == "" {
		tokenHash = query["token"]
	}
	if tokenHash != "" {
		return Proof{Kind: ProofTokenHash, TokenHash: tokenHash}
	}
	return Proof{Kind: ProofFragmentOnly}
}

// AuthService reconciles authentication callbacks against the identity
// provider. One provider call per proof; every path ends in a session
// carrying both tokens and a user, or an error.
type AuthService struct {
	provider port.IdentityProvider
}

// NewAuthService creates a new authentication service.
func NewAuthService(provider port.IdentityProvider) *AuthService {
	return &AuthService{provider: provider}
}

// Establish runs the shared exchange pipeline for a classified proof.
// Proofs are single-use by provider contract: re-running the same code or
// token hash fails at the provider and routes to the error path.
func (s *AuthService) Establish(ctx context.Context, proof Proof) (*domain.Session, error) {
	var (
		session *domain.Session
		err     error
	)

	switch proof.Kind {
	case ProofDirectTokens:
		session, err = s.provider.SetSession(ctx, proof.AccessToken, proof.RefreshToken)
	case ProofCode:
		session, err = s.provider.ExchangeCode(ctx, proof.Code)
	case ProofTokenHash:
		session, err = s.provider.VerifyToken(ctx, proof.TokenHash)
	default:
		return nil, fmt.Errorf("no server-side proof to establish")
	}
	if err != nil {
		return nil, err
	}
	if err := validateSession(session); err != nil {
		return nil, err
	}

	slog.Info("user authenticated", "user_id", session.User.ID, "method", proof.Kind.String())
	return session, nil
}

// AdoptTokens establishes a session from tokens extracted client-side out of
// a URL fragment. Both tokens are required.
func (s *AuthService) AdoptTokens(ctx context.Context, accessToken, refreshToken string) (*domain.Session, error) {
	if accessToken == "" || refreshToken == "" {
		return nil, port.ErrMissingTokens
	}
	session, err := s.provider.SetSession(ctx, accessToken, refreshToken)
	if err != nil {
		return nil, err
	}
	if err := validateSession(session); err != nil {
		return nil, err
	}

	slog.Info("user authenticated", "user_id", session.User.ID, "method", "fragment")
	return session, nil
}

// SendMagicLink asks the provider to email a one-time login link that
// redirects back to the callback entry.
func (s *AuthService) SendMagicLink(ctx context.Context, email, siteURL string) error {
	return s.provider.SendMagicLink(ctx, email, siteURL+"/auth/callback")
}

// ResolveUser verifies an access token with the provider and returns its user.
func (s *AuthService) ResolveUser(ctx context.Context, accessToken string) (*domain.User, error) {
	return s.provider.GetUser(ctx, accessToken)
}

// validateSession enforces the shared success criterion: a provider result
// without both a usable session and a user is treated like an explicit error.
func validateSession(session *domain.Session) error {
	if session == nil || session.AccessToken == "" || session.User == nil || session.User.ID == "" {
		return port.ErrNoSession
	}
	return nil
}
