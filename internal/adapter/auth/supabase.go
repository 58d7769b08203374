package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/Nitindeep65/gemini-clone-2.0/internal/domain"
	"github.com/Nitindeep65/gemini-clone-2.0/internal/port"
)

// SupabaseProvider implements port.IdentityProvider against the Supabase
// GoTrue REST API using the project's anon key.
type SupabaseProvider struct {
	baseURL    string // e.g. https://xyz.supabase.co
	anonKey    string
	httpClient *http.Client
}

// NewSupabaseProvider creates a new Supabase auth provider.
func NewSupabaseProvider(baseURL, anonKey string) *SupabaseProvider {
	return &SupabaseProvider{
		baseURL:    baseURL,
		anonKey:    anonKey,
		httpClient: &http.Client{},
	}
}

// SetSession adopts an access/refresh token pair. The provider validates the
// access token by resolving its user; the pair itself is returned unchanged.
func (s *SupabaseProvider) SetSession(ctx context.Context, accessToken, refreshToken string) (*domain.Session, error) {
	user, err := s.GetUser(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	return &domain.Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		User:         user,
	}, nil
}

// ExchangeCode exchanges a one-time authorization code for a session.
func (s *SupabaseProvider) ExchangeCode(ctx context.Context, code string) (*domain.Session, error) {
	payload := map[string]string{"auth_code": code}
	body, err := s.post(ctx, "/auth/v1/token?grant_type=pkce", payload, "")
	if err != nil {
		return nil, fmt.Errorf("supabase: code exchange: %w", err)
	}

	var session domain.Session
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, fmt.Errorf("supabase: decode session: %w", err)
	}
	return &session, nil
}

// VerifyToken verifies a one-time email token hash and returns the session.
func (s *SupabaseProvider) VerifyToken(ctx context.Context, tokenHash string) (*domain.Session, error) {
	payload := map[string]string{
		"type":       "email",
		"token_hash": tokenHash,
	}
	body, err := s.post(ctx, "/auth/v1/verify", payload, "")
	if err != nil {
		return nil, fmt.Errorf("supabase: verify token: %w", err)
	}

	var session domain.Session
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, fmt.Errorf("supabase: decode session: %w", err)
	}
	return &session, nil
}

// SendMagicLink asks the provider to email a one-time login link.
func (s *SupabaseProvider) SendMagicLink(ctx context.Context, email, redirectTo string) error {
	payload := map[string]any{
		"email":       email,
		"create_user": true,
		"data":        map[string]string{"redirect_to": "/dashboard"},
	}
	path := "/auth/v1/otp?redirect_to=" + url.QueryEscape(redirectTo)
	if _, err := s.post(ctx, path, payload, ""); err != nil {
		return fmt.Errorf("supabase: send magic link: %w", err)
	}
	return nil
}

// GetUser fetches the user that owns the given access token.
func (s *SupabaseProvider) GetUser(ctx context.Context, accessToken string) (*domain.User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, fmt.Errorf("supabase: create user request: %w", err)
	}
	req.Header.Set("apikey", s.anonKey)
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("supabase: fetch user: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeAPIError(resp)
	}

	var user domain.User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("supabase: decode user: %w", err)
	}
	return &user, nil
}

// post sends a JSON POST to a GoTrue path and returns the raw response body.
func (s *SupabaseProvider) post(ctx context.Context, path string, payload any, bearer string) ([]byte, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", s.anonKey)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeAPIError(resp)
	}

	return io.ReadAll(resp.Body)
}

// decodeAPIError normalizes GoTrue error payloads, which vary in shape
// ("error_description", "msg", "message", "error") across endpoints.
// Provider-authored messages become ProviderError so they can pass through
// to the user verbatim.
func decodeAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var payload struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
		Msg              string `json:"msg"`
		Message          string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, msg := range []string{payload.ErrorDescription, payload.Msg, payload.Message, payload.Error} {
			if msg != "" {
				return &port.ProviderError{Message: msg}
			}
		}
	}
	return fmt.Errorf("supabase API error (%d): %s", resp.StatusCode, string(body))
}
