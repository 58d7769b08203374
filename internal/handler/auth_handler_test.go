package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/Nitindeep65/gemini-clone-2.0/internal/domain"
	"github.com/Nitindeep65/gemini-clone-2.0/internal/middleware"
	"github.com/Nitindeep65/gemini-clone-2.0/internal/port"
	"github.com/Nitindeep65/gemini-clone-2.0/internal/service"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	session  *domain.Session
	err      error
	lastCall string
}

func (f *fakeProvider) SetSession(_ context.Context, _, _ string) (*domain.Session, error) {
	f.lastCall = "set_session"
	return f.session, f.err
}

func (f *fakeProvider) ExchangeCode(_ context.Context, _ string) (*domain.Session, error) {
	f.lastCall = "exchange_code"
	return f.session, f.err
}

func (f *fakeProvider) VerifyToken(_ context.Context, _ string) (*domain.Session, error) {
	f.lastCall = "verify_token"
	return f.session, f.err
}

func (f *fakeProvider) SendMagicLink(_ context.Context, email, _ string) error {
	f.lastCall = "send_magic_link:" + email
	return f.err
}

func (f *fakeProvider) GetUser(_ context.Context, _ string) (*domain.User, error) {
	f.lastCall = "get_user"
	if f.err != nil {
		return nil, f.err
	}
	return f.session.User, nil
}

func sessionForUser(id, email string) *domain.Session {
	return &domain.Session{
		AccessToken:  "at-1",
		RefreshToken: "rt-1",
		TokenType:    "bearer",
		User:         &domain.User{ID: id, Email: email},
	}
}

func newAuthTestApp(provider port.IdentityProvider) *fiber.App {
	app := fiber.New()
	h := NewAuthHandler(
		service.NewAuthService(provider),
		"http://localhost:3000",
		CookieSettings{Secure: false, MaxAge: 604800},
	)
	h.Register(app)
	return app
}

func respBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func cookieByName(resp *http.Response, name string) *http.Cookie {
	for _, ck := range resp.Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

func TestCallback_DirectTokensSetsCookiesAndRedirects(t *testing.T) {
	provider := &fakeProvider{session: sessionForUser("user-1", "a@b.c")}
	app := newAuthTestApp(provider)

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?access_token=at-1&refresh_token=rt-1", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, "set_session", provider.lastCall)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/dashboard", resp.Header.Get("Location"))

	token := cookieByName(resp, middleware.CookieToken)
	require.NotNil(t, token)
	assert.Equal(t, "at-1", token.Value)
	assert.True(t, token.HttpOnly)
	assert.Equal(t, "/", token.Path)
	assert.Equal(t, 604800, token.MaxAge)
	assert.Equal(t, http.SameSiteLaxMode, token.SameSite)
	assert.False(t, token.Secure)

	userCk := cookieByName(resp, middleware.CookieUser)
	require.NotNil(t, userCk)
	assert.False(t, userCk.HttpOnly)
	decoded, err := url.QueryUnescape(userCk.Value)
	require.NoError(t, err)
	var user domain.User
	require.NoError(t, json.Unmarshal([]byte(decoded), &user))
	assert.Equal(t, "user-1", user.ID)
	assert.Equal(t, "a@b.c", user.Email)
}

func TestCallback_HonorsNextParam(t *testing.T) {
	app := newAuthTestApp(&fakeProvider{session: sessionForUser("user-1", "a@b.c")})

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=abc&next=%2Fsettings", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/settings", resp.Header.Get("Location"))
}

func TestCallback_CodeAndTokenHashDispatch(t *testing.T) {
	tests := []struct {
		query    string
		wantCall string
	}{
		{"code=abc", "exchange_code"},
		{"token_hash=th", "verify_token"},
		{"token=legacy", "verify_token"},
	}

	for _, tt := range tests {
		t.Run(tt.wantCall+"/"+tt.query, func(t *testing.T) {
			provider := &fakeProvider{session: sessionForUser("user-1", "a@b.c")}
			app := newAuthTestApp(provider)

			req := httptest.NewRequest(http.MethodGet, "/auth/callback?"+tt.query, nil)
			resp, err := app.Test(req)
			require.NoError(t, err)

			assert.Equal(t, tt.wantCall, provider.lastCall)
			assert.Equal(t, "/dashboard", resp.Header.Get("Location"))
		})
	}
}

func TestCallback_ErrorRedirectsToLoginWithReason(t *testing.T) {
	tests := []struct {
		name    string
		session *domain.Session
		err     error
		wantMsg string
	}{
		{"provider message passes through", nil, &port.ProviderError{Message: "Email link is invalid or has expired"}, "Email link is invalid or has expired"},
		{"inconsistent success", nil, nil, "No session created"},
		{"unexpected error", nil, errors.New("dial tcp: timeout"), "Authentication failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newAuthTestApp(&fakeProvider{session: tt.session, err: tt.err})

			req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=abc", nil)
			resp, err := app.Test(req)
			require.NoError(t, err)

			assert.Equal(t, fiber.StatusFound, resp.StatusCode)
			assert.Equal(t, "/login?error="+url.QueryEscape(tt.wantMsg), resp.Header.Get("Location"))
			assert.Nil(t, cookieByName(resp, middleware.CookieToken))
		})
	}
}

func TestCallback_NoProofServesFragmentPage(t *testing.T) {
	app := newAuthTestApp(&fakeProvider{})

	req := httptest.NewRequest(http.MethodGet, "/auth/callback", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	page, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(page), "/api/auth/callback-fragment")
	assert.Contains(t, string(page), "location.hash")
}

func TestCallbackFragment_AdoptsTokens(t *testing.T) {
	provider := &fakeProvider{session: sessionForUser("user-1", "a@b.c")}
	app := newAuthTestApp(provider)

	payload := `{"access_token":"at-1","refresh_token":"rt-1","token_type":"bearer","expires_at":1750000000}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/callback-fragment", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := respBody(t, resp)
	assert.Equal(t, true, body["success"])
	require.NotNil(t, body["user"])
	require.NotNil(t, cookieByName(resp, middleware.CookieToken))
	require.NotNil(t, cookieByName(resp, middleware.CookieUser))
}

func TestCallbackFragment_MissingTokenIs400(t *testing.T) {
	app := newAuthTestApp(&fakeProvider{session: sessionForUser("user-1", "a@b.c")})

	req := httptest.NewRequest(http.MethodPost, "/api/auth/callback-fragment", strings.NewReader(`{"access_token":"at-1"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	body := respBody(t, resp)
	assert.Equal(t, "Missing access token or refresh token", body["error"])
	assert.Equal(t, false, body["success"])
}

func TestCallbackFragment_ProviderMessageAlwaysPassesThroughAs400(t *testing.T) {
	// A provider-authored message that happens to equal the generic text is
	// still a provider rejection, not an internal failure.
	app := newAuthTestApp(&fakeProvider{err: &port.ProviderError{Message: "Authentication failed"}})

	payload := `{"access_token":"at-1","refresh_token":"rt-1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/callback-fragment", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Authentication failed", respBody(t, resp)["error"])
}

func TestCallbackFragment_ProviderFailureIs500(t *testing.T) {
	app := newAuthTestApp(&fakeProvider{err: errors.New("upstream down")})

	payload := `{"access_token":"at-1","refresh_token":"rt-1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/callback-fragment", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Authentication failed", respBody(t, resp)["error"])
}

func TestSendMagicLink(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		provider := &fakeProvider{}
		app := newAuthTestApp(provider)

		req := httptest.NewRequest(http.MethodPost, "/api/auth/send-otp", strings.NewReader(`{"phoneOrEmail":"a@b.c"}`))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		body := respBody(t, resp)
		assert.Equal(t, "Check your email for the login link!", body["message"])
		assert.Equal(t, "send_magic_link:a@b.c", provider.lastCall)
	})

	t.Run("missing email", func(t *testing.T) {
		app := newAuthTestApp(&fakeProvider{})

		req := httptest.NewRequest(http.MethodPost, "/api/auth/send-otp", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Email is required", respBody(t, resp)["error"])
	})

	t.Run("provider error passes through", func(t *testing.T) {
		app := newAuthTestApp(&fakeProvider{err: &port.ProviderError{Message: "email rate limit exceeded"}})

		req := httptest.NewRequest(http.MethodPost, "/api/auth/send-otp", strings.NewReader(`{"phoneOrEmail":"a@b.c"}`))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "email rate limit exceeded", respBody(t, resp)["error"])
	})
}

func TestUser(t *testing.T) {
	t.Run("no cookies", func(t *testing.T) {
		app := newAuthTestApp(&fakeProvider{})

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/auth/user", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "No authentication token", respBody(t, resp)["error"])
	})

	t.Run("user cookie wins without a provider call", func(t *testing.T) {
		provider := &fakeProvider{}
		app := newAuthTestApp(provider)

		req := httptest.NewRequest(http.MethodGet, "/api/auth/user", nil)
		req.AddCookie(&http.Cookie{
			Name:  middleware.CookieUser,
			Value: url.QueryEscape(`{"id":"user-1","email":"a@b.c"}`),
		})
		resp, err := app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		body := respBody(t, resp)
		user := body["user"].(map[string]any)
		assert.Equal(t, "user-1", user["id"])
		assert.Empty(t, provider.lastCall)
	})

	t.Run("falls back to token verification", func(t *testing.T) {
		provider := &fakeProvider{session: sessionForUser("user-1", "a@b.c")}
		app := newAuthTestApp(provider)

		req := httptest.NewRequest(http.MethodGet, "/api/auth/user", nil)
		req.AddCookie(&http.Cookie{Name: middleware.CookieToken, Value: "at-1"})
		resp, err := app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, "get_user", provider.lastCall)
	})

	t.Run("invalid token", func(t *testing.T) {
		app := newAuthTestApp(&fakeProvider{err: errors.New("401")})

		req := httptest.NewRequest(http.MethodGet, "/api/auth/user", nil)
		req.AddCookie(&http.Cookie{Name: middleware.CookieToken, Value: "stale"})
		resp, err := app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Invalid token", respBody(t, resp)["error"])
	})
}

func TestLogout_ClearsBothCookies(t *testing.T) {
	app := newAuthTestApp(&fakeProvider{})

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	for _, name := range []string{middleware.CookieToken, middleware.CookieUser} {
		ck := cookieByName(resp, name)
		require.NotNil(t, ck, name)
		assert.Empty(t, ck.Value)
		assert.True(t, ck.Expires.Before(time.Now()), "cookie %s should be expired", name)
	}
}
