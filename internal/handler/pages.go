package handler

import "github.com/gofiber/fiber/v3"

// PageHandler serves the minimal HTML pages the redirect flows land on.
// Real rendering lives in the frontend; these exist so /login and
// /dashboard resolve when hit directly.
type PageHandler struct{}

// NewPageHandler creates a new page handler.
func NewPageHandler() *PageHandler {
	return &PageHandler{}
}

// Register sets up the public page routes.
func (h *PageHandler) Register(app *fiber.App) {
	app.Get("/login", h.Login)
	app.Get("/", h.Login)
}

// RegisterProtected sets up pages behind the session guard.
func (h *PageHandler) RegisterProtected(router fiber.Router) {
	router.Get("/", h.Dashboard)
}

// Login renders the login placeholder, echoing nothing; the error query
// parameter is read client-side.
func (h *PageHandler) Login(c fiber.Ctx) error {
	c.Type("html")
	return c.SendString(loginPage)
}

// Dashboard renders the dashboard placeholder.
func (h *PageHandler) Dashboard(c fiber.Ctx) error {
	c.Type("html")
	return c.SendString(dashboardPage)
}

// fragmentPage is returned when a callback carries no server-visible proof.
// The provider placed the tokens after '#', which the browser never sends,
// so this page reads window.location.hash, re-POSTs the extracted tokens to
// the same-origin adoption endpoint, and navigates from its JSON result.
const fragmentPage = `<!DOCTYPE html>
<html>
<head>
  <title>Processing Authentication...</title>
</head>
<body>
  <div style="text-align: center; padding: 50px; font-family: Arial, sans-serif;">
    <h2>Processing your authentication...</h2>
    <p>Please wait while we verify your login.</p>
  </div>
  <script>
    const hash = window.location.hash.substring(1);
    const params = new URLSearchParams(hash);

    const access_token = params.get('access_token');
    const refresh_token = params.get('refresh_token');
    const token_type = params.get('token_type');
    const expires_at = params.get('expires_at');
    const type = params.get('type');

    if (access_token && refresh_token) {
      fetch('/api/auth/callback-fragment', {
        method: 'POST',
        headers: {
          'Content-Type': 'application/json',
        },
        body: JSON.stringify({
          access_token,
          refresh_token,
          token_type,
          expires_at: expires_at ? parseInt(expires_at, 10) : 0,
          type
        })
      })
      .then(response => response.json())
      .then(data => {
        if (data.success) {
          window.location.href = '/dashboard';
        } else {
          window.location.href = '/login?error=' + encodeURIComponent(data.error || 'Authentication failed');
        }
      })
      .catch(() => {
        window.location.href = '/login?error=Authentication failed';
      });
    } else {
      window.location.href = '/login?error=Invalid authentication parameters';
    }
  </script>
</body>
</html>
`

const loginPage = `<!DOCTYPE html>
<html>
<head>
  <title>Sign in</title>
</head>
<body>
  <div style="text-align: center; padding: 50px; font-family: Arial, sans-serif;">
    <h2>Sign in</h2>
    <p>Enter your email to receive a one-time login link.</p>
    <form onsubmit="sendLink(event)">
      <input id="email" type="email" placeholder="you@example.com" required>
      <button type="submit">Send link</button>
    </form>
    <p id="status"></p>
  </div>
  <script>
    const err = new URLSearchParams(window.location.search).get('error');
    if (err) document.getElementById('status').textContent = err;

    function sendLink(e) {
      e.preventDefault();
      fetch('/api/auth/send-otp', {
        method: 'POST',
        headers: { 'Content-Type': 'application/json' },
        body: JSON.stringify({ phoneOrEmail: document.getElementById('email').value })
      })
      .then(r => r.json())
      .then(data => {
        document.getElementById('status').textContent = data.message || data.error || '';
      });
    }
  </script>
</body>
</html>
`

const dashboardPage = `<!DOCTYPE html>
<html>
<head>
  <title>Dashboard</title>
</head>
<body>
  <div style="text-align: center; padding: 50px; font-family: Arial, sans-serif;">
    <h2>Dashboard</h2>
    <p>You are signed in.</p>
  </div>
</body>
</html>
`
