package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/Nitindeep65/gemini-clone-2.0/internal/domain"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureWriter struct {
	mu      sync.Mutex
	records []domain.AuditRecord
	done    chan struct{}
}

func newCaptureWriter() *captureWriter {
	return &captureWriter{done: make(chan struct{}, 8)}
}

func (w *captureWriter) WriteAudit(rec domain.AuditRecord) error {
	w.mu.Lock()
	w.records = append(w.records, rec)
	w.mu.Unlock()
	w.done <- struct{}{}
	return nil
}

func (w *captureWriter) wait(t *testing.T) domain.AuditRecord {
	t.Helper()
	select {
	case <-w.done:
	case <-time.After(2 * time.Second):
		t.Fatal("no audit record written")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.records[len(w.records)-1]
}

func TestAuditMiddleware_RecordsRequest(t *testing.T) {
	writer := newCaptureWriter()

	app := fiber.New()
	app.Use(AuditMiddleware(writer))
	app.Get("/api/data", func(c fiber.Ctx) error {
		c.Locals("user", &domain.UserContext{UserID: "user-1"})
		return c.SendString("ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/data", nil)
	req.Header.Set("User-Agent", "test-agent")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	rec := writer.wait(t)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "user-1", rec.UserID)
	assert.Equal(t, "http_request", rec.Action)
	assert.Equal(t, "/api/data", rec.Resource)
	assert.Equal(t, "test-agent", rec.UserAgent)

	var details map[string]any
	require.NoError(t, json.Unmarshal([]byte(rec.Details), &details))
	assert.Equal(t, "GET", details["method"])
	assert.Equal(t, float64(fiber.StatusOK), details["status"])
}

func TestAuditMiddleware_AnonymousWhenNoUserContext(t *testing.T) {
	writer := newCaptureWriter()

	app := fiber.New()
	app.Use(AuditMiddleware(writer))
	app.Get("/", func(c fiber.Ctx) error { return c.SendString("ok") })

	_, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	rec := writer.wait(t)
	assert.Equal(t, "anonymous", rec.UserID)
}
