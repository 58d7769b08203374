package middleware

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/Nitindeep65/gemini-clone-2.0/internal/domain"
	"github.com/Nitindeep65/gemini-clone-2.0/internal/port"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

// AuditMiddleware records every request via the persistence layer.
func AuditMiddleware(writer port.AuditWriter) fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()

		// Capture request data BEFORE handler execution (Fiber reuses context objects)
		method := c.Method()
		path := c.Path()
		ip := c.IP()
		userAgent := c.Get("User-Agent")

		err := c.Next()

		userID := "anonymous"
		if uc := GetUserContext(c); uc != nil {
			userID = uc.UserID
		}

		statusCode := c.Response().StatusCode()
		details, _ := json.Marshal(map[string]any{
			"method":      method,
			"path":        path,
			"status":      statusCode,
			"duration_ms": time.Since(start).Milliseconds(),
		})

		rec := domain.AuditRecord{
			ID:        uuid.NewString(),
			UserID:    userID,
			Action:    "http_request",
			Resource:  path,
			Details:   string(details),
			IP:        ip,
			UserAgent: userAgent,
			CreatedAt: time.Now(),
		}

		// Write asynchronously; all request values are captured above
		go func() {
			if writeErr := writer.WriteAudit(rec); writeErr != nil {
				slog.Error("failed to write audit record", "error", writeErr)
			}
		}()

		return err
	}
}
