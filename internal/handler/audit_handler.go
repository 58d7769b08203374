package handler

import (
	"context"
	"strconv"

	"github.com/Nitindeep65/gemini-clone-2.0/internal/domain"
	"github.com/gofiber/fiber/v3"
)

// AuditReader lists persisted audit records.
type AuditReader interface {
	ListAuditRecords(ctx context.Context, limit int) ([]domain.AuditRecord, error)
}

// AuditHandler exposes the request audit log for debugging.
type AuditHandler struct {
	store AuditReader
}

// NewAuditHandler creates a new audit handler.
func NewAuditHandler(store AuditReader) *AuditHandler {
	return &AuditHandler{store: store}
}

// Register sets up audit routes.
func (h *AuditHandler) Register(router fiber.Router) {
	router.Get("/audit", h.List)
}

// List returns recent audit records, newest first.
func (h *AuditHandler) List(c fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "50"))

	records, err := h.store.ListAuditRecords(c.Context(), limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"logs":  records,
		"count": len(records),
	})
}
