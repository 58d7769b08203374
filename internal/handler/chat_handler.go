package handler

import (
	"context"
	"log/slog"
	"time"

	"github.com/Nitindeep65/gemini-clone-2.0/internal/chat"
	"github.com/Nitindeep65/gemini-clone-2.0/internal/domain"
	"github.com/Nitindeep65/gemini-clone-2.0/internal/middleware"
	"github.com/Nitindeep65/gemini-clone-2.0/internal/service"
	"github.com/gofiber/fiber/v3"
)

// replyErrorText is appended to the conversation when the completion
// backend fails, so the failure shows up as an assistant message.
const replyErrorText = "Sorry, I encountered an error. Please try again."

// ChatHandler handles the completion relay and room state endpoints.
type ChatHandler struct {
	chatService *service.ChatService
	manager     *chat.Manager
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(chatService *service.ChatService, manager *chat.Manager) *ChatHandler {
	return &ChatHandler{chatService: chatService, manager: manager}
}

// Register sets up chat routes on the guarded API group.
func (h *ChatHandler) Register(router fiber.Router) {
	router.Post("/chatroom/:id/reply", h.Reply)

	rooms := router.Group("/chatrooms")
	rooms.Get("/", h.ListRooms)
	rooms.Post("/", h.CreateRoom)
	rooms.Delete("/:id", h.DeleteRoom)
	rooms.Put("/:id/current", h.SetCurrentRoom)
	rooms.Get("/:id/messages", h.Messages)

	router.Get("/search-history", h.SearchHistory)
}

// Reply relays a message to the completion backend and appends both sides
// of the exchange to the room. The user message goes into the store before
// the relay sees a snapshot; the reply is appended only after the relay
// resolves.
func (h *ChatHandler) Reply(c fiber.Ctx) error {
	uc := middleware.GetUserContext(c)
	if uc == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "success": false})
	}

	var body struct {
		Messages      []domain.Message `json:"messages"`
		UserMessage   string           `json:"userMessage"`
		IsSearch      bool             `json:"isSearch"`
		SearchHistory []string         `json:"searchHistory"`
	}
	if err := c.Bind().JSON(&body); err != nil || body.UserMessage == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request", "success": false})
	}

	store := h.manager.ForUser(c.Context(), uc.UserID)
	store.EnsureRoom(c.Params("id"), "")
	store.AppendMessage(domain.Message{Text: body.UserMessage, Role: domain.RoleUser})

	// History for the completion call: the caller's snapshot when given,
	// else everything in the room before the message just appended.
	history := body.Messages
	if history == nil {
		// The view can be emptied by a concurrent room switch or delete
		// between the append above and this snapshot.
		if msgs := store.CurrentMessages(); len(msgs) > 0 {
			history = msgs[:len(msgs)-1]
		}
	}

	queries := body.SearchHistory
	if body.IsSearch && queries == nil {
		for _, item := range store.RecentSearchHistory() {
			queries = append(queries, item.Query)
		}
	}

	replyCtx, cancel := context.WithTimeout(c.Context(), 2*time.Minute)
	defer cancel()

	reply, err := h.chatService.Reply(replyCtx, history, body.UserMessage, body.IsSearch, queries)
	if err != nil {
		slog.Error("completion relay failed", "user_id", uc.UserID, "is_search", body.IsSearch, "error", err)
		store.AppendMessage(domain.Message{Text: replyErrorText, Role: domain.RoleAI})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to get response from Gemini",
			"success": false,
		})
	}

	store.AppendMessage(domain.Message{Text: reply, Role: domain.RoleAI})
	if body.IsSearch {
		store.AppendSearchHistory(body.UserMessage, reply)
	}

	return c.JSON(fiber.Map{
		"reply":   reply,
		"success": true,
	})
}

// ListRooms returns the user's rooms in creation order.
func (h *ChatHandler) ListRooms(c fiber.Ctx) error {
	uc := middleware.GetUserContext(c)
	if uc == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	store := h.manager.ForUser(c.Context(), uc.UserID)
	return c.JSON(fiber.Map{
		"chatRooms":       store.Rooms(),
		"currentChatRoom": store.CurrentRoom(),
	})
}

// CreateRoom allocates a new room and makes it current.
func (h *ChatHandler) CreateRoom(c fiber.Ctx) error {
	uc := middleware.GetUserContext(c)
	if uc == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	var body struct {
		Name string `json:"name"`
	}
	if err := c.Bind().JSON(&body); err != nil || body.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name is required"})
	}

	store := h.manager.ForUser(c.Context(), uc.UserID)
	id := store.CreateRoom(body.Name)
	room, _ := store.Room(id)

	return c.Status(fiber.StatusCreated).JSON(room)
}

// DeleteRoom removes a room; deleting the current room clears the view.
func (h *ChatHandler) DeleteRoom(c fiber.Ctx) error {
	uc := middleware.GetUserContext(c)
	if uc == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	store := h.manager.ForUser(c.Context(), uc.UserID)
	store.DeleteRoom(c.Params("id"))
	return c.JSON(fiber.Map{"success": true})
}

// SetCurrentRoom switches the current-room pointer.
func (h *ChatHandler) SetCurrentRoom(c fiber.Ctx) error {
	uc := middleware.GetUserContext(c)
	if uc == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	store := h.manager.ForUser(c.Context(), uc.UserID)
	id := c.Params("id")
	if _, ok := store.Room(id); !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "chat room not found"})
	}
	store.SetCurrentRoom(id)
	return c.JSON(fiber.Map{"success": true, "currentChatRoom": id})
}

// Messages returns a room's full message sequence.
func (h *ChatHandler) Messages(c fiber.Ctx) error {
	uc := middleware.GetUserContext(c)
	if uc == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	store := h.manager.ForUser(c.Context(), uc.UserID)
	room, ok := store.Room(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "chat room not found"})
	}
	return c.JSON(fiber.Map{"messages": room.Messages})
}

// SearchHistory returns the search log: the last-24h view by default, the
// full log with ?all=true.
func (h *ChatHandler) SearchHistory(c fiber.Ctx) error {
	uc := middleware.GetUserContext(c)
	if uc == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	store := h.manager.ForUser(c.Context(), uc.UserID)
	items := store.RecentSearchHistory()
	if c.Query("all") == "true" {
		items = store.SearchHistory()
	}
	return c.JSON(fiber.Map{"searchHistory": items})
}
