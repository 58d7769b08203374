package service

import (
	"context"

	"github.com/Nitindeep65/gemini-clone-2.0/internal/domain"
	"github.com/Nitindeep65/gemini-clone-2.0/internal/port"
)

// ChatService relays completion requests to the configured backend.
// No retry, no timeout of its own; the caller's context governs the call.
type ChatService struct {
	ai port.Completer
}

// NewChatService creates a new chat relay service.
func NewChatService(ai port.Completer) *ChatService {
	return &ChatService{ai: ai}
}

// Reply produces the assistant's reply. Search mode is a single-shot
// completion with recent query context; chat mode continues the history.
func (s *ChatService) Reply(ctx context.Context, history []domain.Message, userMessage string, isSearch bool, recentQueries []string) (string, error) {
	if isSearch {
		return s.ai.Search(ctx, userMessage, recentQueries)
	}
	return s.ai.Chat(ctx, history, userMessage)
}

// ModelName reports the backing model identifier.
func (s *ChatService) ModelName() string {
	return s.ai.ModelName()
}
