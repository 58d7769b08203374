package port

import (
	"context"

	"github.com/Nitindeep65/gemini-clone-2.0/internal/domain"
)

// Completer abstracts the generative-text backend.
// Implementations can target Gemini, Ollama, or any compatible API.
type Completer interface {
	// ModelName returns the identifier of the model being used.
	ModelName() string

	// Chat continues a conversation: prior messages plus the new user text
	// in, reply text out.
	Chat(ctx context.Context, history []domain.Message, userMessage string) (string, error)

	// Search answers a single-shot query with recent search queries folded
	// into the prompt as context.
	Search(ctx context.Context, query string, recentQueries []string) (string, error)
}
