package chat

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Nitindeep65/gemini-clone-2.0/internal/domain"
	"github.com/Nitindeep65/gemini-clone-2.0/internal/port"
)

// Manager hands out one Store per user, rehydrating from persistence on
// first access. Requests for the same user share a single mutex-serialized
// Store for the life of the process.
type Manager struct {
	mu      sync.Mutex
	stores  map[string]*Store
	persist port.ChatPersistence
}

// NewManager creates a manager backed by persist.
func NewManager(persist port.ChatPersistence) *Manager {
	return &Manager{
		stores:  make(map[string]*Store),
		persist: persist,
	}
}

// ForUser returns the user's store, loading persisted state the first time.
// A failed load logs and starts empty rather than failing the request.
func (m *Manager) ForUser(ctx context.Context, userID string) *Store {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.stores[userID]; ok {
		return s
	}

	s := NewStore(userID, m.persist)
	state, err := m.persist.LoadState(ctx, userID)
	if err != nil {
		slog.Error("failed to load chat state", "user_id", userID, "error", err)
		state = &domain.ChatState{}
	}
	s.hydrate(state)
	m.stores[userID] = s
	return s
}
