package port

import (
	"context"

	"github.com/Nitindeep65/gemini-clone-2.0/internal/domain"
)

// ChatPersistence is the injected durability port for conversation state.
// The store writes through on every mutation and reads the full state back
// once, on rehydration. Implementations must be safe for concurrent use.
type ChatPersistence interface {
	// LoadState returns the user's full persisted state. A user with no
	// prior state gets an empty (non-nil) ChatState.
	LoadState(ctx context.Context, userID string) (*domain.ChatState, error)

	// SaveRoom inserts or updates a room's name and last activity.
	SaveRoom(ctx context.Context, userID string, room domain.ChatRoom) error

	// DeleteRoom removes a room and its messages. Search history is
	// unaffected by room deletion.
	DeleteRoom(ctx context.Context, userID, roomID string) error

	// SaveMessage appends a message to a room and bumps its last activity.
	SaveMessage(ctx context.Context, userID, roomID string, msg domain.Message) error

	// SaveSearchItem appends one entry to the search log.
	SaveSearchItem(ctx context.Context, userID string, item domain.SearchHistoryItem) error

	Close() error
}

// AuditWriter defines how audit records are persisted.
type AuditWriter interface {
	WriteAudit(rec domain.AuditRecord) error
}
