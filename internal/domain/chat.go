package domain

import "time"

// Message roles.
const (
	RoleUser = "user"
	RoleAI   = "ai"
)

// Message is a single chat message. Immutable once created; ordering within
// a room is insertion order.
type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Role      string    `json:"role"`
	Timestamp time.Time `json:"timestamp"`
	Image     string    `json:"image,omitempty"`
}

// ChatRoom is a named, ordered sequence of messages.
type ChatRoom struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Messages     []Message `json:"messages"`
	LastActivity time.Time `json:"lastActivity"`
}

// SearchHistoryItem is one entry of the append-only search log.
// The log is independent of room deletion and never time-pruned.
type SearchHistoryItem struct {
	ID        string    `json:"id"`
	Query     string    `json:"query"`
	Response  string    `json:"response"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatState is a user's full persisted conversation state, as loaded
// from the persistence port on store rehydration.
type ChatState struct {
	Rooms         []ChatRoom          `json:"chatRooms"`
	SearchHistory []SearchHistoryItem `json:"searchHistory"`
}
