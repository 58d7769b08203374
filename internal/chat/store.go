package chat

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Nitindeep65/gemini-clone-2.0/internal/domain"
	"github.com/Nitindeep65/gemini-clone-2.0/internal/port"
	"github.com/google/uuid"
)

// recentWindow bounds the "current" view of the search log. The underlying
// log itself is never pruned.
const recentWindow = 24 * time.Hour

// Store holds one user's conversation state: the authenticated user, the
// chat rooms, a flattened view of the current room's messages, and the
// append-only search log.
//
// All operations are synchronous and mutex-serialized. Durability is a
// write-through side effect of every mutation via the injected persistence
// port; persistence failures are logged, not surfaced to callers.
type Store struct {
	mu      sync.Mutex
	userID  string
	persist port.ChatPersistence

	user          *domain.User
	authenticated bool

	rooms         []domain.ChatRoom
	current       string // current room ID, "" = unset
	messages      []domain.Message
	searchHistory []domain.SearchHistoryItem

	now   func() time.Time
	newID func() string
}

// NewStore returns an empty store for userID writing through persist.
func NewStore(userID string, persist port.ChatPersistence) *Store {
	return &Store{
		userID:  userID,
		persist: persist,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// hydrate replaces the store's room and search-history state. Called once,
// before the store is shared.
func (s *Store) hydrate(state *domain.ChatState) {
	s.rooms = state.Rooms
	s.searchHistory = state.SearchHistory
}

// Login sets the authenticated user. Triggers no network calls.
func (s *Store) Login(user *domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user
	s.authenticated = user != nil
}

// Logout clears the authenticated user. Triggers no network calls.
func (s *Store) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.authenticated = false
}

// User returns the authenticated user, if any.
func (s *Store) User() (*domain.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user, s.authenticated
}

// SetCurrentRoom switches the current-room pointer and the flattened message
// view to that room. Unknown IDs are a no-op.
func (s *Store) SetCurrentRoom(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rooms {
		if s.rooms[i].ID == id {
			s.current = id
			s.messages = append([]domain.Message(nil), s.rooms[i].Messages...)
			return
		}
	}
}

// EnsureRoom makes the room with the given caller-generated ID current,
// creating an empty room on first navigation.
func (s *Store) EnsureRoom(id, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.rooms {
		if s.rooms[i].ID == id {
			s.current = id
			s.messages = append([]domain.Message(nil), s.rooms[i].Messages...)
			return
		}
	}

	if name == "" {
		name = "New Chat"
	}
	room := domain.ChatRoom{
		ID:           id,
		Name:         name,
		LastActivity: s.now(),
	}
	s.rooms = append(s.rooms, room)
	s.current = id
	s.messages = nil

	s.writeThrough("save room", func(ctx context.Context) error {
		return s.persist.SaveRoom(ctx, s.userID, room)
	})
}

// CreateRoom allocates a fresh room, makes it current, and returns its ID.
func (s *Store) CreateRoom(name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	room := domain.ChatRoom{
		ID:           s.newID(),
		Name:         name,
		LastActivity: s.now(),
	}
	s.rooms = append(s.rooms, room)
	s.current = room.ID
	s.messages = nil

	s.writeThrough("save room", func(ctx context.Context) error {
		return s.persist.SaveRoom(ctx, s.userID, room)
	})
	return room.ID
}

// DeleteRoom removes a room. Deleting the current room unsets the pointer
// and clears the message view. The search log is unaffected.
func (s *Store) DeleteRoom(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.rooms[:0]
	found := false
	for _, room := range s.rooms {
		if room.ID == id {
			found = true
			continue
		}
		kept = append(kept, room)
	}
	if !found {
		return
	}
	s.rooms = kept
	if s.current == id {
		s.current = ""
		s.messages = nil
	}

	s.writeThrough("delete room", func(ctx context.Context) error {
		return s.persist.DeleteRoom(ctx, s.userID, id)
	})
}

// AppendMessage stamps an ID and the current time onto msg and appends it to
// the flattened view and, when a room is current, to that room's sequence,
// updating its last activity.
func (s *Store) AppendMessage(msg domain.Message) domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg.ID = s.newID()
	msg.Timestamp = s.now()
	s.messages = append(s.messages, msg)

	if s.current == "" {
		return msg
	}
	for i := range s.rooms {
		if s.rooms[i].ID == s.current {
			s.rooms[i].Messages = append(s.rooms[i].Messages, msg)
			s.rooms[i].LastActivity = msg.Timestamp
			break
		}
	}

	roomID := s.current
	s.writeThrough("save message", func(ctx context.Context) error {
		return s.persist.SaveMessage(ctx, s.userID, roomID, msg)
	})
	return msg
}

// AppendSearchHistory stamps an ID and time and appends to the search log.
// The log is never capped by this operation.
func (s *Store) AppendSearchHistory(query, response string) domain.SearchHistoryItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := domain.SearchHistoryItem{
		ID:        s.newID(),
		Query:     query,
		Response:  response,
		Timestamp: s.now(),
	}
	s.searchHistory = append(s.searchHistory, item)

	s.writeThrough("save search item", func(ctx context.Context) error {
		return s.persist.SaveSearchItem(ctx, s.userID, item)
	})
	return item
}

// RecentSearchHistory returns log entries from the last 24 hours, in
// insertion order.
func (s *Store) RecentSearchHistory() []domain.SearchHistoryItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-recentWindow)
	var recent []domain.SearchHistoryItem
	for _, item := range s.searchHistory {
		if item.Timestamp.After(cutoff) {
			recent = append(recent, item)
		}
	}
	return recent
}

// SearchHistory returns the full search log in insertion order.
func (s *Store) SearchHistory() []domain.SearchHistoryItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.SearchHistoryItem(nil), s.searchHistory...)
}

// CurrentMessages returns the flattened message view.
func (s *Store) CurrentMessages() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Message(nil), s.messages...)
}

// CurrentRoom returns the current room's ID, or "" when unset.
func (s *Store) CurrentRoom() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Rooms returns all rooms in creation order.
func (s *Store) Rooms() []domain.ChatRoom {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.ChatRoom(nil), s.rooms...)
}

// Room returns a room by ID.
func (s *Store) Room(id string) (domain.ChatRoom, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, room := range s.rooms {
		if room.ID == id {
			return room, true
		}
	}
	return domain.ChatRoom{}, false
}

// writeThrough runs a persistence write; failures are logged only. Callers
// hold the mutex, so writes for one store stay ordered.
func (s *Store) writeThrough(op string, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := fn(ctx); err != nil {
		slog.Error("chat store write-through failed", "op", op, "user_id", s.userID, "error", err)
	}
}
