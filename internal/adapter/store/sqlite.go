package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Nitindeep65/gemini-clone-2.0/internal/domain"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements port.ChatPersistence and port.AuditWriter on a
// local SQLite file. It is the default backend when no DATABASE_URL is set.
// Timestamps are stored as unix milliseconds.
type SQLiteStore struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS chat_rooms (
	user_id       TEXT NOT NULL,
	id            TEXT NOT NULL,
	name          TEXT NOT NULL,
	last_activity INTEGER NOT NULL,
	created_at    INTEGER NOT NULL,
	PRIMARY KEY (user_id, id)
);
CREATE TABLE IF NOT EXISTS chat_messages (
	seq     INTEGER PRIMARY KEY AUTOINCREMENT,
	id      TEXT NOT NULL,
	user_id TEXT NOT NULL,
	room_id TEXT NOT NULL,
	text    TEXT NOT NULL,
	role    TEXT NOT NULL,
	image   TEXT NOT NULL DEFAULT '',
	ts      INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS chat_messages_user_idx ON chat_messages (user_id, room_id);
CREATE TABLE IF NOT EXISTS search_history (
	seq      INTEGER PRIMARY KEY AUTOINCREMENT,
	id       TEXT NOT NULL,
	user_id  TEXT NOT NULL,
	query    TEXT NOT NULL,
	response TEXT NOT NULL,
	ts       INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS audit_logs (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	action     TEXT NOT NULL,
	resource   TEXT NOT NULL,
	details    TEXT NOT NULL DEFAULT '{}',
	ip         TEXT NOT NULL DEFAULT '',
	user_agent TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL
);`

// NewSQLiteStore opens (creating if needed) the database file at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// modernc.org/sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent mutations.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// LoadState returns a user's full persisted conversation state.
func (s *SQLiteStore) LoadState(ctx context.Context, userID string) (*domain.ChatState, error) {
	state := &domain.ChatState{}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, last_activity FROM chat_rooms WHERE user_id = ? ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("load rooms: %w", err)
	}
	defer rows.Close()

	index := map[string]int{}
	for rows.Next() {
		var room domain.ChatRoom
		var activity int64
		if err := rows.Scan(&room.ID, &room.Name, &activity); err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		room.LastActivity = time.UnixMilli(activity)
		index[room.ID] = len(state.Rooms)
		state.Rooms = append(state.Rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load rooms: %w", err)
	}

	msgRows, err := s.db.QueryContext(ctx,
		`SELECT room_id, id, text, role, image, ts FROM chat_messages WHERE user_id = ? ORDER BY seq`, userID)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	defer msgRows.Close()

	for msgRows.Next() {
		var roomID string
		var ts int64
		var msg domain.Message
		if err := msgRows.Scan(&roomID, &msg.ID, &msg.Text, &msg.Role, &msg.Image, &ts); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msg.Timestamp = time.UnixMilli(ts)
		if i, ok := index[roomID]; ok {
			state.Rooms[i].Messages = append(state.Rooms[i].Messages, msg)
		}
	}
	if err := msgRows.Err(); err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}

	histRows, err := s.db.QueryContext(ctx,
		`SELECT id, query, response, ts FROM search_history WHERE user_id = ? ORDER BY seq`, userID)
	if err != nil {
		return nil, fmt.Errorf("load search history: %w", err)
	}
	defer histRows.Close()

	for histRows.Next() {
		var ts int64
		var item domain.SearchHistoryItem
		if err := histRows.Scan(&item.ID, &item.Query, &item.Response, &ts); err != nil {
			return nil, fmt.Errorf("scan search item: %w", err)
		}
		item.Timestamp = time.UnixMilli(ts)
		state.SearchHistory = append(state.SearchHistory, item)
	}
	return state, histRows.Err()
}

// SaveRoom inserts or updates a room's name and last activity.
func (s *SQLiteStore) SaveRoom(ctx context.Context, userID string, room domain.ChatRoom) error {
	query := `INSERT INTO chat_rooms (user_id, id, name, last_activity, created_at)
	          VALUES (?, ?, ?, ?, ?)
	          ON CONFLICT (user_id, id) DO UPDATE SET
	              name = excluded.name,
	              last_activity = excluded.last_activity`
	_, err := s.db.ExecContext(ctx, query,
		userID, room.ID, room.Name, room.LastActivity.UnixMilli(), time.Now().UnixMilli())
	return err
}

// DeleteRoom removes a room and its messages. Search history is untouched.
func (s *SQLiteStore) DeleteRoom(ctx context.Context, userID, roomID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM chat_messages WHERE user_id = ? AND room_id = ?`, userID, roomID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM chat_rooms WHERE user_id = ? AND id = ?`, userID, roomID)
	return err
}

// SaveMessage appends a message and bumps the owning room's last activity.
func (s *SQLiteStore) SaveMessage(ctx context.Context, userID, roomID string, msg domain.Message) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_messages (id, user_id, room_id, text, role, image, ts)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		msg.ID, userID, roomID, msg.Text, msg.Role, msg.Image, msg.Timestamp.UnixMilli()); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE chat_rooms SET last_activity = ? WHERE user_id = ? AND id = ?`,
		msg.Timestamp.UnixMilli(), userID, roomID)
	return err
}

// SaveSearchItem appends one entry to the search log.
func (s *SQLiteStore) SaveSearchItem(ctx context.Context, userID string, item domain.SearchHistoryItem) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO search_history (id, user_id, query, response, ts)
		 VALUES (?, ?, ?, ?, ?)`,
		item.ID, userID, item.Query, item.Response, item.Timestamp.UnixMilli())
	return err
}

// WriteAudit implements port.AuditWriter.
func (s *SQLiteStore) WriteAudit(rec domain.AuditRecord) error {
	_, err := s.db.ExecContext(context.Background(),
		`INSERT INTO audit_logs (id, user_id, action, resource, details, ip, user_agent, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.Action, rec.Resource, rec.Details, rec.IP, rec.UserAgent, rec.CreatedAt.UnixMilli())
	return err
}

// ListAuditRecords returns recent audit records, newest first.
func (s *SQLiteStore) ListAuditRecords(ctx context.Context, limit int) ([]domain.AuditRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, action, resource, details, ip, user_agent, created_at
		 FROM audit_logs ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit records: %w", err)
	}
	defer rows.Close()

	var records []domain.AuditRecord
	for rows.Next() {
		var r domain.AuditRecord
		var created int64
		if err := rows.Scan(&r.ID, &r.UserID, &r.Action, &r.Resource, &r.Details, &r.IP, &r.UserAgent, &created); err != nil {
			return nil, fmt.Errorf("scan audit record: %w", err)
		}
		r.CreatedAt = time.UnixMilli(created)
		records = append(records, r)
	}
	return records, rows.Err()
}
