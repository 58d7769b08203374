package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Nitindeep65/gemini-clone-2.0/internal/domain"
)

// PostgresStore implements port.ChatPersistence and port.AuditWriter on a
// shared Postgres database.
type PostgresStore struct {
	db *sql.DB
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS chat_rooms (
	user_id       TEXT NOT NULL,
	id            TEXT NOT NULL,
	name          TEXT NOT NULL,
	last_activity TIMESTAMPTZ NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (user_id, id)
);
CREATE TABLE IF NOT EXISTS chat_messages (
	seq     BIGSERIAL PRIMARY KEY,
	id      TEXT NOT NULL,
	user_id TEXT NOT NULL,
	room_id TEXT NOT NULL,
	text    TEXT NOT NULL,
	role    TEXT NOT NULL,
	image   TEXT NOT NULL DEFAULT '',
	ts      TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS chat_messages_user_idx ON chat_messages (user_id, room_id);
CREATE TABLE IF NOT EXISTS search_history (
	seq      BIGSERIAL PRIMARY KEY,
	id       TEXT NOT NULL,
	user_id  TEXT NOT NULL,
	query    TEXT NOT NULL,
	response TEXT NOT NULL,
	ts       TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS audit_logs (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	action     TEXT NOT NULL,
	resource   TEXT NOT NULL,
	details    JSONB NOT NULL DEFAULT '{}',
	ip         TEXT NOT NULL DEFAULT '',
	user_agent TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

// NewPostgresStore opens a connection, ensures the schema, and returns a store.
func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec(postgresSchema); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// LoadState returns a user's full persisted conversation state.
func (s *PostgresStore) LoadState(ctx context.Context, userID string) (*domain.ChatState, error) {
	state := &domain.ChatState{}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, last_activity FROM chat_rooms WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("load rooms: %w", err)
	}
	defer rows.Close()

	index := map[string]int{}
	for rows.Next() {
		var room domain.ChatRoom
		if err := rows.Scan(&room.ID, &room.Name, &room.LastActivity); err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		index[room.ID] = len(state.Rooms)
		state.Rooms = append(state.Rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load rooms: %w", err)
	}

	msgRows, err := s.db.QueryContext(ctx,
		`SELECT room_id, id, text, role, image, ts FROM chat_messages WHERE user_id = $1 ORDER BY seq`, userID)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	defer msgRows.Close()

	for msgRows.Next() {
		var roomID string
		var msg domain.Message
		if err := msgRows.Scan(&roomID, &msg.ID, &msg.Text, &msg.Role, &msg.Image, &msg.Timestamp); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		if i, ok := index[roomID]; ok {
			state.Rooms[i].Messages = append(state.Rooms[i].Messages, msg)
		}
	}
	if err := msgRows.Err(); err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}

	histRows, err := s.db.QueryContext(ctx,
		`SELECT id, query, response, ts FROM search_history WHERE user_id = $1 ORDER BY seq`, userID)
	if err != nil {
		return nil, fmt.Errorf("load search history: %w", err)
	}
	defer histRows.Close()

	for histRows.Next() {
		var item domain.SearchHistoryItem
		if err := histRows.Scan(&item.ID, &item.Query, &item.Response, &item.Timestamp); err != nil {
			return nil, fmt.Errorf("scan search item: %w", err)
		}
		state.SearchHistory = append(state.SearchHistory, item)
	}
	return state, histRows.Err()
}

// SaveRoom inserts or updates a room's name and last activity.
func (s *PostgresStore) SaveRoom(ctx context.Context, userID string, room domain.ChatRoom) error {
	query := `INSERT INTO chat_rooms (user_id, id, name, last_activity)
	          VALUES ($1, $2, $3, $4)
	          ON CONFLICT (user_id, id) DO UPDATE SET
	              name = EXCLUDED.name,
	              last_activity = EXCLUDED.last_activity`
	_, err := s.db.ExecContext(ctx, query, userID, room.ID, room.Name, room.LastActivity)
	return err
}

// DeleteRoom removes a room and its messages. Search history is untouched.
func (s *PostgresStore) DeleteRoom(ctx context.Context, userID, roomID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM chat_messages WHERE user_id = $1 AND room_id = $2`, userID, roomID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM chat_rooms WHERE user_id = $1 AND id = $2`, userID, roomID)
	return err
}

// SaveMessage appends a message and bumps the owning room's last activity.
func (s *PostgresStore) SaveMessage(ctx context.Context, userID, roomID string, msg domain.Message) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_messages (id, user_id, room_id, text, role, image, ts)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		msg.ID, userID, roomID, msg.Text, msg.Role, msg.Image, msg.Timestamp); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE chat_rooms SET last_activity = $1 WHERE user_id = $2 AND id = $3`,
		msg.Timestamp, userID, roomID)
	return err
}

// SaveSearchItem appends one entry to the search log.
func (s *PostgresStore) SaveSearchItem(ctx context.Context, userID string, item domain.SearchHistoryItem) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO search_history (id, user_id, query, response, ts)
		 VALUES ($1, $2, $3, $4, $5)`,
		item.ID, userID, item.Query, item.Response, item.Timestamp)
	return err
}

// WriteAudit implements port.AuditWriter.
func (s *PostgresStore) WriteAudit(rec domain.AuditRecord) error {
	_, err := s.db.ExecContext(context.Background(),
		`INSERT INTO audit_logs (id, user_id, action, resource, details, ip, user_agent, created_at)
		 VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7, $8)`,
		rec.ID, rec.UserID, rec.Action, rec.Resource, rec.Details, rec.IP, rec.UserAgent, rec.CreatedAt)
	return err
}

// ListAuditRecords returns recent audit records, newest first.
func (s *PostgresStore) ListAuditRecords(ctx context.Context, limit int) ([]domain.AuditRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, action, resource, details::text, ip, user_agent, created_at
		 FROM audit_logs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit records: %w", err)
	}
	defer rows.Close()

	var records []domain.AuditRecord
	for rows.Next() {
		var r domain.AuditRecord
		if err := rows.Scan(&r.ID, &r.UserID, &r.Action, &r.Resource, &r.Details, &r.IP, &r.UserAgent, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
