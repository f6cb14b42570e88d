package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Avicted/convopts/internal/conversation"
)

// SQLiteStore keeps conversations in a single local file. Timestamps are
// stored as unix milliseconds.
type SQLiteStore struct {
	db            *sql.DB
	conversations *sqliteConversationRepo
}

func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	dsn := "file:" + filepath.Clean(path) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// sqlite serialises writers; one connection avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	return &SQLiteStore{db: db, conversations: &sqliteConversationRepo{db: db}}, nil
}

func (s *SQLiteStore) Close(ctx context.Context) error {
	_ = ctx
	return s.db.Close()
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	return NewMigrator(s.db, migrationsFS, DialectSQLite).Up(ctx)
}

func (s *SQLiteStore) Conversations() conversation.Repository {
	return s.conversations
}

type sqliteConversationRepo struct {
	db *sql.DB
}

func (r *sqliteConversationRepo) Create(ctx context.Context, conv conversation.Conversation) error {
	if conv.ID == "" || conv.CreatedAt.IsZero() {
		return fmt.Errorf("conversation id and created_at are required")
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO conversations (id, title, allow_guests, created_at)
		VALUES (?, ?, ?, ?)`, conv.ID, conv.Title, boolToInt(conv.AllowGuests), toMillis(conv.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert conversation: %w", err)
	}
	return nil
}

func (r *sqliteConversationRepo) Get(ctx context.Context, id conversation.ID) (conversation.Conversation, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, title, allow_guests, link_token, link_created_at, created_at
		FROM conversations WHERE id = ?`, id)
	var conv conversation.Conversation
	var allowGuests int64
	var linkToken sql.NullString
	var linkCreatedAt sql.NullInt64
	var createdAt int64
	if err := row.Scan(&conv.ID, &conv.Title, &allowGuests, &linkToken, &linkCreatedAt, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return conversation.Conversation{}, ErrNotFound
		}
		return conversation.Conversation{}, fmt.Errorf("select conversation: %w", err)
	}
	conv.AllowGuests = allowGuests != 0
	conv.CreatedAt = fromMillis(createdAt)
	if linkToken.Valid {
		conv.LinkToken = linkToken.String
	}
	if linkCreatedAt.Valid {
		t := fromMillis(linkCreatedAt.Int64)
		conv.LinkCreatedAt = &t
	}
	return conv, nil
}

func (r *sqliteConversationRepo) SetAllowGuests(ctx context.Context, id conversation.ID, allow bool) (bool, error) {
	v := boolToInt(allow)
	return setIfChanged(ctx, r.db, "update allow_guests",
		`UPDATE conversations SET allow_guests = ? WHERE id = ? AND allow_guests <> ?`, []any{v, id, v},
		`SELECT 1 FROM conversations WHERE id = ?`, id)
}

func (r *sqliteConversationRepo) SetLink(ctx context.Context, id conversation.ID, token string, createdAt time.Time) error {
	if token == "" {
		return fmt.Errorf("link token is required")
	}
	return execExpectRow(ctx, r.db, "set link", `UPDATE conversations SET link_token = ?, link_created_at = ? WHERE id = ?`, token, toMillis(createdAt), id)
}

func (r *sqliteConversationRepo) ClearLink(ctx context.Context, id conversation.ID) error {
	return execExpectRow(ctx, r.db, "clear link", `UPDATE conversations SET link_token = NULL, link_created_at = NULL WHERE id = ?`, id)
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
