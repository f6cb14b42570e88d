package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Avicted/convopts/internal/conversation"
)

type postgresConversationRepo struct {
	db *sql.DB
}

func (r *postgresConversationRepo) Create(ctx context.Context, conv conversation.Conversation) error {
	if r.db == nil {
		return fmt.Errorf("db is required")
	}
	if conv.ID == "" || conv.CreatedAt.IsZero() {
		return fmt.Errorf("conversation id and created_at are required")
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO conversations (id, title, allow_guests, created_at)
		VALUES ($1, $2, $3, $4)`, conv.ID, conv.Title, conv.AllowGuests, conv.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert conversation: %w", err)
	}
	return nil
}

func (r *postgresConversationRepo) Get(ctx context.Context, id conversation.ID) (conversation.Conversation, error) {
	if r.db == nil {
		return conversation.Conversation{}, fmt.Errorf("db is required")
	}
	row := r.db.QueryRowContext(ctx, `SELECT id, title, allow_guests, link_token, link_created_at, created_at
		FROM conversations WHERE id = $1`, id)
	var conv conversation.Conversation
	var linkToken sql.NullString
	var linkCreatedAt sql.NullTime
	if err := row.Scan(&conv.ID, &conv.Title, &conv.AllowGuests, &linkToken, &linkCreatedAt, &conv.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return conversation.Conversation{}, ErrNotFound
		}
		return conversation.Conversation{}, fmt.Errorf("select conversation: %w", err)
	}
	if linkToken.Valid {
		conv.LinkToken = linkToken.String
	}
	if linkCreatedAt.Valid {
		t := linkCreatedAt.Time.UTC()
		conv.LinkCreatedAt = &t
	}
	return conv, nil
}

func (r *postgresConversationRepo) SetAllowGuests(ctx context.Context, id conversation.ID, allow bool) (bool, error) {
	if r.db == nil {
		return false, fmt.Errorf("db is required")
	}
	return setIfChanged(ctx, r.db, "update allow_guests",
		`UPDATE conversations SET allow_guests = $2 WHERE id = $1 AND allow_guests <> $2`, []any{id, allow},
		`SELECT 1 FROM conversations WHERE id = $1`, id)
}

func (r *postgresConversationRepo) SetLink(ctx context.Context, id conversation.ID, token string, createdAt time.Time) error {
	if token == "" {
		return fmt.Errorf("link token is required")
	}
	return r.update(ctx, "set link", `UPDATE conversations SET link_token = $2, link_created_at = $3 WHERE id = $1`, id, token, createdAt.UTC())
}

func (r *postgresConversationRepo) ClearLink(ctx context.Context, id conversation.ID) error {
	return r.update(ctx, "clear link", `UPDATE conversations SET link_token = NULL, link_created_at = NULL WHERE id = $1`, id)
}

func (r *postgresConversationRepo) update(ctx context.Context, op, query string, args ...any) error {
	if r.db == nil {
		return fmt.Errorf("db is required")
	}
	return execExpectRow(ctx, r.db, op, query, args...)
}

// setIfChanged runs an update guarded on the old value. No affected rows means
// the value already matched or the row is missing; the exists query tells
// those apart.
func setIfChanged(ctx context.Context, db *sql.DB, op, update string, args []any, exists string, id conversation.ID) (bool, error) {
	res, err := db.ExecContext(ctx, update, args...)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s rows: %w", op, err)
	}
	if affected > 0 {
		return true, nil
	}
	var one int
	if err := db.QueryRowContext(ctx, exists, id).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("%s lookup: %w", op, err)
	}
	return false, nil
}

func execExpectRow(ctx context.Context, db *sql.DB, op, query string, args ...any) error {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows: %w", op, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
