package conversation

import (
	"context"
	"errors"
	"time"
)

type ID string

type Conversation struct {
	ID            ID
	Title         string
	AllowGuests   bool
	LinkToken     string
	LinkCreatedAt *time.Time
	CreatedAt     time.Time
}

func (c Conversation) HasLink() bool {
	return c.LinkToken != ""
}

var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrNotFound       = errors.New("not found")
	ErrGuestsDisabled = errors.New("guest access is disabled")
)

type Repository interface {
	Create(ctx context.Context, conv Conversation) error
	Get(ctx context.Context, id ID) (Conversation, error)
	// SetAllowGuests reports whether the stored flag actually changed, so
	// concurrent writers of the same value see exactly one change.
	SetAllowGuests(ctx context.Context, id ID, allow bool) (bool, error)
	SetLink(ctx context.Context, id ID, token string, createdAt time.Time) error
	ClearLink(ctx context.Context, id ID) error
}

// Notifier receives guest access changes so they can be pushed to clients.
type Notifier interface {
	NotifyGuestsChanged(id ID, allow bool)
}
