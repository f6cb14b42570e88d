package storage

import (
	"context"
	"embed"

	"github.com/Avicted/convopts/internal/conversation"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

var ErrNotFound = conversation.ErrNotFound

type Store interface {
	Close(ctx context.Context) error
	Migrate(ctx context.Context) error
	Conversations() conversation.Repository
}

type NopStore struct{}

func NewNopStore() *NopStore {
	return &NopStore{}
}

func (s *NopStore) Close(ctx context.Context) error {
	_ = ctx
	return nil
}

func (s *NopStore) Migrate(ctx context.Context) error {
	_ = ctx
	return nil
}

func (s *NopStore) Conversations() conversation.Repository {
	return nil
}
