package session

import (
	"context"
	"time"

	"culturemark/api/internal/store"
)

// PostgresStore adapts the relational store to the session interface so
// deployments without Redis still get refresh tokens.
type PostgresStore struct {
	inner *store.PostgresStore
}

func NewPostgresStore(inner *store.PostgresStore) *PostgresStore {
	return &PostgresStore{inner: inner}
}

func (s *PostgresStore) SaveSession(ctx context.Context, tokenHash string, user store.User, expiresAt time.Time) error {
	return s.inner.SaveRefreshSession(ctx, tokenHash, user.ID, expiresAt)
}

func (s *PostgresStore) LookupSession(ctx context.Context, tokenHash string) (store.User, error) {
	return s.inner.LookupRefreshSession(ctx, tokenHash)
}

func (s *PostgresStore) RevokeSession(ctx context.Context, tokenHash string) error {
	return s.inner.RevokeRefreshSession(ctx, tokenHash)
}
