package app

import (
	"context"

	"ranczo-quiz/internal/domain"
)

// Gateway is the string key/value store progression state is persisted to
// (in-memory, files, Redis, SQLite). Get returns domain.ErrKeyNotFound for
// keys that were never set; Remove of a missing key is a no-op.
type Gateway interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// BankRepository loads the question bank (from cache/backing store). The
// returned order is significant: daily selection shuffles it deterministically.
type BankRepository interface {
	Questions(ctx context.Context) ([]domain.Question, error)
}
