package db

import (
	"context"
	"time"
)

// Store is the main database facade combining all sub-interfaces.
//
//nolint:interfacebloat // consumers depend on the narrow sub-interfaces
type Store interface {
	Pinger
	KVStore
	SetStore
	LexIndex
	ListStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides simple key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// MGet returns values in key order; missing keys yield nil entries.
	MGet(ctx context.Context, keys []string) ([][]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	Incr(ctx context.Context, key string) (int64, error)
}

// SetStore provides unordered string set operations.
type SetStore interface {
	SAdd(ctx context.Context, key string, members ...string) error
	SRem(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
	SCard(ctx context.Context, key string) (int64, error)
}

// LexIndex provides a lexicographically ordered member set.
//
// Range bounds use the Redis ZRANGEBYLEX grammar: "[x" inclusive, "(x" exclusive,
// "-" and "+" for the open ends.
type LexIndex interface {
	ZAddLex(ctx context.Context, key string, members ...string) error
	ZRemLex(ctx context.Context, key string, members ...string) error
	ZRangeByLex(ctx context.Context, key, minBound, maxBound string) ([]string, error)
}

// ListStore provides a FIFO list used as a work queue.
type ListStore interface {
	LPush(ctx context.Context, key string, values ...[]byte) error
	// BRPop blocks up to timeout for a value; it returns ErrKeyNotFound when none arrives.
	BRPop(ctx context.Context, key string, timeout time.Duration) ([]byte, error)
}
