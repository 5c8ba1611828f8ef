package redis

import (
	"context"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/pda/internal/db"
)

// LPush prepends values to a list.
func (s *Store) LPush(ctx context.Context, key string, values ...[]byte) error {
	if len(values) == 0 {
		return nil
	}
	elems := make([]string, len(values))
	for i, v := range values {
		elems[i] = rueidis.BinaryString(v)
	}
	cmd := s.b().Lpush().Key(key).Element(elems...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpLPush, Err: err}
	}
	return nil
}

// BRPop pops the tail of a list, waiting up to timeout.
func (s *Store) BRPop(ctx context.Context, key string, timeout time.Duration) ([]byte, error) {
	cmd := s.b().Brpop().Key(key).Timeout(timeout.Seconds()).Build()
	kv, err := s.do(ctx, cmd).AsStrSlice()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, db.ErrKeyNotFound
		}
		return nil, &db.Error{Op: db.OpBRPop, Err: err}
	}
	if len(kv) != 2 {
		return nil, db.ErrKeyNotFound
	}
	return []byte(kv[1]), nil
}
