package redis

import (
	"context"

	"github.com/kailas-cloud/pda/internal/db"
)

// ZAddLex adds members with score 0 so ZRANGEBYLEX orders them bytewise.
func (s *Store) ZAddLex(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	cmd := s.b().Zadd().Key(key).ScoreMember()
	for _, m := range members {
		cmd = cmd.ScoreMember(0, m)
	}
	if err := s.do(ctx, cmd.Build()).Error(); err != nil {
		return &db.Error{Op: db.OpZAdd, Err: err}
	}
	return nil
}

// ZRemLex removes members from a lex index.
func (s *Store) ZRemLex(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	cmd := s.b().Zrem().Key(key).Member(members...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpZRem, Err: err}
	}
	return nil
}

// ZRangeByLex returns members between the given bounds in byte order.
func (s *Store) ZRangeByLex(ctx context.Context, key, minBound, maxBound string) ([]string, error) {
	if _, err := db.ParseLexRange(minBound, maxBound); err != nil {
		return nil, err
	}
	cmd := s.b().Zrangebylex().Key(key).Min(minBound).Max(maxBound).Build()
	members, err := s.do(ctx, cmd).AsStrSlice()
	if err != nil {
		return nil, &db.Error{Op: db.OpZRangeByLex, Err: err}
	}
	return members, nil
}
