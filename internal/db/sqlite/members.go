package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/kailas-cloud/pda/internal/db"
)

func (s *Store) addMembers(ctx context.Context, op, table, key string, members []string) error {
	if len(members) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &db.Error{Op: op, Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO `+table+` (key, member) VALUES (?, ?)`)
	if err != nil {
		return &db.Error{Op: op, Err: err}
	}
	defer stmt.Close()

	for _, m := range members {
		if _, err := stmt.ExecContext(ctx, key, m); err != nil {
			return &db.Error{Op: op, Err: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return &db.Error{Op: op, Err: err}
	}
	return nil
}

func (s *Store) removeMembers(ctx context.Context, op, table, key string, members []string) error {
	if len(members) == 0 {
		return nil
	}
	args := make([]any, 0, len(members)+1)
	args = append(args, key)
	for _, m := range members {
		args = append(args, m)
	}
	q := `DELETE FROM ` + table + ` WHERE key = ? AND member IN (` + placeholders(len(members)) + `)`
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return &db.Error{Op: op, Err: err}
	}
	return nil
}

func (s *Store) queryMembers(ctx context.Context, op, q string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, &db.Error{Op: op, Err: err}
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, &db.Error{Op: op, Err: err}
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, &db.Error{Op: op, Err: err}
	}
	return out, nil
}

// SAdd adds members to a set.
func (s *Store) SAdd(ctx context.Context, key string, members ...string) error {
	return s.addMembers(ctx, db.OpSAdd, "set_members", key, members)
}

// SRem removes members from a set.
func (s *Store) SRem(ctx context.Context, key string, members ...string) error {
	return s.removeMembers(ctx, db.OpSRem, "set_members", key, members)
}

// SMembers returns all members of a set.
func (s *Store) SMembers(ctx context.Context, key string) ([]string, error) {
	return s.queryMembers(ctx, db.OpSMembers, `SELECT member FROM set_members WHERE key = ?`, key)
}

// SCard returns the set cardinality.
func (s *Store) SCard(ctx context.Context, key string) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM set_members WHERE key = ?`, key).Scan(&n); err != nil {
		return 0, &db.Error{Op: db.OpSCard, Err: err}
	}
	return n, nil
}

// ZAddLex adds members to a lex index.
func (s *Store) ZAddLex(ctx context.Context, key string, members ...string) error {
	return s.addMembers(ctx, db.OpZAdd, "lex_members", key, members)
}

// ZRemLex removes members from a lex index.
func (s *Store) ZRemLex(ctx context.Context, key string, members ...string) error {
	return s.removeMembers(ctx, db.OpZRem, "lex_members", key, members)
}

// ZRangeByLex returns members between bounds. SQLite's BINARY collation compares bytewise.
func (s *Store) ZRangeByLex(ctx context.Context, key, minBound, maxBound string) ([]string, error) {
	r, err := db.ParseLexRange(minBound, maxBound)
	if err != nil {
		return nil, err
	}

	var where strings.Builder
	args := []any{key}
	where.WriteString("key = ?")
	if !r.MinOpen {
		if r.MinInc {
			where.WriteString(" AND member >= ?")
		} else {
			where.WriteString(" AND member > ?")
		}
		args = append(args, r.Min)
	}
	if !r.MaxOpen {
		if r.MaxInc {
			where.WriteString(" AND member <= ?")
		} else {
			where.WriteString(" AND member < ?")
		}
		args = append(args, r.Max)
	}

	return s.queryMembers(ctx, db.OpZRangeByLex,
		`SELECT member FROM lex_members WHERE `+where.String()+` ORDER BY member`, args...)
}

// LPush appends values to the head of a list.
func (s *Store) LPush(ctx context.Context, key string, values ...[]byte) error {
	if len(values) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &db.Error{Op: db.OpLPush, Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	for _, v := range values {
		if _, err := tx.ExecContext(ctx, `INSERT INTO list_items (key, value) VALUES (?, ?)`, key, v); err != nil {
			return &db.Error{Op: db.OpLPush, Err: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return &db.Error{Op: db.OpLPush, Err: err}
	}
	return nil
}

// BRPop pops the oldest value, polling until timeout.
func (s *Store) BRPop(ctx context.Context, key string, timeout time.Duration) ([]byte, error) {
	deadline := time.Now().Add(timeout)
	for {
		v, err := s.rpop(ctx, key)
		if err == nil || !errors.Is(err, db.ErrKeyNotFound) {
			return v, err
		}
		if time.Now().After(deadline) {
			return nil, db.ErrKeyNotFound
		}
		select {
		case <-ctx.Done():
			return nil, &db.Error{Op: db.OpBRPop, Err: ctx.Err()}
		case <-time.After(pollInterval):
		}
	}
}

func (s *Store) rpop(ctx context.Context, key string) ([]byte, error) {
	var v []byte
	err := s.db.QueryRowContext(ctx, `
		DELETE FROM list_items
		WHERE id = (SELECT id FROM list_items WHERE key = ? ORDER BY id LIMIT 1)
		RETURNING value`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, db.ErrKeyNotFound
	}
	if err != nil {
		return nil, &db.Error{Op: db.OpBRPop, Err: err}
	}
	return v, nil
}
