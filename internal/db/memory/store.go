// Package memory implements db.Store in process memory for tests and demos.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/kailas-cloud/pda/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// Store is a mutex-guarded map store. Data is lost on Close.
type Store struct {
	mu     sync.Mutex
	kv     map[string][]byte
	sets   map[string]map[string]struct{}
	lex    map[string]map[string]struct{}
	lists  map[string][][]byte
	notify chan struct{} // closed and replaced on every LPush
	closed bool
}

// New creates an empty memory store.
func New() *Store {
	return &Store{
		kv:     make(map[string][]byte),
		sets:   make(map[string]map[string]struct{}),
		lex:    make(map[string]map[string]struct{}),
		lists:  make(map[string][][]byte),
		notify: make(chan struct{}),
	}
}

// Ping reports ErrUnavailable after Close.
func (s *Store) Ping(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return &db.Error{Op: db.OpPing, Err: db.ErrUnavailable}
	}
	return nil
}

// Close marks the store closed.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// WaitForReady returns immediately.
func (s *Store) WaitForReady(ctx context.Context, _ time.Duration) error {
	return s.Ping(ctx)
}

// Get retrieves a value by key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.kv[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return clone(v), nil
}

// MGet fetches several keys; missing keys yield nil entries.
func (s *Store) MGet(_ context.Context, keys []string) ([][]byte, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]byte, len(keys))
	for i, k := range keys {
		if v, ok := s.kv[k]; ok {
			out[i] = clone(v)
		}
	}
	return out, nil
}

// Set stores a value at the given key.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kv[key] = clone(value)
	return nil
}

// Del deletes keys of any type.
func (s *Store) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.kv, k)
		delete(s.sets, k)
		delete(s.lex, k)
		delete(s.lists, k)
	}
	return nil
}

// Exists checks if a key holds any value.
func (s *Store) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.kv[key]; ok {
		return true, nil
	}
	return len(s.sets[key]) > 0 || len(s.lex[key]) > 0 || len(s.lists[key]) > 0, nil
}

// Incr atomically increments a counter and returns the new value.
func (s *Store) Incr(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	if v, ok := s.kv[key]; ok {
		var err error
		if n, err = strconv.ParseInt(string(v), 10, 64); err != nil {
			return 0, &db.Error{Op: db.OpIncr, Err: fmt.Errorf("value is not an integer: %w", err)}
		}
	}
	n++
	s.kv[key] = []byte(strconv.FormatInt(n, 10))
	return n, nil
}

// SAdd adds members to a set.
func (s *Store) SAdd(_ context.Context, key string, members ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	add(s.sets, key, members)
	return nil
}

// SRem removes members from a set.
func (s *Store) SRem(_ context.Context, key string, members ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	remove(s.sets, key, members)
	return nil
}

// SMembers returns all members of a set in byte order.
func (s *Store) SMembers(_ context.Context, key string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sorted(s.sets[key]), nil
}

// SCard returns the set cardinality.
func (s *Store) SCard(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.sets[key])), nil
}

// ZAddLex adds members to a lex index.
func (s *Store) ZAddLex(_ context.Context, key string, members ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	add(s.lex, key, members)
	return nil
}

// ZRemLex removes members from a lex index.
func (s *Store) ZRemLex(_ context.Context, key string, members ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	remove(s.lex, key, members)
	return nil
}

// ZRangeByLex returns members between bounds in byte order.
func (s *Store) ZRangeByLex(_ context.Context, key, minBound, maxBound string) ([]string, error) {
	r, err := db.ParseLexRange(minBound, maxBound)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	all := sorted(s.lex[key])
	s.mu.Unlock()

	var out []string
	for _, m := range all {
		if r.Contains(m) {
			out = append(out, m)
		}
	}
	return out, nil
}

// LPush appends values to the head of a list.
func (s *Store) LPush(_ context.Context, key string, values ...[]byte) error {
	if len(values) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range values {
		s.lists[key] = append(s.lists[key], clone(v))
	}
	close(s.notify)
	s.notify = make(chan struct{})
	return nil
}

// BRPop pops the oldest value, waiting up to timeout for one to arrive.
func (s *Store) BRPop(ctx context.Context, key string, timeout time.Duration) ([]byte, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		s.mu.Lock()
		if items := s.lists[key]; len(items) > 0 {
			v := items[0]
			if len(items) == 1 {
				delete(s.lists, key)
			} else {
				s.lists[key] = items[1:]
			}
			s.mu.Unlock()
			return v, nil
		}
		wait := s.notify
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, &db.Error{Op: db.OpBRPop, Err: ctx.Err()}
		case <-timer.C:
			return nil, db.ErrKeyNotFound
		case <-wait:
		}
	}
}

func add(m map[string]map[string]struct{}, key string, members []string) {
	if len(members) == 0 {
		return
	}
	set, ok := m[key]
	if !ok {
		set = make(map[string]struct{}, len(members))
		m[key] = set
	}
	for _, v := range members {
		set[v] = struct{}{}
	}
}

func remove(m map[string]map[string]struct{}, key string, members []string) {
	set, ok := m[key]
	if !ok {
		return
	}
	for _, v := range members {
		delete(set, v)
	}
	if len(set) == 0 {
		delete(m, key)
	}
}

func sorted(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func clone(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return append([]byte(nil), b...)
}
