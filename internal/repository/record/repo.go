// Package record persists records and maintains the word inverted index.
package record

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/kailas-cloud/pda/internal/db"
	"github.com/kailas-cloud/pda/internal/domain"
	domrec "github.com/kailas-cloud/pda/internal/domain/record"
	"github.com/kailas-cloud/pda/internal/domain/words"
)

// store is the consumer interface for records (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	MGet(ctx context.Context, keys []string) ([][]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Exists(ctx context.Context, key string) (bool, error)
	Incr(ctx context.Context, key string) (int64, error)
	SAdd(ctx context.Context, key string, members ...string) error
	SRem(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
	SCard(ctx context.Context, key string) (int64, error)
	ZAddLex(ctx context.Context, key string, members ...string) error
	ZRemLex(ctx context.Context, key string, members ...string) error
	ZRangeByLex(ctx context.Context, key, minBound, maxBound string) ([]string, error)
}

// Repo implements the record repository for every usecase.
type Repo struct {
	store  store
	prefix string
}

// New creates a record repository. All store keys are prefixed with prefix.
func New(s store, prefix string) *Repo {
	return &Repo{store: s, prefix: prefix}
}

// Save persists r, allocating an ID for an incomplete key, and updates the
// word index. A child must reference an existing Person.
func (r *Repo) Save(ctx context.Context, rec *domrec.Record) error {
	if err := rec.Key.Validate(); err != nil {
		return err
	}
	if rec.Key.Kind.IsChild() {
		ok, err := r.store.Exists(ctx, r.recordKey(rec.Key.Person()))
		if err != nil {
			return fmt.Errorf("check owner %s: %w", rec.Key.Person(), err)
		}
		if !ok {
			return fmt.Errorf("owner %s: %w", rec.Key.Person(), domain.ErrNotFound)
		}
	}

	var prevWords []string
	if rec.Key.Incomplete() {
		id, err := r.store.Incr(ctx, r.sequence())
		if err != nil {
			return fmt.Errorf("allocate id: %w", err)
		}
		rec.Key.ID = id
	} else {
		prev, err := r.Get(ctx, rec.Key)
		switch {
		case err == nil:
			prevWords = prev.Words
		case errors.Is(err, domain.ErrNotFound):
		default:
			return err
		}
	}

	words.Update(rec)

	data, err := encodeRecord(rec)
	if err != nil {
		return err
	}
	key := rec.Key.String()
	if err := r.store.Set(ctx, r.recordKey(rec.Key), data); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	if err := r.store.SAdd(ctx, r.kindKey(rec.Key.Kind), key); err != nil {
		return fmt.Errorf("index kind %s: %w", key, err)
	}
	if rec.Key.Kind.IsChild() {
		if err := r.store.SAdd(ctx, r.childrenKey(rec.Key.Person()), key); err != nil {
			return fmt.Errorf("index children %s: %w", key, err)
		}
	}

	return r.reindex(ctx, key, prevWords, rec.Words)
}

// reindex re-asserts postings for every current word and drops stale ones.
func (r *Repo) reindex(ctx context.Context, key string, prev, next []string) error {
	for _, w := range next {
		if err := r.store.SAdd(ctx, r.postingsKey(w), key); err != nil {
			return fmt.Errorf("post %q: %w", w, err)
		}
	}
	if len(next) > 0 {
		if err := r.store.ZAddLex(ctx, r.lexicon(), next...); err != nil {
			return fmt.Errorf("lexicon add: %w", err)
		}
	}

	_, removed := words.Diff(prev, next)
	for _, w := range removed {
		if err := r.store.SRem(ctx, r.postingsKey(w), key); err != nil {
			return fmt.Errorf("unpost %q: %w", w, err)
		}
		n, err := r.store.SCard(ctx, r.postingsKey(w))
		if err != nil {
			return fmt.Errorf("count postings %q: %w", w, err)
		}
		if n == 0 {
			if err := r.store.ZRemLex(ctx, r.lexicon(), w); err != nil {
				return fmt.Errorf("lexicon remove %q: %w", w, err)
			}
		}
	}
	return nil
}

// Get loads one record.
func (r *Repo) Get(ctx context.Context, key domrec.Key) (*domrec.Record, error) {
	data, err := r.store.Get(ctx, r.recordKey(key))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, fmt.Errorf("%s: %w", key, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return decodeRecord(key, data)
}

// GetMany loads records in one round-trip, in key order, skipping missing ones.
func (r *Repo) GetMany(ctx context.Context, keys []domrec.Key) ([]*domrec.Record, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	storeKeys := make([]string, len(keys))
	for i, k := range keys {
		storeKeys[i] = r.recordKey(k)
	}

	vals, err := r.store.MGet(ctx, storeKeys)
	if err != nil {
		return nil, fmt.Errorf("mget %d records: %w", len(keys), err)
	}

	out := make([]*domrec.Record, 0, len(keys))
	for i, v := range vals {
		if v == nil {
			continue
		}
		rec, err := decodeRecord(keys[i], v)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Keys lists every key of kind in key order.
func (r *Repo) Keys(ctx context.Context, kind domrec.Kind) ([]domrec.Key, error) {
	members, err := r.store.SMembers(ctx, r.kindKey(kind))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	return parseSorted(members)
}

// loadBatch bounds the keys fetched per MGet by All.
const loadBatch = 30

// All loads every record of kind in key order.
func (r *Repo) All(ctx context.Context, kind domrec.Kind) ([]*domrec.Record, error) {
	keys, err := r.Keys(ctx, kind)
	if err != nil {
		return nil, err
	}
	out := make([]*domrec.Record, 0, len(keys))
	for start := 0; start < len(keys); start += loadBatch {
		recs, err := r.GetMany(ctx, keys[start:min(start+loadBatch, len(keys))])
		if err != nil {
			return nil, err
		}
		out = append(out, recs...)
	}
	return out, nil
}

// AllKeys lists every record key across kinds in key order.
func (r *Repo) AllKeys(ctx context.Context) ([]domrec.Key, error) {
	var all []domrec.Key
	for _, kind := range domrec.Kinds {
		keys, err := r.Keys(ctx, kind)
		if err != nil {
			return nil, err
		}
		all = append(all, keys...)
	}
	sortKeys(all)
	return all, nil
}

// Children loads every child of person in key order.
func (r *Repo) Children(ctx context.Context, person domrec.Key) ([]*domrec.Record, error) {
	members, err := r.store.SMembers(ctx, r.childrenKey(person))
	if err != nil {
		return nil, fmt.Errorf("list children of %s: %w", person, err)
	}
	keys, err := parseSorted(members)
	if err != nil {
		return nil, err
	}
	return r.GetMany(ctx, keys)
}

// PrefixWords returns every indexed word that starts with prefix.
func (r *Repo) PrefixWords(ctx context.Context, prefix string) ([]string, error) {
	minBound, maxBound := prefixRange(prefix)
	found, err := r.store.ZRangeByLex(ctx, r.lexicon(), minBound, maxBound)
	if err != nil {
		return nil, fmt.Errorf("lexicon range %q: %w", prefix, err)
	}
	return found, nil
}

// Postings returns the keys of every record indexed under word.
func (r *Repo) Postings(ctx context.Context, word string) ([]domrec.Key, error) {
	members, err := r.store.SMembers(ctx, r.postingsKey(word))
	if err != nil {
		return nil, fmt.Errorf("postings %q: %w", word, err)
	}
	return parseSorted(members)
}

func parseSorted(members []string) ([]domrec.Key, error) {
	keys := make([]domrec.Key, 0, len(members))
	for _, m := range members {
		k, err := domrec.ParseKey(m)
		if err != nil {
			return nil, fmt.Errorf("corrupt index member: %w", err)
		}
		keys = append(keys, k)
	}
	sortKeys(keys)
	return keys, nil
}

func sortKeys(keys []domrec.Key) {
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
}
