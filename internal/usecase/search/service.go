package search

import (
	"context"
	"fmt"
	"sort"

	domrec "github.com/kailas-cloud/pda/internal/domain/record"
	"github.com/kailas-cloud/pda/internal/domain/words"
	"github.com/kailas-cloud/pda/internal/metrics"
)

// MaxBatch is the largest number of keys fetched in one hydration round-trip.
const MaxBatch = 30

// TokenCount reports how many Persons a single query token matched.
type TokenCount struct {
	Token      string
	Candidates int
}

// Result is the outcome of one search.
type Result struct {
	Tokens  []string
	Counts  []TokenCount
	Persons []*domrec.Record
}

// Service answers prefix word queries with the Persons that match every token.
type Service struct {
	repo  Repository
	batch int
}

// New creates a search service. batch is clamped to [1, MaxBatch].
func New(repo Repository, batch int) *Service {
	if batch <= 0 || batch > MaxBatch {
		batch = MaxBatch
	}
	return &Service{repo: repo, batch: batch}
}

// Search normalizes query, matches each token as a prefix across all record
// kinds and returns the Persons matched by every token, in key order.
func (s *Service) Search(ctx context.Context, query string) (Result, error) {
	res, err := s.search(ctx, query)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(metrics.StatusError).Inc()
		return Result{}, err
	}
	metrics.SearchRequestsTotal.WithLabelValues(metrics.StatusOK).Inc()
	metrics.SearchResults.Observe(float64(len(res.Persons)))
	return res, nil
}

func (s *Service) search(ctx context.Context, query string) (Result, error) {
	tokens := dedupe(words.Normalize(query))
	if len(tokens) == 0 {
		return Result{}, nil
	}

	res := Result{Tokens: tokens, Counts: make([]TokenCount, 0, len(tokens))}

	var matched map[domrec.Key]struct{}
	for _, tok := range tokens {
		persons, err := s.personsFor(ctx, tok)
		if err != nil {
			return Result{}, err
		}
		res.Counts = append(res.Counts, TokenCount{Token: tok, Candidates: len(persons)})

		if matched == nil {
			matched = persons
			continue
		}
		for k := range matched {
			if _, ok := persons[k]; !ok {
				delete(matched, k)
			}
		}
	}

	keys := make([]domrec.Key, 0, len(matched))
	for k := range matched {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	persons, err := s.hydrate(ctx, keys)
	if err != nil {
		return Result{}, err
	}
	res.Persons = persons
	return res, nil
}

// personsFor resolves every record indexed under a word starting with tok to its owning Person.
func (s *Service) personsFor(ctx context.Context, tok string) (map[domrec.Key]struct{}, error) {
	found, err := s.repo.PrefixWords(ctx, tok)
	if err != nil {
		return nil, fmt.Errorf("prefix %q: %w", tok, err)
	}

	persons := make(map[domrec.Key]struct{})
	for _, w := range found {
		keys, err := s.repo.Postings(ctx, w)
		if err != nil {
			return nil, fmt.Errorf("postings %q: %w", w, err)
		}
		for _, k := range keys {
			persons[k.Person()] = struct{}{}
		}
	}
	return persons, nil
}

// hydrate loads keys in chunks of at most s.batch. Missing records are skipped.
func (s *Service) hydrate(ctx context.Context, keys []domrec.Key) ([]*domrec.Record, error) {
	out := make([]*domrec.Record, 0, len(keys))
	for start := 0; start < len(keys); start += s.batch {
		end := min(start+s.batch, len(keys))
		recs, err := s.repo.GetMany(ctx, keys[start:end])
		if err != nil {
			return nil, fmt.Errorf("hydrate %d persons: %w", end-start, err)
		}
		out = append(out, recs...)
	}
	return out, nil
}

func dedupe(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := tokens[:0]
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
