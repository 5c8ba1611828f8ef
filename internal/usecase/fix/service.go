package fix

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"go.uber.org/zap"

	domrec "github.com/kailas-cloud/pda/internal/domain/record"
)

// Task paths handled by the sweep.
const (
	PathAll    = "/task/fix/all"
	PathRecord = "/task/fix/record"
)

// DefaultPageSize is the number of record tasks enqueued per FixAll page.
const DefaultPageSize = 100

// Outcome describes what FixRecord changed.
type Outcome struct {
	Key          domrec.Key
	YearFixed    bool
	WordsChanged bool
}

// Service rewrites stored records into their current canonical form.
type Service struct {
	repo     Repository
	queue    Enqueuer
	pageSize int
	logger   *zap.Logger
}

// New creates a sweep service.
func New(repo Repository, queue Enqueuer, pageSize int, logger *zap.Logger) *Service {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Service{repo: repo, queue: queue, pageSize: pageSize, logger: logger}
}

// FixRecord reloads key, recomputes its word index, replaces a placeholder
// Calendar year and saves it. Running it twice changes nothing more.
func (s *Service) FixRecord(ctx context.Context, key domrec.Key) (Outcome, error) {
	rec, err := s.repo.Get(ctx, key)
	if err != nil {
		return Outcome{}, fmt.Errorf("load %s: %w", key, err)
	}
	before := slices.Clone(rec.Words)

	out := Outcome{Key: key}
	if rec.FixYear() {
		out.YearFixed = true
		s.logger.Info("Fixing year", zap.Stringer("key", key), zap.Stringer("date", rec.FirstOccurrence))
	}
	if err := s.repo.Save(ctx, rec); err != nil {
		return Outcome{}, fmt.Errorf("save %s: %w", key, err)
	}
	out.WordsChanged = !slices.Equal(before, rec.Words)
	return out, nil
}

// FixAll enqueues one record task for each key after cursor, up to the page
// size, plus a continuation task when the page is full. An empty cursor starts
// from the first key. It returns a human-readable log of what was queued.
func (s *Service) FixAll(ctx context.Context, cursor string) (string, error) {
	keys, err := s.repo.AllKeys(ctx)
	if err != nil {
		return "", fmt.Errorf("list keys: %w", err)
	}

	start := 0
	if cursor != "" {
		after, err := domrec.ParseKey(cursor)
		if err != nil {
			return "", fmt.Errorf("cursor: %w", err)
		}
		start, _ = slices.BinarySearchFunc(keys, after, domrec.Key.Compare)
		if start < len(keys) && keys[start] == after {
			start++
		}
	}
	page := keys[start:min(start+s.pageSize, len(keys))]

	var log strings.Builder
	if len(page) == s.pageSize {
		next := page[len(page)-1].String()
		if err := s.queue.Enqueue(ctx, PathAll, url.Values{"next": {next}}); err != nil {
			return log.String(), fmt.Errorf("enqueue continuation after %s: %w", next, err)
		}
		fmt.Fprintf(&log, "Adding continuation task: %s?next=%s\n", PathAll, next)
	}

	fmt.Fprintf(&log, "\n\nCreating %d tasks:\n", len(page))
	for i, k := range page {
		if err := s.queue.Enqueue(ctx, PathRecord, url.Values{"key": {k.String()}}); err != nil {
			return log.String(), fmt.Errorf("enqueue fix %s: %w", k, err)
		}
		fmt.Fprintf(&log, "%4d: %s => %s\n", i+1, PathRecord, k)
	}
	log.WriteString("Done")

	s.logger.Info("Fix sweep page", zap.String("cursor", cursor), zap.Int("tasks", len(page)))
	return log.String(), nil
}
