package search

import (
	"context"

	domrec "github.com/kailas-cloud/pda/internal/domain/record"
)

// Repository defines the index and hydration contract for search.
type Repository interface {
	PrefixWords(ctx context.Context, prefix string) ([]string, error)
	Postings(ctx context.Context, word string) ([]domrec.Key, error)
	GetMany(ctx context.Context, keys []domrec.Key) ([]*domrec.Record, error)
}
