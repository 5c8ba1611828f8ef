package fix

import (
	"context"
	"net/url"

	domrec "github.com/kailas-cloud/pda/internal/domain/record"
)

// Repository loads and rewrites records.
type Repository interface {
	AllKeys(ctx context.Context) ([]domrec.Key, error)
	Get(ctx context.Context, key domrec.Key) (*domrec.Record, error)
	Save(ctx context.Context, rec *domrec.Record) error
}

// Enqueuer schedules background tasks.
type Enqueuer interface {
	Enqueue(ctx context.Context, path string, params url.Values) error
}
