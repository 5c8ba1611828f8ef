package notify

import (
	"context"
	"net/url"

	"github.com/kailas-cloud/pda/internal/domain/mail"
	domrec "github.com/kailas-cloud/pda/internal/domain/record"
)

// Repository reads Calendar records and their owners.
type Repository interface {
	Keys(ctx context.Context, kind domrec.Kind) ([]domrec.Key, error)
	Get(ctx context.Context, key domrec.Key) (*domrec.Record, error)
	GetMany(ctx context.Context, keys []domrec.Key) ([]*domrec.Record, error)
}

// Enqueuer schedules background tasks.
type Enqueuer interface {
	Enqueue(ctx context.Context, path string, params url.Values) error
}

// Sender delivers outbound mail.
type Sender interface {
	Send(ctx context.Context, m mail.Message) error
}
