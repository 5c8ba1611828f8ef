package record

import (
	"context"

	domrec "github.com/kailas-cloud/pda/internal/domain/record"
)

// Repository defines the storage contract for record CRUD.
type Repository interface {
	Get(ctx context.Context, key domrec.Key) (*domrec.Record, error)
	Save(ctx context.Context, rec *domrec.Record) error
	Children(ctx context.Context, person domrec.Key) ([]*domrec.Record, error)
}
