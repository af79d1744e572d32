package ingest

import (
	"context"

	"github.com/lattixlab/calcdock/internal/domain/task"
	"github.com/lattixlab/calcdock/internal/usecase/offload"
	"github.com/lattixlab/calcdock/internal/usecase/persist"
)

// Assimilator parses a calc directory into a result document.
type Assimilator interface {
	Assimilate(ctx context.Context, dir string) (task.Document, error)
}

// Offloader moves oversized fields into the blob store.
type Offloader interface {
	Offload(ctx context.Context, doc task.Document, fields []offload.Field) error
}

// Persister stores the finished document.
type Persister interface {
	Persist(ctx context.Context, doc task.Document, opts persist.Options) (persist.Outcome, error)
	HasStore() bool
}
