package persist

import (
	"context"

	"github.com/lattixlab/calcdock/internal/domain/task"
)

// TaskStore inserts documents into the durable indexed store.
type TaskStore interface {
	Insert(ctx context.Context, doc task.Document) (string, error)
	EnsureIndices(ctx context.Context, fields []string) error
}

// FileWriter writes the local fallback file.
type FileWriter interface {
	Write(doc task.Document) error
	Path() string
}
