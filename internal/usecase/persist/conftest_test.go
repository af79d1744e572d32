package persist

import (
	"context"

	"github.com/lattixlab/calcdock/internal/domain/task"
)

type mockTaskStore struct {
	insertFn        func(ctx context.Context, doc task.Document) (string, error)
	ensureIndicesFn func(ctx context.Context, fields []string) error
	inserts         int
	ensures         int
}

func (m *mockTaskStore) Insert(ctx context.Context, doc task.Document) (string, error) {
	m.inserts++
	if m.insertFn != nil {
		return m.insertFn(ctx, doc)
	}
	return "1", nil
}

func (m *mockTaskStore) EnsureIndices(ctx context.Context, fields []string) error {
	m.ensures++
	if m.ensureIndicesFn != nil {
		return m.ensureIndicesFn(ctx, fields)
	}
	return nil
}

type mockFileWriter struct {
	writeFn func(doc task.Document) error
	writes  int
}

func (m *mockFileWriter) Write(doc task.Document) error {
	m.writes++
	if m.writeFn != nil {
		return m.writeFn(doc)
	}
	return nil
}

func (m *mockFileWriter) Path() string { return "task.json" }
