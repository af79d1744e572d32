package ingest

import (
	"context"

	"github.com/lattixlab/calcdock/internal/domain/task"
	"github.com/lattixlab/calcdock/internal/usecase/offload"
	"github.com/lattixlab/calcdock/internal/usecase/persist"
)

type mockAssimilator struct {
	assimilateFn func(ctx context.Context, dir string) (task.Document, error)
	dirs         []string
}

func (m *mockAssimilator) Assimilate(ctx context.Context, dir string) (task.Document, error) {
	m.dirs = append(m.dirs, dir)
	if m.assimilateFn != nil {
		return m.assimilateFn(ctx, dir)
	}
	return task.Document{"state": "successful"}, nil
}

type mockOffloader struct {
	offloadFn func(ctx context.Context, doc task.Document, fields []offload.Field) error
	calls     int
}

func (m *mockOffloader) Offload(ctx context.Context, doc task.Document, fields []offload.Field) error {
	m.calls++
	if m.offloadFn != nil {
		return m.offloadFn(ctx, doc, fields)
	}
	return nil
}

type mockPersister struct {
	persistFn func(ctx context.Context, doc task.Document, opts persist.Options) (persist.Outcome, error)
	hasStore  bool
	calls     int
}

func (m *mockPersister) Persist(ctx context.Context, doc task.Document, opts persist.Options) (persist.Outcome, error) {
	m.calls++
	if m.persistFn != nil {
		return m.persistFn(ctx, doc, opts)
	}
	return persist.Outcome{AssignedID: "1", Success: doc.Successful()}, nil
}

func (m *mockPersister) HasStore() bool { return m.hasStore }
