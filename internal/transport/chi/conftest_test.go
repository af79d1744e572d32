package chi

import (
	"context"

	"github.com/lattixlab/calcdock/internal/domain/task"
	"github.com/lattixlab/calcdock/internal/usecase/offload"
	"github.com/lattixlab/calcdock/internal/usecase/persist"
)

type stubAssimilator struct {
	assimilateFn func(ctx context.Context, dir string) (task.Document, error)
	dirs         []string
}

func (s *stubAssimilator) Assimilate(ctx context.Context, dir string) (task.Document, error) {
	s.dirs = append(s.dirs, dir)
	if s.assimilateFn != nil {
		return s.assimilateFn(ctx, dir)
	}
	return task.Document{"state": "successful"}, nil
}

type stubOffloader struct {
	fields [][]offload.Field
}

func (s *stubOffloader) Offload(_ context.Context, _ task.Document, fields []offload.Field) error {
	s.fields = append(s.fields, fields)
	return nil
}

type stubPersister struct {
	persistFn func(ctx context.Context, doc task.Document, opts persist.Options) (persist.Outcome, error)
	hasStore  bool
}

func (s *stubPersister) Persist(ctx context.Context, doc task.Document, opts persist.Options) (persist.Outcome, error) {
	if s.persistFn != nil {
		return s.persistFn(ctx, doc, opts)
	}
	return persist.Outcome{AssignedID: "1", Success: doc.Successful()}, nil
}

func (s *stubPersister) HasStore() bool { return s.hasStore }
