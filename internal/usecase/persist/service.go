// Package persist stores a finished task document exactly once: in the
// document store when one is configured, otherwise as a local file.
package persist

import (
	"context"

	"go.uber.org/zap"

	"github.com/lattixlab/calcdock/internal/domain/task"
)

// Outcome reports the result of persisting one document. Success derives
// purely from the document's own state field and is independent of where
// (or whether an id was assigned when) the document landed.
type Outcome struct {
	AssignedID string // empty on the local-file path
	Success    bool
}

// Options holds per-run persistence parameters.
type Options struct {
	BuildIndices bool
	Indices      []string // field names; nil with BuildIndices uses the default set
}

// Service chooses and drives the persistence path.
type Service struct {
	store  TaskStore // nil when no store is configured
	file   FileWriter
	logger *zap.Logger
}

// New creates a persist service. store may be nil, file must not be.
func New(store TaskStore, file FileWriter, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, file: file, logger: logger}
}

// HasStore reports whether a document store is configured.
func (s *Service) HasStore() bool {
	return s.store != nil
}

// Persist writes the document. Index construction, when requested, runs
// before the insert but is independent of it. Both paths are atomic: the
// whole document lands or nothing does.
func (s *Service) Persist(ctx context.Context, doc task.Document, opts Options) (Outcome, error) {
	success := doc.Successful()

	if s.store == nil {
		if err := s.file.Write(doc); err != nil {
			return Outcome{}, err
		}
		s.logger.Info("wrote local task file",
			zap.String("path", s.file.Path()),
			zap.Bool("success", success),
		)
		return Outcome{Success: success}, nil
	}

	if opts.BuildIndices {
		if err := s.store.EnsureIndices(ctx, opts.Indices); err != nil {
			return Outcome{}, err
		}
	}

	id, err := s.store.Insert(ctx, doc)
	if err != nil {
		return Outcome{}, err
	}

	s.logger.Info("inserted task document",
		zap.String("task_id", id),
		zap.Bool("success", success),
	)
	return Outcome{AssignedID: id, Success: success}, nil
}
