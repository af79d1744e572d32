// Package ingest orchestrates one ingestion run: resolve the calc
// directory, assimilate it into a document, offload oversized fields, and
// persist the result.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/lattixlab/calcdock/internal/domain"
	"github.com/lattixlab/calcdock/internal/domain/location"
	"github.com/lattixlab/calcdock/internal/usecase/offload"
	"github.com/lattixlab/calcdock/internal/usecase/persist"
)

// Request describes one ingestion run.
type Request struct {
	// Source selects the calc directory; nil means the default directory.
	Source location.Source
	// History holds the run-scoped location records of prior steps,
	// oldest first.
	History []location.Record
	// AdditionalFields are merged into the document before offload.
	AdditionalFields map[string]any
	// Offload lists the large-field policies enabled for this run.
	Offload []offload.Field
	// BuildIndices requests index construction before the insert.
	BuildIndices bool
	// Indices are the fields to index; nil uses the default set.
	Indices []string
}

// Report is the outcome surface exposed to the scheduling engine. Success
// reflects only the document's own state; whether persistence succeeded is
// signaled separately through the error return. DefuseChildren tells the
// engine that dependent steps should not run; acting on it is the
// engine's business.
type Report struct {
	CalcDir        string
	TaskID         string
	AssignedID     string
	Success        bool
	DefuseChildren bool
}

// Service is the ingestion pipeline. One Run is a single synchronous chain
// of blocking calls; the caller owns any concurrency across runs.
type Service struct {
	assimilator Assimilator
	offloader   Offloader
	persister   Persister
	defaultDir  string
	runsTotal   *prometheus.CounterVec
	runDuration *prometheus.HistogramVec
	logger      *zap.Logger
}

// New creates an ingestion pipeline. runsTotal and runDuration may be nil.
func New(
	assimilator Assimilator,
	offloader Offloader,
	persister Persister,
	defaultDir string,
	runsTotal *prometheus.CounterVec,
	runDuration *prometheus.HistogramVec,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		assimilator: assimilator,
		offloader:   offloader,
		persister:   persister,
		defaultDir:  defaultDir,
		runsTotal:   runsTotal,
		runDuration: runDuration,
		logger:      logger,
	}
}

// Run executes one ingestion run. Any failure aborts the run and surfaces
// the stage-tagged error; there are no retries at this layer.
func (s *Service) Run(ctx context.Context, req Request) (Report, error) {
	start := time.Now()

	dir, err := location.Resolve(req.Source, req.History, s.defaultDir)
	if err != nil {
		return Report{}, s.abort(StageResolve, start, err)
	}

	s.logger.Info("parsing directory", zap.String("calc_dir", dir))

	doc, err := s.assimilator.Assimilate(ctx, dir)
	if err != nil {
		// The assimilator's error passes through verbatim; this layer
		// does not interpret it.
		return Report{}, s.abort(StageAssimilate, start,
			fmt.Errorf("%w: %w", domain.ErrAssimilationFailed, err))
	}

	if len(req.AdditionalFields) > 0 {
		doc.Merge(req.AdditionalFields)
	}

	// Offloading into a blob store that will never be queried back is
	// wasted work; skip it entirely on the local-file path.
	if s.persister.HasStore() && len(req.Offload) > 0 {
		if err := s.offloader.Offload(ctx, doc, req.Offload); err != nil {
			return Report{}, s.abort(StageOffload, start, err)
		}
	}

	outcome, err := s.persister.Persist(ctx, doc, persist.Options{
		BuildIndices: req.BuildIndices,
		Indices:      req.Indices,
	})
	if err != nil {
		return Report{}, s.abort(StagePersist, start, err)
	}

	report := Report{
		CalcDir:        dir,
		TaskID:         doc.TaskID(),
		AssignedID:     outcome.AssignedID,
		Success:        outcome.Success,
		DefuseChildren: !outcome.Success,
	}

	s.observe("completed", start)
	s.logger.Info("finished ingestion run",
		zap.String("calc_dir", dir),
		zap.String("task_id", report.TaskID),
		zap.Bool("success", report.Success),
		zap.Bool("defuse_children", report.DefuseChildren),
		zap.Duration("elapsed", time.Since(start)),
	)
	return report, nil
}

func (s *Service) abort(stage Stage, start time.Time, err error) error {
	s.observe("aborted", start)
	s.logger.Error("ingestion run aborted",
		zap.String("stage", string(stage)),
		zap.Error(err),
	)
	return &Error{Stage: stage, Err: err}
}

func (s *Service) observe(outcome string, start time.Time) {
	if s.runsTotal != nil {
		s.runsTotal.WithLabelValues(outcome).Inc()
	}
	if s.runDuration != nil {
		s.runDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	}
}
