package ingest

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/lattixlab/calcdock/internal/domain"
	"github.com/lattixlab/calcdock/internal/domain/location"
	"github.com/lattixlab/calcdock/internal/domain/task"
	"github.com/lattixlab/calcdock/internal/usecase/offload"
	"github.com/lattixlab/calcdock/internal/usecase/persist"
)

// fakeBlobStore backs a real offload.Service in the pipeline tests.
type fakeBlobStore struct {
	inserts int
}

func (f *fakeBlobStore) Insert(_ context.Context, _ []byte, _ string) (string, string, error) {
	f.inserts++
	return fmt.Sprintf("blob-%d", f.inserts), "none", nil
}

func newService(a Assimilator, o Offloader, p Persister, defaultDir string) *Service {
	return New(a, o, p, defaultDir, nil, nil, nil)
}

func TestRun_SuccessfulWithOffload(t *testing.T) {
	doc := task.Document{
		"state": "successful",
		"calcs_reversed": []any{
			map[string]any{
				"dir_name": "/scratch/run-002/static",
				"dos":      map[string]any{"efermi": 5.2},
			},
		},
	}
	assimilator := &mockAssimilator{
		assimilateFn: func(_ context.Context, _ string) (task.Document, error) {
			return doc, nil
		},
	}
	blobs := &fakeBlobStore{}
	persister := &mockPersister{
		hasStore: true,
		persistFn: func(_ context.Context, d task.Document, _ persist.Options) (persist.Outcome, error) {
			d.SetTaskID("7")
			return persist.Outcome{AssignedID: "7", Success: d.Successful()}, nil
		},
	}

	svc := newService(assimilator, offload.New(blobs, nil, nil), persister, "/default")
	report, err := svc.Run(context.Background(), Request{
		Source:  location.Explicit{Path: "/scratch/run-002/static"},
		Offload: []offload.Field{offload.DOS},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.CalcDir != "/scratch/run-002/static" {
		t.Fatalf("unexpected calc dir: %s", report.CalcDir)
	}
	if report.AssignedID != "7" {
		t.Fatalf("expected assigned id 7, got %q", report.AssignedID)
	}
	if !report.Success || report.DefuseChildren {
		t.Fatalf("expected success without defusing, got success=%v defuse=%v",
			report.Success, report.DefuseChildren)
	}

	step, ok := doc.LatestCalc()
	if !ok {
		t.Fatal("expected a latest calc step")
	}
	if _, present := step["dos"]; present {
		t.Fatal("expected dos to be offloaded before persistence")
	}
	if step["dos_fs_id"] != "blob-1" {
		t.Fatalf("expected dos_fs_id blob-1, got %v", step["dos_fs_id"])
	}
	if blobs.inserts != 1 {
		t.Fatalf("expected one blob insert, got %d", blobs.inserts)
	}
}

func TestRun_ErrorStateDefusesChildren(t *testing.T) {
	assimilator := &mockAssimilator{
		assimilateFn: func(_ context.Context, _ string) (task.Document, error) {
			return task.Document{"state": "error"}, nil
		},
	}
	persister := &mockPersister{}

	svc := newService(assimilator, &mockOffloader{}, persister, "/default")
	report, err := svc.Run(context.Background(), Request{})
	if err != nil {
		t.Fatalf("an error-state document is not a pipeline failure: %v", err)
	}

	if report.Success {
		t.Fatal("expected Success=false for state=error")
	}
	if !report.DefuseChildren {
		t.Fatal("expected DefuseChildren=true for state=error")
	}
	if persister.calls != 1 {
		t.Fatalf("error-state documents must still be persisted, got %d calls", persister.calls)
	}
}

func TestRun_DefaultDirectory(t *testing.T) {
	assimilator := &mockAssimilator{}
	svc := newService(assimilator, &mockOffloader{}, &mockPersister{}, "/work/current")

	if _, err := svc.Run(context.Background(), Request{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(assimilator.dirs) != 1 || assimilator.dirs[0] != "/work/current" {
		t.Fatalf("expected assimilation of /work/current, got %v", assimilator.dirs)
	}
}

func TestRun_OffloadSkippedWithoutStore(t *testing.T) {
	offloader := &mockOffloader{}
	persister := &mockPersister{hasStore: false}

	svc := newService(&mockAssimilator{}, offloader, persister, "/default")
	if _, err := svc.Run(context.Background(), Request{
		Offload: []offload.Field{offload.DOS, offload.BandStructure},
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if offloader.calls != 0 {
		t.Fatalf("offload must be skipped on the local-file path, got %d calls", offloader.calls)
	}
}

func TestRun_OffloadSkippedWithoutPolicies(t *testing.T) {
	offloader := &mockOffloader{}
	svc := newService(&mockAssimilator{}, offloader, &mockPersister{hasStore: true}, "/default")

	if _, err := svc.Run(context.Background(), Request{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if offloader.calls != 0 {
		t.Fatalf("expected no offload without policies, got %d calls", offloader.calls)
	}
}

func TestRun_AdditionalFieldsMergedBeforePersist(t *testing.T) {
	var persisted task.Document
	persister := &mockPersister{
		persistFn: func(_ context.Context, d task.Document, _ persist.Options) (persist.Outcome, error) {
			persisted = d
			return persist.Outcome{Success: d.Successful()}, nil
		},
	}

	svc := newService(&mockAssimilator{}, &mockOffloader{}, persister, "/default")
	_, err := svc.Run(context.Background(), Request{
		AdditionalFields: map[string]any{"submitted_by": "engine", "batch": "b-12"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if persisted["submitted_by"] != "engine" || persisted["batch"] != "b-12" {
		t.Fatalf("additional fields missing from persisted document: %#v", persisted)
	}
}

func TestRun_ResolveFailure(t *testing.T) {
	svc := newService(&mockAssimilator{}, &mockOffloader{}, &mockPersister{}, "/default")

	_, err := svc.Run(context.Background(), Request{
		Source: location.ByName{Name: "missing"},
	})
	if !errors.Is(err, domain.ErrLocationNotFound) {
		t.Fatalf("expected ErrLocationNotFound, got %v", err)
	}

	var stageErr *Error
	if !errors.As(err, &stageErr) {
		t.Fatalf("expected a stage-tagged error, got %T", err)
	}
	if stageErr.Stage != StageResolve {
		t.Fatalf("expected stage %s, got %s", StageResolve, stageErr.Stage)
	}
}

func TestRun_AssimilationFailureWrapsVerbatim(t *testing.T) {
	cause := errors.New("vasprun.xml is truncated")
	assimilator := &mockAssimilator{
		assimilateFn: func(_ context.Context, _ string) (task.Document, error) {
			return nil, cause
		},
	}
	persister := &mockPersister{}

	svc := newService(assimilator, &mockOffloader{}, persister, "/default")
	_, err := svc.Run(context.Background(), Request{})
	if !errors.Is(err, domain.ErrAssimilationFailed) {
		t.Fatalf("expected ErrAssimilationFailed, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected the collaborator error to pass through verbatim, got %v", err)
	}
	if persister.calls != 0 {
		t.Fatal("a failed assimilation must not reach persistence")
	}

	var stageErr *Error
	if !errors.As(err, &stageErr) || stageErr.Stage != StageAssimilate {
		t.Fatalf("expected assimilate-stage error, got %v", err)
	}
}

func TestRun_OffloadFailureAborts(t *testing.T) {
	assimilator := &mockAssimilator{
		assimilateFn: func(_ context.Context, _ string) (task.Document, error) {
			return task.Document{
				"state": "successful",
				"calcs_reversed": []any{
					map[string]any{"dos": map[string]any{"efermi": 5.2}},
				},
			}, nil
		},
	}
	offloader := &mockOffloader{
		offloadFn: func(_ context.Context, _ task.Document, _ []offload.Field) error {
			return fmt.Errorf("%w: connection refused", domain.ErrBlobStoreUnavailable)
		},
	}
	persister := &mockPersister{hasStore: true}

	svc := newService(assimilator, offloader, persister, "/default")
	_, err := svc.Run(context.Background(), Request{Offload: []offload.Field{offload.DOS}})
	if !errors.Is(err, domain.ErrBlobStoreUnavailable) {
		t.Fatalf("expected ErrBlobStoreUnavailable, got %v", err)
	}
	if persister.calls != 0 {
		t.Fatal("a failed offload must not reach persistence")
	}

	var stageErr *Error
	if !errors.As(err, &stageErr) || stageErr.Stage != StageOffload {
		t.Fatalf("expected offload-stage error, got %v", err)
	}
}

func TestRun_PersistFailure(t *testing.T) {
	persister := &mockPersister{
		persistFn: func(_ context.Context, _ task.Document, _ persist.Options) (persist.Outcome, error) {
			return persist.Outcome{}, fmt.Errorf("%w: connection refused", domain.ErrDocumentStoreUnavailable)
		},
	}

	svc := newService(&mockAssimilator{}, &mockOffloader{}, persister, "/default")
	_, err := svc.Run(context.Background(), Request{})
	if !errors.Is(err, domain.ErrDocumentStoreUnavailable) {
		t.Fatalf("expected ErrDocumentStoreUnavailable, got %v", err)
	}

	var stageErr *Error
	if !errors.As(err, &stageErr) || stageErr.Stage != StagePersist {
		t.Fatalf("expected persist-stage error, got %v", err)
	}
}

func TestRun_IndexOptionsPassedThrough(t *testing.T) {
	var gotOpts persist.Options
	persister := &mockPersister{
		persistFn: func(_ context.Context, d task.Document, opts persist.Options) (persist.Outcome, error) {
			gotOpts = opts
			return persist.Outcome{Success: d.Successful()}, nil
		},
	}

	svc := newService(&mockAssimilator{}, &mockOffloader{}, persister, "/default")
	_, err := svc.Run(context.Background(), Request{
		BuildIndices: true,
		Indices:      []string{"state"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !gotOpts.BuildIndices || len(gotOpts.Indices) != 1 || gotOpts.Indices[0] != "state" {
		t.Fatalf("unexpected persist options: %+v", gotOpts)
	}
}
