package ingest

// Stage labels the linear phases of one pipeline run. A run moves through
// them in order; the first failing stage aborts the run.
type Stage string

const (
	// StageResolve determines the calc directory.
	StageResolve Stage = "resolve"
	// StageAssimilate parses the calc directory into a document.
	StageAssimilate Stage = "assimilate"
	// StageOffload moves oversized fields into the blob store.
	StageOffload Stage = "offload"
	// StagePersist stores the finished document.
	StagePersist Stage = "persist"
)

// Error ties a failure to the pipeline stage it occurred in.
type Error struct {
	Stage Stage
	Err   error
}

func (e *Error) Error() string { return string(e.Stage) + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
