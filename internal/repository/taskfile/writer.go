// Package taskfile writes a task document to a local file when no document
// store is configured.
package taskfile

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/lattixlab/calcdock/internal/domain"
	domtask "github.com/lattixlab/calcdock/internal/domain/task"
)

// Filename is the fallback file written into the working directory.
const Filename = "task.json"

// Writer persists one complete canonical document per run. The write is
// atomic: a temp file in the same directory is renamed over the target, so
// a failure never leaves a partial file behind.
type Writer struct {
	dir string
}

// New creates a writer targeting the given directory. An empty dir means
// the current working directory.
func New(dir string) *Writer {
	if dir == "" {
		dir = "."
	}
	return &Writer{dir: dir}
}

// Path returns the target file path.
func (w *Writer) Path() string {
	return filepath.Join(w.dir, Filename)
}

// Write serializes the document and writes it as one file.
func (w *Writer) Write(doc domtask.Document) error {
	data, err := domtask.Marshal(doc)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(w.dir, ".task-*.json")
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrLocalWriteFailed, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", domain.ErrLocalWriteFailed, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", domain.ErrLocalWriteFailed, err)
	}

	if err := os.Rename(tmpName, w.Path()); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", domain.ErrLocalWriteFailed, err)
	}
	return nil
}
