// Package jsondir assimilates calc directories whose tooling wrote a
// canonical summary.json next to the raw output files.
package jsondir

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lattixlab/calcdock/internal/assimilate"
	"github.com/lattixlab/calcdock/internal/domain/task"
)

// SummaryFile is the file read from the calc directory.
const SummaryFile = "summary.json"

// Name is the registry name of this assimilator.
const Name = "jsondir"

// Assimilator reads a pre-built canonical summary document from the calc
// directory.
type Assimilator struct{}

var _ assimilate.Assimilator = (*Assimilator)(nil)

// New creates a jsondir assimilator.
func New() assimilate.Assimilator {
	return &Assimilator{}
}

// Assimilate reads and decodes <dir>/summary.json.
func (a *Assimilator) Assimilate(_ context.Context, dir string) (task.Document, error) {
	path := filepath.Join(dir, SummaryFile)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	doc, err := task.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	if doc.State() == "" {
		return nil, fmt.Errorf("%s: missing state field", path)
	}

	return doc, nil
}
