// Package location resolves which calculation directory a run should parse.
package location

import (
	"fmt"

	"github.com/lattixlab/calcdock/internal/domain"
)

// Record is a name/path pair noting where a prior step's output was found.
// History order is insertion order, i.e. chronological.
type Record struct {
	Name string `json:"name" yaml:"name"`
	Path string `json:"path" yaml:"path"`
}

// Source selects the calc directory for a run. The variant is decided once
// at the call boundary instead of inspecting value types at resolve time.
type Source interface {
	isSource()
}

// Explicit selects a literal path, highest priority.
type Explicit struct {
	Path string
}

// ByName selects the most recent history record bearing the given name.
type ByName struct {
	Name string
}

// MostRecent selects the last history record regardless of name.
type MostRecent struct{}

// Default selects the caller's default path (the working directory by
// convention).
type Default struct{}

func (Explicit) isSource()   {}
func (ByName) isSource()     {}
func (MostRecent) isSource() {}
func (Default) isSource()    {}

// Resolve determines the calc directory for the given source. A ByName
// source scans history newest-first and returns the first match;
// no match is an explicit ErrLocationNotFound rather than a silent fall
// back to the default. A nil source behaves like Default.
func Resolve(src Source, history []Record, defaultPath string) (string, error) {
	switch s := src.(type) {
	case Explicit:
		return s.Path, nil

	case ByName:
		for i := len(history) - 1; i >= 0; i-- {
			if history[i].Name == s.Name {
				return history[i].Path, nil
			}
		}
		return "", fmt.Errorf("%w: %q", domain.ErrLocationNotFound, s.Name)

	case MostRecent:
		if len(history) == 0 {
			return "", domain.ErrNoLocationHistory
		}
		return history[len(history)-1].Path, nil

	default:
		return defaultPath, nil
	}
}
