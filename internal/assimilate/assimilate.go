// Package assimilate defines the capability that turns a completed
// calculation directory into a result document, and a registry of named
// implementations chosen once at pipeline construction.
package assimilate

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/lattixlab/calcdock/internal/domain/task"
)

// Assimilator parses a calc directory into a result document. The pipeline
// treats it as opaque: it assumes nothing about the document beyond the
// state, task_id and calcs_reversed fields it manipulates itself.
type Assimilator interface {
	Assimilate(ctx context.Context, dir string) (task.Document, error)
}

// Factory builds an assimilator instance.
type Factory func() Assimilator

var (
	mu        sync.RWMutex
	factories = make(map[string]Factory)
)

// Register adds a named assimilator factory. Call from the composition
// root, not from init(). Registering the same name twice is a bug.
func Register(name string, f Factory) error {
	mu.Lock()
	defer mu.Unlock()
	if _, dup := factories[name]; dup {
		return fmt.Errorf("assimilator %q already registered", name)
	}
	factories[name] = f
	return nil
}

// New resolves a registered assimilator by name.
func New(name string) (Assimilator, error) {
	mu.RLock()
	f, ok := factories[name]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown assimilator %q (registered: %v)", name, Names())
	}
	return f(), nil
}

// Names lists registered assimilator names, sorted.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(factories))
	for n := range factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
