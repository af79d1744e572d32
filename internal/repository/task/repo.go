package task

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/lattixlab/calcdock/internal/db"
	"github.com/lattixlab/calcdock/internal/domain"
	domtask "github.com/lattixlab/calcdock/internal/domain/task"
)

// store is the consumer interface for task documents (ISP).
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	Incr(ctx context.Context, key string) (int64, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
}

// Repo persists task documents in the document store. Inserts are
// append-only: each document gets a fresh sequence-assigned id and is
// written with a single JSON.SET.
type Repo struct {
	store  store
	prefix string
}

// New creates a task repository. keyPrefix plays the role of the
// collection name and scopes all keys and the sequence counter.
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, prefix: keyPrefix}
}

// Insert stores the document as one unit and returns the assigned id.
// The id is also written into the document's task_id field before
// serialization, so the stored document carries its own identity.
func (r *Repo) Insert(ctx context.Context, doc domtask.Document) (string, error) {
	seq, err := r.store.Incr(ctx, r.seqKey())
	if err != nil {
		return "", fmt.Errorf("%w: assign id: %v", domain.ErrDocumentStoreUnavailable, err)
	}
	id := strconv.FormatInt(seq, 10)
	doc.SetTaskID(id)

	data, err := domtask.Marshal(doc)
	if err != nil {
		return "", err
	}

	if err := r.store.JSONSet(ctx, r.docKey(id), "$", data); err != nil {
		return "", fmt.Errorf("%w: insert task %s: %v", domain.ErrDocumentStoreUnavailable, id, err)
	}
	return id, nil
}

// Get retrieves a stored task document by id.
func (r *Repo) Get(ctx context.Context, id string) (domtask.Document, error) {
	raw, err := r.store.JSONGet(ctx, r.docKey(id), "$")
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, fmt.Errorf("task %s: %w", id, db.ErrKeyNotFound)
		}
		return nil, fmt.Errorf("%w: get task %s: %v", domain.ErrDocumentStoreUnavailable, id, err)
	}
	return decodeGetResult(raw)
}

// EnsureIndices builds the FT index over the requested document fields.
// An already existing index is not an error; index construction is
// independent of document insertion.
func (r *Repo) EnsureIndices(ctx context.Context, fields []string) error {
	if len(fields) == 0 {
		fields = DefaultIndexFields
	}
	def := buildIndex(r.prefix, fields)
	if err := def.Validate(); err != nil {
		return fmt.Errorf("index %s: %w", def.Name, err)
	}
	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return fmt.Errorf("%w: build index %s: %v", domain.ErrDocumentStoreUnavailable, def.Name, err)
	}
	return nil
}

func (r *Repo) docKey(id string) string {
	return fmt.Sprintf("%stask:%s", r.prefix, id)
}

func (r *Repo) seqKey() string {
	return r.prefix + "task:seq"
}

// decodeGetResult unwraps the single-element array JSON.GET $ returns.
func decodeGetResult(raw []byte) (domtask.Document, error) {
	doc, err := domtask.Unmarshal(raw)
	if err == nil {
		return doc, nil
	}

	// JSON.GET with a $ path wraps the document in an array.
	wrapped, arrErr := domtask.UnmarshalArray(raw)
	if arrErr != nil {
		return nil, err
	}
	return wrapped, nil
}
