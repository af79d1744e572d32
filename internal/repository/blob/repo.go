// Package blob stores large serialized payloads in the content store,
// keyed by namespace and a generated id, separate from task documents.
package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zlib"

	"github.com/lattixlab/calcdock/internal/db"
	"github.com/lattixlab/calcdock/internal/domain"
)

// Compression tags recorded in the document reference.
const (
	CompressionZlib = "zlib"
	CompressionNone = "none"
)

// store is the consumer interface for blob payloads (ISP).
type store interface {
	Set(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
}

// Repo implements the blob store over a key-value backend. Compression is
// opportunistic: payloads are stored zlib-compressed only when that
// actually shrinks them, and the tag reports which form was stored.
type Repo struct {
	store  store
	prefix string
}

// New creates a blob repository.
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, prefix: keyPrefix}
}

// Insert stores a serialized payload under the given namespace and returns
// the assigned store id and the compression tag.
func (r *Repo) Insert(ctx context.Context, payload []byte, namespace string) (string, string, error) {
	id := uuid.NewString()

	stored, compression := compress(payload)

	if err := r.store.Set(ctx, r.key(namespace, id), stored); err != nil {
		return "", "", fmt.Errorf("%w: insert %s blob: %v", domain.ErrBlobStoreUnavailable, namespace, err)
	}
	return id, compression, nil
}

// Fetch retrieves a payload previously stored by Insert. compression must
// be the tag returned by Insert (it travels with the document reference).
func (r *Repo) Fetch(ctx context.Context, namespace, id, compression string) ([]byte, error) {
	data, err := r.store.Get(ctx, r.key(namespace, id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, fmt.Errorf("%s blob %s: %w", namespace, id, db.ErrKeyNotFound)
		}
		return nil, fmt.Errorf("%w: fetch %s blob %s: %v", domain.ErrBlobStoreUnavailable, namespace, id, err)
	}

	if compression != CompressionZlib {
		return data, nil
	}

	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decompress %s blob %s: %w", namespace, id, err)
	}
	defer zr.Close()

	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("decompress %s blob %s: %w", namespace, id, err)
	}
	return out, nil
}

func (r *Repo) key(namespace, id string) string {
	return fmt.Sprintf("%s%s:%s", r.prefix, namespace, id)
}

// compress returns the zlib-compressed payload when smaller than the
// original, otherwise the original bytes, plus the matching tag.
func compress(payload []byte) ([]byte, string) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(payload); err != nil {
		return payload, CompressionNone
	}
	if err := zw.Close(); err != nil {
		return payload, CompressionNone
	}
	if buf.Len() >= len(payload) {
		return payload, CompressionNone
	}
	return buf.Bytes(), CompressionZlib
}
