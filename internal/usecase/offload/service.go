// Package offload moves oversized named fields out of a task document into
// the blob store, replacing each with a small reference.
package offload

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/lattixlab/calcdock/internal/domain/task"
)

// Field names a document field eligible for offload and the blob namespace
// it lands in.
type Field struct {
	Name      string
	Namespace string
}

// Well-known offload policies from the original task schema.
var (
	DOS           = Field{Name: "dos", Namespace: "dos_fs"}
	BandStructure = Field{Name: "bandstructure", Namespace: "bandstructure_fs"}
)

// Service performs blob offload. It owns exclusive write access to the
// document for the duration of Offload; callers must not read the document
// concurrently.
type Service struct {
	blobs          BlobStore
	offloadedBytes *prometheus.CounterVec
	logger         *zap.Logger
}

// New creates an offload service. offloadedBytes may be nil.
func New(blobs BlobStore, offloadedBytes *prometheus.CounterVec, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{blobs: blobs, offloadedBytes: offloadedBytes, logger: logger}
}

// stagedRef is a confirmed blob write waiting to be applied to the document.
type stagedRef struct {
	field       Field
	storeID     string
	compression string
	size        int
}

// Offload moves each requested field out of the most recent calculation
// step. Documents without a calcs_reversed sequence are left untouched, as
// are fields absent from the latest step. All blob writes are buffered and
// confirmed before the document is mutated: on any failure the document is
// returned unchanged and the error surfaces to the caller.
func (s *Service) Offload(ctx context.Context, doc task.Document, fields []Field) error {
	step, ok := doc.LatestCalc()
	if !ok {
		return nil
	}

	var staged []stagedRef
	for _, f := range fields {
		val, present := step[f.Name]
		if !present {
			continue
		}

		payload, err := task.MarshalValue(val)
		if err != nil {
			return fmt.Errorf("offload %s: %w", f.Name, err)
		}

		id, compression, err := s.blobs.Insert(ctx, payload, f.Namespace)
		if err != nil {
			return fmt.Errorf("offload %s: %w", f.Name, err)
		}

		staged = append(staged, stagedRef{
			field:       f,
			storeID:     id,
			compression: compression,
			size:        len(payload),
		})
	}

	for _, ref := range staged {
		step[ref.field.Name+task.SuffixStoreID] = ref.storeID
		step[ref.field.Name+task.SuffixCompression] = ref.compression
		delete(step, ref.field.Name)

		if s.offloadedBytes != nil {
			s.offloadedBytes.WithLabelValues(ref.field.Namespace).Add(float64(ref.size))
		}
		s.logger.Debug("offloaded field",
			zap.String("field", ref.field.Name),
			zap.String("namespace", ref.field.Namespace),
			zap.String("fs_id", ref.storeID),
			zap.String("compression", ref.compression),
			zap.Int("bytes", ref.size),
		)
	}

	return nil
}
