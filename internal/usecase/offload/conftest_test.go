package offload

import "context"

type mockBlobStore struct {
	insertFn func(ctx context.Context, payload []byte, namespace string) (string, string, error)
	inserts  int
}

func (m *mockBlobStore) Insert(ctx context.Context, payload []byte, namespace string) (string, string, error) {
	m.inserts++
	if m.insertFn != nil {
		return m.insertFn(ctx, payload, namespace)
	}
	return "blob-1", "none", nil
}
