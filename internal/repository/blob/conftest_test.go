package blob

import (
	"context"

	"github.com/lattixlab/calcdock/internal/db"
)

type mockStore struct {
	setFn func(ctx context.Context, key string, value []byte) error
	getFn func(ctx context.Context, key string) ([]byte, error)

	data map[string][]byte
}

func newMockStore() *mockStore {
	return &mockStore{data: map[string][]byte{}}
}

func (m *mockStore) Set(ctx context.Context, key string, value []byte) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value)
	}
	m.data[key] = value
	return nil
}

func (m *mockStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	value, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return value, nil
}
