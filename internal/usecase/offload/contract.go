package offload

import "context"

// BlobStore writes serialized payloads into the content store.
type BlobStore interface {
	Insert(ctx context.Context, payload []byte, namespace string) (storeID, compression string, err error)
}
