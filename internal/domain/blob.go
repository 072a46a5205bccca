package domain

import (
	"context"
	"time"
)

// Object is one entry in object storage.
type Object struct {
	Key        string
	Size       int64
	ModifiedAt time.Time
}

// ObjectWriter stores whole objects. Archived documents are small, so bodies
// are passed in memory.
type ObjectWriter interface {
	PutObject(ctx context.Context, key string, body []byte, contentType string) error
}

// ObjectReader fetches and lists objects. A missing key yields ErrNotFound.
type ObjectReader interface {
	GetObject(ctx context.Context, key string) ([]byte, error)
	ListObjects(ctx context.Context, prefix string) ([]Object, error)
}
