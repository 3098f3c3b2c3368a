package object

import "context"

// Store persists binary blobs and returns a URL clients can fetch them from.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}
