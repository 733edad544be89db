package storage

import "context"

// Object is a stored blob with its content type.
type Object struct {
	Bucket      string
	Key         string
	ContentType string
	Data        []byte
}

// Store is the object-storage surface used by upload flows: write bytes
// under a bucket/key and hand back a public URL for later retrieval.
type Store interface {
	Upload(ctx context.Context, bucket, key string, data []byte, contentType string) (string, error)
	PublicURL(bucket, key string) string
	Get(ctx context.Context, bucket, key string) (Object, error)
}
