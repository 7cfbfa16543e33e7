package domain

import (
	"context"
	"io"
)

// BlobWriter uploads data to object storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
	PutMultipart(ctx context.Context, path string, data io.Reader, partSize int64) error
}

// ScanArchiver stores a completed scan in cold storage and returns the object
// path it was written to.
type ScanArchiver interface {
	ArchiveScan(ctx context.Context, scan Scan, markets []Market) (string, error)
}
