package core

import "context"

// BlobStorage stores opaque binary documents (logos, contracts, scanned exams)
// and returns a public URL for each.
type BlobStorage interface {
	Store(ctx context.Context, data []byte, folderHint, name string) (publicURL string, err error)
}
