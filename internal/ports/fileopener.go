package ports

import (
	"context"
	"io"
)

type Meta struct {
	Source      string
	ContentType string
	Size        int64
	Bucket      string
	Key         string
}

// EvidenceOpener resolves a payment's evidence reference to its content.
type EvidenceOpener interface {
	Open(ctx context.Context, ref string) (io.ReadCloser, Meta, error)
}
