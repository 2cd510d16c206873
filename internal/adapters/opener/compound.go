package opener

import (
	"context"
	"errors"
	"io"
	"net/url"
	"path"
	"strings"

	"payments_admin/internal/ports"
)

var ErrNoEvidence = errors.New("payment has no evidence")

// CompoundOpener resolves an evidence reference by its shape: http(s) URLs are
// downloaded, s3://bucket/key is read from that bucket and a bare key is read from
// the default evidence bucket.
type CompoundOpener struct {
	HTTP *HTTPOpener
	S3   *S3Opener

	DefaultBucket string
}

var _ ports.EvidenceOpener = (*CompoundOpener)(nil)

func NewCompoundOpener(httpOp *HTTPOpener, s3Op *S3Opener, defaultBucket string) *CompoundOpener {
	return &CompoundOpener{
		HTTP:          httpOp,
		S3:            s3Op,
		DefaultBucket: defaultBucket,
	}
}

func (c *CompoundOpener) Open(ctx context.Context, ref string) (io.ReadCloser, ports.Meta, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, ports.Meta{}, ErrNoEvidence
	}

	switch {
	case strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://"):
		if c.HTTP == nil {
			return nil, ports.Meta{}, errors.New("http evidence source not configured")
		}
		return c.HTTP.Open(ctx, ref)

	case strings.HasPrefix(ref, "s3://"):
		if c.S3 == nil {
			return nil, ports.Meta{}, errors.New("s3 evidence source not configured")
		}
		bkt, key, err := parseS3URL(ref)
		if err != nil {
			return nil, ports.Meta{}, err
		}
		return c.S3.Open(ctx, bkt, key)

	default:
		if c.S3 == nil || c.DefaultBucket == "" {
			return nil, ports.Meta{}, errors.New("evidence is a bare key but no evidence bucket is configured")
		}
		key, err := cleanKey(ref)
		if err != nil {
			return nil, ports.Meta{}, err
		}
		return c.S3.Open(ctx, c.DefaultBucket, key)
	}
}

func parseS3URL(raw string) (bucket, key string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", err
	}
	if u.Scheme != "s3" {
		return "", "", errors.New("scheme must be s3")
	}
	bucket = u.Host
	if bucket == "" {
		return "", "", errors.New("empty bucket or key")
	}
	key, err = cleanKey(u.Path)
	if err != nil {
		return "", "", err
	}
	return bucket, key, nil
}

func cleanKey(k string) (string, error) {
	k = path.Clean(strings.TrimLeft(k, "/"))
	if k == "." || k == ".." || strings.HasPrefix(k, "../") {
		return "", errors.New("empty bucket or key")
	}
	return k, nil
}
