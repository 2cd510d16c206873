package opener

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/minio/minio-go/v7"

	"payments_admin/internal/ports"
)

type S3Client interface {
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (*minio.Object, error)
}

type S3Opener struct {
	Client S3Client
	Logger *slog.Logger
}

func NewS3Opener(cli S3Client, logger *slog.Logger) *S3Opener {
	if logger == nil {
		logger = slog.Default()
	}
	return &S3Opener{Client: cli, Logger: logger}
}

func (s *S3Opener) Open(ctx context.Context, bucket, key string) (io.ReadCloser, ports.Meta, error) {
	s.Logger.Debug("[EVIDENCE][S3][START]", "bucket", bucket, "key", key)
	st, err := s.Client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		s.Logger.Error("[EVIDENCE][S3][ERR] stat", "bucket", bucket, "key", key, "error", err)
		return nil, ports.Meta{}, fmt.Errorf("s3 stat: %w", err)
	}
	obj, err := s.Client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		s.Logger.Error("[EVIDENCE][S3][ERR] get", "bucket", bucket, "key", key, "error", err)
		return nil, ports.Meta{}, fmt.Errorf("s3 get: %w", err)
	}
	s.Logger.Debug("[EVIDENCE][S3][OK]", "content_type", st.ContentType, "size", st.Size, "etag", st.ETag)
	return obj, ports.Meta{
		Source:      "s3",
		ContentType: st.ContentType,
		Size:        st.Size,
		Bucket:      bucket,
		Key:         key,
	}, nil
}
