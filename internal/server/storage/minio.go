package storage

import (
	"context"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type minioPutter interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// MinioOptions configures the MinIO backend.
type MinioOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	Bucket    string
	UseSSL    bool
}

// Minio writes files to a MinIO bucket.
type Minio struct {
	client minioPutter
	bucket string
}

func NewMinio(o MinioOptions) (*Minio, error) {
	client, err := minio.New(o.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(o.AccessKey, o.SecretKey, ""),
		Secure: o.UseSSL,
		Region: o.Region,
	})
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "create minio client"), ErrUnavailable)
	}
	return &Minio{client: client, bucket: o.Bucket}, nil
}

// Write implements Writer.
func (m *Minio) Write(ctx context.Context, dir, filename string, body io.Reader, size int64) error {
	key, err := objectKey(dir, filename)
	if err != nil {
		return err
	}

	_, err = m.client.PutObject(ctx, m.bucket, key, body, size, minio.PutObjectOptions{
		ContentType: contentType(filename),
	})
	if err != nil {
		return classifyMinioError(errors.Wrapf(err, "minio put %s/%s", m.bucket, key))
	}
	return nil
}

// classifyMinioError marks err with the storage sentinel matching the
// MinIO error code, falling back to message inspection.
func classifyMinioError(err error) error {
	if err == nil {
		return nil
	}

	var resp minio.ErrorResponse
	if errors.As(err, &resp) {
		switch resp.Code {
		case "NoSuchBucket":
			return errors.Mark(err, ErrBucketNotFound)
		case "AccessDenied":
			return errors.Mark(err, ErrPermissionDenied)
		case "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return errors.Mark(err, ErrAuthInvalid)
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "no such bucket"):
		return errors.Mark(err, ErrBucketNotFound)
	case strings.Contains(msg, "access denied"):
		return errors.Mark(err, ErrPermissionDenied)
	case strings.Contains(msg, "connection refused"), strings.Contains(msg, "no such host"),
		strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline"):
		return errors.Mark(err, ErrUnavailable)
	}
	return err
}
