package backup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinioConfig struct {
	Access   string
	Secret   string
	Bucket   string
	Endpoint string
	Region   string
	// archives are stored as <Prefix>/<name>
	Prefix string
	// use http instead of https, for local minio in tests
	Insecure bool
}

// MinioTarget stores archives in an S3-compatible bucket
type MinioTarget struct {
	Client *minio.Client
	config MinioConfig
}

func NewMinioTarget(ctx context.Context, config *MinioConfig) (*MinioTarget, error) {
	if config == nil {
		return nil, errors.New("must provide config")
	}
	c := config
	if c.Access == "" || c.Secret == "" || c.Bucket == "" || c.Endpoint == "" {
		return nil, errors.New("must provide access, secret, bucket and endpoint")
	}
	mc, err := minio.New(c.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(c.Access, c.Secret, ""),
		Region: c.Region,
		Secure: !c.Insecure,
	})
	if err != nil {
		return nil, err
	}
	found, err := mc.BucketExists(ctx, c.Bucket)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("bucket '%s' doesn't exist", c.Bucket)
	}
	return &MinioTarget{
		Client: mc,
		config: *c,
	}, nil
}

func (t *MinioTarget) remotePath(name string) string {
	if t.config.Prefix == "" {
		return name
	}
	return path.Join(t.config.Prefix, name)
}

func (t *MinioTarget) Put(ctx context.Context, name string, data []byte) error {
	opts := minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	}
	r := bytes.NewReader(data)
	_, err := t.Client.PutObject(ctx, t.config.Bucket, t.remotePath(name), r, int64(len(data)), opts)
	return err
}

func (t *MinioTarget) String() string {
	return fmt.Sprintf("s3 '%s/%s'", t.config.Endpoint, t.config.Bucket)
}
