// Package bucket is the object-store facade the file-list compactor and
// the ingest path (out of scope) share. It narrows thanos-io/objstore's
// richer Bucket interface down to the four operations this core needs,
// the same way pkg/compactor/compactor.go's bucketClientFactory wraps
// objstore.Bucket behind a single constructor.
package bucket

import (
	"bytes"
	"context"
	"io"

	"github.com/go-kit/log"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/thanos-io/objstore"
	"github.com/thanos-io/objstore/providers/s3"
)

// Client is the narrow facade used throughout this core.
type Client interface {
	// List returns every object key under prefix, non-recursively
	// namespaced the way file-list manifests are: callers pass an
	// hour-prefix and get back every manifest in that hour.
	List(ctx context.Context, prefix string) ([]string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// Config selects and configures the concrete object-store backend.
type Config struct {
	S3 s3.Config `yaml:"s3"`
}

// NewClient builds a Client backed by an S3-compatible store via
// thanos-io/objstore, passing component to the S3 client and labelling
// the bucket metrics with the bucket name, the same convention compactor.go uses when it calls
// bucket.NewClient(ctx, storageCfg.Bucket, "compactor", logger, registerer).
func NewClient(cfg Config, component string, logger log.Logger, reg prometheus.Registerer) (Client, error) {
	bkt, err := s3.NewBucketWithConfig(logger, cfg.S3, component, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create s3 bucket client")
	}

	wrapped := objstore.BucketWithMetrics(cfg.S3.Bucket, bkt, reg)
	return &thanosClient{bkt: wrapped}, nil
}

type thanosClient struct {
	bkt objstore.Bucket
}

func (c *thanosClient) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := c.bkt.Iter(ctx, prefix, func(name string) error {
		keys = append(keys, name)
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "list %s", prefix)
	}
	return keys, nil
}

func (c *thanosClient) Get(ctx context.Context, key string) ([]byte, error) {
	rc, err := c.bkt.Get(ctx, key)
	if err != nil {
		return nil, errors.Wrapf(err, "get %s", key)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", key)
	}
	return data, nil
}

func (c *thanosClient) Put(ctx context.Context, key string, data []byte) error {
	if err := c.bkt.Upload(ctx, key, bytes.NewReader(data)); err != nil {
		return errors.Wrapf(err, "upload %s", key)
	}
	return nil
}

func (c *thanosClient) Delete(ctx context.Context, key string) error {
	if err := c.bkt.Delete(ctx, key); err != nil {
		return errors.Wrapf(err, "delete %s", key)
	}
	return nil
}
