// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package aws

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/blinklabs-io/quadvote/database/plugin/blob/internal/blobmetrics"
	"github.com/blinklabs-io/quadvote/database/plugin/blob/internal/objectstore"
	"github.com/blinklabs-io/quadvote/database/types"
	"github.com/prometheus/client_golang/prometheus"
)

// BlobStoreS3 stores data in an AWS S3 bucket
type BlobStoreS3 struct {
	promRegistry prometheus.Registerer
	logger       *slog.Logger
	client       *s3.Client
	metrics      *blobmetrics.Metrics
	bucket       string
	prefix       string
	region       string
	endpoint     string
	timeout      time.Duration
}

// New creates an S3 blob store from a location of the form
// s3://bucket[/prefix]
func New(
	dataDir string,
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
) (*BlobStoreS3, error) {
	loc, err := objectstore.ParseLocation("s3", dataDir)
	if err != nil {
		return nil, err
	}
	return NewWithOptions(
		WithLocation(loc),
		WithLogger(logger),
		WithPromRegistry(promRegistry),
	)
}

// NewWithOptions creates a new S3-backed blob store using options.
func NewWithOptions(opts ...BlobStoreS3OptionFunc) (*BlobStoreS3, error) {
	db := &BlobStoreS3{}

	// Apply options
	for _, opt := range opts {
		opt(db)
	}

	// Set defaults (no side effects)
	if db.logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		db.SetLogger(slog.New(slog.NewJSONHandler(io.Discard, nil)))
	}
	db.prefix = objectstore.NormalizePrefix(db.prefix)

	// AWS config loading and validation happen in Start()
	return db, nil
}

func (d *BlobStoreS3) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	d.logger = logger.With("component", "database", "plugin", "s3")
}

func (d *BlobStoreS3) SetPromRegistry(registry prometheus.Registerer) {
	d.promRegistry = registry
}

// Start implements the plugin.Plugin interface.
func (d *BlobStoreS3) Start() error {
	// Validate required fields
	if d.bucket == "" {
		return errors.New("s3 blob: bucket not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), d.opTimeout())
	defer cancel()
	// Load AWS config
	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return fmt.Errorf("s3 blob: load default AWS config: %w", err)
	}
	// Override region if specified
	if d.region != "" {
		awsCfg.Region = d.region
	}
	d.client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if d.endpoint != "" {
			o.BaseEndpoint = aws.String(d.endpoint)
			// Most S3-compatible servers (minio, etc.) need path-style URLs
			o.UsePathStyle = true
		}
	})
	d.metrics = blobmetrics.New(d.promRegistry, "s3")
	d.logger.Info(
		"s3 blob store started",
		"bucket", d.bucket,
		"prefix", d.prefix,
	)
	return nil
}

// Stop implements the plugin.Plugin interface.
func (d *BlobStoreS3) Stop() error {
	// S3 client doesn't need explicit closing
	return nil
}

// Close implements the BlobStore interface.
func (d *BlobStoreS3) Close() error {
	return d.Stop()
}

// Returns the S3 client.
func (d *BlobStoreS3) Client() *s3.Client {
	return d.client
}

// Returns the bucket name.
func (d *BlobStoreS3) Bucket() string {
	return d.bucket
}

func (d *BlobStoreS3) opTimeout() time.Duration {
	if d.timeout == 0 {
		return objectstore.DefaultOpTimeout
	}
	return d.timeout
}

// NewTransaction returns a transaction that buffers writes until Commit
func (d *BlobStoreS3) NewTransaction(readWrite bool) types.Txn {
	var backend objectstore.Backend
	if d.client != nil {
		backend = d
	}
	return objectstore.NewTxn(d, backend, d.metrics, d.opTimeout(), readWrite)
}

func (d *BlobStoreS3) validateTxn(txn types.Txn) (*objectstore.Txn, error) {
	if txn == nil {
		return nil, types.ErrNilTxn
	}
	t, ok := txn.(*objectstore.Txn)
	if !ok || t.Owner() != d {
		return nil, types.ErrTxnWrongType
	}
	if d.client == nil {
		return nil, types.ErrBlobStoreUnavailable
	}
	if err := t.Check(); err != nil {
		return nil, err
	}
	return t, nil
}

// Get retrieves a value within a transaction
func (d *BlobStoreS3) Get(txn types.Txn, key []byte) ([]byte, error) {
	t, err := d.validateTxn(txn)
	if err != nil {
		return nil, err
	}
	return t.Get(key)
}

// Set stages a key-value pair within a transaction
func (d *BlobStoreS3) Set(txn types.Txn, key, val []byte) error {
	t, err := d.validateTxn(txn)
	if err != nil {
		return err
	}
	return t.Set(key, val)
}

// Delete stages the removal of a key within a transaction
func (d *BlobStoreS3) Delete(txn types.Txn, key []byte) error {
	t, err := d.validateTxn(txn)
	if err != nil {
		return err
	}
	return t.Delete(key)
}

// NewIterator creates an iterator within a transaction.
//
// Important: items returned by the iterator's Item() must only be
// accessed while the transaction used to create the iterator is still
// active.
func (d *BlobStoreS3) NewIterator(
	txn types.Txn,
	opts types.BlobIteratorOptions,
) types.BlobIterator {
	t, err := d.validateTxn(txn)
	if err != nil {
		return objectstore.NewErrorIterator(err)
	}
	return t.NewIterator(opts)
}

// Returns the S3 key with the configured prefix.
func (d *BlobStoreS3) fullKey(key string) string {
	return d.prefix + key
}

// GetObject implements objectstore.Backend
func (d *BlobStoreS3) GetObject(ctx context.Context, key string) ([]byte, error) {
	out, err := d.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(d.fullKey(key)),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, types.ErrBlobKeyNotFound
		}
		d.logger.Error("s3 get failed", "key", key, "error", err)
		return nil, err
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		d.logger.Error("s3 read failed", "key", key, "error", err)
		return nil, err
	}
	d.logger.Debug("s3 get", "key", key, "bytes", len(data))
	return data, nil
}

// PutObject implements objectstore.Backend
func (d *BlobStoreS3) PutObject(ctx context.Context, key string, data []byte) error {
	_, err := d.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(d.fullKey(key)),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		d.logger.Error("s3 put failed", "key", key, "error", err)
		return err
	}
	d.logger.Debug("s3 put", "key", key, "bytes", len(data))
	return nil
}

// DeleteObject implements objectstore.Backend
func (d *BlobStoreS3) DeleteObject(ctx context.Context, key string) error {
	_, err := d.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(d.fullKey(key)),
	})
	if err != nil && !isS3NotFound(err) {
		d.logger.Error("s3 delete failed", "key", key, "error", err)
		return err
	}
	return nil
}

// ListObjects implements objectstore.Backend
func (d *BlobStoreS3) ListObjects(ctx context.Context, prefix string) ([]string, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(d.bucket),
	}
	if full := d.fullKey(prefix); full != "" {
		input.Prefix = aws.String(full)
	}
	paginator := s3.NewListObjectsV2Paginator(d.client, input)
	keys := make([]string, 0)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			d.logger.Error("s3 list failed", "prefix", prefix, "error", err)
			return nil, err
		}
		for _, obj := range page.Contents {
			keys = append(keys, strings.TrimPrefix(aws.ToString(obj.Key), d.prefix))
		}
	}
	return keys, nil
}

func isS3NotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	var noSuchKey *s3types.NoSuchKey
	return errors.As(err, &noSuchKey)
}
