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

package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/blinklabs-io/quadvote/database/plugin/blob/internal/blobmetrics"
	"github.com/blinklabs-io/quadvote/database/plugin/blob/internal/objectstore"
	"github.com/blinklabs-io/quadvote/database/types"
	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// BlobStoreGCS stores data in a Google Cloud Storage bucket.
type BlobStoreGCS struct {
	promRegistry    prometheus.Registerer
	logger          *slog.Logger
	client          *storage.Client
	bucket          *storage.BucketHandle
	metrics         *blobmetrics.Metrics
	bucketName      string
	prefix          string
	credentialsFile string
	timeout         time.Duration
}

// New creates a GCS blob store from a location of the form
// gcs://bucket[/prefix]
func New(
	dataDir string,
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
) (*BlobStoreGCS, error) {
	loc, err := objectstore.ParseLocation("gcs", dataDir)
	if err != nil {
		return nil, err
	}
	return NewWithOptions(
		WithLocation(loc),
		WithLogger(logger),
		WithPromRegistry(promRegistry),
	)
}

// NewWithOptions creates a new GCS-backed blob store using options.
func NewWithOptions(opts ...BlobStoreGCSOptionFunc) (*BlobStoreGCS, error) {
	db := &BlobStoreGCS{}

	// Apply options
	for _, opt := range opts {
		opt(db)
	}

	// Set defaults
	if db.logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		db.SetLogger(slog.New(slog.NewJSONHandler(io.Discard, nil)))
	}
	db.prefix = objectstore.NormalizePrefix(db.prefix)
	return db, nil
}

func (d *BlobStoreGCS) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	d.logger = logger.With("component", "database", "plugin", "gcs")
}

func (d *BlobStoreGCS) SetPromRegistry(registry prometheus.Registerer) {
	d.promRegistry = registry
}

// validateCredentials checks that an explicitly configured credentials
// file exists before handing it to the client library
func validateCredentials(credentialsFile string) error {
	if credentialsFile == "" {
		return nil
	}
	if _, err := os.Stat(credentialsFile); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf(
				"GCS credentials file does not exist: %s",
				credentialsFile,
			)
		}
		return fmt.Errorf("GCS credentials file: %w", err)
	}
	return nil
}

// Start implements the plugin.Plugin interface.
func (d *BlobStoreGCS) Start() error {
	// Validate required fields
	if d.bucketName == "" {
		return errors.New("gcs blob: bucket not set")
	}
	if err := validateCredentials(d.credentialsFile); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	clientOpts := []option.ClientOption{storage.WithDisabledClientMetrics()}
	if d.credentialsFile != "" {
		clientOpts = append(
			clientOpts,
			option.WithCredentialsFile(d.credentialsFile),
		)
	}
	client, err := storage.NewGRPCClient(ctx, clientOpts...)
	if err != nil {
		return fmt.Errorf(
			"gcs blob: failed in creating storage client: %w",
			err,
		)
	}
	d.client = client
	d.bucket = client.Bucket(d.bucketName)
	d.metrics = blobmetrics.New(d.promRegistry, "gcs")
	d.logger.Info(
		"gcs blob store started",
		"bucket", d.bucketName,
		"prefix", d.prefix,
	)
	return nil
}

// Stop implements the plugin.Plugin interface.
func (d *BlobStoreGCS) Stop() error {
	return d.Close()
}

// Close closes the GCS client.
func (d *BlobStoreGCS) Close() error {
	if d.client == nil {
		return nil
	}
	err := d.client.Close()
	d.client = nil
	d.bucket = nil
	return err
}

// Returns the GCS client.
func (d *BlobStoreGCS) Client() *storage.Client {
	return d.client
}

// Returns the bucket handle.
func (d *BlobStoreGCS) Bucket() *storage.BucketHandle {
	return d.bucket
}

func (d *BlobStoreGCS) opTimeout() time.Duration {
	if d.timeout == 0 {
		return objectstore.DefaultOpTimeout
	}
	return d.timeout
}

// NewTransaction returns a transaction that buffers writes until Commit
func (d *BlobStoreGCS) NewTransaction(readWrite bool) types.Txn {
	var backend objectstore.Backend
	if d.bucket != nil {
		backend = d
	}
	return objectstore.NewTxn(d, backend, d.metrics, d.opTimeout(), readWrite)
}

func (d *BlobStoreGCS) validateTxn(txn types.Txn) (*objectstore.Txn, error) {
	if txn == nil {
		return nil, types.ErrNilTxn
	}
	t, ok := txn.(*objectstore.Txn)
	if !ok || t.Owner() != d {
		return nil, types.ErrTxnWrongType
	}
	if d.bucket == nil {
		return nil, types.ErrBlobStoreUnavailable
	}
	if err := t.Check(); err != nil {
		return nil, err
	}
	return t, nil
}

func (d *BlobStoreGCS) Get(txn types.Txn, key []byte) ([]byte, error) {
	t, err := d.validateTxn(txn)
	if err != nil {
		return nil, err
	}
	return t.Get(key)
}

func (d *BlobStoreGCS) Set(txn types.Txn, key, val []byte) error {
	t, err := d.validateTxn(txn)
	if err != nil {
		return err
	}
	return t.Set(key, val)
}

func (d *BlobStoreGCS) Delete(txn types.Txn, key []byte) error {
	t, err := d.validateTxn(txn)
	if err != nil {
		return err
	}
	return t.Delete(key)
}

func (d *BlobStoreGCS) NewIterator(
	txn types.Txn,
	opts types.BlobIteratorOptions,
) types.BlobIterator {
	t, err := d.validateTxn(txn)
	if err != nil {
		return objectstore.NewErrorIterator(err)
	}
	return t.NewIterator(opts)
}

// GetObject implements objectstore.Backend
func (d *BlobStoreGCS) GetObject(ctx context.Context, key string) ([]byte, error) {
	r, err := d.bucket.Object(d.prefix + key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, types.ErrBlobKeyNotFound
		}
		d.logger.Error("gcs get failed", "key", key, "error", err)
		return nil, err
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		d.logger.Error("gcs read failed", "key", key, "error", err)
		return nil, err
	}
	return data, nil
}

// PutObject implements objectstore.Backend
func (d *BlobStoreGCS) PutObject(ctx context.Context, key string, data []byte) error {
	w := d.bucket.Object(d.prefix + key).NewWriter(ctx)
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		d.logger.Error("gcs put failed", "key", key, "error", err)
		return err
	}
	if err := w.Close(); err != nil {
		d.logger.Error("gcs put close failed", "key", key, "error", err)
		return err
	}
	return nil
}

// DeleteObject implements objectstore.Backend
func (d *BlobStoreGCS) DeleteObject(ctx context.Context, key string) error {
	err := d.bucket.Object(d.prefix + key).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		d.logger.Error("gcs delete failed", "key", key, "error", err)
		return err
	}
	return nil
}

// ListObjects implements objectstore.Backend
func (d *BlobStoreGCS) ListObjects(ctx context.Context, prefix string) ([]string, error) {
	it := d.bucket.Objects(ctx, &storage.Query{Prefix: d.prefix + prefix})
	keys := make([]string, 0)
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			d.logger.Error("gcs list failed", "prefix", prefix, "error", err)
			return nil, err
		}
		keys = append(keys, strings.TrimPrefix(attrs.Name, d.prefix))
	}
	return keys, nil
}
