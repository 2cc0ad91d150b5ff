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

package database

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/blinklabs-io/quadvote/database/plugin"
	"github.com/blinklabs-io/quadvote/database/plugin/blob"
	"github.com/blinklabs-io/quadvote/database/plugin/metadata"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	DefaultBlobPlugin     = "badger"
	DefaultMetadataPlugin = "sqlite"
)

// Config holds the settings for opening a Database. An empty DataDir keeps
// both stores in memory
type Config struct {
	PromRegistry   prometheus.Registerer
	Logger         *slog.Logger
	BlobPlugin     string
	MetadataPlugin string
	DataDir        string
}

type Database struct {
	logger   *slog.Logger
	blob     blob.BlobStore
	metadata metadata.MetadataStore
	config   *Config
}

// Blob returns the underling blob store instance
func (d *Database) Blob() blob.BlobStore {
	return d.blob
}

// Config returns the config object used for the database instance
func (d *Database) Config() *Config {
	return d.config
}

// DataDir returns the path to the data directory used for storage
func (d *Database) DataDir() string {
	return d.config.DataDir
}

// Logger returns the logger instance
func (d *Database) Logger() *slog.Logger {
	return d.logger
}

// Metadata returns the underlying metadata store instance
func (d *Database) Metadata() metadata.MetadataStore {
	return d.metadata
}

// Transaction starts a new database transaction and returns a handle to it
func (d *Database) Transaction(readWrite bool) *Txn {
	return NewTxn(d, readWrite)
}

// Close cleans up the database connections
func (d *Database) Close() error {
	var err error
	// Close metadata
	if d.metadata != nil {
		err = errors.Join(err, d.metadata.Close())
	}
	// Close blob
	if d.blob != nil {
		err = errors.Join(err, d.blob.Close())
	}
	return err
}

func (d *Database) init() error {
	if d.logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		d.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	// Check commit timestamp
	if err := d.checkCommitTimestamp(); err != nil {
		return err
	}
	return nil
}

// New creates a new database instance with optional persistence using the
// provided data directory
func New(config *Config) (*Database, error) {
	if config == nil {
		config = &Config{}
	}
	configCopy := *config
	if configCopy.BlobPlugin == "" {
		configCopy.BlobPlugin = DefaultBlobPlugin
	}
	if configCopy.MetadataPlugin == "" {
		configCopy.MetadataPlugin = DefaultMetadataPlugin
	}
	// Point the storage plugins at our data directory. Plugins without a
	// data-dir option ignore this
	if err := plugin.SetPluginOption(
		plugin.PluginTypeMetadata,
		configCopy.MetadataPlugin,
		"data-dir",
		configCopy.DataDir,
	); err != nil {
		return nil, fmt.Errorf("configure metadata plugin: %w", err)
	}
	if err := plugin.SetPluginOption(
		plugin.PluginTypeBlob,
		configCopy.BlobPlugin,
		"data-dir",
		configCopy.DataDir,
	); err != nil {
		return nil, fmt.Errorf("configure blob plugin: %w", err)
	}
	metadataDb, err := metadata.New(
		configCopy.MetadataPlugin,
		configCopy.Logger,
		configCopy.PromRegistry,
	)
	if err != nil {
		return nil, err
	}
	blobDb, err := blob.New(
		configCopy.BlobPlugin,
		configCopy.Logger,
		configCopy.PromRegistry,
	)
	if err != nil {
		_ = metadataDb.Close()
		return nil, err
	}
	db := &Database{
		logger:   configCopy.Logger,
		blob:     blobDb,
		metadata: metadataDb,
		config:   &configCopy,
	}
	if err := db.init(); err != nil {
		// Database is available for recovery, so return it with error
		return db, err
	}
	return db, nil
}
