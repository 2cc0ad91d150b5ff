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
package sqlite

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/blinklabs-io/quadvote/database/plugin/metadata/internal/gormstore"
	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	DefaultBusyTimeout    = 5000
	DefaultCacheSizeKiB   = 50000
	DefaultVacuumInterval = 24 * time.Hour
)

// memoryDbCounter gives every in-memory store its own database, since a
// shared-cache memory database outlives a single connection by name
var memoryDbCounter atomic.Uint64

// MetadataStoreSqlite stores metadata in SQLite. The connection pool is
// limited to a single connection, which serializes writers
type MetadataStoreSqlite struct {
	*gormstore.Store
	promRegistry   prometheus.Registerer
	logger         *slog.Logger
	timerVacuum    *time.Timer
	timerMutex     sync.Mutex
	dataDir        string
	busyTimeout    uint64
	cacheSizeKiB   uint64
	vacuumInterval time.Duration
	closed         bool
	vacuumWG       sync.WaitGroup
}

// New creates a new database
func New(
	dataDir string,
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
) (*MetadataStoreSqlite, error) {
	return NewWithOptions(
		WithDataDir(dataDir),
		WithLogger(logger),
		WithPromRegistry(promRegistry),
	)
}

// NewWithOptions creates a new database with options
func NewWithOptions(opts ...SqliteOptionFunc) (*MetadataStoreSqlite, error) {
	db := &MetadataStoreSqlite{}
	for _, opt := range opts {
		opt(db)
	}
	if db.busyTimeout == 0 {
		db.busyTimeout = DefaultBusyTimeout
	}
	if db.cacheSizeKiB == 0 {
		db.cacheSizeKiB = DefaultCacheSizeKiB
	}
	if db.vacuumInterval == 0 {
		db.vacuumInterval = DefaultVacuumInterval
	}
	return db, nil
}

// SetLogger implements the plugin.Instrumentable interface
func (d *MetadataStoreSqlite) SetLogger(logger *slog.Logger) {
	d.logger = logger
}

// SetPromRegistry implements the plugin.Instrumentable interface
func (d *MetadataStoreSqlite) SetPromRegistry(registry prometheus.Registerer) {
	d.promRegistry = registry
}

func (d *MetadataStoreSqlite) dsn() (string, error) {
	busyOpt := fmt.Sprintf("_pragma=busy_timeout(%d)", d.busyTimeout)
	if d.dataDir == "" {
		// Use in-memory database when no data directory is specified, useful for testing
		return fmt.Sprintf(
			"file:quadvote-mem-%d?mode=memory&cache=shared&%s",
			memoryDbCounter.Add(1),
			busyOpt,
		), nil
	}
	// Make sure that we can read data dir, and create if it doesn't exist
	if _, err := os.Stat(d.dataDir); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("failed to read data dir: %w", err)
		}
		if err := os.MkdirAll(d.dataDir, fs.ModePerm); err != nil {
			return "", fmt.Errorf("failed to create data dir: %w", err)
		}
	}
	metadataDbPath := filepath.Join(
		d.dataDir,
		"metadata.sqlite",
	)
	// A negative cache_size is in KiB rather than pages
	return fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=cache_size(-%d)&_pragma=foreign_keys(1)&%s",
		metadataDbPath,
		d.cacheSizeKiB,
		busyOpt,
	), nil
}

// Start implements the plugin.Plugin interface
func (d *MetadataStoreSqlite) Start() error {
	if d.logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		d.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	dsn, err := d.dsn()
	if err != nil {
		return err
	}
	metadataDb, err := gorm.Open(
		sqlite.Open(dsn),
		&gorm.Config{
			Logger:                 gormlogger.Discard,
			SkipDefaultTransaction: true,
			TranslateError:         true,
		},
	)
	if err != nil {
		return err
	}
	sqlDB, err := metadataDb.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxOpenConns(1)
	store, err := gormstore.New(metadataDb, d.logger, false)
	if err != nil {
		_ = sqlDB.Close()
		return err
	}
	d.Store = store
	if err := d.Migrate(); err != nil {
		return err
	}
	if err := d.RegisterMetrics(d.promRegistry, "metadata_sqlite"); err != nil {
		return err
	}
	// A negative interval disables vacuum
	if d.vacuumInterval > 0 {
		d.scheduleVacuum()
	}
	return nil
}

// Stop implements the plugin.Plugin interface
func (d *MetadataStoreSqlite) Stop() error {
	return d.Close()
}

func (d *MetadataStoreSqlite) runVacuum() error {
	d.timerMutex.Lock()
	if d.dataDir == "" || d.closed {
		d.timerMutex.Unlock()
		return nil
	}
	// Track this vacuum operation while we know the store is open
	d.vacuumWG.Add(1)
	d.timerMutex.Unlock()
	defer d.vacuumWG.Done()

	if result := d.DB().Exec("VACUUM"); result.Error != nil {
		return result.Error
	}
	return nil
}

func (d *MetadataStoreSqlite) scheduleVacuum() {
	d.timerMutex.Lock()
	defer d.timerMutex.Unlock()
	if d.closed {
		return
	}
	if d.timerVacuum != nil {
		d.timerVacuum.Stop()
	}
	f := func() {
		d.logger.Debug(
			"running vacuum on sqlite metadata database",
			"component", "database",
		)
		// schedule next run
		defer d.scheduleVacuum()
		if err := d.runVacuum(); err != nil {
			d.logger.Error(
				"failed to free unused space in metadata store",
				"component", "database",
				"error", err,
			)
		}
	}
	d.timerVacuum = time.AfterFunc(d.vacuumInterval, f)
}

// Close shuts down the database connection and stops background processes
func (d *MetadataStoreSqlite) Close() error {
	d.timerMutex.Lock()
	if d.closed {
		d.timerMutex.Unlock()
		return nil
	}
	d.closed = true
	if d.timerVacuum != nil {
		d.timerVacuum.Stop()
		d.timerVacuum = nil
	}
	d.timerMutex.Unlock()

	// Wait for any in-flight vacuum operations to complete
	d.vacuumWG.Wait()

	// Guard against a store that was never started
	if d.Store == nil {
		return nil
	}
	return d.Store.Close()
}
