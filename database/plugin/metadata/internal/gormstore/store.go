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
// Package gormstore implements the governance queries shared by every
// GORM-backed metadata plugin. The plugins only differ in how they open the
// connection and whether the backend supports row locks.
package gormstore

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/blinklabs-io/quadvote/database/models"
	"github.com/blinklabs-io/quadvote/database/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/plugin/opentelemetry/tracing"
)

type Store struct {
	db         *gorm.DB
	logger     *slog.Logger
	rowLocking bool
}

// New wraps an open gorm handle. When rowLocking is set, lookups that ask
// for a lock are issued as SELECT ... FOR UPDATE
func New(db *gorm.DB, logger *slog.Logger, rowLocking bool) (*Store, error) {
	if logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	s := &Store{
		db:         db,
		logger:     logger,
		rowLocking: rowLocking,
	}
	// Configure tracing for GORM
	if err := s.db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, err
	}
	return s, nil
}

// Migrate creates or updates the table schemas
func (s *Store) Migrate() error {
	for _, model := range models.MigrateModels {
		s.logger.Debug(fmt.Sprintf("creating table: %#v", model))
		if err := s.db.AutoMigrate(model); err != nil {
			return err
		}
	}
	return nil
}

// DB returns the database handle
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Close closes the underlying connection pool
func (s *Store) Close() error {
	db, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("get database handle: %w", err)
	}
	return db.Close()
}

// Transaction creates a gorm transaction
func (s *Store) Transaction() types.Txn {
	db := s.db.Begin()
	if db.Error != nil {
		s.logger.Error(
			"failed to begin transaction",
			"component", "database",
			"error", db.Error,
		)
		return newFailedGormTxn(db.Error)
	}
	return newGormTxn(db)
}

// resolveDB returns the gorm handle for the given transaction, or the base
// handle when no transaction is provided
func (s *Store) resolveDB(txn types.Txn) (*gorm.DB, error) {
	if txn == nil {
		return s.db, nil
	}
	gtxn, ok := txn.(*gormTxn)
	if !ok {
		return nil, types.ErrTxnWrongType
	}
	if gtxn.beginErr != nil {
		return nil, gtxn.beginErr
	}
	if gtxn.db == nil {
		return nil, types.ErrNilTxn
	}
	return gtxn.db, nil
}

// locked adds a row lock to the query when requested and supported
func (s *Store) locked(db *gorm.DB, lock bool) *gorm.DB {
	if !lock || !s.rowLocking {
		return db
	}
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

// translateError maps unique index violations to types.ErrDuplicateKey.
// Drivers without error translation are matched on their message text
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %w", types.ErrDuplicateKey, err)
	}
	msg := err.Error()
	for _, needle := range []string{
		"UNIQUE constraint failed",
		"duplicate key value",
		"Duplicate entry",
	} {
		if strings.Contains(msg, needle) {
			return fmt.Errorf("%w: %w", types.ErrDuplicateKey, err)
		}
	}
	return err
}
