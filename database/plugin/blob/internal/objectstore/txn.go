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

// Package objectstore implements buffered transactions on top of remote
// object stores, which have no native transaction support. Writes are held
// in memory and flushed to the backend on Commit.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/blinklabs-io/quadvote/database/plugin/blob/internal/blobmetrics"
	"github.com/blinklabs-io/quadvote/database/types"
)

const DefaultOpTimeout = 60 * time.Second

var (
	ErrReadOnlyTxn     = errors.New("transaction is read-only")
	ErrTxnFinished     = errors.New("transaction already finished")
	ErrPartialCommit   = errors.New("object store commit partially applied")
	errBackendRequired = errors.New("object store backend not available")
)

// Backend is the minimal set of object operations a remote store provides.
// GetObject must return types.ErrBlobKeyNotFound for missing keys and
// DeleteObject must succeed for missing keys.
type Backend interface {
	GetObject(ctx context.Context, key string) ([]byte, error)
	PutObject(ctx context.Context, key string, data []byte) error
	DeleteObject(ctx context.Context, key string) error
	ListObjects(ctx context.Context, prefix string) ([]string, error)
}

type pendingWrite struct {
	value   []byte
	deleted bool
}

// Txn buffers writes until Commit. Reads observe the buffered writes
type Txn struct {
	owner     any
	backend   Backend
	metrics   *blobmetrics.Metrics
	timeout   time.Duration
	mu        sync.Mutex
	writes    map[string]pendingWrite
	order     []string
	readWrite bool
	finished  bool
}

// NewTxn returns a transaction bound to owner, which callers use to reject
// transactions created by a different store
func NewTxn(
	owner any,
	backend Backend,
	metrics *blobmetrics.Metrics,
	timeout time.Duration,
	readWrite bool,
) *Txn {
	if timeout <= 0 {
		timeout = DefaultOpTimeout
	}
	return &Txn{
		owner:     owner,
		backend:   backend,
		metrics:   metrics,
		timeout:   timeout,
		readWrite: readWrite,
		writes:    make(map[string]pendingWrite),
	}
}

func (t *Txn) Owner() any {
	return t.owner
}

// Check returns an error if the transaction can no longer be used
func (t *Txn) Check() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.checkLocked()
}

func (t *Txn) checkLocked() error {
	if t.finished {
		return ErrTxnFinished
	}
	if t.backend == nil {
		return errBackendRequired
	}
	return nil
}

func (t *Txn) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), t.timeout)
}

func (t *Txn) Get(key []byte) ([]byte, error) {
	t.mu.Lock()
	if err := t.checkLocked(); err != nil {
		t.mu.Unlock()
		return nil, err
	}
	if w, ok := t.writes[string(key)]; ok {
		t.mu.Unlock()
		if w.deleted {
			return nil, types.ErrBlobKeyNotFound
		}
		return slices.Clone(w.value), nil
	}
	t.mu.Unlock()
	ctx, cancel := t.opContext()
	defer cancel()
	data, err := t.backend.GetObject(ctx, string(key))
	if errors.Is(err, types.ErrBlobKeyNotFound) {
		t.metrics.Observe(blobmetrics.OpGet, 0, nil)
		return nil, err
	}
	t.metrics.Observe(blobmetrics.OpGet, len(data), err)
	return data, err
}

func (t *Txn) Set(key, val []byte) error {
	return t.stage(key, pendingWrite{value: slices.Clone(val)})
}

func (t *Txn) Delete(key []byte) error {
	return t.stage(key, pendingWrite{deleted: true})
}

func (t *Txn) stage(key []byte, w pendingWrite) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkLocked(); err != nil {
		return err
	}
	if !t.readWrite {
		return ErrReadOnlyTxn
	}
	k := string(key)
	if _, ok := t.writes[k]; !ok {
		t.order = append(t.order, k)
	}
	t.writes[k] = w
	return nil
}

// Commit flushes buffered writes in the order they were first staged. Object
// stores offer no atomic multi-key write, so a failure part way through
// leaves the earlier writes applied and is reported as ErrPartialCommit
func (t *Txn) Commit() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.finished {
		return nil
	}
	t.finished = true
	if len(t.order) == 0 {
		return nil
	}
	if t.backend == nil {
		return errBackendRequired
	}
	for idx, k := range t.order {
		w := t.writes[k]
		ctx, cancel := t.opContext()
		var err error
		if w.deleted {
			err = t.backend.DeleteObject(ctx, k)
			t.metrics.Observe(blobmetrics.OpDelete, 0, err)
		} else {
			err = t.backend.PutObject(ctx, k, w.value)
			t.metrics.Observe(blobmetrics.OpSet, len(w.value), err)
		}
		cancel()
		if err != nil {
			if idx == 0 {
				return err
			}
			return fmt.Errorf("%w: key %q: %w", ErrPartialCommit, k, err)
		}
	}
	return nil
}

func (t *Txn) Rollback() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.finished = true
	t.writes = nil
	t.order = nil
	return nil
}

// NewIterator lists matching keys from the backend merged with the buffered
// writes. The key set is captured when the iterator is created
func (t *Txn) NewIterator(opts types.BlobIteratorOptions) types.BlobIterator {
	if err := t.Check(); err != nil {
		return &ErrorIterator{err: err}
	}
	ctx, cancel := t.opContext()
	defer cancel()
	remote, err := t.backend.ListObjects(ctx, string(opts.Prefix))
	t.metrics.Observe(blobmetrics.OpList, 0, err)
	if err != nil {
		return &ErrorIterator{err: err}
	}
	keySet := make(map[string]struct{}, len(remote))
	for _, k := range remote {
		keySet[k] = struct{}{}
	}
	t.mu.Lock()
	for k, w := range t.writes {
		if !strings.HasPrefix(k, string(opts.Prefix)) {
			continue
		}
		if w.deleted {
			delete(keySet, k)
		} else {
			keySet[k] = struct{}{}
		}
	}
	t.mu.Unlock()
	keys := make([]string, 0, len(keySet))
	for k := range keySet {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	if opts.Reverse {
		slices.Reverse(keys)
	}
	return &Iterator{txn: t, keys: keys, reverse: opts.Reverse}
}
