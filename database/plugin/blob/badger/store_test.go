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
package badger_test

import (
	"testing"
	"time"

	"github.com/blinklabs-io/quadvote/database/plugin/blob/badger"
	"github.com/blinklabs-io/quadvote/database/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemoryStore(t *testing.T, opts ...badger.BlobStoreBadgerOptionFunc) *badger.BlobStoreBadger {
	t.Helper()
	store, err := badger.New(append([]badger.BlobStoreBadgerOptionFunc{badger.WithDataDir("")}, opts...)...)
	require.NoError(t, err)
	require.NoError(t, store.Start())
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func TestSetGetDelete(t *testing.T) {
	store := newMemoryStore(t)

	txn := store.NewTransaction(true)
	require.NoError(t, store.Set(txn, []byte("vr-a"), []byte("one")))
	require.NoError(t, store.Set(txn, []byte("vr-b"), []byte("two")))
	require.NoError(t, txn.Commit())

	txn = store.NewTransaction(false)
	val, err := store.Get(txn, []byte("vr-a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), val)
	_, err = store.Get(txn, []byte("missing"))
	require.ErrorIs(t, err, types.ErrBlobKeyNotFound)
	require.NoError(t, txn.Rollback())

	txn = store.NewTransaction(true)
	require.NoError(t, store.Delete(txn, []byte("vr-a")))
	require.NoError(t, txn.Commit())

	txn = store.NewTransaction(false)
	defer txn.Rollback() //nolint:errcheck
	_, err = store.Get(txn, []byte("vr-a"))
	require.ErrorIs(t, err, types.ErrBlobKeyNotFound)
}

func TestRollbackDiscardsWrites(t *testing.T) {
	store := newMemoryStore(t)
	txn := store.NewTransaction(true)
	require.NoError(t, store.Set(txn, []byte("k"), []byte("v")))
	require.NoError(t, txn.Rollback())

	// A finished transaction cannot be reused
	require.Error(t, store.Set(txn, []byte("k"), []byte("v")))

	txn = store.NewTransaction(false)
	defer txn.Rollback() //nolint:errcheck
	_, err := store.Get(txn, []byte("k"))
	require.ErrorIs(t, err, types.ErrBlobKeyNotFound)
}

func TestIteratorPrefix(t *testing.T) {
	store := newMemoryStore(t)
	txn := store.NewTransaction(true)
	for _, key := range []string{"vrp1-alice", "vrp1-bob", "vrp2-alice", "other"} {
		require.NoError(t, store.Set(txn, []byte(key), []byte(key)))
	}
	require.NoError(t, txn.Commit())

	txn = store.NewTransaction(false)
	defer txn.Rollback() //nolint:errcheck
	prefix := []byte("vrp1")
	it := store.NewIterator(txn, types.BlobIteratorOptions{Prefix: prefix})
	var keys []string
	for it.Rewind(); it.ValidForPrefix(prefix); it.Next() {
		keys = append(keys, string(it.Item().Key()))
	}
	it.Close()
	require.NoError(t, it.Err())
	assert.Equal(t, []string{"vrp1-alice", "vrp1-bob"}, keys)
}

func TestIteratorInvalidTxn(t *testing.T) {
	store := newMemoryStore(t)
	other := newMemoryStore(t)
	foreign := other.NewTransaction(false)
	defer foreign.Rollback() //nolint:errcheck

	it := store.NewIterator(foreign, types.BlobIteratorOptions{})
	assert.False(t, it.Valid())
	require.ErrorIs(t, it.Err(), badger.ErrForeignTxn)

	it = store.NewIterator(nil, types.BlobIteratorOptions{})
	require.ErrorIs(t, it.Err(), types.ErrNilTxn)
}

func TestCommitTimestamp(t *testing.T) {
	store := newMemoryStore(t)
	ts, err := store.GetCommitTimestamp()
	require.NoError(t, err)
	assert.Equal(t, int64(0), ts)

	require.ErrorIs(t, store.SetCommitTimestamp(1, nil), types.ErrNilTxn)

	txn := store.NewTransaction(true)
	require.NoError(t, store.SetCommitTimestamp(1700000000123, txn))
	require.NoError(t, txn.Commit())
	ts, err = store.GetCommitTimestamp()
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000123), ts)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	store := newMemoryStore(t, badger.WithPromRegistry(reg))
	txn := store.NewTransaction(true)
	require.NoError(t, store.Set(txn, []byte("k"), []byte("value")))
	require.NoError(t, txn.Commit())

	count, err := testutil.GatherAndCount(reg, "database_blob_ops_total", "database_blob_badger_lsm_size_bytes")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestDiskStoreGcShutdown(t *testing.T) {
	dir := t.TempDir()
	store, err := badger.New(
		badger.WithDataDir(dir),
		badger.WithGc(true, 10*time.Millisecond),
		badger.WithCacheSizes(1<<20, 1<<20),
	)
	require.NoError(t, err)
	require.NoError(t, store.Start())
	txn := store.NewTransaction(true)
	require.NoError(t, store.Set(txn, []byte("persist"), []byte("yes")))
	require.NoError(t, txn.Commit())
	time.Sleep(30 * time.Millisecond)
	require.NoError(t, store.Close())
	// Close is idempotent
	require.NoError(t, store.Close())

	reopened, err := badger.New(badger.WithDataDir(dir), badger.WithGc(false, 0))
	require.NoError(t, err)
	require.NoError(t, reopened.Start())
	defer reopened.Close()
	txn = reopened.NewTransaction(false)
	defer txn.Rollback() //nolint:errcheck
	val, err := reopened.Get(txn, []byte("persist"))
	require.NoError(t, err)
	assert.Equal(t, []byte("yes"), val)
}
