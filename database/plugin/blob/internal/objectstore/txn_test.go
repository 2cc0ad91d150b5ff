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

package objectstore_test

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/blinklabs-io/quadvote/database/plugin/blob/internal/objectstore"
	"github.com/blinklabs-io/quadvote/database/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memBackend struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  map[string]error
	puts    int
}

func newMemBackend() *memBackend {
	return &memBackend{
		objects: make(map[string][]byte),
		putErr:  make(map[string]error),
	}
}

func (m *memBackend) GetObject(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.objects[key]
	if !ok {
		return nil, types.ErrBlobKeyNotFound
	}
	return slices.Clone(v), nil
}

func (m *memBackend) PutObject(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.putErr[key]; err != nil {
		return err
	}
	m.puts++
	m.objects[key] = slices.Clone(data)
	return nil
}

func (m *memBackend) DeleteObject(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memBackend) ListObjects(_ context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ret []string
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) {
			ret = append(ret, k)
		}
	}
	return ret, nil
}

func TestBufferedWrites(t *testing.T) {
	backend := newMemBackend()
	txn := objectstore.NewTxn("store", backend, nil, 0, true)
	require.NoError(t, txn.Set([]byte("k1"), []byte("v1")))

	// Visible inside the transaction, not outside
	val, err := txn.Get([]byte("k1"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), val)
	assert.Empty(t, backend.objects)

	require.NoError(t, txn.Commit())
	assert.Equal(t, []byte("v1"), backend.objects["k1"])

	// Commit is idempotent and the txn is unusable afterwards
	require.NoError(t, txn.Commit())
	_, err = txn.Get([]byte("k1"))
	require.ErrorIs(t, err, objectstore.ErrTxnFinished)
}

func TestRollback(t *testing.T) {
	backend := newMemBackend()
	txn := objectstore.NewTxn("store", backend, nil, 0, true)
	require.NoError(t, txn.Set([]byte("k1"), []byte("v1")))
	require.NoError(t, txn.Rollback())
	assert.Empty(t, backend.objects)
	assert.Equal(t, 0, backend.puts)
}

func TestReadOnly(t *testing.T) {
	txn := objectstore.NewTxn("store", newMemBackend(), nil, 0, false)
	require.ErrorIs(t, txn.Set([]byte("k"), []byte("v")), objectstore.ErrReadOnlyTxn)
	require.ErrorIs(t, txn.Delete([]byte("k")), objectstore.ErrReadOnlyTxn)
	_, err := txn.Get([]byte("missing"))
	require.ErrorIs(t, err, types.ErrBlobKeyNotFound)
}

func TestDeleteMasksRemote(t *testing.T) {
	backend := newMemBackend()
	backend.objects["a1"] = []byte("x")
	backend.objects["a2"] = []byte("y")
	txn := objectstore.NewTxn("store", backend, nil, 0, true)
	require.NoError(t, txn.Delete([]byte("a1")))
	_, err := txn.Get([]byte("a1"))
	require.ErrorIs(t, err, types.ErrBlobKeyNotFound)
	require.NoError(t, txn.Commit())
	_, ok := backend.objects["a1"]
	assert.False(t, ok)
	assert.Contains(t, backend.objects, "a2")
}

func TestIteratorMergesPending(t *testing.T) {
	backend := newMemBackend()
	backend.objects["p/b"] = []byte("2")
	backend.objects["p/c"] = []byte("3")
	backend.objects["q/a"] = []byte("0")
	txn := objectstore.NewTxn("store", backend, nil, 0, true)
	require.NoError(t, txn.Set([]byte("p/a"), []byte("1")))
	require.NoError(t, txn.Delete([]byte("p/c")))

	collect := func(reverse bool) ([]string, []string) {
		it := txn.NewIterator(types.BlobIteratorOptions{
			Prefix:  []byte("p/"),
			Reverse: reverse,
		})
		defer it.Close()
		var keys, vals []string
		for it.Rewind(); it.ValidForPrefix([]byte("p/")); it.Next() {
			item := it.Item()
			v, err := item.ValueCopy(nil)
			require.NoError(t, err)
			keys = append(keys, string(item.Key()))
			vals = append(vals, string(v))
		}
		require.NoError(t, it.Err())
		return keys, vals
	}
	keys, vals := collect(false)
	assert.Equal(t, []string{"p/a", "p/b"}, keys)
	assert.Equal(t, []string{"1", "2"}, vals)
	keys, _ = collect(true)
	assert.Equal(t, []string{"p/b", "p/a"}, keys)
}

func TestSeek(t *testing.T) {
	backend := newMemBackend()
	for _, k := range []string{"a", "c", "e"} {
		backend.objects[k] = []byte(k)
	}
	txn := objectstore.NewTxn("store", backend, nil, 0, false)
	it := txn.NewIterator(types.BlobIteratorOptions{})
	it.Seek([]byte("b"))
	require.True(t, it.Valid())
	assert.Equal(t, []byte("c"), it.Item().Key())
	it.Seek([]byte("f"))
	assert.False(t, it.Valid())
	assert.Nil(t, it.Item())
}

func TestPartialCommit(t *testing.T) {
	backend := newMemBackend()
	boom := errors.New("boom")
	backend.putErr["k2"] = boom
	txn := objectstore.NewTxn("store", backend, nil, 0, true)
	require.NoError(t, txn.Set([]byte("k1"), []byte("v1")))
	require.NoError(t, txn.Set([]byte("k2"), []byte("v2")))
	err := txn.Commit()
	require.ErrorIs(t, err, objectstore.ErrPartialCommit)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, backend.objects, "k1")

	// A failure on the first write leaves nothing applied
	backend.putErr["k0"] = boom
	txn = objectstore.NewTxn("store", backend, nil, 0, true)
	require.NoError(t, txn.Set([]byte("k0"), []byte("v0")))
	err = txn.Commit()
	require.ErrorIs(t, err, boom)
	require.NotErrorIs(t, err, objectstore.ErrPartialCommit)
}

func TestNilBackend(t *testing.T) {
	txn := objectstore.NewTxn("store", nil, nil, 0, true)
	require.Error(t, txn.Check())
	it := txn.NewIterator(types.BlobIteratorOptions{})
	assert.False(t, it.Valid())
	require.Error(t, it.Err())
}
