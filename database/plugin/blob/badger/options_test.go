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
package badger

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	b, err := New(
		WithDataDir("/tmp/test"),
		WithCacheSizes(123456789, 987654321),
		WithGc(false, time.Minute),
		WithValueLog(1<<20, 512),
		WithMemTableSize(1<<21),
		WithLogger(logger),
		WithPromRegistry(reg),
	)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/test", b.dataDir)
	assert.Equal(t, uint64(123456789), b.blockCacheSize)
	assert.Equal(t, uint64(987654321), b.indexCacheSize)
	assert.False(t, b.gcEnabled)
	assert.Equal(t, time.Minute, b.gcInterval)
	assert.Equal(t, int64(1<<20), b.valueLogFileSize)
	assert.Equal(t, int64(1<<21), b.memTableSize)
	assert.Equal(t, int64(512), b.valueThreshold)
	assert.Same(t, logger, b.logger)
	assert.Equal(t, prometheus.Registerer(reg), b.promRegistry)
}

func TestDefaults(t *testing.T) {
	b, err := New()
	require.NoError(t, err)
	assert.True(t, b.gcEnabled)
	assert.Equal(t, DefaultGcInterval, b.gcInterval)
	assert.Equal(t, uint64(DefaultBlockCacheSize), b.blockCacheSize)
	assert.Equal(t, uint64(DefaultIndexCacheSize), b.indexCacheSize)
}

func TestNewFromCmdlineOptions(t *testing.T) {
	t.Cleanup(initCmdlineOptions)
	cmdlineOptionsMutex.Lock()
	cmdlineOptions.dataDir = t.TempDir()
	cmdlineOptions.gcInterval = "2m"
	cmdlineOptions.memTableSize = 1 << 22
	cmdlineOptions.valueThreshold = 2048
	cmdlineOptionsMutex.Unlock()

	p := NewFromCmdlineOptions()
	b, ok := p.(*BlobStoreBadger)
	require.True(t, ok, "got %T", p)
	assert.Equal(t, 2*time.Minute, b.gcInterval)
	assert.Equal(t, int64(1<<22), b.memTableSize)
	assert.Equal(t, int64(2048), b.valueThreshold)
	assert.Equal(t, int64(DefaultValueLogFileSize), b.valueLogFileSize)
}

func TestNewFromCmdlineOptionsBadInterval(t *testing.T) {
	t.Cleanup(initCmdlineOptions)
	cmdlineOptionsMutex.Lock()
	cmdlineOptions.gcInterval = "often"
	cmdlineOptionsMutex.Unlock()

	p := NewFromCmdlineOptions()
	_, ok := p.(*BlobStoreBadger)
	assert.False(t, ok)
	assert.ErrorContains(t, p.Start(), "invalid gc-interval")
}
