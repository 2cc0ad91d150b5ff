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
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/blinklabs-io/quadvote/database/plugin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	m, err := NewWithOptions(
		WithDataDir("/tmp/test"),
		WithBusyTimeout(250),
		WithCacheSize(1024),
		WithVacuumInterval(-1),
		WithLogger(logger),
		WithPromRegistry(reg),
	)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/test", m.dataDir)
	assert.Equal(t, uint64(250), m.busyTimeout)
	assert.Equal(t, uint64(1024), m.cacheSizeKiB)
	assert.Equal(t, time.Duration(-1), m.vacuumInterval)
	assert.Same(t, logger, m.logger)
	assert.Equal(t, prometheus.Registerer(reg), m.promRegistry)
}

func TestDefaults(t *testing.T) {
	m, err := NewWithOptions()
	require.NoError(t, err)
	assert.Equal(t, uint64(DefaultBusyTimeout), m.busyTimeout)
	assert.Equal(t, uint64(DefaultCacheSizeKiB), m.cacheSizeKiB)
	assert.Equal(t, DefaultVacuumInterval, m.vacuumInterval)
}

func TestDiskDsn(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	m, err := NewWithOptions(WithDataDir(dir), WithCacheSize(2048))
	require.NoError(t, err)
	dsn, err := m.dsn()
	require.NoError(t, err)
	assert.DirExists(t, dir)
	assert.Contains(t, dsn, filepath.Join(dir, "metadata.sqlite"))
	assert.Contains(t, dsn, "cache_size(-2048)")
	assert.Contains(t, dsn, "busy_timeout(5000)")
}

func TestNewFromCmdlineOptionsBadInterval(t *testing.T) {
	cmdlineOptionsMutex.Lock()
	saved := cmdlineOptions
	cmdlineOptions.vacuumInterval = "daily"
	cmdlineOptionsMutex.Unlock()
	t.Cleanup(func() {
		cmdlineOptionsMutex.Lock()
		cmdlineOptions = saved
		cmdlineOptionsMutex.Unlock()
	})
	p := NewFromCmdlineOptions()
	require.IsType(t, &plugin.ErrorPlugin{}, p)
	require.ErrorContains(t, p.Start(), "vacuum-interval")
}
