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
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type BlobStoreBadgerOptionFunc func(*BlobStoreBadger)

func WithLogger(logger *slog.Logger) BlobStoreBadgerOptionFunc {
	return func(b *BlobStoreBadger) {
		b.logger = logger
	}
}

func WithPromRegistry(registry prometheus.Registerer) BlobStoreBadgerOptionFunc {
	return func(b *BlobStoreBadger) {
		b.promRegistry = registry
	}
}

// WithDataDir stores receipts under dataDir/blob. An empty dataDir keeps
// everything in memory
func WithDataDir(dataDir string) BlobStoreBadgerOptionFunc {
	return func(b *BlobStoreBadger) {
		b.dataDir = dataDir
	}
}

// WithCacheSizes sets the block and index cache sizes in bytes. A zero
// value keeps the current size
func WithCacheSizes(blockCache, indexCache uint64) BlobStoreBadgerOptionFunc {
	return func(b *BlobStoreBadger) {
		if blockCache > 0 {
			b.blockCacheSize = blockCache
		}
		if indexCache > 0 {
			b.indexCacheSize = indexCache
		}
	}
}

// WithGc toggles value log garbage collection. A zero interval keeps the
// current one
func WithGc(enabled bool, interval time.Duration) BlobStoreBadgerOptionFunc {
	return func(b *BlobStoreBadger) {
		b.gcEnabled = enabled
		if interval > 0 {
			b.gcInterval = interval
		}
	}
}

// WithValueLog sets the value log file size and the size above which
// values leave the LSM tree
func WithValueLog(fileSize, threshold int64) BlobStoreBadgerOptionFunc {
	return func(b *BlobStoreBadger) {
		b.valueLogFileSize = fileSize
		b.valueThreshold = threshold
	}
}

func WithMemTableSize(size int64) BlobStoreBadgerOptionFunc {
	return func(b *BlobStoreBadger) {
		b.memTableSize = size
	}
}
