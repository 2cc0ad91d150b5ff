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
	"fmt"
	"sync"
	"time"

	"github.com/blinklabs-io/quadvote/database/plugin"
)

// Default cache sizes for BadgerDB (in bytes)
const (
	DefaultBlockCacheSize = 805306368 // 768MB
	DefaultIndexCacheSize = 268435456 // 256MB
)

var (
	cmdlineOptions struct {
		dataDir        string
		blockCacheSize uint64
		indexCacheSize uint64
		gcEnabled      bool
		gcInterval     string
		valueLogSize   uint64
		valueThreshold uint64
		memTableSize   uint64
	}
	cmdlineOptionsMutex sync.RWMutex
)

// initCmdlineOptions sets default values for cmdlineOptions
func initCmdlineOptions() {
	cmdlineOptionsMutex.Lock()
	defer cmdlineOptionsMutex.Unlock()
	cmdlineOptions.blockCacheSize = DefaultBlockCacheSize
	cmdlineOptions.indexCacheSize = DefaultIndexCacheSize
	cmdlineOptions.gcEnabled = true
	cmdlineOptions.gcInterval = DefaultGcInterval.String()
	cmdlineOptions.dataDir = ".quadvote"
	cmdlineOptions.valueLogSize = DefaultValueLogFileSize
	cmdlineOptions.valueThreshold = DefaultValueThreshold
	cmdlineOptions.memTableSize = DefaultMemTableSize
}

// Register plugin
func init() {
	initCmdlineOptions()
	plugin.Register(
		plugin.PluginEntry{
			Type:               plugin.PluginTypeBlob,
			Name:               "badger",
			Description:        "BadgerDB local key-value store",
			NewFromOptionsFunc: NewFromCmdlineOptions,
			Options: []plugin.PluginOption{
				{
					Name:         "data-dir",
					Type:         plugin.PluginOptionTypeString,
					Description:  "Data directory for badger storage",
					DefaultValue: ".quadvote",
					Dest:         &(cmdlineOptions.dataDir),
				},
				{
					Name:         "block-cache-size",
					Type:         plugin.PluginOptionTypeUint,
					Description:  "Badger block cache size",
					DefaultValue: uint64(DefaultBlockCacheSize),
					Dest:         &(cmdlineOptions.blockCacheSize),
				},
				{
					Name:         "index-cache-size",
					Type:         plugin.PluginOptionTypeUint,
					Description:  "Badger index cache size",
					DefaultValue: uint64(DefaultIndexCacheSize),
					Dest:         &(cmdlineOptions.indexCacheSize),
				},
				{
					Name:         "gc",
					Type:         plugin.PluginOptionTypeBool,
					Description:  "Enable garbage collection",
					DefaultValue: true,
					Dest:         &(cmdlineOptions.gcEnabled),
				},
				{
					Name:         "gc-interval",
					Type:         plugin.PluginOptionTypeString,
					Description:  "Interval between value log garbage collection runs",
					DefaultValue: DefaultGcInterval.String(),
					Dest:         &(cmdlineOptions.gcInterval),
				},
				{
					Name:         "value-log-file-size",
					Type:         plugin.PluginOptionTypeUint,
					Description:  "Maximum size of a single value log file",
					DefaultValue: uint64(DefaultValueLogFileSize),
					Dest:         &(cmdlineOptions.valueLogSize),
				},
				{
					Name:         "value-threshold",
					Type:         plugin.PluginOptionTypeUint,
					Description:  "Values larger than this are kept in the value log",
					DefaultValue: uint64(DefaultValueThreshold),
					Dest:         &(cmdlineOptions.valueThreshold),
				},
				{
					Name:         "memtable-size",
					Type:         plugin.PluginOptionTypeUint,
					Description:  "Badger memtable size",
					DefaultValue: uint64(DefaultMemTableSize),
					Dest:         &(cmdlineOptions.memTableSize),
				},
			},
		},
	)
}

func NewFromCmdlineOptions() plugin.Plugin {
	cmdlineOptionsMutex.RLock()
	dataDir := cmdlineOptions.dataDir
	blockCache := cmdlineOptions.blockCacheSize
	indexCache := cmdlineOptions.indexCacheSize
	gcEnabled := cmdlineOptions.gcEnabled
	gcInterval := cmdlineOptions.gcInterval
	valueLogSize := cmdlineOptions.valueLogSize
	valueThreshold := cmdlineOptions.valueThreshold
	memTableSize := cmdlineOptions.memTableSize
	cmdlineOptionsMutex.RUnlock()
	var interval time.Duration
	if gcInterval != "" {
		var err error
		interval, err = time.ParseDuration(gcInterval)
		if err != nil {
			return plugin.NewErrorPlugin(
				fmt.Errorf("invalid gc-interval %q: %w", gcInterval, err),
			)
		}
	}
	p, err := New(
		WithDataDir(dataDir),
		WithCacheSizes(blockCache, indexCache),
		WithGc(gcEnabled, interval),
		WithValueLog(int64(valueLogSize), int64(valueThreshold)), // #nosec G115
		WithMemTableSize(int64(memTableSize)),                    // #nosec G115
	)
	if err != nil {
		return plugin.NewErrorPlugin(err)
	}
	return p
}
