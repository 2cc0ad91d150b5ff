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
	"fmt"
	"sync"
	"time"

	"github.com/blinklabs-io/quadvote/database/plugin"
)

var (
	cmdlineOptions struct {
		dataDir        string
		busyTimeout    uint64
		cacheSize      uint64
		vacuumInterval string
	}
	cmdlineOptionsMutex sync.RWMutex
)

func init() {
	cmdlineOptions.dataDir = ".quadvote"
	cmdlineOptions.busyTimeout = DefaultBusyTimeout
	cmdlineOptions.cacheSize = DefaultCacheSizeKiB
	cmdlineOptions.vacuumInterval = DefaultVacuumInterval.String()
	plugin.Register(
		plugin.PluginEntry{
			Type:               plugin.PluginTypeMetadata,
			Name:               "sqlite",
			Description:        "embedded SQLite database",
			NewFromOptionsFunc: NewFromCmdlineOptions,
			Options: []plugin.PluginOption{
				{
					Name:         "data-dir",
					Type:         plugin.PluginOptionTypeString,
					Description:  "directory holding metadata.sqlite",
					DefaultValue: ".quadvote",
					Dest:         &(cmdlineOptions.dataDir),
				},
				{
					Name:         "busy-timeout",
					Type:         plugin.PluginOptionTypeUint,
					Description:  "milliseconds to wait on a locked database",
					DefaultValue: uint64(DefaultBusyTimeout),
					Dest:         &(cmdlineOptions.busyTimeout),
				},
				{
					Name:         "cache-size",
					Type:         plugin.PluginOptionTypeUint,
					Description:  "page cache size in KiB",
					DefaultValue: uint64(DefaultCacheSizeKiB),
					Dest:         &(cmdlineOptions.cacheSize),
				},
				{
					Name:         "vacuum-interval",
					Type:         plugin.PluginOptionTypeString,
					Description:  "time between VACUUM runs, negative to disable",
					DefaultValue: DefaultVacuumInterval.String(),
					Dest:         &(cmdlineOptions.vacuumInterval),
				},
			},
		},
	)
}

func NewFromCmdlineOptions() plugin.Plugin {
	cmdlineOptionsMutex.RLock()
	opts := []SqliteOptionFunc{
		WithDataDir(cmdlineOptions.dataDir),
		WithBusyTimeout(cmdlineOptions.busyTimeout),
		WithCacheSize(cmdlineOptions.cacheSize),
	}
	vacuumInterval := cmdlineOptions.vacuumInterval
	cmdlineOptionsMutex.RUnlock()
	if vacuumInterval != "" {
		interval, err := time.ParseDuration(vacuumInterval)
		if err != nil {
			return plugin.NewErrorPlugin(
				fmt.Errorf("invalid vacuum-interval %q: %w", vacuumInterval, err),
			)
		}
		opts = append(opts, WithVacuumInterval(interval))
	}
	p, err := NewWithOptions(opts...)
	if err != nil {
		return plugin.NewErrorPlugin(err)
	}
	return p
}
