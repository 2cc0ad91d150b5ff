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

package gcs

import (
	"fmt"
	"sync"
	"time"

	"github.com/blinklabs-io/quadvote/database/plugin"
	"github.com/blinklabs-io/quadvote/database/plugin/blob/internal/objectstore"
)

var (
	cmdlineOptions struct {
		location        string
		credentialsFile string
		timeout         string
	}
	cmdlineOptionsMutex sync.RWMutex
)

func init() {
	cmdlineOptions.timeout = objectstore.DefaultOpTimeout.String()
	plugin.Register(
		plugin.PluginEntry{
			Type:               plugin.PluginTypeBlob,
			Name:               "gcs",
			Description:        "Google Cloud Storage",
			NewFromOptionsFunc: NewFromCmdlineOptions,
			Options: []plugin.PluginOption{
				{
					Name:        "location",
					Type:        plugin.PluginOptionTypeString,
					Description: "bucket and object prefix, as gcs://bucket[/prefix]",
					Dest:        &(cmdlineOptions.location),
				},
				{
					Name:         "credentials-file",
					Type:         plugin.PluginOptionTypeString,
					Description:  "service account key file",
					CustomEnvVar: "GOOGLE_APPLICATION_CREDENTIALS",
					Dest:         &(cmdlineOptions.credentialsFile),
				},
				{
					Name:         "timeout",
					Type:         plugin.PluginOptionTypeString,
					Description:  "per-request timeout",
					DefaultValue: objectstore.DefaultOpTimeout.String(),
					Dest:         &(cmdlineOptions.timeout),
				},
			},
		},
	)
}

func NewFromCmdlineOptions() plugin.Plugin {
	cmdlineOptionsMutex.RLock()
	location := cmdlineOptions.location
	credentialsFile := cmdlineOptions.credentialsFile
	timeoutStr := cmdlineOptions.timeout
	cmdlineOptionsMutex.RUnlock()

	opts := []BlobStoreGCSOptionFunc{
		WithCredentialsFile(credentialsFile),
	}
	if location != "" {
		loc, err := objectstore.ParseLocation("gcs", location)
		if err != nil {
			return plugin.NewErrorPlugin(err)
		}
		opts = append(opts, WithLocation(loc))
	}
	if timeoutStr != "" {
		timeout, err := time.ParseDuration(timeoutStr)
		if err != nil {
			return plugin.NewErrorPlugin(
				fmt.Errorf("gcs blob: invalid timeout %q: %w", timeoutStr, err),
			)
		}
		opts = append(opts, WithTimeout(timeout))
	}
	p, err := NewWithOptions(opts...)
	if err != nil {
		return plugin.NewErrorPlugin(err)
	}
	return p
}
