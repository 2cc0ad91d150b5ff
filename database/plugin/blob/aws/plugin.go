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

package aws

import (
	"fmt"
	"sync"
	"time"

	"github.com/blinklabs-io/quadvote/database/plugin"
	"github.com/blinklabs-io/quadvote/database/plugin/blob/internal/objectstore"
)

var (
	cmdlineOptions struct {
		location string
		endpoint string
		region   string
		timeout  string
	}
	cmdlineOptionsMutex sync.RWMutex
)

func init() {
	cmdlineOptions.timeout = objectstore.DefaultOpTimeout.String()
	plugin.Register(
		plugin.PluginEntry{
			Type:               plugin.PluginTypeBlob,
			Name:               "s3",
			Description:        "AWS S3 or S3-compatible object storage",
			NewFromOptionsFunc: NewFromCmdlineOptions,
			Options: []plugin.PluginOption{
				{
					Name:        "location",
					Type:        plugin.PluginOptionTypeString,
					Description: "bucket and key prefix, as s3://bucket[/prefix]",
					Dest:        &(cmdlineOptions.location),
				},
				{
					Name:        "endpoint",
					Type:        plugin.PluginOptionTypeString,
					Description: "custom endpoint URL for S3-compatible servers",
					Dest:        &(cmdlineOptions.endpoint),
				},
				{
					Name:         "region",
					Type:         plugin.PluginOptionTypeString,
					Description:  "AWS region",
					CustomEnvVar: "AWS_REGION",
					Dest:         &(cmdlineOptions.region),
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
	endpoint := cmdlineOptions.endpoint
	region := cmdlineOptions.region
	timeoutStr := cmdlineOptions.timeout
	cmdlineOptionsMutex.RUnlock()

	opts := []BlobStoreS3OptionFunc{
		WithEndpoint(endpoint),
		WithRegion(region),
	}
	// An unset location is reported by Start
	if location != "" {
		loc, err := objectstore.ParseLocation("s3", location)
		if err != nil {
			return plugin.NewErrorPlugin(err)
		}
		opts = append(opts, WithLocation(loc))
	}
	if timeoutStr != "" {
		timeout, err := time.ParseDuration(timeoutStr)
		if err != nil {
			return plugin.NewErrorPlugin(
				fmt.Errorf("s3 blob: invalid timeout %q: %w", timeoutStr, err),
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
