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

package postgres

import (
	"github.com/blinklabs-io/quadvote/database/plugin"
	"github.com/blinklabs-io/quadvote/database/plugin/metadata/internal/sqlconn"
)

var defaultSettings = sqlconn.Settings{
	Host:     "localhost",
	Port:     5432,
	User:     "postgres",
	Database: "postgres",
	SSLMode:  "disable",
	TimeZone: "UTC",
}

var cmdlineSettings sqlconn.Registration

func init() {
	plugin.Register(
		plugin.PluginEntry{
			Type:               plugin.PluginTypeMetadata,
			Name:               "postgres",
			Description:        "Postgres server",
			NewFromOptionsFunc: NewFromCmdlineOptions,
			Options: cmdlineSettings.Options("Postgres", defaultSettings, map[string]string{
				"host":     "PGHOST",
				"port":     "PGPORT",
				"user":     "PGUSER",
				"password": "PGPASSWORD",
				"database": "PGDATABASE",
				"ssl-mode": "PGSSLMODE",
				"timezone": "PGTZ",
			}),
		},
	)
}

func NewFromCmdlineOptions() plugin.Plugin {
	p, err := NewWithOptions(WithSettings(cmdlineSettings.Snapshot()))
	if err != nil {
		return plugin.NewErrorPlugin(err)
	}
	return p
}
