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
	"log/slog"

	"github.com/blinklabs-io/quadvote/database/plugin/metadata/internal/sqlconn"
	"github.com/prometheus/client_golang/prometheus"
)

type PostgresOptionFunc func(*MetadataStorePostgres)

func WithLogger(logger *slog.Logger) PostgresOptionFunc {
	return func(m *MetadataStorePostgres) {
		m.logger = logger
	}
}

func WithPromRegistry(registry prometheus.Registerer) PostgresOptionFunc {
	return func(m *MetadataStorePostgres) {
		m.promRegistry = registry
	}
}

// WithSettings replaces every connection setting at once. Empty fields
// still fall back to the plugin defaults
func WithSettings(settings sqlconn.Settings) PostgresOptionFunc {
	return func(m *MetadataStorePostgres) {
		m.conn = settings
	}
}

func WithHost(host string) PostgresOptionFunc {
	return func(m *MetadataStorePostgres) { m.conn.Host = host }
}

func WithPort(port uint) PostgresOptionFunc {
	return func(m *MetadataStorePostgres) { m.conn.Port = uint64(port) }
}

func WithUser(user string) PostgresOptionFunc {
	return func(m *MetadataStorePostgres) { m.conn.User = user }
}

func WithPassword(password string) PostgresOptionFunc {
	return func(m *MetadataStorePostgres) { m.conn.Password = password }
}

func WithDatabase(database string) PostgresOptionFunc {
	return func(m *MetadataStorePostgres) { m.conn.Database = database }
}

func WithSSLMode(sslMode string) PostgresOptionFunc {
	return func(m *MetadataStorePostgres) { m.conn.SSLMode = sslMode }
}

func WithTimeZone(timeZone string) PostgresOptionFunc {
	return func(m *MetadataStorePostgres) { m.conn.TimeZone = timeZone }
}

// WithDSN sets a full connection string which overrides the other
// connection options
func WithDSN(dsn string) PostgresOptionFunc {
	return func(m *MetadataStorePostgres) { m.conn.DSN = dsn }
}
