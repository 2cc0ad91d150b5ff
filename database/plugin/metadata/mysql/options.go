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

package mysql

import (
	"log/slog"

	"github.com/blinklabs-io/quadvote/database/plugin/metadata/internal/sqlconn"
	"github.com/prometheus/client_golang/prometheus"
)

type MysqlOptionFunc func(*MetadataStoreMysql)

func WithLogger(logger *slog.Logger) MysqlOptionFunc {
	return func(m *MetadataStoreMysql) {
		m.logger = logger
	}
}

func WithPromRegistry(registry prometheus.Registerer) MysqlOptionFunc {
	return func(m *MetadataStoreMysql) {
		m.promRegistry = registry
	}
}

// WithSettings replaces every connection setting at once. Empty fields
// still fall back to the plugin defaults
func WithSettings(settings sqlconn.Settings) MysqlOptionFunc {
	return func(m *MetadataStoreMysql) {
		m.conn = settings
	}
}

func WithHost(host string) MysqlOptionFunc {
	return func(m *MetadataStoreMysql) { m.conn.Host = host }
}

func WithPort(port uint) MysqlOptionFunc {
	return func(m *MetadataStoreMysql) { m.conn.Port = uint64(port) }
}

func WithUser(user string) MysqlOptionFunc {
	return func(m *MetadataStoreMysql) { m.conn.User = user }
}

func WithPassword(password string) MysqlOptionFunc {
	return func(m *MetadataStoreMysql) { m.conn.Password = password }
}

func WithDatabase(database string) MysqlOptionFunc {
	return func(m *MetadataStoreMysql) { m.conn.Database = database }
}

func WithSSLMode(sslMode string) MysqlOptionFunc {
	return func(m *MetadataStoreMysql) { m.conn.SSLMode = sslMode }
}

func WithTimeZone(timeZone string) MysqlOptionFunc {
	return func(m *MetadataStoreMysql) { m.conn.TimeZone = timeZone }
}

// WithDSN sets a full connection string which overrides the other
// connection options
func WithDSN(dsn string) MysqlOptionFunc {
	return func(m *MetadataStoreMysql) { m.conn.DSN = dsn }
}
