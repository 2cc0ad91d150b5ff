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
package gormstore

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// RegisterMetrics exposes the connection pool statistics of the store
func (s *Store) RegisterMetrics(
	promRegistry prometheus.Registerer,
	dbName string,
) error {
	if promRegistry == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("get database handle: %w", err)
	}
	err = promRegistry.Register(collectors.NewDBStatsCollector(sqlDB, dbName))
	if err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			s.logger.Debug(
				"metadata store metrics already registered",
				"component", "database",
				"db", dbName,
			)
			return nil
		}
		return err
	}
	return nil
}
