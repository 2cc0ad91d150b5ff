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
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const badgerMetricNamePrefix = "database_blob_badger_"

// registerBlobMetrics exposes the on-disk size of the LSM tree and value log
func (d *BlobStoreBadger) registerBlobMetrics() {
	lsmSize := prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: badgerMetricNamePrefix + "lsm_size_bytes",
			Help: "Size of the badger LSM tree in bytes",
		},
		func() float64 {
			if db := d.db; db != nil {
				lsm, _ := db.Size()
				return float64(lsm)
			}
			return 0
		},
	)
	vlogSize := prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: badgerMetricNamePrefix + "vlog_size_bytes",
			Help: "Size of the badger value log in bytes",
		},
		func() float64 {
			if db := d.db; db != nil {
				_, vlog := db.Size()
				return float64(vlog)
			}
			return 0
		},
	)
	for _, c := range []prometheus.Collector{lsmSize, vlogSize} {
		if err := d.promRegistry.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				d.logger.Warn(
					"failed to register badger metrics",
					"component", "database",
					"error", err,
				)
			}
		}
	}
}
