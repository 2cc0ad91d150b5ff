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
// Package blobmetrics holds the operation counters shared by the blob
// store plugins
package blobmetrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const metricNamePrefix = "database_blob_"

// Operation names used as metric labels
const (
	OpGet    = "get"
	OpSet    = "set"
	OpDelete = "delete"
	OpList   = "list"
)

// Metrics counts blob operations and bytes moved. A nil *Metrics is valid
// and records nothing
type Metrics struct {
	ops    *prometheus.CounterVec
	bytes  *prometheus.CounterVec
	errors *prometheus.CounterVec
	plugin string
}

// New registers the blob counters on the given registry. It returns nil
// when no registry is provided. Counters already registered by another
// store instance are shared
func New(promRegistry prometheus.Registerer, pluginName string) *Metrics {
	if promRegistry == nil {
		return nil
	}
	m := &Metrics{plugin: pluginName}
	m.ops = register(
		promRegistry,
		prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricNamePrefix + "ops_total",
				Help: "Total number of blob operations",
			},
			[]string{"plugin", "op"},
		),
	)
	m.bytes = register(
		promRegistry,
		prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricNamePrefix + "bytes_total",
				Help: "Total bytes read/written for blob operations",
			},
			[]string{"plugin", "op"},
		),
	)
	m.errors = register(
		promRegistry,
		prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricNamePrefix + "errors_total",
				Help: "Total number of failed blob operations",
			},
			[]string{"plugin", "op"},
		),
	)
	return m
}

func register(
	promRegistry prometheus.Registerer,
	c *prometheus.CounterVec,
) *prometheus.CounterVec {
	if err := promRegistry.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing
			}
		}
		// Fall back to an unregistered collector so callers never see nil
		return c
	}
	return c
}

// Observe records a single operation of the given size
func (m *Metrics) Observe(op string, size int, err error) {
	if m == nil {
		return
	}
	m.ops.WithLabelValues(m.plugin, op).Inc()
	if err != nil {
		m.errors.WithLabelValues(m.plugin, op).Inc()
		return
	}
	if size > 0 {
		m.bytes.WithLabelValues(m.plugin, op).Add(float64(size))
	}
}
