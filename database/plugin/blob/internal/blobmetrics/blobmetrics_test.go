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
package blobmetrics_test

import (
	"errors"
	"testing"

	"github.com/blinklabs-io/quadvote/database/plugin/blob/internal/blobmetrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilRegistry(t *testing.T) {
	m := blobmetrics.New(nil, "badger")
	require.Nil(t, m)
	// Observing on a nil instance is a no-op
	m.Observe(blobmetrics.OpGet, 10, nil)
}

func TestSharedCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m1 := blobmetrics.New(reg, "badger")
	m2 := blobmetrics.New(reg, "badger")
	m1.Observe(blobmetrics.OpSet, 100, nil)
	m2.Observe(blobmetrics.OpSet, 20, nil)
	m2.Observe(blobmetrics.OpGet, 0, errors.New("boom"))

	count, err := testutil.GatherAndCount(reg, "database_blob_ops_total")
	require.NoError(t, err)
	// One series per (plugin, op)
	assert.Equal(t, 2, count)

	families, err := reg.Gather()
	require.NoError(t, err)
	var bytesTotal float64
	for _, family := range families {
		if family.GetName() != "database_blob_bytes_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			bytesTotal += metric.GetCounter().GetValue()
		}
	}
	assert.InDelta(t, 120, bytesTotal, 0.001)
}
