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
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := prometheus.NewRegistry()
	b, err := NewWithOptions(
		WithLogger(logger),
		WithPromRegistry(registry),
		WithBucket("test-bucket"),
		WithPrefix("receipts"),
		WithCredentialsFile("/tmp/creds.json"),
		WithTimeout(10*time.Second),
	)
	require.NoError(t, err)
	assert.NotNil(t, b.logger)
	assert.Equal(t, registry, b.promRegistry)
	assert.Equal(t, "test-bucket", b.bucketName)
	assert.Equal(t, "receipts/", b.prefix)
	assert.Equal(t, "/tmp/creds.json", b.credentialsFile)
	assert.Equal(t, 10*time.Second, b.opTimeout())
}

func TestNewFromDataDir(t *testing.T) {
	b, err := New("gcs://bucket/some/prefix", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "bucket", b.bucketName)
	assert.Equal(t, "some/prefix/", b.prefix)

	_, err = New("s3://bucket", nil, nil)
	require.Error(t, err)
	_, err = New("gcs://", nil, nil)
	require.Error(t, err)
}
