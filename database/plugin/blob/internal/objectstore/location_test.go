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

package objectstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLocation(t *testing.T) {
	tests := []struct {
		input   string
		bucket  string
		prefix  string
		wantErr bool
	}{
		{input: "s3://votes", bucket: "votes"},
		{input: "s3://votes/dao-1", bucket: "votes", prefix: "dao-1/"},
		{input: "s3://votes//a/b//", bucket: "votes", prefix: "a/b/"},
		{input: "s3://", wantErr: true},
		{input: "s3:///prefix", wantErr: true},
		{input: "gcs://votes", wantErr: true},
		{input: "votes", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			loc, err := ParseLocation("s3", tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.bucket, loc.Bucket)
			assert.Equal(t, tt.prefix, loc.Prefix)
		})
	}
}

func TestLocationString(t *testing.T) {
	loc, err := ParseLocation("gcs", "gcs://receipts/prod")
	require.NoError(t, err)
	assert.Equal(t, "gcs://receipts/prod/", loc.String("gcs"))
}
