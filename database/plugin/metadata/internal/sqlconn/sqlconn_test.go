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

package sqlconn

import (
	"testing"

	"github.com/blinklabs-io/quadvote/database/plugin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithDefaults(t *testing.T) {
	defaults := Settings{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "ignored",
		Database: "quadvote",
		SSLMode:  "disable",
		TimeZone: "UTC",
	}
	s := Settings{Host: "db.local", SSLMode: "require"}.WithDefaults(defaults)
	assert.Equal(t, "db.local", s.Host)
	assert.Equal(t, uint64(5432), s.Port)
	assert.Equal(t, "postgres", s.User)
	assert.Empty(t, s.Password)
	assert.Equal(t, "require", s.SSLMode)
	assert.Equal(t, "db.local:5432", s.Addr())
}

func TestExplicitDSN(t *testing.T) {
	assert.Equal(t, "a=b", Settings{DSN: "  a=b\n"}.ExplicitDSN())
	assert.Empty(t, Settings{DSN: "   "}.ExplicitDSN())
}

func TestRegistrationOptions(t *testing.T) {
	var r Registration
	opts := r.Options(
		"Test",
		Settings{Host: "localhost", Port: 1234, Database: "votes"},
		map[string]string{"host": "TEST_HOST"},
	)
	require.Len(t, opts, 8)
	assert.Equal(t, "TEST_HOST", opts[0].CustomEnvVar)
	assert.Equal(t, "Test host", opts[0].Description)
	assert.Equal(t, plugin.PluginOptionTypeUint, opts[1].Type)
	assert.Equal(t, uint64(1234), r.Snapshot().Port)

	// Option destinations write through to the snapshot
	require.NoError(t, opts[0].ProcessEnvVar("db.example"))
	require.NoError(t, opts[1].ProcessEnvVar("4321"))
	s := r.Snapshot()
	assert.Equal(t, "db.example", s.Host)
	assert.Equal(t, uint64(4321), s.Port)
	assert.Equal(t, "votes", s.Database)
}
