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

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetGlobalConfig() {
	globalConfig = defaultConfig()
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	tmpFile := filepath.Join(t.TempDir(), "quadvote.yaml")
	require.NoError(t, os.WriteFile(tmpFile, []byte(content), 0o644))
	return tmpFile
}

func TestLoadFlatFile(t *testing.T) {
	resetGlobalConfig()
	tmpFile := writeConfigFile(t, `
bindAddr: "127.0.0.1"
apiPort: 9000
metricsPort: 9001
databasePath: "/var/lib/quadvote"
proposalPolicy: "open"
defaultCredits: 400
maxVotesPerBallot: 20
votingPeriod: "72h"
expirySweepInterval: "30s"
conflictRetries: 5
`)
	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)

	expected := defaultConfig()
	expected.BindAddr = "127.0.0.1"
	expected.ApiPort = 9000
	expected.MetricsPort = 9001
	expected.DatabasePath = "/var/lib/quadvote"
	expected.ProposalPolicy = "open"
	expected.DefaultCredits = 400
	expected.MaxVotesPerBallot = 20
	expected.VotingPeriod = "72h"
	expected.ExpirySweepInterval = "30s"
	expected.ConflictRetries = 5
	assert.Equal(t, expected, cfg)

	votingPeriod, sweepInterval, shutdownTimeout, err := cfg.Durations()
	require.NoError(t, err)
	assert.Equal(t, 72*time.Hour, votingPeriod)
	assert.Equal(t, 30*time.Second, sweepInterval)
	assert.Equal(t, 30*time.Second, shutdownTimeout)
}

func TestLoadConfigSection(t *testing.T) {
	resetGlobalConfig()
	tmpFile := writeConfigFile(t, `
config:
  apiPort: 8181
database:
  blob:
    plugin: gcs
    gcs:
      bucket: governance
  metadata:
    plugin: postgres
`)
	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)
	assert.Equal(t, uint(8181), cfg.ApiPort)
	assert.Equal(t, "gcs", cfg.BlobPlugin)
	assert.Equal(t, "postgres", cfg.MetadataPlugin)
	// Untouched settings keep their defaults
	assert.Equal(t, uint64(DefaultCredits), cfg.DefaultCredits)
	assert.Equal(t, uint64(DefaultMaxVotesPerBallot), cfg.MaxVotesPerBallot)
	assert.Equal(t, DefaultExpirySweepInterval, cfg.ExpirySweepInterval)
	assert.Equal(t, DefaultShutdownTimeout, cfg.ShutdownTimeout)
	assert.Equal(t, DefaultConflictRetries, cfg.ConflictRetries)
}

func TestLoadConfigSectionPartialOverlay(t *testing.T) {
	resetGlobalConfig()
	tmpFile := writeConfigFile(t, `
config:
  defaultCredits: 250
  expirySweepInterval: 30s
`)
	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)
	assert.Equal(t, uint64(250), cfg.DefaultCredits)
	assert.Equal(t, "30s", cfg.ExpirySweepInterval)
	assert.Equal(t, uint(8080), cfg.ApiPort)
	assert.Equal(t, DefaultBlobPlugin, cfg.BlobPlugin)
	assert.Equal(t, DefaultProposalPolicy, cfg.ProposalPolicy)
	_, sweepInterval, shutdownTimeout, err := cfg.Durations()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, sweepInterval)
	assert.Positive(t, shutdownTimeout)
}

func TestLoadWithoutConfigFileUsesDefaults(t *testing.T) {
	resetGlobalConfig()
	t.Setenv("HOME", t.TempDir())
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, defaultConfig(), cfg)

	votingPeriod, sweepInterval, _, err := cfg.Durations()
	require.NoError(t, err)
	assert.Zero(t, votingPeriod, "no voting period means no expiry")
	assert.Equal(t, time.Minute, sweepInterval)
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	resetGlobalConfig()
	tmpFile := writeConfigFile(t, "defaultCredits: 400\n")
	t.Setenv("QUADVOTE_DEFAULT_CREDITS", "900")
	t.Setenv("QUADVOTE_DATABASE_METADATA_PLUGIN", "mysql")
	t.Setenv("QUADVOTE_VOTING_PERIOD", "1h")
	t.Setenv(
		"QUADVOTE_CORS_ORIGINS",
		"https://a.example.com,https://b.example.com",
	)
	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)
	assert.Equal(
		t,
		[]string{"https://a.example.com", "https://b.example.com"},
		cfg.CorsOrigins,
	)
	assert.Equal(t, uint64(900), cfg.DefaultCredits)
	assert.Equal(t, "mysql", cfg.MetadataPlugin)
	assert.Equal(t, "1h", cfg.VotingPeriod)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	testDefs := []struct {
		name    string
		content string
	}{
		{name: "policy", content: "proposalPolicy: members\n"},
		{name: "voting period", content: "votingPeriod: soon\n"},
		{name: "negative voting period", content: "votingPeriod: -1h\n"},
		{name: "sweep interval", content: "expirySweepInterval: often\n"},
		{name: "conflict retries", content: "conflictRetries: -1\n"},
		{name: "yaml", content: "apiPort: [\n"},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			resetGlobalConfig()
			_, err := LoadConfig(writeConfigFile(t, testDef.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	resetGlobalConfig()
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "error reading config file")
}

func TestContext(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))
	cfg := defaultConfig()
	ctx := WithContext(context.Background(), cfg)
	assert.Same(t, cfg, FromContext(ctx))
}

func TestListPlugins(t *testing.T) {
	cfg := defaultConfig()
	assert.NoError(t, cfg.ListPlugins())
	cfg.BlobPlugin = "list"
	assert.ErrorIs(t, cfg.ListPlugins(), ErrPluginListRequested)
}
