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

package quadvote

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/blinklabs-io/quadvote/governance"
	"github.com/prometheus/client_golang/prometheus"
)

type Config struct {
	promRegistry        prometheus.Registerer
	logger              *slog.Logger
	dataDir             string
	blobPlugin          string
	metadataPlugin      string
	apiListenAddress    string
	apiCorsOrigins      []string
	proposalPolicy      string
	defaultCredits      uint64
	maxVotesPerBallot   uint64
	votingPeriod        time.Duration
	expirySweepInterval time.Duration
	conflictRetries     int
	tracing             bool
	tracingStdout       bool
	shutdownTimeout     time.Duration
}

func (n *Node) configValidate() error {
	if n.config.apiListenAddress == "" {
		return errors.New("no API listen address defined")
	}
	if _, err := governance.ParseProposalPolicy(n.config.proposalPolicy); err != nil {
		return err
	}
	if n.config.votingPeriod < 0 {
		return fmt.Errorf("invalid voting period: %s", n.config.votingPeriod)
	}
	if n.config.expirySweepInterval <= 0 {
		return fmt.Errorf(
			"invalid expiry sweep interval: %s",
			n.config.expirySweepInterval,
		)
	}
	if n.config.conflictRetries < 0 {
		return fmt.Errorf(
			"invalid conflict retries: %d",
			n.config.conflictRetries,
		)
	}
	return nil
}

// ConfigOptionFunc is a type that represents functions that modify the node config
type ConfigOptionFunc func(*Config)

// NewConfig creates a new quadvote config with the specified options
func NewConfig(opts ...ConfigOptionFunc) Config {
	c := Config{
		// Default logger will throw away logs
		// We do this so we don't have to add guards around every log operation
		logger:              slog.New(slog.NewJSONHandler(io.Discard, nil)),
		apiListenAddress:    ":8080",
		proposalPolicy:      string(governance.ProposalPolicyAdmin),
		defaultCredits:      governance.DefaultCredits,
		maxVotesPerBallot:   governance.DefaultMaxVotesPerBallot,
		expirySweepInterval: governance.DefaultExpirySweepInterval,
		conflictRetries:     governance.DefaultConflictRetries,
	}
	// Apply options
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithDatabasePath specifies the persistent data directory to use. The default is to store everything in memory
func WithDatabasePath(dataDir string) ConfigOptionFunc {
	return func(c *Config) {
		c.dataDir = dataDir
	}
}

// WithBlobPlugin specifies the blob storage plugin to use.
func WithBlobPlugin(plugin string) ConfigOptionFunc {
	return func(c *Config) {
		c.blobPlugin = plugin
	}
}

// WithMetadataPlugin specifies the metadata storage plugin to use.
func WithMetadataPlugin(plugin string) ConfigOptionFunc {
	return func(c *Config) {
		c.metadataPlugin = plugin
	}
}

// WithLogger specifies the logger to use. This defaults to discarding log output
func WithLogger(logger *slog.Logger) ConfigOptionFunc {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithPrometheusRegistry specifies a prometheus.Registerer instance to add metrics to. In most cases, prometheus.DefaultRegistry would be
// a good choice to get metrics working
func WithPrometheusRegistry(registry prometheus.Registerer) ConfigOptionFunc {
	return func(c *Config) {
		c.promRegistry = registry
	}
}

// WithApiListenAddress specifies the address for the governance API
func WithApiListenAddress(address string) ConfigOptionFunc {
	return func(c *Config) {
		c.apiListenAddress = address
	}
}

// WithApiCorsOrigins specifies the browser origins allowed to call the API
func WithApiCorsOrigins(origins []string) ConfigOptionFunc {
	return func(c *Config) {
		c.apiCorsOrigins = origins
	}
}

// WithProposalPolicy specifies who may create proposals: "admin" or "open"
func WithProposalPolicy(policy string) ConfigOptionFunc {
	return func(c *Config) {
		c.proposalPolicy = policy
	}
}

// WithDefaultCredits specifies the budget a voter starts with in each DAO
func WithDefaultCredits(credits uint64) ConfigOptionFunc {
	return func(c *Config) {
		c.defaultCredits = credits
	}
}

// WithMaxVotesPerBallot caps the votes a single ballot may cast
func WithMaxVotesPerBallot(maxVotes uint64) ConfigOptionFunc {
	return func(c *Config) {
		c.maxVotesPerBallot = maxVotes
	}
}

// WithVotingPeriod specifies how long new proposals stay open. Zero disables expiry
func WithVotingPeriod(period time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.votingPeriod = period
	}
}

// WithExpirySweepInterval specifies how often expired proposals are closed
func WithExpirySweepInterval(interval time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.expirySweepInterval = interval
	}
}

// WithConflictRetries specifies how many times a conflicting write is retried
func WithConflictRetries(retries int) ConfigOptionFunc {
	return func(c *Config) {
		c.conflictRetries = retries
	}
}

// WithTracing enables tracing. By default, spans are submitted to a HTTP(s) OTLP collector at localhost:4318 (or an override specified
// using the OTEL_EXPORTER_OTLP_* env vars documented in the README for [go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp])
func WithTracing(tracing bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracing = tracing
	}
}

// WithTracingStdout enables tracing output to stdout. This also requires tracing to enabled separately. This is mostly useful for debugging
func WithTracingStdout(stdout bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracingStdout = stdout
	}
}

// WithShutdownTimeout specifies the timeout for graceful shutdown. Default is 30 seconds
func WithShutdownTimeout(timeout time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.shutdownTimeout = timeout
	}
}
