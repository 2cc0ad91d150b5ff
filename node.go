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
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/blinklabs-io/quadvote/api"
	"github.com/blinklabs-io/quadvote/database"
	"github.com/blinklabs-io/quadvote/event"
	"github.com/blinklabs-io/quadvote/governance"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

type Node struct {
	eventBus       *event.EventBus
	db             *database.Database
	governance     *governance.Service
	api            *api.API
	tracerProvider trace.TracerProvider
	shutdownFuncs  []func(context.Context) error
	config         Config
	done           chan struct{}
	ready          chan struct{}
	shutdownOnce   sync.Once
}

func New(cfg Config) (*Node, error) {
	eventBus := event.NewEventBus(cfg.promRegistry, cfg.logger)
	n := &Node{
		config:   cfg,
		eventBus: eventBus,
		done:     make(chan struct{}),
		ready:    make(chan struct{}),
	}
	if err := n.configValidate(); err != nil {
		eventBus.Stop()
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return n, nil
}

// Run starts the node and blocks until ctx is cancelled or Stop is called
func (n *Node) Run(ctx context.Context) error {
	// Configure tracing
	if n.config.tracing {
		if err := n.setupTracing(ctx); err != nil {
			return err
		}
	}
	// Load database
	dbNeedsAudit := false
	db, err := database.New(&database.Config{
		DataDir:        n.config.dataDir,
		Logger:         n.config.logger,
		PromRegistry:   n.config.promRegistry,
		BlobPlugin:     n.config.blobPlugin,
		MetadataPlugin: n.config.metadataPlugin,
	})
	if db == nil {
		if err == nil {
			err = errors.New("empty database returned")
		}
		return fmt.Errorf("failed to open database: %w", err)
	}
	n.db = db
	n.shutdownFuncs = append(
		n.shutdownFuncs,
		func(context.Context) error { return n.db.Close() },
	)
	if err != nil {
		var dbErr database.CommitTimestampError
		if !errors.As(err, &dbErr) {
			return fmt.Errorf("failed to open database: %w", err)
		}
		n.config.logger.Warn(
			"database commit timestamps disagree, auditing governance state",
			"error", err,
			"metadata_ahead", dbErr.MetadataAhead(),
			"component", "node",
		)
		dbNeedsAudit = true
	}
	// Governance service
	policy, err := governance.ParseProposalPolicy(n.config.proposalPolicy)
	if err != nil {
		return err
	}
	svcOpts := []governance.ServiceOptionFunc{
		governance.WithLogger(n.config.logger),
		governance.WithPromRegistry(n.config.promRegistry),
		governance.WithEventBus(n.eventBus),
		governance.WithProposalPolicy(policy),
		governance.WithDefaultCredits(n.config.defaultCredits),
		governance.WithMaxVotesPerBallot(n.config.maxVotesPerBallot),
		governance.WithVotingPeriod(n.config.votingPeriod),
		governance.WithExpirySweepInterval(n.config.expirySweepInterval),
		governance.WithConflictRetries(n.config.conflictRetries),
	}
	if n.tracerProvider != nil {
		svcOpts = append(
			svcOpts,
			governance.WithTracerProvider(n.tracerProvider),
		)
	}
	svc, err := governance.NewService(n.db, svcOpts...)
	if err != nil {
		return fmt.Errorf("failed to create governance service: %w", err)
	}
	n.governance = svc
	if dbNeedsAudit {
		if err := n.auditAll(ctx); err != nil {
			return err
		}
	}
	n.subscribeEvents()
	// Close anything that expired while we were down, then keep sweeping
	if _, err := n.governance.SweepExpired(ctx); err != nil {
		return fmt.Errorf("failed to sweep expired proposals: %w", err)
	}
	if err := n.governance.StartExpirySweeper(); err != nil {
		return fmt.Errorf("failed to start expiry sweeper: %w", err)
	}
	// Start API
	apiCfg := api.Config{
		ListenAddress:  n.config.apiListenAddress,
		AllowedOrigins: n.config.apiCorsOrigins,
	}
	if gatherer, ok := n.config.promRegistry.(prometheus.Gatherer); ok {
		apiCfg.Metrics = promhttp.HandlerFor(
			gatherer,
			promhttp.HandlerOpts{},
		)
	}
	n.api = api.New(apiCfg, n.governance, n.config.logger)
	if err := n.api.Start(ctx); err != nil {
		return err
	}
	close(n.ready)

	// Wait for shutdown signal
	select {
	case <-ctx.Done():
		return n.Stop()
	case <-n.done:
		return nil
	}
}

// Ready is closed once the node is serving requests
func (n *Node) Ready() <-chan struct{} {
	return n.ready
}

// ApiAddr returns the bound API address, or nil before the node is ready
func (n *Node) ApiAddr() net.Addr {
	if n.api == nil {
		return nil
	}
	return n.api.Addr()
}

// Governance returns the governance service, or nil before Run
func (n *Node) Governance() *governance.Service {
	return n.governance
}

func (n *Node) Stop() error {
	var err error
	n.shutdownOnce.Do(func() {
		err = n.shutdown()
	})
	return err
}

func (n *Node) shutdown() error {
	// Create shutdown context with timeout (default 30s if not configured)
	shutdownTimeout := 30 * time.Second
	if n.config.shutdownTimeout > 0 {
		shutdownTimeout = n.config.shutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var err error

	n.config.logger.Debug("starting graceful shutdown", "component", "node")

	// Stop accepting new work
	if n.api != nil {
		if stopErr := n.api.Stop(ctx); stopErr != nil {
			err = errors.Join(err, fmt.Errorf("api shutdown: %w", stopErr))
		}
	}
	if n.governance != nil {
		n.governance.StopExpirySweeper()
	}
	if n.eventBus != nil {
		n.eventBus.Stop()
	}

	// Close database and flush traces, last registered first
	for i := len(n.shutdownFuncs) - 1; i >= 0; i-- {
		if fnErr := n.shutdownFuncs[i](ctx); fnErr != nil {
			err = errors.Join(err, fmt.Errorf("shutdown function: %w", fnErr))
		}
	}
	n.shutdownFuncs = nil

	n.config.logger.Debug("graceful shutdown complete", "component", "node")
	close(n.done)
	return err
}

// auditAll checks every DAO after an unclean shutdown. Mismatches are
// logged, not fatal, so an operator can inspect the running node
func (n *Node) auditAll(ctx context.Context) error {
	daos, err := n.governance.ListDaos(ctx)
	if err != nil {
		return fmt.Errorf("failed to list DAOs for audit: %w", err)
	}
	for _, dao := range daos {
		report, err := n.governance.Audit(ctx, dao.Id)
		if err != nil {
			return fmt.Errorf("failed to audit DAO %s: %w", dao.Id, err)
		}
		if report.Ok() {
			continue
		}
		for _, mismatch := range report.Mismatches {
			n.config.logger.Error(
				"governance audit mismatch",
				"dao", dao.Id.String(),
				"subject", mismatch.Subject,
				"detail", mismatch.Detail,
				"component", "node",
			)
		}
	}
	return nil
}

func (n *Node) subscribeEvents() {
	for _, eventType := range event.GovernanceEventTypes {
		n.eventBus.SubscribeFunc(eventType, func(evt event.Event) {
			n.config.logger.Info(
				"governance event",
				"type", string(evt.Type),
				"data", fmt.Sprintf("%+v", evt.Data),
				"component", "node",
			)
		})
	}
}

func (n *Node) setupTracing(ctx context.Context) error {
	var exporter sdktrace.SpanExporter
	var err error
	if n.config.tracingStdout {
		exporter, err = stdouttrace.New(
			stdouttrace.WithWriter(os.Stdout),
			stdouttrace.WithPrettyPrint(),
		)
	} else {
		exporter, err = otlptracehttp.New(ctx)
	}
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}
	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			attribute.String("service.name", "quadvote"),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create trace resource: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	n.tracerProvider = tp
	n.shutdownFuncs = append(n.shutdownFuncs, tp.Shutdown)
	return nil
}
