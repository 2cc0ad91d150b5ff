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

package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"connectrpc.com/connect"
	"connectrpc.com/grpchealth"
	"connectrpc.com/grpcreflect"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

const (
	DefaultListenAddress = ":8080"

	// CallerHeader carries the identity of the principal making a request
	CallerHeader = "X-Quadvote-Caller"

	// healthServiceName is the service reported to gRPC health probes
	healthServiceName = "quadvote.v0.Governance"
)

// Config holds the API listener settings
type Config struct {
	ListenAddress string
	// AllowedOrigins enables CORS for browser clients on these origins
	AllowedOrigins []string
	// Metrics, when set, is served on /metrics
	Metrics http.Handler
}

// API is the HTTP/JSON governance server. It also answers gRPC health and
// reflection requests over cleartext HTTP/2
type API struct {
	config     Config
	logger     *slog.Logger
	service    GovernanceService
	httpServer *http.Server
	listenAddr net.Addr
	mu         sync.Mutex
}

// New creates a new API server instance
func New(
	cfg Config,
	service GovernanceService,
	logger *slog.Logger,
) *API {
	if logger == nil {
		logger = slog.New(
			slog.NewJSONHandler(io.Discard, nil),
		)
	}
	logger = logger.With("component", "api")
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = DefaultListenAddress
	}
	return &API{
		config:  cfg,
		logger:  logger,
		service: service,
	}
}

// Handler returns the request router, wrapped for h2c
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", a.handleRoot)
	mux.HandleFunc("GET /health", a.handleHealth)
	mux.HandleFunc("GET /api/v0/daos", a.handleListDaos)
	mux.HandleFunc("POST /api/v0/daos", a.handleCreateDao)
	mux.HandleFunc("GET /api/v0/daos/{id}", a.handleGetDao)
	mux.HandleFunc("GET /api/v0/daos/{id}/proposals", a.handleListProposals)
	mux.HandleFunc("POST /api/v0/daos/{id}/proposals", a.handleCreateProposal)
	mux.HandleFunc("GET /api/v0/daos/{id}/credits/{voter}", a.handleGetCredits)
	mux.HandleFunc("POST /api/v0/daos/{id}/credits", a.handleGrantCredits)
	mux.HandleFunc("GET /api/v0/daos/{id}/audit", a.handleAudit)
	mux.HandleFunc("GET /api/v0/proposals/{id}", a.handleGetProposal)
	mux.HandleFunc("POST /api/v0/proposals/{id}/close", a.handleCloseProposal)
	mux.HandleFunc("GET /api/v0/proposals/{id}/votes", a.handleListVotes)
	mux.HandleFunc("POST /api/v0/proposals/{id}/votes", a.handleCastVote)
	mux.HandleFunc("GET /api/v0/proposals/{id}/votes/{voter}", a.handleGetVote)
	mux.HandleFunc("GET /api/v0/proposals/{id}/tally", a.handleTally)
	if a.config.Metrics != nil {
		mux.Handle("GET /metrics", a.config.Metrics)
	}
	compress1KB := connect.WithCompressMinBytes(1024)
	mux.Handle(
		grpchealth.NewHandler(
			grpchealth.NewStaticChecker(healthServiceName),
			compress1KB,
		),
	)
	mux.Handle(
		grpcreflect.NewHandlerV1(
			grpcreflect.NewStaticReflector(grpchealth.HealthV1ServiceName),
			compress1KB,
		),
	)
	mux.Handle(
		grpcreflect.NewHandlerV1Alpha(
			grpcreflect.NewStaticReflector(grpchealth.HealthV1ServiceName),
			compress1KB,
		),
	)
	handler := withCors(a.config.AllowedOrigins, withRequestId(a.logger, mux))
	// Use h2c so we can serve HTTP/2 without TLS
	return h2c.NewHandler(handler, &http2.Server{})
}

// Start starts the HTTP server in a background goroutine. The server is
// shut down when ctx is cancelled or Stop is called
func (a *API) Start(
	ctx context.Context,
) error {
	a.mu.Lock()
	if a.httpServer != nil {
		a.mu.Unlock()
		return errors.New("server already started")
	}
	server := &http.Server{
		Addr:              a.config.ListenAddress,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 60 * time.Second,
	}
	a.httpServer = server
	a.mu.Unlock()

	// Bind first so port conflicts are reported to the caller
	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		a.mu.Lock()
		a.httpServer = nil
		a.mu.Unlock()
		return fmt.Errorf("failed to listen for API server: %w", err)
	}
	a.mu.Lock()
	a.listenAddr = ln.Addr()
	a.mu.Unlock()
	go func() {
		if err := server.Serve(ln); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			a.logger.Error(
				"API server error",
				"error", err,
			)
		}
	}()

	a.logger.Info(
		"API listener started on " + ln.Addr().String(),
	)

	go func() {
		<-ctx.Done()
		//nolint:contextcheck
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			30*time.Second,
		)
		defer cancel()
		//nolint:contextcheck
		if err := a.Stop(shutdownCtx); err != nil {
			a.logger.Error(
				"failed to shutdown API server on context cancellation",
				"error", err,
			)
		}
	}()

	return nil
}

// Addr returns the bound listen address while the server is running
func (a *API) Addr() net.Addr {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.listenAddr
}

// Stop gracefully shuts down the HTTP server
func (a *API) Stop(
	ctx context.Context,
) error {
	a.mu.Lock()
	srv := a.httpServer
	a.httpServer = nil
	a.listenAddr = nil
	a.mu.Unlock()

	if srv != nil {
		a.logger.Debug("shutting down API server")
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown API server: %w", err)
		}
	}
	return nil
}
