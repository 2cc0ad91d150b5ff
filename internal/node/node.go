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

package node

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	_ "net/http/pprof" // #nosec G108
	"os/signal"
	"syscall"
	"time"

	"github.com/blinklabs-io/quadvote"
	"github.com/blinklabs-io/quadvote/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

func Run(cfg *config.Config, logger *slog.Logger) error {
	logger.Debug(fmt.Sprintf("config: %+v", cfg), "component", "node")
	votingPeriod, sweepInterval, shutdownTimeout, err := cfg.Durations()
	if err != nil {
		return err
	}
	n, err := quadvote.New(
		quadvote.NewConfig(
			quadvote.WithLogger(logger),
			quadvote.WithDatabasePath(cfg.DatabasePath),
			quadvote.WithBlobPlugin(cfg.BlobPlugin),
			quadvote.WithMetadataPlugin(cfg.MetadataPlugin),
			quadvote.WithApiListenAddress(
				fmt.Sprintf("%s:%d", cfg.BindAddr, cfg.ApiPort),
			),
			quadvote.WithApiCorsOrigins(cfg.CorsOrigins),
			quadvote.WithProposalPolicy(cfg.ProposalPolicy),
			quadvote.WithDefaultCredits(cfg.DefaultCredits),
			quadvote.WithMaxVotesPerBallot(cfg.MaxVotesPerBallot),
			quadvote.WithVotingPeriod(votingPeriod),
			quadvote.WithExpirySweepInterval(sweepInterval),
			quadvote.WithConflictRetries(cfg.ConflictRetries),
			quadvote.WithTracing(cfg.TracingEnabled),
			quadvote.WithTracingStdout(cfg.TracingStdout),
			quadvote.WithShutdownTimeout(shutdownTimeout),
			// Enable metrics with default prometheus registry
			quadvote.WithPrometheusRegistry(prometheus.DefaultRegisterer),
		),
	)
	if err != nil {
		return err
	}
	// Run until interrupted. The node shuts itself down when the context
	// is cancelled
	signalCtx, signalCtxStop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer signalCtxStop()
	g, ctx := errgroup.WithContext(signalCtx)

	// Metrics and debug listener
	if cfg.MetricsPort > 0 {
		http.Handle("/metrics", promhttp.Handler())
		metricsAddr := fmt.Sprintf("%s:%d", cfg.BindAddr, cfg.MetricsPort)
		logger.Info(
			"serving prometheus metrics on "+metricsAddr,
			"component", "node",
		)
		metricsServer := &http.Server{
			Addr:              metricsAddr,
			ReadHeaderTimeout: 60 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		}
		g.Go(func() error {
			if err := metricsServer.ListenAndServe(); err != nil &&
				!errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics listener: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(
				context.Background(),
				shutdownTimeout,
			)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Error(
					"metrics server shutdown error",
					"error", err,
					"component", "node",
				)
			}
			return nil
		})
	}

	g.Go(func() error {
		err := n.Run(ctx)
		if err == nil {
			signalCtxStop()
			return nil
		}
		logger.Error("node error", "error", err, "component", "node")
		if stopErr := n.Stop(); stopErr != nil {
			logger.Error(
				"shutdown errors occurred during error cleanup",
				"error", stopErr,
				"component", "node",
			)
		}
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("shutdown complete", "component", "node")
	return nil
}
