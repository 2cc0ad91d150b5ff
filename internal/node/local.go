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
	"errors"
	"fmt"
	"log/slog"

	"github.com/blinklabs-io/quadvote/database"
	"github.com/blinklabs-io/quadvote/governance"
	"github.com/blinklabs-io/quadvote/internal/config"
)

// OpenLocal opens the configured database directly and returns a governance
// service over it, for one-shot CLI commands. The returned close function
// releases the database
func OpenLocal(
	cfg *config.Config,
	logger *slog.Logger,
) (*governance.Service, func() error, error) {
	votingPeriod, _, _, err := cfg.Durations()
	if err != nil {
		return nil, nil, err
	}
	policy, err := governance.ParseProposalPolicy(cfg.ProposalPolicy)
	if err != nil {
		return nil, nil, err
	}
	db, err := database.New(&database.Config{
		DataDir:        cfg.DatabasePath,
		Logger:         logger,
		BlobPlugin:     cfg.BlobPlugin,
		MetadataPlugin: cfg.MetadataPlugin,
	})
	if err != nil {
		var dbErr database.CommitTimestampError
		if db == nil || !errors.As(err, &dbErr) {
			if db != nil {
				_ = db.Close()
			}
			return nil, nil, fmt.Errorf("failed to open database: %w", err)
		}
		// Let the caller run an audit against a diverged store
		logger.Warn(
			"database commit timestamps disagree, run 'quadvote audit'",
			"error", err,
			"component", "node",
		)
	}
	svc, err := governance.NewService(
		db,
		governance.WithLogger(logger),
		governance.WithProposalPolicy(policy),
		governance.WithDefaultCredits(cfg.DefaultCredits),
		governance.WithMaxVotesPerBallot(cfg.MaxVotesPerBallot),
		governance.WithVotingPeriod(votingPeriod),
		governance.WithConflictRetries(cfg.ConflictRetries),
	)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return svc, db.Close, nil
}
