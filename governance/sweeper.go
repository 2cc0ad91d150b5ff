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

package governance

import (
	"context"
	"errors"
	"time"

	"github.com/blinklabs-io/quadvote/database"
	"github.com/blinklabs-io/quadvote/database/models"
	"github.com/blinklabs-io/quadvote/event"
	"go.opentelemetry.io/otel/attribute"
)

const expirySweepBatchSize = 100

var (
	ErrSweeperRunning         = errors.New("expiry sweeper is already running")
	errInvalidSweeperInterval = errors.New("expiry sweep interval must be positive")
)

// StartExpirySweeper starts a background goroutine that periodically closes
// proposals whose voting period has ended
func (s *Service) StartExpirySweeper() error {
	s.sweepMutex.Lock()
	defer s.sweepMutex.Unlock()
	if s.sweepStop != nil {
		return ErrSweeperRunning
	}
	if s.sweepInterval <= 0 {
		return errInvalidSweeperInterval
	}
	s.sweepStop = make(chan struct{})
	s.sweepDone = make(chan struct{})
	go s.sweepLoop(s.sweepStop, s.sweepDone)
	s.logger.Debug(
		"started expiry sweeper",
		"component", "governance",
		"interval", s.sweepInterval.String(),
	)
	return nil
}

// StopExpirySweeper stops the sweeper and waits for it to exit. It is safe
// to call when the sweeper is not running
func (s *Service) StopExpirySweeper() {
	s.sweepMutex.Lock()
	defer s.sweepMutex.Unlock()
	if s.sweepStop == nil {
		return
	}
	close(s.sweepStop)
	<-s.sweepDone
	s.sweepStop = nil
	s.sweepDone = nil
}

func (s *Service) sweepLoop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-stop:
			cancel()
		case <-ctx.Done():
		}
	}()
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.SweepExpired(ctx); err != nil &&
				!errors.Is(err, context.Canceled) {
				s.logger.Error(
					"expiry sweep failed",
					"component", "governance",
					"error", err,
				)
			}
		}
	}
}

// SweepExpired closes every open proposal whose expiry has passed and
// returns how many it closed. Each proposal is closed in its own
// transaction with its expiry time as the close time
func (s *Service) SweepExpired(ctx context.Context) (int, error) {
	closed := 0
	for {
		var ids []Id
		err := s.view(ctx, func(txn *database.Txn) error {
			var err error
			ids, err = s.proposals.ExpiredIds(txn, s.now(), expirySweepBatchSize)
			return err
		})
		if err != nil {
			return closed, err
		}
		progress := 0
		for _, id := range ids {
			ok, err := s.expireProposal(ctx, id)
			if err != nil {
				return closed, err
			}
			if ok {
				progress++
			}
		}
		closed += progress
		if len(ids) < expirySweepBatchSize || progress == 0 {
			return closed, nil
		}
	}
}

func (s *Service) expireProposal(ctx context.Context, proposalId Id) (ok bool, err error) {
	ctx, done := s.observe(
		ctx,
		opExpire,
		attribute.Stringer("proposal", proposalId),
	)
	defer func() { done(err) }()
	release, err := s.locks.Acquire(ctx, proposalLockKey(proposalId))
	if err != nil {
		return false, err
	}
	defer release()
	var proposal *models.Proposal
	err = s.update(ctx, opExpire, func(txn *database.Txn) error {
		var err error
		proposal, ok, err = s.proposals.Expire(txn, proposalId, s.now())
		return err
	})
	if err != nil || !ok {
		return false, err
	}
	s.logger.Info(
		"closed expired proposal",
		"component", "governance",
		"proposal", proposalId.String(),
		"expired_at", proposal.ClosedAt.String(),
	)
	s.publish(event.ProposalClosedEventType, event.ProposalClosedEvent{
		ProposalId: proposalId.String(),
		DaoId:      idOf(proposal.DaoId).String(),
		Expired:    true,
	})
	return true, nil
}
