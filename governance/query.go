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
	"fmt"

	"github.com/blinklabs-io/quadvote/database"
)

// view runs fn in a read-only transaction unless the context is already
// done
func (s *Service) view(ctx context.Context, fn func(*database.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(fn)
}

func (s *Service) GetDao(ctx context.Context, daoId Id) (*Dao, error) {
	var ret *Dao
	err := s.view(ctx, func(txn *database.Txn) error {
		dao, err := s.daos.Get(txn, daoId, false)
		if err != nil {
			return err
		}
		ret = newDao(dao)
		return nil
	})
	return ret, err
}

// ListDaos returns every DAO in creation order
func (s *Service) ListDaos(ctx context.Context) ([]*Dao, error) {
	var ret []*Dao
	err := s.view(ctx, func(txn *database.Txn) error {
		daos, err := s.daos.List(txn)
		if err != nil {
			return err
		}
		ret = make([]*Dao, 0, len(daos))
		for i := range daos {
			ret = append(ret, newDao(&daos[i]))
		}
		return nil
	})
	return ret, err
}

func (s *Service) GetProposal(ctx context.Context, proposalId Id) (*Proposal, error) {
	var ret *Proposal
	err := s.view(ctx, func(txn *database.Txn) error {
		proposal, err := s.proposals.Get(txn, proposalId, false)
		if err != nil {
			return err
		}
		ret = newProposal(proposal, s.now())
		return nil
	})
	return ret, err
}

// ListProposals returns the proposals of a DAO ordered by sequence
func (s *Service) ListProposals(ctx context.Context, daoId Id) ([]*Proposal, error) {
	var ret []*Proposal
	err := s.view(ctx, func(txn *database.Txn) error {
		if _, err := s.daos.Get(txn, daoId, false); err != nil {
			return err
		}
		proposals, err := s.proposals.ListByDao(txn, daoId)
		if err != nil {
			return err
		}
		now := s.now()
		ret = make([]*Proposal, 0, len(proposals))
		for i := range proposals {
			ret = append(ret, newProposal(&proposals[i], now))
		}
		return nil
	})
	return ret, err
}

func (s *Service) GetVote(
	ctx context.Context,
	proposalId Id,
	voter string,
) (*Vote, error) {
	var ret *Vote
	err := s.view(ctx, func(txn *database.Txn) error {
		vote, err := s.db.GetVoteRecord(proposalId.Bytes(), voter, txn)
		if err != nil {
			return fmt.Errorf("lookup vote: %w", err)
		}
		if vote == nil {
			return fmt.Errorf("%w: %s on %s", ErrVoteNotFound, voter, proposalId)
		}
		ret = newVote(vote)
		receipt, err := s.db.GetVoteReceipt(proposalId.Bytes(), voter, txn)
		if err != nil {
			return fmt.Errorf("lookup vote receipt: %w", err)
		}
		if receipt != nil {
			ret.BalanceAfter = &receipt.BalanceAfter
		}
		return nil
	})
	return ret, err
}

func (s *Service) ListVotes(ctx context.Context, proposalId Id) ([]*Vote, error) {
	var ret []*Vote
	err := s.view(ctx, func(txn *database.Txn) error {
		if _, err := s.proposals.Get(txn, proposalId, false); err != nil {
			return err
		}
		votes, err := s.db.GetVoteRecords(proposalId.Bytes(), txn)
		if err != nil {
			return fmt.Errorf("list votes: %w", err)
		}
		ret = make([]*Vote, 0, len(votes))
		for i := range votes {
			ret = append(ret, newVote(&votes[i]))
		}
		return nil
	})
	return ret, err
}

// GetCredits returns a voter's credits in the DAO, including the largest
// vote magnitude the balance can pay for
func (s *Service) GetCredits(
	ctx context.Context,
	daoId Id,
	voter string,
) (*Credit, error) {
	if err := validateCaller(voter); err != nil {
		return nil, err
	}
	var ret *Credit
	err := s.view(ctx, func(txn *database.Txn) error {
		if _, err := s.daos.Get(txn, daoId, false); err != nil {
			return err
		}
		var err error
		ret, err = s.ledger.Credit(txn, daoId, voter, s.now())
		return err
	})
	return ret, err
}

// ReadTally returns the current results of a proposal, open or closed
func (s *Service) ReadTally(ctx context.Context, proposalId Id) (*Tally, error) {
	var ret *Tally
	err := s.view(ctx, func(txn *database.Txn) error {
		proposal, err := s.proposals.Get(txn, proposalId, false)
		if err != nil {
			return err
		}
		ret = s.tally.Read(proposal, s.now())
		return nil
	})
	return ret, err
}
