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
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/blinklabs-io/quadvote/database"
	"github.com/blinklabs-io/quadvote/database/models"
	"github.com/blinklabs-io/quadvote/database/types"
)

// VoteLedger records quadratic votes. A vote debits the voter's credits,
// inserts the vote record and its receipt, and updates the proposal tally
// in the caller's transaction
type VoteLedger struct {
	db             *database.Database
	proposals      *ProposalStore
	credits        CreditModel
	tally          TallyEngine
	defaultCredits uint64
}

func NewVoteLedger(
	db *database.Database,
	proposals *ProposalStore,
	credits CreditModel,
	defaultCredits uint64,
) *VoteLedger {
	return &VoteLedger{
		db:             db,
		proposals:      proposals,
		credits:        credits,
		defaultCredits: defaultCredits,
	}
}

// voteResult carries what a recorded vote changed, for events and metrics
type voteResult struct {
	proposal *models.Proposal
	vote     *models.VoteRecord
	credit   *models.VoterCredit
}

// Record validates and applies a vote
func (l *VoteLedger) Record(
	txn *database.Txn,
	caller string,
	proposalId Id,
	option uint8,
	votesCast int64,
	now time.Time,
) (*voteResult, error) {
	proposal, err := l.proposals.Get(txn, proposalId, true)
	if err != nil {
		return nil, err
	}
	if !proposal.IsOpen(now) {
		return nil, fmt.Errorf("%w: %s", ErrProposalClosed, proposalId)
	}
	if _, ok := optionLabel(proposal, option); !ok {
		return nil, fmt.Errorf(
			"%w: %d is not one of %d options",
			ErrInvalidOption,
			option,
			len(proposal.Options),
		)
	}
	existing, err := l.db.GetVoteRecord(proposal.ProposalId, caller, txn)
	if err != nil {
		return nil, fmt.Errorf("lookup vote: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s on %s", ErrDuplicateVote, caller, proposalId)
	}
	cost, err := l.credits.CostFor(votesCast)
	if err != nil {
		return nil, err
	}
	daoId := idOf(proposal.DaoId)
	credit, created, err := l.loadCredit(txn, daoId, caller, now)
	if err != nil {
		return nil, err
	}
	if err := l.credits.ValidateBudget(uint64(credit.Balance), cost); err != nil {
		return nil, err
	}
	credit.Balance -= types.Uint64(cost)
	credit.Spent += types.Uint64(cost)
	credit.UpdatedAt = now
	if err := l.saveCredit(txn, credit, created); err != nil {
		return nil, err
	}
	// CostFor bounds votesCast to the uint32 range
	votes := uint32(votesCast) // #nosec G115
	vote := &models.VoteRecord{
		VoteId:       VoteId(caller, proposalId).Bytes(),
		ProposalId:   proposal.ProposalId,
		Voter:        caller,
		DaoId:        proposal.DaoId,
		Option:       option,
		VotesCast:    votes,
		CreditsSpent: types.Uint64(cost),
		CastAt:       now,
	}
	if err := l.db.CreateVoteRecord(vote, txn); err != nil {
		if errors.Is(err, types.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: %s on %s", ErrDuplicateVote, caller, proposalId)
		}
		return nil, fmt.Errorf("create vote: %w", err)
	}
	receipt := &types.VoteReceipt{
		ProposalId:   vote.ProposalId,
		DaoId:        vote.DaoId,
		Voter:        caller,
		Option:       option,
		VotesCast:    votes,
		CreditsSpent: cost,
		BalanceAfter: uint64(credit.Balance),
		CastAt:       now.UnixMilli(),
	}
	if err := l.db.SetVoteReceipt(receipt, txn); err != nil {
		return nil, fmt.Errorf("write vote receipt: %w", err)
	}
	tally, err := l.tally.Apply(proposal, option, votes, cost)
	if err != nil {
		return nil, err
	}
	if err := l.db.UpdateProposalTally(tally, txn); err != nil {
		return nil, fmt.Errorf("update tally: %w", err)
	}
	// Every vote bumps the proposal version so a writer in another process
	// holding a stale copy fails instead of overwriting the tally
	if err := l.proposals.bumpVersion(txn, proposal); err != nil {
		return nil, err
	}
	return &voteResult{proposal: proposal, vote: vote, credit: credit}, nil
}

// loadCredit returns the voter's stored credit, or a new record holding the
// default budget which the caller must insert
func (l *VoteLedger) loadCredit(
	txn *database.Txn,
	daoId Id,
	voter string,
	now time.Time,
) (*models.VoterCredit, bool, error) {
	credit, err := l.db.GetVoterCredit(daoId.Bytes(), voter, true, txn)
	if err != nil {
		return nil, false, fmt.Errorf("lookup credits: %w", err)
	}
	if credit != nil {
		return credit, false, nil
	}
	return l.newCredit(daoId, voter, now), true, nil
}

func (l *VoteLedger) newCredit(
	daoId Id,
	voter string,
	now time.Time,
) *models.VoterCredit {
	return &models.VoterCredit{
		CreditId:  CreditId(daoId, voter).Bytes(),
		DaoId:     daoId.Bytes(),
		Voter:     voter,
		Balance:   types.Uint64(l.defaultCredits),
		Granted:   types.Uint64(l.defaultCredits),
		UpdatedAt: now,
	}
}

func (l *VoteLedger) saveCredit(
	txn *database.Txn,
	credit *models.VoterCredit,
	created bool,
) error {
	if !created {
		if err := l.db.UpdateVoterCredit(credit, txn); err != nil {
			return fmt.Errorf("update credits: %w", err)
		}
		return nil
	}
	if err := l.db.CreateVoterCredit(credit, txn); err != nil {
		// Another process created the record after our lookup
		if errors.Is(err, types.ErrDuplicateKey) {
			return fmt.Errorf("%w: credits for %s", ErrConcurrentUpdate, credit.Voter)
		}
		return fmt.Errorf("create credits: %w", err)
	}
	return nil
}

// Grant adds amount to the voter's credits in the DAO. A voter without a
// stored record starts from a zero balance, not the default budget
func (l *VoteLedger) Grant(
	txn *database.Txn,
	daoId Id,
	voter string,
	amount uint64,
	now time.Time,
) (*models.VoterCredit, error) {
	if amount == 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidAmount)
	}
	credit, created, err := l.loadCredit(txn, daoId, voter, now)
	if err != nil {
		return nil, err
	}
	if created {
		credit.Balance = 0
		credit.Granted = 0
	}
	if amount > math.MaxUint64-uint64(credit.Balance) ||
		amount > math.MaxUint64-uint64(credit.Granted) {
		return nil, fmt.Errorf("%w: balance would overflow", ErrInvalidAmount)
	}
	credit.Balance += types.Uint64(amount)
	credit.Granted += types.Uint64(amount)
	credit.UpdatedAt = now
	if err := l.saveCredit(txn, credit, created); err != nil {
		return nil, err
	}
	return credit, nil
}

// Credit returns the voter's credits in the DAO. A voter without a stored
// record is reported with the default budget
func (l *VoteLedger) Credit(
	txn *database.Txn,
	daoId Id,
	voter string,
	now time.Time,
) (*Credit, error) {
	credit, err := l.db.GetVoterCredit(daoId.Bytes(), voter, false, txn)
	if err != nil {
		return nil, fmt.Errorf("lookup credits: %w", err)
	}
	isDefault := credit == nil
	if isDefault {
		credit = l.newCredit(daoId, voter, now)
	}
	return &Credit{
		Id:       idOf(credit.CreditId),
		DaoId:    daoId,
		Voter:    voter,
		Balance:  uint64(credit.Balance),
		Granted:  uint64(credit.Granted),
		Spent:    uint64(credit.Spent),
		MaxVotes: l.credits.MaxVotes(uint64(credit.Balance)),
		Default:  isDefault,
	}, nil
}
