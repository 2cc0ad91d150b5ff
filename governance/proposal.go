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
	"slices"
	"time"

	"github.com/blinklabs-io/quadvote/database"
	"github.com/blinklabs-io/quadvote/database/models"
	"github.com/blinklabs-io/quadvote/database/types"
)

// ProposalPolicy controls who may create proposals in a DAO
type ProposalPolicy string

const (
	// ProposalPolicyAdmin only allows the DAO admin to create proposals
	ProposalPolicyAdmin ProposalPolicy = "admin"
	// ProposalPolicyOpen allows any caller to create proposals
	ProposalPolicyOpen ProposalPolicy = "open"
)

func ParseProposalPolicy(s string) (ProposalPolicy, error) {
	switch p := ProposalPolicy(s); p {
	case ProposalPolicyAdmin, ProposalPolicyOpen:
		return p, nil
	case "":
		return ProposalPolicyAdmin, nil
	default:
		return "", fmt.Errorf("unknown proposal policy: %s", s)
	}
}

// ProposalStore creates, closes and looks up proposals
type ProposalStore struct {
	db           *database.Database
	policy       ProposalPolicy
	votingPeriod time.Duration
}

func NewProposalStore(
	db *database.Database,
	policy ProposalPolicy,
	votingPeriod time.Duration,
) *ProposalStore {
	return &ProposalStore{
		db:           db,
		policy:       policy,
		votingPeriod: votingPeriod,
	}
}

// Create adds a proposal to the DAO, which must have been loaded with a row
// lock in the same transaction. The proposal id is derived from the DAO's
// proposal count before it is incremented
func (p *ProposalStore) Create(
	txn *database.Txn,
	caller string,
	dao *models.Dao,
	metadata string,
	labels []string,
	now time.Time,
) (*models.Proposal, error) {
	if p.policy != ProposalPolicyOpen && caller != dao.Admin {
		return nil, fmt.Errorf(
			"%w: only the DAO admin may create proposals",
			ErrUnauthorized,
		)
	}
	if err := validateMetadata(metadata); err != nil {
		return nil, err
	}
	if err := validateOptions(labels); err != nil {
		return nil, err
	}
	if len(labels) == 0 {
		labels = models.DefaultOptionLabels
	}
	daoId := idOf(dao.DaoId)
	seq := dao.ProposalCount
	proposalId := ProposalId(daoId, seq)
	proposal := &models.Proposal{
		ProposalId: proposalId.Bytes(),
		DaoId:      dao.DaoId,
		Sequence:   seq,
		Creator:    caller,
		Metadata:   metadata,
		Status:     models.ProposalStatusOpen,
		CreatedAt:  now,
		Options:    make([]models.ProposalOption, 0, len(labels)),
		Tallies:    make([]models.ProposalTally, 0, len(labels)),
	}
	if p.votingPeriod > 0 {
		expiresAt := now.Add(p.votingPeriod)
		proposal.ExpiresAt = &expiresAt
	}
	for i, label := range labels {
		// validateOptions caps the label count well below 256
		code := uint8(i) // #nosec G115
		proposal.Options = append(
			proposal.Options,
			models.ProposalOption{Code: code, Label: label},
		)
		proposal.Tallies = append(
			proposal.Tallies,
			models.ProposalTally{Option: code},
		)
	}
	if err := p.db.CreateProposal(proposal, txn); err != nil {
		if errors.Is(err, types.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: proposal %s", ErrConcurrentUpdate, proposalId)
		}
		return nil, fmt.Errorf("create proposal: %w", err)
	}
	if err := p.db.UpdateDaoProposalCount(dao.DaoId, seq+1, txn); err != nil {
		return nil, fmt.Errorf("update proposal count: %w", err)
	}
	dao.ProposalCount = seq + 1
	return proposal, nil
}

// Get returns the proposal, or ErrProposalNotFound
func (p *ProposalStore) Get(
	txn *database.Txn,
	proposalId Id,
	lock bool,
) (*models.Proposal, error) {
	proposal, err := p.db.GetProposal(proposalId.Bytes(), lock, txn)
	if err != nil {
		return nil, fmt.Errorf("lookup proposal: %w", err)
	}
	if proposal == nil {
		return nil, fmt.Errorf("%w: %s", ErrProposalNotFound, proposalId)
	}
	return proposal, nil
}

func (p *ProposalStore) ListByDao(
	txn *database.Txn,
	daoId Id,
) ([]models.Proposal, error) {
	ret, err := p.db.GetProposalsByDao(daoId.Bytes(), txn)
	if err != nil {
		return nil, fmt.Errorf("list proposals: %w", err)
	}
	return ret, nil
}

// Close moves an open proposal to closed. The DAO admin and the proposal
// creator may close it. A proposal that expired but was not yet swept is
// closed as of its expiry time
func (p *ProposalStore) Close(
	txn *database.Txn,
	caller string,
	proposalId Id,
	now time.Time,
) (*models.Proposal, error) {
	proposal, err := p.Get(txn, proposalId, true)
	if err != nil {
		return nil, err
	}
	dao, err := p.db.GetDao(proposal.DaoId, false, txn)
	if err != nil {
		return nil, fmt.Errorf("lookup DAO: %w", err)
	}
	if dao == nil {
		return nil, fmt.Errorf("%w: %x", ErrDaoNotFound, proposal.DaoId)
	}
	if caller != dao.Admin && caller != proposal.Creator {
		return nil, fmt.Errorf(
			"%w: only the DAO admin or the proposal creator may close it",
			ErrUnauthorized,
		)
	}
	if proposal.Status == models.ProposalStatusClosed {
		return nil, fmt.Errorf("%w: %s", ErrProposalAlreadyClosed, proposalId)
	}
	closedAt := now
	if proposal.ExpiresAt != nil && !now.Before(*proposal.ExpiresAt) {
		closedAt = *proposal.ExpiresAt
	}
	if err := p.markClosed(txn, proposal, closedAt); err != nil {
		return nil, err
	}
	return proposal, nil
}

// Expire closes a proposal whose voting period has ended, recording the
// expiry time as the close time. It returns false without error when the
// proposal was closed by someone else in the meantime
func (p *ProposalStore) Expire(
	txn *database.Txn,
	proposalId Id,
	now time.Time,
) (*models.Proposal, bool, error) {
	proposal, err := p.Get(txn, proposalId, true)
	if err != nil {
		return nil, false, err
	}
	if proposal.Status == models.ProposalStatusClosed ||
		proposal.ExpiresAt == nil ||
		now.Before(*proposal.ExpiresAt) {
		return proposal, false, nil
	}
	if err := p.markClosed(txn, proposal, *proposal.ExpiresAt); err != nil {
		return nil, false, err
	}
	return proposal, true, nil
}

// ExpiredIds returns up to limit open proposals whose expiry has passed
func (p *ProposalStore) ExpiredIds(
	txn *database.Txn,
	now time.Time,
	limit int,
) ([]Id, error) {
	proposals, err := p.db.GetExpiredProposals(now, limit, txn)
	if err != nil {
		return nil, fmt.Errorf("list expired proposals: %w", err)
	}
	ret := make([]Id, 0, len(proposals))
	for _, proposal := range proposals {
		ret = append(ret, idOf(proposal.ProposalId))
	}
	return ret, nil
}

func (p *ProposalStore) markClosed(
	txn *database.Txn,
	proposal *models.Proposal,
	closedAt time.Time,
) error {
	proposal.Status = models.ProposalStatusClosed
	proposal.ClosedAt = &closedAt
	return p.bumpVersion(txn, proposal)
}

// bumpVersion writes the proposal row, failing with ErrConcurrentUpdate when
// another writer changed it since it was read
func (p *ProposalStore) bumpVersion(
	txn *database.Txn,
	proposal *models.Proposal,
) error {
	if err := p.db.UpdateProposal(proposal, txn); err != nil {
		if errors.Is(err, types.ErrStaleVersion) {
			return fmt.Errorf(
				"%w: proposal %x: %w",
				ErrConcurrentUpdate,
				proposal.ProposalId,
				err,
			)
		}
		return fmt.Errorf("update proposal: %w", err)
	}
	return nil
}

// optionLabel returns the label for an option code of the proposal
func optionLabel(proposal *models.Proposal, code uint8) (string, bool) {
	idx := slices.IndexFunc(proposal.Options, func(o models.ProposalOption) bool {
		return o.Code == code
	})
	if idx < 0 {
		return "", false
	}
	return proposal.Options[idx].Label, true
}
