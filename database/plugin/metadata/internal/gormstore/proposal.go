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
package gormstore

import (
	"errors"
	"time"

	"github.com/blinklabs-io/quadvote/database/models"
	"github.com/blinklabs-io/quadvote/database/types"
	"gorm.io/gorm"
)

func preloadProposal(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("code")
		}).
		Preload("Tallies", func(db *gorm.DB) *gorm.DB {
			return db.Order("option_code")
		})
}

// GetProposal returns the proposal with the given ID along with its options
// and tallies, or nil if it does not exist
func (s *Store) GetProposal(
	proposalId []byte,
	lock bool,
	txn types.Txn,
) (*models.Proposal, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := &models.Proposal{}
	result := preloadProposal(s.locked(db, lock)).
		Where("proposal_id = ?", proposalId).
		First(ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}

// GetProposalsByDao returns the proposals of a DAO ordered by sequence
func (s *Store) GetProposalsByDao(
	daoId []byte,
	txn types.Txn,
) ([]models.Proposal, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []models.Proposal
	result := preloadProposal(db).
		Where("dao_id = ?", daoId).
		Order("sequence").
		Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// GetExpiredProposals returns open proposals whose expiry is at or before
// the given time, oldest first
func (s *Store) GetExpiredProposals(
	now time.Time,
	limit int,
	txn types.Txn,
) ([]models.Proposal, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []models.Proposal
	query := db.Where(
		"status = ? AND expires_at IS NOT NULL AND expires_at <= ?",
		models.ProposalStatusOpen,
		now,
	).Order("expires_at")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if result := query.Find(&ret); result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// CreateProposal inserts a proposal together with its options and tallies
func (s *Store) CreateProposal(
	proposal *models.Proposal,
	txn types.Txn,
) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	if result := db.Create(proposal); result.Error != nil {
		return translateError(result.Error)
	}
	return nil
}

// UpdateProposal writes the proposal status and closing time, provided the
// stored version still matches. The version is incremented on success and
// types.ErrStaleVersion is returned when another writer updated the row first
func (s *Store) UpdateProposal(
	proposal *models.Proposal,
	txn types.Txn,
) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	result := db.Model(&models.Proposal{}).
		Where("id = ? AND version = ?", proposal.ID, proposal.Version).
		Updates(map[string]any{
			"status":    proposal.Status,
			"closed_at": proposal.ClosedAt,
			"version":   proposal.Version + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return types.ErrStaleVersion
	}
	proposal.Version++
	return nil
}

// UpdateProposalTally writes the running aggregate for a single option
func (s *Store) UpdateProposalTally(
	tally *models.ProposalTally,
	txn types.Txn,
) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	result := db.Model(&models.ProposalTally{}).
		Where("id = ?", tally.ID).
		Updates(map[string]any{
			"weight":  tally.Weight,
			"voters":  tally.Voters,
			"credits": tally.Credits,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
