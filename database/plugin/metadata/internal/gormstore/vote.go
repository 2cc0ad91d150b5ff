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

	"github.com/blinklabs-io/quadvote/database/models"
	"github.com/blinklabs-io/quadvote/database/types"
	"gorm.io/gorm"
)

// GetVoteRecord returns the vote of a voter on a proposal, or nil if the
// voter has not voted
func (s *Store) GetVoteRecord(
	proposalId []byte,
	voter string,
	txn types.Txn,
) (*models.VoteRecord, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := &models.VoteRecord{}
	result := db.Where("proposal_id = ? AND voter = ?", proposalId, voter).
		First(ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}

// GetVoteRecords returns the votes on a proposal in the order they were cast
func (s *Store) GetVoteRecords(
	proposalId []byte,
	txn types.Txn,
) ([]models.VoteRecord, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []models.VoteRecord
	result := db.Where("proposal_id = ?", proposalId).Order("id").Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// GetVoteRecordsByDao returns every vote cast on proposals of a DAO
func (s *Store) GetVoteRecordsByDao(
	daoId []byte,
	txn types.Txn,
) ([]models.VoteRecord, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []models.VoteRecord
	result := db.Where("dao_id = ?", daoId).Order("id").Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

func (s *Store) CreateVoteRecord(
	vote *models.VoteRecord,
	txn types.Txn,
) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	if result := db.Create(vote); result.Error != nil {
		return translateError(result.Error)
	}
	return nil
}
