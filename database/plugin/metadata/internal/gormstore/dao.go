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

// GetDao returns the DAO with the given ID, or nil if it does not exist
func (s *Store) GetDao(
	daoId []byte,
	lock bool,
	txn types.Txn,
) (*models.Dao, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := &models.Dao{}
	result := s.locked(db, lock).Where("dao_id = ?", daoId).First(ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}

// GetDaos returns all DAOs in creation order
func (s *Store) GetDaos(txn types.Txn) ([]models.Dao, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []models.Dao
	result := db.Order("id").Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

func (s *Store) CreateDao(dao *models.Dao, txn types.Txn) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	if result := db.Create(dao); result.Error != nil {
		return translateError(result.Error)
	}
	return nil
}

// UpdateDaoProposalCount sets the proposal counter of a DAO
func (s *Store) UpdateDaoProposalCount(
	daoId []byte,
	count uint64,
	txn types.Txn,
) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	result := db.Model(&models.Dao{}).
		Where("dao_id = ?", daoId).
		Update("proposal_count", count)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
