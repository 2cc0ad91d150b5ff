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

// GetVoterCredit returns the credit record of a voter in a DAO, or nil if
// none has been created yet
func (s *Store) GetVoterCredit(
	daoId []byte,
	voter string,
	lock bool,
	txn types.Txn,
) (*models.VoterCredit, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := &models.VoterCredit{}
	result := s.locked(db, lock).
		Where("dao_id = ? AND voter = ?", daoId, voter).
		First(ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}

// GetVoterCreditsByDao returns every credit record of a DAO
func (s *Store) GetVoterCreditsByDao(
	daoId []byte,
	txn types.Txn,
) ([]models.VoterCredit, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []models.VoterCredit
	result := db.Where("dao_id = ?", daoId).Order("id").Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

func (s *Store) CreateVoterCredit(
	credit *models.VoterCredit,
	txn types.Txn,
) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	if result := db.Create(credit); result.Error != nil {
		return translateError(result.Error)
	}
	return nil
}

// UpdateVoterCredit writes the balance counters of an existing credit record
func (s *Store) UpdateVoterCredit(
	credit *models.VoterCredit,
	txn types.Txn,
) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	result := db.Model(&models.VoterCredit{}).
		Where("id = ?", credit.ID).
		Updates(map[string]any{
			"balance":    credit.Balance,
			"granted":    credit.Granted,
			"spent":      credit.Spent,
			"updated_at": credit.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
