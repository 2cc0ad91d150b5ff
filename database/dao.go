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

package database

import (
	"github.com/blinklabs-io/quadvote/database/models"
)

// GetDao returns the DAO with the given ID, or nil if there is none. When
// lock is set the row is held for update until txn finishes
func (d *Database) GetDao(
	daoId []byte,
	lock bool,
	txn *Txn,
) (*models.Dao, error) {
	var ret *models.Dao
	err := d.withTxn(txn, false, func(txn *Txn) error {
		var err error
		ret, err = d.metadata.GetDao(daoId, lock, txn.Metadata())
		return err
	})
	return ret, err
}

// GetDaos returns every DAO in creation order
func (d *Database) GetDaos(txn *Txn) ([]models.Dao, error) {
	var ret []models.Dao
	err := d.withTxn(txn, false, func(txn *Txn) error {
		var err error
		ret, err = d.metadata.GetDaos(txn.Metadata())
		return err
	})
	return ret, err
}

func (d *Database) CreateDao(dao *models.Dao, txn *Txn) error {
	return d.withTxn(txn, true, func(txn *Txn) error {
		return d.metadata.CreateDao(dao, txn.Metadata())
	})
}

func (d *Database) UpdateDaoProposalCount(
	daoId []byte,
	count uint64,
	txn *Txn,
) error {
	return d.withTxn(txn, true, func(txn *Txn) error {
		return d.metadata.UpdateDaoProposalCount(daoId, count, txn.Metadata())
	})
}
