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

// GetVoterCredit returns the credit account of a voter within a DAO, or nil
func (d *Database) GetVoterCredit(
	daoId []byte,
	voter string,
	lock bool,
	txn *Txn,
) (*models.VoterCredit, error) {
	var ret *models.VoterCredit
	err := d.withTxn(txn, false, func(txn *Txn) error {
		var err error
		ret, err = d.metadata.GetVoterCredit(daoId, voter, lock, txn.Metadata())
		return err
	})
	return ret, err
}

func (d *Database) GetVoterCreditsByDao(
	daoId []byte,
	txn *Txn,
) ([]models.VoterCredit, error) {
	var ret []models.VoterCredit
	err := d.withTxn(txn, false, func(txn *Txn) error {
		var err error
		ret, err = d.metadata.GetVoterCreditsByDao(daoId, txn.Metadata())
		return err
	})
	return ret, err
}

func (d *Database) CreateVoterCredit(
	credit *models.VoterCredit,
	txn *Txn,
) error {
	return d.withTxn(txn, true, func(txn *Txn) error {
		return d.metadata.CreateVoterCredit(credit, txn.Metadata())
	})
}

func (d *Database) UpdateVoterCredit(
	credit *models.VoterCredit,
	txn *Txn,
) error {
	return d.withTxn(txn, true, func(txn *Txn) error {
		return d.metadata.UpdateVoterCredit(credit, txn.Metadata())
	})
}
