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

// GetVoteRecord returns the vote cast by voter on a proposal, or nil
func (d *Database) GetVoteRecord(
	proposalId []byte,
	voter string,
	txn *Txn,
) (*models.VoteRecord, error) {
	var ret *models.VoteRecord
	err := d.withTxn(txn, false, func(txn *Txn) error {
		var err error
		ret, err = d.metadata.GetVoteRecord(proposalId, voter, txn.Metadata())
		return err
	})
	return ret, err
}

func (d *Database) GetVoteRecords(
	proposalId []byte,
	txn *Txn,
) ([]models.VoteRecord, error) {
	var ret []models.VoteRecord
	err := d.withTxn(txn, false, func(txn *Txn) error {
		var err error
		ret, err = d.metadata.GetVoteRecords(proposalId, txn.Metadata())
		return err
	})
	return ret, err
}

func (d *Database) GetVoteRecordsByDao(
	daoId []byte,
	txn *Txn,
) ([]models.VoteRecord, error) {
	var ret []models.VoteRecord
	err := d.withTxn(txn, false, func(txn *Txn) error {
		var err error
		ret, err = d.metadata.GetVoteRecordsByDao(daoId, txn.Metadata())
		return err
	})
	return ret, err
}

// CreateVoteRecord inserts a vote record. A second vote by the same voter
// on the same proposal fails with types.ErrDuplicateKey
func (d *Database) CreateVoteRecord(vote *models.VoteRecord, txn *Txn) error {
	return d.withTxn(txn, true, func(txn *Txn) error {
		return d.metadata.CreateVoteRecord(vote, txn.Metadata())
	})
}
