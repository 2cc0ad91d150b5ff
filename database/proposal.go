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
	"time"

	"github.com/blinklabs-io/quadvote/database/models"
)

// GetProposal returns the proposal with its options and tallies, or nil if
// there is none
func (d *Database) GetProposal(
	proposalId []byte,
	lock bool,
	txn *Txn,
) (*models.Proposal, error) {
	var ret *models.Proposal
	err := d.withTxn(txn, false, func(txn *Txn) error {
		var err error
		ret, err = d.metadata.GetProposal(proposalId, lock, txn.Metadata())
		return err
	})
	return ret, err
}

// GetProposalsByDao returns the proposals of a DAO ordered by sequence
func (d *Database) GetProposalsByDao(
	daoId []byte,
	txn *Txn,
) ([]models.Proposal, error) {
	var ret []models.Proposal
	err := d.withTxn(txn, false, func(txn *Txn) error {
		var err error
		ret, err = d.metadata.GetProposalsByDao(daoId, txn.Metadata())
		return err
	})
	return ret, err
}

// GetExpiredProposals returns up to limit open proposals whose expiry is at
// or before now, oldest expiry first
func (d *Database) GetExpiredProposals(
	now time.Time,
	limit int,
	txn *Txn,
) ([]models.Proposal, error) {
	var ret []models.Proposal
	err := d.withTxn(txn, false, func(txn *Txn) error {
		var err error
		ret, err = d.metadata.GetExpiredProposals(now, limit, txn.Metadata())
		return err
	})
	return ret, err
}

func (d *Database) CreateProposal(proposal *models.Proposal, txn *Txn) error {
	return d.withTxn(txn, true, func(txn *Txn) error {
		return d.metadata.CreateProposal(proposal, txn.Metadata())
	})
}

// UpdateProposal performs a versioned update of the proposal status. It
// returns types.ErrStaleVersion if the stored version moved on
func (d *Database) UpdateProposal(proposal *models.Proposal, txn *Txn) error {
	return d.withTxn(txn, true, func(txn *Txn) error {
		return d.metadata.UpdateProposal(proposal, txn.Metadata())
	})
}

func (d *Database) UpdateProposalTally(
	tally *models.ProposalTally,
	txn *Txn,
) error {
	return d.withTxn(txn, true, func(txn *Txn) error {
		return d.metadata.UpdateProposalTally(tally, txn.Metadata())
	})
}
