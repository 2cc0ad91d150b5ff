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
	"errors"
	"fmt"

	"github.com/blinklabs-io/gouroboros/cbor"
	"github.com/blinklabs-io/quadvote/database/types"
)

// SetVoteReceipt writes the CBOR encoded receipt to the blob store
func (d *Database) SetVoteReceipt(receipt *types.VoteReceipt, txn *Txn) error {
	data, err := cbor.Encode(receipt)
	if err != nil {
		return fmt.Errorf("encode vote receipt: %w", err)
	}
	key := types.VoteReceiptBlobKey(receipt.ProposalId, receipt.Voter)
	return d.withTxn(txn, true, func(txn *Txn) error {
		if txn.Blob() == nil {
			return types.ErrBlobStoreUnavailable
		}
		return d.blob.Set(txn.Blob(), key, data)
	})
}

// GetVoteReceipt returns the receipt for a vote, or nil if none was written
func (d *Database) GetVoteReceipt(
	proposalId []byte,
	voter string,
	txn *Txn,
) (*types.VoteReceipt, error) {
	var ret *types.VoteReceipt
	err := d.withTxn(txn, false, func(txn *Txn) error {
		if txn.Blob() == nil {
			return types.ErrBlobStoreUnavailable
		}
		data, err := d.blob.Get(
			txn.Blob(),
			types.VoteReceiptBlobKey(proposalId, voter),
		)
		if err != nil {
			if errors.Is(err, types.ErrBlobKeyNotFound) {
				return nil
			}
			return err
		}
		ret, err = decodeVoteReceipt(data)
		return err
	})
	return ret, err
}

// GetVoteReceipts returns every receipt written for a proposal, ordered by
// voter
func (d *Database) GetVoteReceipts(
	proposalId []byte,
	txn *Txn,
) ([]types.VoteReceipt, error) {
	var ret []types.VoteReceipt
	err := d.withTxn(txn, false, func(txn *Txn) error {
		if txn.Blob() == nil {
			return types.ErrBlobStoreUnavailable
		}
		prefix := types.VoteReceiptBlobKeyProposalPrefix(proposalId)
		iter := d.blob.NewIterator(
			txn.Blob(),
			types.BlobIteratorOptions{Prefix: prefix},
		)
		defer iter.Close()
		for iter.Rewind(); iter.ValidForPrefix(prefix); iter.Next() {
			item := iter.Item()
			data, err := item.ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("read vote receipt %x: %w", item.Key(), err)
			}
			receipt, err := decodeVoteReceipt(data)
			if err != nil {
				return fmt.Errorf("vote receipt %x: %w", item.Key(), err)
			}
			ret = append(ret, *receipt)
		}
		return iter.Err()
	})
	return ret, err
}

func decodeVoteReceipt(data []byte) (*types.VoteReceipt, error) {
	ret := &types.VoteReceipt{}
	if _, err := cbor.Decode(data, ret); err != nil {
		return nil, fmt.Errorf("decode vote receipt: %w", err)
	}
	return ret, nil
}
