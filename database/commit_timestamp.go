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
	"fmt"
)

// CommitTimestampError reports that the metadata and blob stores were last
// committed at different times, which means a crash landed between the two
// commits of a transaction
type CommitTimestampError struct {
	MetadataTimestamp int64
	BlobTimestamp     int64
}

func (e CommitTimestampError) Error() string {
	return fmt.Sprintf(
		"commit timestamp mismatch: %d (metadata) != %d (blob)",
		e.MetadataTimestamp,
		e.BlobTimestamp,
	)
}

// MetadataAhead reports whether the metadata store holds the newer commit.
// In that case the last transaction's vote receipts may be missing from
// the blob store
func (e CommitTimestampError) MetadataAhead() bool {
	return e.MetadataTimestamp > e.BlobTimestamp
}

// CommitTimestamps returns the last commit time recorded by each store, in
// Unix milliseconds. Zero means nothing was committed yet
func (d *Database) CommitTimestamps() (metadataTs int64, blobTs int64, err error) {
	metadataTs, err = d.Metadata().GetCommitTimestamp()
	if err != nil {
		return 0, 0, fmt.Errorf("get metadata commit timestamp: %w", err)
	}
	blobTs, err = d.Blob().GetCommitTimestamp()
	if err != nil {
		return 0, 0, fmt.Errorf("get blob commit timestamp: %w", err)
	}
	return metadataTs, blobTs, nil
}

func (d *Database) checkCommitTimestamp() error {
	metadataTs, err := d.Metadata().GetCommitTimestamp()
	if err != nil {
		return fmt.Errorf("get metadata commit timestamp: %w", err)
	}
	// Fresh database
	if metadataTs <= 0 {
		return nil
	}
	_, blobTs, err := d.CommitTimestamps()
	if err != nil {
		return err
	}
	if blobTs != metadataTs {
		return CommitTimestampError{
			MetadataTimestamp: metadataTs,
			BlobTimestamp:     blobTs,
		}
	}
	return nil
}

// updateCommitTimestamp stamps both halves of txn with the same time just
// before they commit
func (d *Database) updateCommitTimestamp(txn *Txn, timestamp int64) error {
	if err := d.Metadata().SetCommitTimestamp(timestamp, txn.Metadata()); err != nil {
		return fmt.Errorf("set metadata commit timestamp: %w", err)
	}
	if err := d.Blob().SetCommitTimestamp(timestamp, txn.Blob()); err != nil {
		return fmt.Errorf("set blob commit timestamp: %w", err)
	}
	return nil
}
