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

package aws

import (
	"github.com/blinklabs-io/quadvote/database/plugin/blob/internal/objectstore"
	"github.com/blinklabs-io/quadvote/database/types"
)

// GetCommitTimestamp reads the SOPS-encrypted commit timestamp
func (b *BlobStoreS3) GetCommitTimestamp() (int64, error) {
	txn := b.NewTransaction(false)
	defer txn.Rollback() //nolint:errcheck

	t, err := b.validateTxn(txn)
	if err != nil {
		return 0, err
	}
	ts, err := objectstore.ReadCommitTimestamp(t)
	if err != nil {
		b.logger.Error("failed to read commit timestamp", "error", err)
		return 0, err
	}
	return ts, nil
}

func (b *BlobStoreS3) SetCommitTimestamp(
	ts int64,
	txn types.Txn,
) error {
	t, err := b.validateTxn(txn)
	if err != nil {
		return err
	}
	if err := objectstore.WriteCommitTimestamp(t, ts); err != nil {
		b.logger.Error("failed to write commit timestamp", "error", err)
		return err
	}
	return nil
}
