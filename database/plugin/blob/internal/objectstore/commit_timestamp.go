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

package objectstore

import (
	"errors"
	"math/big"

	"github.com/blinklabs-io/quadvote/database/sops"
	"github.com/blinklabs-io/quadvote/database/types"
)

// CommitTimestampKey is the object holding the SOPS-encrypted commit
// timestamp of the last metadata transaction
const CommitTimestampKey = "metadata_commit_timestamp"

// ReadCommitTimestamp returns the decrypted commit timestamp, or 0 when none
// has been written yet
func ReadCommitTimestamp(txn *Txn) (int64, error) {
	ciphertext, err := txn.Get([]byte(CommitTimestampKey))
	if err != nil {
		if errors.Is(err, types.ErrBlobKeyNotFound) {
			return 0, nil
		}
		return 0, err
	}
	plaintext, err := sops.Decrypt(ciphertext)
	if err != nil {
		return 0, err
	}
	return new(big.Int).SetBytes(plaintext).Int64(), nil
}

// WriteCommitTimestamp stages the encrypted commit timestamp in txn
func WriteCommitTimestamp(txn *Txn, ts int64) error {
	raw := new(big.Int).SetInt64(ts).Bytes()
	ciphertext, err := sops.Encrypt(raw)
	if err != nil {
		return err
	}
	return txn.Set([]byte(CommitTimestampKey), ciphertext)
}
