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

package governance

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

const IdSize = blake2b.Size256

// Id identifies a DAO, proposal, vote or credit record. It is the Blake2b-256
// digest of a seed that starts with the record type
type Id [IdSize]byte

func (i Id) Bytes() []byte {
	return i[:]
}

func (i Id) String() string {
	return hex.EncodeToString(i[:])
}

func (i Id) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

func (i *Id) UnmarshalText(text []byte) error {
	tmp, err := ParseId(string(text))
	if err != nil {
		return err
	}
	*i = tmp
	return nil
}

// ParseId decodes a hex-encoded identifier
func ParseId(s string) (Id, error) {
	var ret Id
	data, err := hex.DecodeString(s)
	if err != nil || len(data) != IdSize {
		return ret, fmt.Errorf("%w: %q", ErrInvalidId, s)
	}
	copy(ret[:], data)
	return ret, nil
}

// IdFromBytes converts a stored identifier
func IdFromBytes(data []byte) (Id, error) {
	var ret Id
	if len(data) != IdSize {
		return ret, fmt.Errorf("%w: length %d", ErrInvalidId, len(data))
	}
	copy(ret[:], data)
	return ret, nil
}

// deriveId hashes the parts, each preceded by its uvarint length so that
// variable-length parts cannot run into each other
func deriveId(parts ...[]byte) Id {
	seed := make([]byte, 0, 128)
	for _, part := range parts {
		seed = binary.AppendUvarint(seed, uint64(len(part)))
		seed = append(seed, part...)
	}
	return blake2b.Sum256(seed)
}

func DaoId(admin string, name string) Id {
	return deriveId([]byte("dao"), []byte(admin), []byte(name))
}

func ProposalId(daoId Id, sequence uint64) Id {
	return deriveId(
		[]byte("proposal"),
		daoId[:],
		binary.LittleEndian.AppendUint64(nil, sequence),
	)
}

func VoteId(voter string, proposalId Id) Id {
	return deriveId([]byte("vote"), []byte(voter), proposalId[:])
}

func CreditId(daoId Id, voter string) Id {
	return deriveId([]byte("credit"), daoId[:], []byte(voter))
}

// idOf converts an identifier read back from the metadata store, where
// the column size guarantees the length
func idOf(data []byte) Id {
	var ret Id
	copy(ret[:], data)
	return ret
}
