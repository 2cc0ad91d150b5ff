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
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdDerivation(t *testing.T) {
	daoId := DaoId("alice", "treasury")
	assert.Equal(t, daoId, DaoId("alice", "treasury"))
	assert.NotEqual(t, daoId, DaoId("bob", "treasury"))
	assert.NotEqual(t, daoId, DaoId("alice", "treasury2"))
	// Admin and name boundaries are part of the seed
	assert.NotEqual(t, DaoId("ab", "c"), DaoId("a", "bc"))
	assert.NotEqual(t, VoteId("ab", daoId), VoteId("a", daoId))
	assert.NotEqual(t, CreditId(daoId, "alicex"), CreditId(daoId, "alice"))
	// Proposal ids differ per sequence and per DAO
	seen := map[Id]bool{}
	for seq := range uint64(10) {
		pid := ProposalId(daoId, seq)
		assert.False(t, seen[pid])
		seen[pid] = true
	}
	assert.NotEqual(t, ProposalId(daoId, 0), ProposalId(DaoId("bob", "treasury"), 0))
	// Seeds are domain separated
	assert.NotEqual(t, VoteId("alice", daoId), CreditId(daoId, "alice"))
}

func TestParseId(t *testing.T) {
	daoId := DaoId("alice", "treasury")
	parsed, err := ParseId(daoId.String())
	require.NoError(t, err)
	assert.Equal(t, daoId, parsed)
	for _, bad := range []string{"", "zz", strings.Repeat("ab", 31), strings.Repeat("ab", 33)} {
		_, err := ParseId(bad)
		assert.ErrorIs(t, err, ErrInvalidId, "input %q", bad)
	}
	_, err = IdFromBytes([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrInvalidId)
	fromBytes, err := IdFromBytes(daoId.Bytes())
	require.NoError(t, err)
	assert.Equal(t, daoId, fromBytes)
}

func TestIdJson(t *testing.T) {
	daoId := DaoId("alice", "treasury")
	data, err := json.Marshal(map[string]Id{"id": daoId})
	require.NoError(t, err)
	assert.Equal(t, `{"id":"`+daoId.String()+`"}`, string(data))
	var out map[string]Id
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, daoId, out["id"])
}

func TestValidation(t *testing.T) {
	require.NoError(t, validateName("treasury"))
	assert.ErrorIs(t, validateName(""), ErrInvalidName)
	assert.ErrorIs(t, validateName(strings.Repeat("x", MaxNameLength+1)), ErrInvalidName)
	assert.ErrorIs(t, validateName("bad\xff"), ErrInvalidName)
	require.NoError(t, validateName(strings.Repeat("x", MaxNameLength)))

	assert.ErrorIs(t, validateCaller(""), ErrInvalidCaller)
	assert.ErrorIs(t, validateCaller(strings.Repeat("x", MaxCallerLength+1)), ErrInvalidCaller)

	assert.ErrorIs(t, validateMetadata(""), ErrInvalidMetadata)
	assert.ErrorIs(t, validateMetadata(strings.Repeat("x", MaxMetadataLength+1)), ErrInvalidMetadata)
	require.NoError(t, validateMetadata(strings.Repeat("x", MaxMetadataLength)))

	require.NoError(t, validateOptions(nil))
	require.NoError(t, validateOptions([]string{"for", "against"}))
	assert.ErrorIs(t, validateOptions([]string{"only"}), ErrInvalidOptions)
	assert.ErrorIs(t, validateOptions([]string{"a", "a"}), ErrInvalidOptions)
	assert.ErrorIs(t, validateOptions([]string{"a", ""}), ErrInvalidOptions)
	assert.ErrorIs(t, validateOptions(make([]string, MaxOptions+1)), ErrInvalidOptions)
}

func TestErrorKind(t *testing.T) {
	assert.Equal(t, "", ErrorKind(nil))
	assert.Equal(t, ClassNone, ErrorClass(nil))
	wrapped := validateCaller("")
	assert.Equal(t, "InvalidCaller", ErrorKind(wrapped))
	assert.Equal(t, ClassValidation, ErrorClass(wrapped))
	assert.Equal(t, "DuplicateVote", ErrorKind(ErrDuplicateVote))
	assert.Equal(t, ClassConflict, ErrorClass(ErrDuplicateVote))
	assert.Equal(t, "InsufficientCredits", ErrorKind(ErrInsufficientCredits))
	assert.Equal(t, ClassResource, ErrorClass(ErrInsufficientCredits))
	assert.Equal(t, "ConcurrentUpdate", ErrorKind(ErrConcurrentUpdate))
	assert.Equal(t, ClassStorage, ErrorClass(ErrConcurrentUpdate))
	assert.Equal(t, "Storage", ErrorKind(assert.AnError))
}
