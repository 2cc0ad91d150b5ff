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

package types_test

import (
	"bytes"
	"database/sql"
	"database/sql/driver"
	"math"
	"reflect"
	"testing"

	"github.com/blinklabs-io/gouroboros/cbor"
	"github.com/blinklabs-io/quadvote/database/types"
)

func TestTypesScanValue(t *testing.T) {
	testDefs := []struct {
		origValue     any
		expectedValue any
	}{
		{
			origValue: func(v types.Uint64) *types.Uint64 { return &v }(
				types.Uint64(123),
			),
			expectedValue: "123",
		},
		{
			origValue: func(v types.Uint64) *types.Uint64 { return &v }(
				types.Uint64(math.MaxUint64),
			),
			expectedValue: "18446744073709551615",
		},
	}
	var ok bool
	var tmpScanner sql.Scanner
	var tmpValuer driver.Valuer
	for _, testDef := range testDefs {
		tmpValuer, ok = testDef.origValue.(driver.Valuer)
		if !ok {
			t.Fatalf("test original value does not implement driver.Valuer")
		}
		valueOut, err := tmpValuer.Value()
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		if !reflect.DeepEqual(valueOut, testDef.expectedValue) {
			t.Fatalf(
				"did not get expected value from Value(): got %#v, expected %#v",
				valueOut,
				testDef.expectedValue,
			)
		}
		tmpScanner, ok = testDef.origValue.(sql.Scanner)
		if !ok {
			t.Fatalf(
				"test original value does not implement sql.Scanner (it must be a pointer)",
			)
		}
		if err := tmpScanner.Scan(valueOut); err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		if !reflect.DeepEqual(tmpScanner, testDef.origValue) {
			t.Fatalf(
				"did not get expected value after Scan(): got %#v, expected %#v",
				tmpScanner,
				testDef.origValue,
			)
		}
	}
}

func TestUint64ScanVariants(t *testing.T) {
	var u types.Uint64
	if err := u.Scan([]byte("42")); err != nil || u != 42 {
		t.Fatalf("scan []byte: got %d, err %v", u, err)
	}
	if err := u.Scan(int64(7)); err != nil || u != 7 {
		t.Fatalf("scan int64: got %d, err %v", u, err)
	}
	if err := u.Scan(int64(-1)); err == nil {
		t.Fatalf("expected error scanning negative int64")
	}
	if err := u.Scan(1.5); err == nil {
		t.Fatalf("expected error scanning float64")
	}
	if err := u.Scan("abc"); err == nil {
		t.Fatalf("expected error scanning non-numeric string")
	}
}

func TestVoteReceiptCbor(t *testing.T) {
	receipt := types.VoteReceipt{
		ProposalId:   bytes.Repeat([]byte{0xab}, 32),
		DaoId:        bytes.Repeat([]byte{0xcd}, 32),
		Voter:        "alice",
		Option:       1,
		VotesCast:    3,
		CreditsSpent: 9,
		BalanceAfter: 91,
		CastAt:       1700000000000,
	}
	data, err := cbor.Encode(&receipt)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	// Encoded as a definite-length array of 8 items
	if data[0] != 0x88 {
		t.Fatalf("expected CBOR array header 0x88, got 0x%x", data[0])
	}
	var decoded types.VoteReceipt
	if _, err := cbor.Decode(data, &decoded); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if !reflect.DeepEqual(decoded, receipt) {
		t.Fatalf("receipt mismatch: got %#v, expected %#v", decoded, receipt)
	}
}

func TestVoteReceiptBlobKey(t *testing.T) {
	proposalId := []byte{0x01, 0x02}
	key := types.VoteReceiptBlobKey(proposalId, "bob")
	expected := []byte("vr\x01\x02bob")
	if !bytes.Equal(key, expected) {
		t.Fatalf("got key %x, expected %x", key, expected)
	}
	if !bytes.HasPrefix(key, types.VoteReceiptBlobKeyProposalPrefix(proposalId)) {
		t.Fatalf("key does not start with the proposal prefix")
	}
}
