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

package types

import (
	"slices"
)

const (
	VoteReceiptBlobKeyPrefix = "vr"
)

// VoteReceiptBlobKeyProposalPrefix returns the key prefix shared by every
// receipt for the given proposal
func VoteReceiptBlobKeyProposalPrefix(proposalId []byte) []byte {
	return slices.Concat([]byte(VoteReceiptBlobKeyPrefix), proposalId)
}

func VoteReceiptBlobKey(proposalId []byte, voter string) []byte {
	return slices.Concat(
		VoteReceiptBlobKeyProposalPrefix(proposalId),
		[]byte(voter),
	)
}
