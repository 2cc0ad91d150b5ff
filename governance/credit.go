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
	"fmt"
	"math"
)

// MaxVotesLimit is the largest vote magnitude whose quadratic cost fits in
// a uint64
const MaxVotesLimit = math.MaxUint32

// CreditModel prices votes quadratically: casting n votes on an option
// costs n² credits
type CreditModel struct {
	maxVotes uint64
}

// NewCreditModel returns a credit model accepting up to maxVotes votes per
// ballot. Zero or values above MaxVotesLimit are clamped to MaxVotesLimit
func NewCreditModel(maxVotes uint64) CreditModel {
	if maxVotes == 0 || maxVotes > MaxVotesLimit {
		maxVotes = MaxVotesLimit
	}
	return CreditModel{maxVotes: maxVotes}
}

func (m CreditModel) MaxVotesPerBallot() uint64 {
	return m.maxVotes
}

// CostFor returns the credits needed to cast votesCast votes
func (m CreditModel) CostFor(votesCast int64) (uint64, error) {
	if votesCast <= 0 || uint64(votesCast) > m.maxVotes {
		return 0, fmt.Errorf(
			"%w: %d (allowed 1..%d)",
			ErrInvalidVoteMagnitude,
			votesCast,
			m.maxVotes,
		)
	}
	v := uint64(votesCast)
	return v * v, nil
}

// ValidateBudget checks that a balance covers the cost of a vote
func (m CreditModel) ValidateBudget(balance uint64, cost uint64) error {
	if cost > balance {
		return fmt.Errorf(
			"%w: need %d, have %d",
			ErrInsufficientCredits,
			cost,
			balance,
		)
	}
	return nil
}

// MaxVotes returns the largest vote magnitude a balance can pay for
func (m CreditModel) MaxVotes(balance uint64) uint64 {
	return min(isqrt(balance), m.maxVotes)
}

// isqrt returns floor(sqrt(n))
func isqrt(n uint64) uint64 {
	r := min(uint64(math.Sqrt(float64(n))), math.MaxUint32)
	for r*r > n {
		r--
	}
	for r < math.MaxUint32 && (r+1)*(r+1) <= n {
		r++
	}
	return r
}
