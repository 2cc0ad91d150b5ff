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
	"time"

	"github.com/blinklabs-io/quadvote/database/models"
	"github.com/blinklabs-io/quadvote/database/types"
)

// OptionTally is the running aggregate for one option of a proposal
type OptionTally struct {
	Code    uint8  `json:"code"`
	Label   string `json:"label"`
	Votes   uint64 `json:"votes"`
	Voters  uint64 `json:"voters"`
	Credits uint64 `json:"credits"`
}

// Tally is a read-only snapshot of a proposal's results
type Tally struct {
	ProposalId   Id            `json:"proposal_id"`
	Status       string        `json:"status"`
	Options      []OptionTally `json:"options"`
	TotalVotes   uint64        `json:"total_votes"`
	TotalCredits uint64        `json:"total_credits"`
	Voters       uint64        `json:"voters"`
	// Leading holds the option codes with the highest vote weight. It is
	// empty while no votes have been cast and has several entries on a tie
	Leading []int `json:"leading"`
}

// TallyEngine maintains the per-option aggregates of a proposal
type TallyEngine struct{}

// Apply adds a vote to the matching option aggregate of the proposal and
// returns the updated row for persisting
func (TallyEngine) Apply(
	proposal *models.Proposal,
	option uint8,
	votesCast uint32,
	credits uint64,
) (*models.ProposalTally, error) {
	for i := range proposal.Tallies {
		t := &proposal.Tallies[i]
		if t.Option != option {
			continue
		}
		t.Weight += types.Uint64(votesCast)
		t.Voters++
		t.Credits += types.Uint64(credits)
		return t, nil
	}
	return nil, fmt.Errorf("%w: no tally for option %d", ErrInvalidOption, option)
}

// Read builds a snapshot of the proposal's tally. Every option appears,
// with zero values when it has no votes
func (TallyEngine) Read(proposal *models.Proposal, now time.Time) *Tally {
	ret := &Tally{
		ProposalId: idOf(proposal.ProposalId),
		Status:     proposalStatus(proposal, now),
		Options:    make([]OptionTally, 0, len(proposal.Options)),
		Leading:    []int{},
	}
	byOption := make(map[uint8]models.ProposalTally, len(proposal.Tallies))
	for _, t := range proposal.Tallies {
		byOption[t.Option] = t
	}
	var best uint64
	for _, opt := range proposal.Options {
		t := byOption[opt.Code]
		ot := OptionTally{
			Code:    opt.Code,
			Label:   opt.Label,
			Votes:   uint64(t.Weight),
			Voters:  t.Voters,
			Credits: uint64(t.Credits),
		}
		ret.Options = append(ret.Options, ot)
		ret.TotalVotes += ot.Votes
		ret.TotalCredits += ot.Credits
		ret.Voters += ot.Voters
		switch {
		case ot.Votes == 0:
		case ot.Votes > best:
			best = ot.Votes
			ret.Leading = []int{int(ot.Code)}
		case ot.Votes == best:
			ret.Leading = append(ret.Leading, int(ot.Code))
		}
	}
	return ret
}
