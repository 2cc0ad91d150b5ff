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
	"time"

	"github.com/blinklabs-io/quadvote/database/models"
)

const (
	StatusOpen   = "open"
	StatusClosed = "closed"
)

// Dao is the public view of a DAO
type Dao struct {
	Id            Id        `json:"id"`
	Name          string    `json:"name"`
	Admin         string    `json:"admin"`
	ProposalCount uint64    `json:"proposal_count"`
	CreatedAt     time.Time `json:"created_at"`
}

func newDao(m *models.Dao) *Dao {
	return &Dao{
		Id:            idOf(m.DaoId),
		Name:          m.Name,
		Admin:         m.Admin,
		ProposalCount: m.ProposalCount,
		CreatedAt:     m.CreatedAt.UTC(),
	}
}

// Proposal is the public view of a proposal. Option labels are indexed by
// option code
type Proposal struct {
	Id        Id         `json:"id"`
	DaoId     Id         `json:"dao_id"`
	Sequence  uint64     `json:"sequence"`
	Creator   string     `json:"creator"`
	Metadata  string     `json:"metadata"`
	Options   []string   `json:"options"`
	Status    string     `json:"status"`
	Version   uint64     `json:"version"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
}

func newProposal(m *models.Proposal, now time.Time) *Proposal {
	ret := &Proposal{
		Id:        idOf(m.ProposalId),
		DaoId:     idOf(m.DaoId),
		Sequence:  m.Sequence,
		Creator:   m.Creator,
		Metadata:  m.Metadata,
		Options:   make([]string, 0, len(m.Options)),
		Status:    proposalStatus(m, now),
		Version:   m.Version,
		CreatedAt: m.CreatedAt.UTC(),
		ExpiresAt: utcPtr(m.ExpiresAt),
		ClosedAt:  utcPtr(m.ClosedAt),
	}
	for _, opt := range m.Options {
		ret.Options = append(ret.Options, opt.Label)
	}
	return ret
}

// proposalStatus reports an expired proposal as closed even before the
// sweeper has persisted the close
func proposalStatus(m *models.Proposal, now time.Time) string {
	if m.IsOpen(now) {
		return StatusOpen
	}
	return StatusClosed
}

// Vote is the public view of an accepted vote
type Vote struct {
	Id           Id        `json:"id"`
	ProposalId   Id        `json:"proposal_id"`
	DaoId        Id        `json:"dao_id"`
	Voter        string    `json:"voter"`
	Option       uint8     `json:"option"`
	VotesCast    uint32    `json:"votes_cast"`
	CreditsSpent uint64    `json:"credits_spent"`
	CastAt       time.Time `json:"cast_at"`
	// BalanceAfter is the voter's balance once the vote was paid for, as
	// recorded on the vote receipt. Listings leave it unset
	BalanceAfter *uint64 `json:"balance_after,omitempty"`
}

func newVote(m *models.VoteRecord) *Vote {
	return &Vote{
		Id:           idOf(m.VoteId),
		ProposalId:   idOf(m.ProposalId),
		DaoId:        idOf(m.DaoId),
		Voter:        m.Voter,
		Option:       m.Option,
		VotesCast:    m.VotesCast,
		CreditsSpent: uint64(m.CreditsSpent),
		CastAt:       m.CastAt.UTC(),
	}
}

// Credit is the public view of a voter's credit balance within a DAO.
// MaxVotes is the largest vote magnitude the balance can pay for
type Credit struct {
	Id       Id     `json:"id"`
	DaoId    Id     `json:"dao_id"`
	Voter    string `json:"voter"`
	Balance  uint64 `json:"balance"`
	Granted  uint64 `json:"granted"`
	Spent    uint64 `json:"spent"`
	MaxVotes uint64 `json:"max_votes"`
	// Default is set when the voter has no stored record yet and the
	// values shown are the budget they would receive on their first vote
	Default bool `json:"default,omitempty"`
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	ret := t.UTC()
	return &ret
}
