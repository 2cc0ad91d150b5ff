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

package models

import (
	"time"

	"github.com/blinklabs-io/quadvote/database/types"
)

// Proposal status values
const (
	ProposalStatusOpen   uint8 = 0
	ProposalStatusClosed uint8 = 1
)

// Proposal is a question put to the members of a DAO. Options and tallies
// live in child tables keyed by the proposal row ID
type Proposal struct {
	ID         uint   `gorm:"primarykey"`
	ProposalId []byte `gorm:"uniqueIndex;size:32;not null"`
	DaoId      []byte `gorm:"uniqueIndex:idx_proposal_dao_seq,priority:1;size:32;not null"`
	Sequence   uint64 `gorm:"uniqueIndex:idx_proposal_dao_seq,priority:2;not null"`
	Creator    string `gorm:"size:128;not null"`
	Metadata   string `gorm:"size:256;not null"`
	Status     uint8  `gorm:"index;not null"`
	// Version is bumped on every write and checked by versioned updates
	Version   uint64     `gorm:"not null"`
	ExpiresAt *time.Time `gorm:"index"`
	ClosedAt  *time.Time
	CreatedAt time.Time        `gorm:"not null"`
	Options   []ProposalOption `gorm:"foreignKey:ProposalID;constraint:OnDelete:CASCADE"`
	Tallies   []ProposalTally  `gorm:"foreignKey:ProposalID;constraint:OnDelete:CASCADE"`
}

func (Proposal) TableName() string {
	return "proposal"
}

// IsOpen reports whether the proposal accepts votes at the given time
func (p *Proposal) IsOpen(now time.Time) bool {
	if p.Status != ProposalStatusOpen {
		return false
	}
	if p.ExpiresAt != nil && !now.Before(*p.ExpiresAt) {
		return false
	}
	return true
}

// ProposalOption is a single labelled choice. Code is the index of the label
type ProposalOption struct {
	ID         uint   `gorm:"primarykey"`
	ProposalID uint   `gorm:"uniqueIndex:idx_proposal_option,priority:1;not null"`
	Code       uint8  `gorm:"uniqueIndex:idx_proposal_option,priority:2;not null"`
	Label      string `gorm:"size:64;not null"`
}

func (ProposalOption) TableName() string {
	return "proposal_option"
}

// ProposalTally is the running aggregate for one option of a proposal
type ProposalTally struct {
	ID         uint         `gorm:"primarykey"`
	ProposalID uint         `gorm:"uniqueIndex:idx_proposal_tally,priority:1;not null"`
	Option     uint8        `gorm:"column:option_code;uniqueIndex:idx_proposal_tally,priority:2;not null"`
	Weight     types.Uint64 `gorm:"not null"`
	Voters     uint64       `gorm:"not null"`
	Credits    types.Uint64 `gorm:"not null"`
}

func (ProposalTally) TableName() string {
	return "proposal_tally"
}
