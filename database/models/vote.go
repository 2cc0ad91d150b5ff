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

// Default vote option codes, used when a proposal does not carry custom
// option labels
const (
	VoteNo      = 0
	VoteYes     = 1
	VoteAbstain = 2
)

// DefaultOptionLabels are the labels for the default vote options, indexed
// by option code
var DefaultOptionLabels = []string{"no", "yes", "abstain"}

// VoteRecord is an accepted quadratic vote. At most one exists per
// (proposal, voter)
type VoteRecord struct {
	ID           uint         `gorm:"primarykey"`
	VoteId       []byte       `gorm:"uniqueIndex;size:32;not null"`
	ProposalId   []byte       `gorm:"uniqueIndex:idx_vote_record,priority:1;size:32;not null"`
	Voter        string       `gorm:"uniqueIndex:idx_vote_record,priority:2;size:128;not null"`
	DaoId        []byte       `gorm:"index;size:32;not null"`
	Option       uint8        `gorm:"column:option_code;not null"`
	VotesCast    uint32       `gorm:"not null"`
	CreditsSpent types.Uint64 `gorm:"not null"` // always VotesCast squared
	CastAt       time.Time    `gorm:"not null"`
}

func (VoteRecord) TableName() string {
	return "vote_record"
}
