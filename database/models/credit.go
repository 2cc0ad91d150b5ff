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

// VoterCredit is a voter's quadratic voting budget within one DAO.
// Balance always equals Granted minus Spent
type VoterCredit struct {
	ID        uint         `gorm:"primarykey"`
	CreditId  []byte       `gorm:"uniqueIndex;size:32;not null"`
	DaoId     []byte       `gorm:"uniqueIndex:idx_voter_credit,priority:1;size:32;not null"`
	Voter     string       `gorm:"uniqueIndex:idx_voter_credit,priority:2;size:128;not null"`
	Balance   types.Uint64 `gorm:"not null"`
	Granted   types.Uint64 `gorm:"not null"`
	Spent     types.Uint64 `gorm:"not null"`
	UpdatedAt time.Time    `gorm:"not null"`
}

func (VoterCredit) TableName() string {
	return "voter_credit"
}
