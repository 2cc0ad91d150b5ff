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

import "time"

// Dao is a registered governance body
type Dao struct {
	ID            uint      `gorm:"primarykey"`
	DaoId         []byte    `gorm:"uniqueIndex;size:32;not null"`
	Name          string    `gorm:"size:32;not null"`
	Admin         string    `gorm:"index;size:128;not null"`
	ProposalCount uint64    `gorm:"not null"`
	CreatedAt     time.Time `gorm:"not null"`
}

func (Dao) TableName() string {
	return "dao"
}
