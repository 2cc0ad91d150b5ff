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

package event

// Governance event types. Events are published only after the transaction
// that produced them has committed
const (
	DaoCreatedEventType      = EventType("governance.dao.created")
	ProposalCreatedEventType = EventType("governance.proposal.created")
	ProposalClosedEventType  = EventType("governance.proposal.closed")
	VoteCastEventType        = EventType("governance.vote.cast")
	CreditsGrantedEventType  = EventType("governance.credits.granted")
)

// GovernanceEventTypes lists every governance event type
var GovernanceEventTypes = []EventType{
	DaoCreatedEventType,
	ProposalCreatedEventType,
	ProposalClosedEventType,
	VoteCastEventType,
	CreditsGrantedEventType,
}

type DaoCreatedEvent struct {
	DaoId string
	Name  string
	Admin string
}

type ProposalCreatedEvent struct {
	ProposalId string
	DaoId      string
	Sequence   uint64
	Creator    string
}

type ProposalClosedEvent struct {
	ProposalId string
	DaoId      string
	ClosedBy   string
	// Expired is set when the proposal was closed by the expiry sweeper
	Expired bool
}

type VoteCastEvent struct {
	ProposalId   string
	DaoId        string
	Voter        string
	Option       uint8
	VotesCast    uint32
	CreditsSpent uint64
}

type CreditsGrantedEvent struct {
	DaoId   string
	Voter   string
	Amount  uint64
	Balance uint64
}
