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

package api

import (
	"context"

	"github.com/blinklabs-io/quadvote/governance"
)

// GovernanceService is the set of governance operations served by the API.
// It is satisfied by *governance.Service
type GovernanceService interface {
	InitDao(ctx context.Context, caller string, name string) (governance.Id, error)
	InitProposal(
		ctx context.Context,
		caller string,
		daoId governance.Id,
		metadata string,
		labels []string,
	) (governance.Id, error)
	CastVote(
		ctx context.Context,
		caller string,
		proposalId governance.Id,
		option uint8,
		votesCast int64,
	) (*governance.Vote, error)
	CloseProposal(ctx context.Context, caller string, proposalId governance.Id) error
	GrantCredits(
		ctx context.Context,
		caller string,
		daoId governance.Id,
		voter string,
		amount uint64,
	) (uint64, error)

	GetDao(ctx context.Context, daoId governance.Id) (*governance.Dao, error)
	ListDaos(ctx context.Context) ([]*governance.Dao, error)
	GetProposal(ctx context.Context, proposalId governance.Id) (*governance.Proposal, error)
	ListProposals(ctx context.Context, daoId governance.Id) ([]*governance.Proposal, error)
	GetVote(ctx context.Context, proposalId governance.Id, voter string) (*governance.Vote, error)
	ListVotes(ctx context.Context, proposalId governance.Id) ([]*governance.Vote, error)
	GetCredits(ctx context.Context, daoId governance.Id, voter string) (*governance.Credit, error)
	ReadTally(ctx context.Context, proposalId governance.Id) (*governance.Tally, error)
	Audit(ctx context.Context, daoId governance.Id) (*governance.AuditReport, error)
}

var _ GovernanceService = (*governance.Service)(nil)
