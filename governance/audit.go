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
	"context"
	"fmt"

	"github.com/blinklabs-io/quadvote/database"
	"github.com/blinklabs-io/quadvote/database/models"
	"github.com/blinklabs-io/quadvote/database/types"
)

// AuditMismatch describes one inconsistency found by an audit
type AuditMismatch struct {
	Subject string `json:"subject"`
	Detail  string `json:"detail"`
}

// AuditReport is the result of checking a DAO's stored votes, receipts,
// tallies and credits against each other
type AuditReport struct {
	DaoId      Id              `json:"dao_id"`
	Proposals  int             `json:"proposals"`
	Votes      int             `json:"votes"`
	Receipts   int             `json:"receipts"`
	Voters     int             `json:"voters"`
	Mismatches []AuditMismatch `json:"mismatches"`
}

func (r *AuditReport) Ok() bool {
	return len(r.Mismatches) == 0
}

func (r *AuditReport) mismatch(subject string, format string, args ...any) {
	r.Mismatches = append(r.Mismatches, AuditMismatch{
		Subject: subject,
		Detail:  fmt.Sprintf(format, args...),
	})
}

// Audit recomputes every proposal tally of the DAO from its vote records,
// checks each vote against its receipt and the quadratic cost, and checks
// that each voter's credits satisfy balance = granted - spent, with spent
// equal to the credits of their recorded votes
func (s *Service) Audit(ctx context.Context, daoId Id) (*AuditReport, error) {
	report := &AuditReport{
		DaoId:      daoId,
		Mismatches: []AuditMismatch{},
	}
	err := s.view(ctx, func(txn *database.Txn) error {
		if _, err := s.daos.Get(txn, daoId, false); err != nil {
			return err
		}
		proposals, err := s.proposals.ListByDao(txn, daoId)
		if err != nil {
			return err
		}
		spentByVoter := make(map[string]uint64)
		for i := range proposals {
			if err := s.auditProposal(txn, report, &proposals[i], spentByVoter); err != nil {
				return err
			}
		}
		credits, err := s.db.GetVoterCreditsByDao(daoId.Bytes(), txn)
		if err != nil {
			return fmt.Errorf("list credits: %w", err)
		}
		report.Voters = len(credits)
		for _, credit := range credits {
			subject := "credit " + credit.Voter
			if uint64(credit.Spent) > uint64(credit.Granted) ||
				uint64(credit.Balance) != uint64(credit.Granted)-uint64(credit.Spent) {
				report.mismatch(
					subject,
					"balance %d != granted %d - spent %d",
					credit.Balance,
					credit.Granted,
					credit.Spent,
				)
			}
			if spent := spentByVoter[credit.Voter]; spent != uint64(credit.Spent) {
				report.mismatch(
					subject,
					"spent %d but votes cost %d",
					credit.Spent,
					spent,
				)
			}
			delete(spentByVoter, credit.Voter)
		}
		for voter, spent := range spentByVoter {
			report.mismatch(
				"credit "+voter,
				"votes cost %d but no credit record exists",
				spent,
			)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (s *Service) auditProposal(
	txn *database.Txn,
	report *AuditReport,
	proposal *models.Proposal,
	spentByVoter map[string]uint64,
) error {
	proposalId := idOf(proposal.ProposalId)
	subject := "proposal " + proposalId.String()
	votes, err := s.db.GetVoteRecords(proposal.ProposalId, txn)
	if err != nil {
		return fmt.Errorf("list votes: %w", err)
	}
	receipts, err := s.db.GetVoteReceipts(proposal.ProposalId, txn)
	if err != nil {
		return fmt.Errorf("list receipts: %w", err)
	}
	report.Proposals++
	report.Votes += len(votes)
	report.Receipts += len(receipts)
	receiptByVoter := make(map[string]types.VoteReceipt, len(receipts))
	for _, receipt := range receipts {
		receiptByVoter[receipt.Voter] = receipt
	}
	type optionSum struct {
		weight  uint64
		voters  uint64
		credits uint64
	}
	sums := make(map[uint8]*optionSum)
	for _, vote := range votes {
		voteSubject := fmt.Sprintf("vote %s on %s", vote.Voter, proposalId)
		cost := uint64(vote.VotesCast) * uint64(vote.VotesCast)
		if uint64(vote.CreditsSpent) != cost {
			report.mismatch(
				voteSubject,
				"credits spent %d for %d votes, expected %d",
				vote.CreditsSpent,
				vote.VotesCast,
				cost,
			)
		}
		spentByVoter[vote.Voter] += uint64(vote.CreditsSpent)
		sum, ok := sums[vote.Option]
		if !ok {
			sum = &optionSum{}
			sums[vote.Option] = sum
		}
		sum.weight += uint64(vote.VotesCast)
		sum.voters++
		sum.credits += uint64(vote.CreditsSpent)
		receipt, ok := receiptByVoter[vote.Voter]
		if !ok {
			report.mismatch(voteSubject, "no receipt")
			continue
		}
		delete(receiptByVoter, vote.Voter)
		if receipt.Option != vote.Option ||
			receipt.VotesCast != vote.VotesCast ||
			receipt.CreditsSpent != uint64(vote.CreditsSpent) {
			report.mismatch(
				voteSubject,
				"receipt records option %d with %d votes for %d credits",
				receipt.Option,
				receipt.VotesCast,
				receipt.CreditsSpent,
			)
		}
	}
	for voter := range receiptByVoter {
		report.mismatch(subject, "receipt for %s has no vote record", voter)
	}
	for _, tally := range proposal.Tallies {
		sum := sums[tally.Option]
		if sum == nil {
			sum = &optionSum{}
		}
		if uint64(tally.Weight) != sum.weight ||
			tally.Voters != sum.voters ||
			uint64(tally.Credits) != sum.credits {
			report.mismatch(
				subject,
				"option %d tally %d/%d/%d, votes give %d/%d/%d",
				tally.Option,
				tally.Weight,
				tally.Voters,
				tally.Credits,
				sum.weight,
				sum.voters,
				sum.credits,
			)
		}
		delete(sums, tally.Option)
	}
	for option := range sums {
		report.mismatch(subject, "votes for option %d have no tally", option)
	}
	return nil
}
