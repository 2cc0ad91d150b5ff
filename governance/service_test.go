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

package governance_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/blinklabs-io/quadvote/event"
	"github.com/blinklabs-io/quadvote/governance"
	"github.com/blinklabs-io/quadvote/internal/test/testutil"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAdmin = "admin"
	testAlice = "alice"
	testBob   = "bob"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestService(
	t *testing.T,
	opts ...governance.ServiceOptionFunc,
) *governance.Service {
	t.Helper()
	db := testutil.NewTestDatabase(t)
	svc, err := governance.NewService(db, opts...)
	require.NoError(t, err)
	t.Cleanup(svc.StopExpirySweeper)
	return svc
}

// setupProposal creates a DAO owned by testAdmin with one default proposal
func setupProposal(
	t *testing.T,
	svc *governance.Service,
) (governance.Id, governance.Id) {
	t.Helper()
	ctx := context.Background()
	daoId, err := svc.InitDao(ctx, testAdmin, "treasury")
	require.NoError(t, err)
	proposalId, err := svc.InitProposal(ctx, testAdmin, daoId, "fund the audit", nil)
	require.NoError(t, err)
	return daoId, proposalId
}

func TestInitDao(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	daoId, err := svc.InitDao(ctx, testAdmin, "treasury")
	require.NoError(t, err)
	assert.Equal(t, governance.DaoId(testAdmin, "treasury"), daoId)
	dao, err := svc.GetDao(ctx, daoId)
	require.NoError(t, err)
	assert.Equal(t, "treasury", dao.Name)
	assert.Equal(t, testAdmin, dao.Admin)
	assert.Equal(t, uint64(0), dao.ProposalCount)
	_, err = svc.InitDao(ctx, testAdmin, "treasury")
	require.ErrorIs(t, err, governance.ErrDaoAlreadyExists)
	// Same name, different admin is a different DAO
	_, err = svc.InitDao(ctx, testAlice, "treasury")
	require.NoError(t, err)
	_, err = svc.InitDao(ctx, testAdmin, "")
	require.ErrorIs(t, err, governance.ErrInvalidName)
	_, err = svc.InitDao(ctx, "", "other")
	require.ErrorIs(t, err, governance.ErrInvalidCaller)
	_, err = svc.GetDao(ctx, governance.DaoId("nobody", "nothing"))
	require.ErrorIs(t, err, governance.ErrDaoNotFound)
	daos, err := svc.ListDaos(ctx)
	require.NoError(t, err)
	assert.Len(t, daos, 2)
}

func TestInitProposalSequence(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	daoId, err := svc.InitDao(ctx, testAdmin, "treasury")
	require.NoError(t, err)
	const count = 5
	for i := range uint64(count) {
		proposalId, err := svc.InitProposal(
			ctx,
			testAdmin,
			daoId,
			fmt.Sprintf("proposal %d", i),
			nil,
		)
		require.NoError(t, err)
		assert.Equal(t, governance.ProposalId(daoId, i), proposalId)
	}
	dao, err := svc.GetDao(ctx, daoId)
	require.NoError(t, err)
	assert.Equal(t, uint64(count), dao.ProposalCount)
	proposals, err := svc.ListProposals(ctx, daoId)
	require.NoError(t, err)
	require.Len(t, proposals, count)
	for i, proposal := range proposals {
		assert.Equal(t, uint64(i), proposal.Sequence)
		assert.Equal(t, governance.StatusOpen, proposal.Status)
		assert.Equal(t, []string{"no", "yes", "abstain"}, proposal.Options)
	}
}

func TestInitProposalRejections(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	daoId, err := svc.InitDao(ctx, testAdmin, "treasury")
	require.NoError(t, err)
	_, err = svc.InitProposal(ctx, testAlice, daoId, "not mine", nil)
	require.ErrorIs(t, err, governance.ErrUnauthorized)
	_, err = svc.InitProposal(ctx, testAdmin, governance.DaoId("x", "y"), "nowhere", nil)
	require.ErrorIs(t, err, governance.ErrDaoNotFound)
	_, err = svc.InitProposal(ctx, testAdmin, daoId, "", nil)
	require.ErrorIs(t, err, governance.ErrInvalidMetadata)
	_, err = svc.InitProposal(ctx, testAdmin, daoId, "one option", []string{"only"})
	require.ErrorIs(t, err, governance.ErrInvalidOptions)
	// Rejected proposals do not consume a sequence number
	dao, err := svc.GetDao(ctx, daoId)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), dao.ProposalCount)
}

func TestOpenProposalPolicy(t *testing.T) {
	svc := newTestService(
		t,
		governance.WithProposalPolicy(governance.ProposalPolicyOpen),
	)
	ctx := context.Background()
	daoId, err := svc.InitDao(ctx, testAdmin, "treasury")
	require.NoError(t, err)
	proposalId, err := svc.InitProposal(
		ctx,
		testAlice,
		daoId,
		"pick a color",
		[]string{"red", "green", "blue", "none"},
	)
	require.NoError(t, err)
	proposal, err := svc.GetProposal(ctx, proposalId)
	require.NoError(t, err)
	assert.Equal(t, testAlice, proposal.Creator)
	assert.Equal(t, []string{"red", "green", "blue", "none"}, proposal.Options)
	// The creator may close their own proposal
	require.NoError(t, svc.CloseProposal(ctx, testAlice, proposalId))
}

func TestTreasuryScenario(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	daoId, proposalId := setupProposal(t, svc)

	vote, err := svc.CastVote(ctx, testAlice, proposalId, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), vote.VotesCast)
	assert.Equal(t, uint64(9), vote.CreditsSpent)
	_, err = svc.CastVote(ctx, testBob, proposalId, 0, 5)
	require.NoError(t, err)

	credit, err := svc.GetCredits(ctx, daoId, testAlice)
	require.NoError(t, err)
	assert.Equal(t, uint64(91), credit.Balance)
	assert.Equal(t, uint64(100), credit.Granted)
	assert.Equal(t, uint64(9), credit.Spent)
	assert.Equal(t, uint64(9), credit.MaxVotes)
	credit, err = svc.GetCredits(ctx, daoId, testBob)
	require.NoError(t, err)
	assert.Equal(t, uint64(75), credit.Balance)

	tally, err := svc.ReadTally(ctx, proposalId)
	require.NoError(t, err)
	require.Len(t, tally.Options, 3)
	assert.Equal(t, uint64(5), tally.Options[0].Votes)
	assert.Equal(t, uint64(3), tally.Options[1].Votes)
	assert.Equal(t, uint64(0), tally.Options[2].Votes)
	assert.Equal(t, uint64(8), tally.TotalVotes)
	assert.Equal(t, uint64(34), tally.TotalCredits)
	assert.Equal(t, uint64(2), tally.Voters)
	assert.Equal(t, []int{0}, tally.Leading)
	assert.Equal(t, governance.StatusOpen, tally.Status)

	require.NoError(t, svc.CloseProposal(ctx, testAdmin, proposalId))
	_, err = svc.CastVote(ctx, "carol", proposalId, 1, 1)
	require.ErrorIs(t, err, governance.ErrProposalClosed)
	err = svc.CloseProposal(ctx, testAdmin, proposalId)
	require.ErrorIs(t, err, governance.ErrProposalAlreadyClosed)

	closedTally, err := svc.ReadTally(ctx, proposalId)
	require.NoError(t, err)
	assert.Equal(t, governance.StatusClosed, closedTally.Status)
	assert.Equal(t, tally.Options, closedTally.Options)

	votes, err := svc.ListVotes(ctx, proposalId)
	require.NoError(t, err)
	assert.Len(t, votes, 2)
	report, err := svc.Audit(ctx, daoId)
	require.NoError(t, err)
	assert.True(t, report.Ok(), "mismatches: %v", report.Mismatches)
	assert.Equal(t, 2, report.Votes)
	assert.Equal(t, 2, report.Receipts)
}

func TestFundGrantScenario(t *testing.T) {
	const (
		voterB = "voter-b"
		voterC = "voter-c"
		voterD = "voter-d"
	)
	svc := newTestService(t)
	ctx := context.Background()
	daoId, err := svc.InitDao(ctx, testAdmin, "treasury")
	require.NoError(t, err)
	proposalId, err := svc.InitProposal(ctx, testAdmin, daoId, "fund grant X", nil)
	require.NoError(t, err)

	voteB, err := svc.CastVote(ctx, voterB, proposalId, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), voteB.CreditsSpent)
	require.NotNil(t, voteB.BalanceAfter)
	voteC, err := svc.CastVote(ctx, voterC, proposalId, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), voteC.CreditsSpent)

	tally, err := svc.ReadTally(ctx, proposalId)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), tally.Options[0].Votes)
	assert.Equal(t, uint64(2), tally.Options[1].Votes)
	creditB, err := svc.GetCredits(ctx, daoId, voterB)
	require.NoError(t, err)
	assert.Equal(t, creditB.Granted-4, creditB.Balance)
	creditC, err := svc.GetCredits(ctx, daoId, voterC)
	require.NoError(t, err)
	assert.Equal(t, creditC.Granted-1, creditC.Balance)
	votes, err := svc.ListVotes(ctx, proposalId)
	require.NoError(t, err)
	assert.Len(t, votes, 2)

	// A second vote by B changes nothing
	_, err = svc.CastVote(ctx, voterB, proposalId, 0, 1)
	require.ErrorIs(t, err, governance.ErrDuplicateVote)
	after, err := svc.ReadTally(ctx, proposalId)
	require.NoError(t, err)
	assert.Equal(t, tally, after)
	creditAfter, err := svc.GetCredits(ctx, daoId, voterB)
	require.NoError(t, err)
	assert.Equal(t, creditB, creditAfter)

	// D holds 3 credits and cannot afford 2 votes
	balance, err := svc.GrantCredits(ctx, testAdmin, daoId, voterD, 3)
	require.NoError(t, err)
	require.Equal(t, uint64(3), balance)
	_, err = svc.CastVote(ctx, voterD, proposalId, 1, 2)
	require.ErrorIs(t, err, governance.ErrInsufficientCredits)
	_, err = svc.GetVote(ctx, proposalId, voterD)
	require.ErrorIs(t, err, governance.ErrVoteNotFound)
	creditD, err := svc.GetCredits(ctx, daoId, voterD)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), creditD.Balance)
	votes, err = svc.ListVotes(ctx, proposalId)
	require.NoError(t, err)
	assert.Len(t, votes, 2)
}

func TestDaoIdsDistinguishAdminAndName(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	first, err := svc.InitDao(ctx, "ab", "c")
	require.NoError(t, err)
	second, err := svc.InitDao(ctx, "a", "bc")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	dao, err := svc.GetDao(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, "a", dao.Admin)
	assert.Equal(t, "bc", dao.Name)
}

func TestDuplicateVote(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	daoId, proposalId := setupProposal(t, svc)
	_, err := svc.CastVote(ctx, testAlice, proposalId, 1, 2)
	require.NoError(t, err)
	before, err := svc.ReadTally(ctx, proposalId)
	require.NoError(t, err)
	_, err = svc.CastVote(ctx, testAlice, proposalId, 0, 1)
	require.ErrorIs(t, err, governance.ErrDuplicateVote)
	after, err := svc.ReadTally(ctx, proposalId)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	credit, err := svc.GetCredits(ctx, daoId, testAlice)
	require.NoError(t, err)
	assert.Equal(t, uint64(96), credit.Balance)
	vote, err := svc.GetVote(ctx, proposalId, testAlice)
	require.NoError(t, err)
	assert.Equal(t, uint8(1), vote.Option)
	// The receipt records the balance left after paying for the vote
	require.NotNil(t, vote.BalanceAfter)
	assert.Equal(t, uint64(96), *vote.BalanceAfter)
	votes, err := svc.ListVotes(ctx, proposalId)
	require.NoError(t, err)
	require.Len(t, votes, 1)
	assert.Nil(t, votes[0].BalanceAfter)
}

func TestInsufficientCredits(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	daoId, proposalId := setupProposal(t, svc)
	_, err := svc.CastVote(ctx, testAlice, proposalId, 1, 11)
	require.ErrorIs(t, err, governance.ErrInsufficientCredits)
	// The failed vote left nothing behind
	credit, err := svc.GetCredits(ctx, daoId, testAlice)
	require.NoError(t, err)
	assert.True(t, credit.Default)
	assert.Equal(t, uint64(100), credit.Balance)
	_, err = svc.GetVote(ctx, proposalId, testAlice)
	require.ErrorIs(t, err, governance.ErrVoteNotFound)

	balance, err := svc.GrantCredits(ctx, testAdmin, daoId, testAlice, 21)
	require.NoError(t, err)
	assert.Equal(t, uint64(21), balance)
	_, err = svc.CastVote(ctx, testAlice, proposalId, 1, 5)
	require.ErrorIs(t, err, governance.ErrInsufficientCredits)
	_, err = svc.CastVote(ctx, testAlice, proposalId, 1, 4)
	require.NoError(t, err)
	credit, err = svc.GetCredits(ctx, daoId, testAlice)
	require.NoError(t, err)
	assert.False(t, credit.Default)
	assert.Equal(t, uint64(5), credit.Balance)
	assert.Equal(t, credit.Granted-credit.Spent, credit.Balance)
}

func TestCastVoteRejections(t *testing.T) {
	svc := newTestService(t, governance.WithMaxVotesPerBallot(8))
	ctx := context.Background()
	_, proposalId := setupProposal(t, svc)
	_, err := svc.CastVote(ctx, testAlice, proposalId, 3, 1)
	require.ErrorIs(t, err, governance.ErrInvalidOption)
	_, err = svc.CastVote(ctx, testAlice, proposalId, 1, 0)
	require.ErrorIs(t, err, governance.ErrInvalidVoteMagnitude)
	_, err = svc.CastVote(ctx, testAlice, proposalId, 1, 9)
	require.ErrorIs(t, err, governance.ErrInvalidVoteMagnitude)
	_, err = svc.CastVote(ctx, testAlice, governance.ProposalId(governance.Id{}, 0), 1, 1)
	require.ErrorIs(t, err, governance.ErrProposalNotFound)
	_, err = svc.CastVote(ctx, "", proposalId, 1, 1)
	require.ErrorIs(t, err, governance.ErrInvalidCaller)
	ctxCanceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = svc.CastVote(ctxCanceled, testAlice, proposalId, 1, 1)
	require.ErrorIs(t, err, context.Canceled)
}

func TestGrantCredits(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	daoId, _ := setupProposal(t, svc)
	_, err := svc.GrantCredits(ctx, testAlice, daoId, testBob, 10)
	require.ErrorIs(t, err, governance.ErrUnauthorized)
	_, err = svc.GrantCredits(ctx, testAdmin, daoId, testBob, 0)
	require.ErrorIs(t, err, governance.ErrInvalidAmount)
	_, err = svc.GrantCredits(ctx, testAdmin, governance.DaoId("x", "y"), testBob, 1)
	require.ErrorIs(t, err, governance.ErrDaoNotFound)
	balance, err := svc.GrantCredits(ctx, testAdmin, daoId, testBob, 50)
	require.NoError(t, err)
	assert.Equal(t, uint64(50), balance)
	balance, err = svc.GrantCredits(ctx, testAdmin, daoId, testBob, 25)
	require.NoError(t, err)
	assert.Equal(t, uint64(75), balance)
	_, err = svc.GrantCredits(ctx, testAdmin, daoId, testBob, ^uint64(0))
	require.ErrorIs(t, err, governance.ErrInvalidAmount)
}

func TestCloseProposalAuthorization(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	_, proposalId := setupProposal(t, svc)
	err := svc.CloseProposal(ctx, testAlice, proposalId)
	require.ErrorIs(t, err, governance.ErrUnauthorized)
	err = svc.CloseProposal(ctx, testAdmin, governance.Id{})
	require.ErrorIs(t, err, governance.ErrProposalNotFound)
	require.NoError(t, svc.CloseProposal(ctx, testAdmin, proposalId))
}

func TestConcurrentVotes(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	daoId, proposalId := setupProposal(t, svc)
	const voters = 16
	var wg sync.WaitGroup
	errs := make(chan error, voters)
	for i := range voters {
		wg.Add(1)
		go func() {
			defer wg.Done()
			option := uint8(i % 2) // #nosec G115
			_, err := svc.CastVote(ctx, fmt.Sprintf("voter-%d", i), proposalId, option, int64(1+i%3))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	var wantVotes, wantCredits uint64
	for i := range voters {
		v := uint64(1 + i%3)
		wantVotes += v
		wantCredits += v * v
	}
	tally, err := svc.ReadTally(ctx, proposalId)
	require.NoError(t, err)
	assert.Equal(t, uint64(voters), tally.Voters)
	assert.Equal(t, wantVotes, tally.TotalVotes)
	assert.Equal(t, wantCredits, tally.TotalCredits)
	report, err := svc.Audit(ctx, daoId)
	require.NoError(t, err)
	assert.True(t, report.Ok(), "mismatches: %v", report.Mismatches)
	assert.Equal(t, voters, report.Voters)
}

func TestConcurrentDuplicateVotes(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	daoId, proposalId := setupProposal(t, svc)
	const attempts = 8
	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CastVote(ctx, testAlice, proposalId, 1, 2)
			results <- err
		}()
	}
	wg.Wait()
	close(results)
	successes := 0
	for err := range results {
		if err == nil {
			successes++
			continue
		}
		require.ErrorIs(t, err, governance.ErrDuplicateVote)
	}
	assert.Equal(t, 1, successes)
	credit, err := svc.GetCredits(ctx, daoId, testAlice)
	require.NoError(t, err)
	assert.Equal(t, uint64(96), credit.Balance)
}

func TestProposalExpiry(t *testing.T) {
	clock := newTestClock()
	svc := newTestService(
		t,
		governance.WithClock(clock.Now),
		governance.WithVotingPeriod(time.Hour),
	)
	ctx := context.Background()
	_, proposalId := setupProposal(t, svc)
	proposal, err := svc.GetProposal(ctx, proposalId)
	require.NoError(t, err)
	require.NotNil(t, proposal.ExpiresAt)
	assert.Equal(t, clock.Now().Add(time.Hour), *proposal.ExpiresAt)
	_, err = svc.CastVote(ctx, testAlice, proposalId, 1, 1)
	require.NoError(t, err)

	clock.Advance(2 * time.Hour)
	_, err = svc.CastVote(ctx, testBob, proposalId, 1, 1)
	require.ErrorIs(t, err, governance.ErrProposalClosed)
	proposal, err = svc.GetProposal(ctx, proposalId)
	require.NoError(t, err)
	assert.Equal(t, governance.StatusClosed, proposal.Status)
	assert.Nil(t, proposal.ClosedAt)

	closed, err := svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, closed)
	proposal, err = svc.GetProposal(ctx, proposalId)
	require.NoError(t, err)
	require.NotNil(t, proposal.ClosedAt)
	assert.Equal(t, *proposal.ExpiresAt, *proposal.ClosedAt)
	closed, err = svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, closed)
	err = svc.CloseProposal(ctx, testAdmin, proposalId)
	require.ErrorIs(t, err, governance.ErrProposalAlreadyClosed)
}

func TestExpirySweeperLifecycle(t *testing.T) {
	clock := newTestClock()
	eventBus := event.NewEventBus(nil, nil)
	defer eventBus.Stop()
	_, closedCh := eventBus.Subscribe(event.ProposalClosedEventType)
	svc := newTestService(
		t,
		governance.WithClock(clock.Now),
		governance.WithVotingPeriod(time.Minute),
		governance.WithExpirySweepInterval(10*time.Millisecond),
		governance.WithEventBus(eventBus),
	)
	_, proposalId := setupProposal(t, svc)
	require.NoError(t, svc.StartExpirySweeper())
	require.ErrorIs(t, svc.StartExpirySweeper(), governance.ErrSweeperRunning)
	clock.Advance(time.Hour)
	evt := testutil.RequireReceive(
		t,
		closedCh,
		5*time.Second,
		"sweeper did not close the proposal",
	)
	data, ok := evt.Data.(event.ProposalClosedEvent)
	require.True(t, ok)
	assert.Equal(t, proposalId.String(), data.ProposalId)
	assert.True(t, data.Expired)
	svc.StopExpirySweeper()
	svc.StopExpirySweeper()
}

func TestEventsFollowCommitOrder(t *testing.T) {
	eventBus := event.NewEventBus(nil, nil)
	defer eventBus.Stop()
	_, proposalCh := eventBus.Subscribe(event.ProposalCreatedEventType)
	svc := newTestService(t, governance.WithEventBus(eventBus))
	ctx := context.Background()
	daoId, err := svc.InitDao(ctx, testAdmin, "treasury")
	require.NoError(t, err)
	var want []string
	for i := range 5 {
		proposalId, err := svc.InitProposal(ctx, testAdmin, daoId, fmt.Sprintf("proposal %d", i), nil)
		require.NoError(t, err)
		want = append(want, proposalId.String())
	}
	for i, proposalId := range want {
		evt := testutil.RequireReceive(t, proposalCh, 5*time.Second, "proposal created")
		data, ok := evt.Data.(event.ProposalCreatedEvent)
		require.True(t, ok)
		assert.Equal(t, proposalId, data.ProposalId, "event %d", i)
	}
}

func TestEventsAfterCommit(t *testing.T) {
	eventBus := event.NewEventBus(nil, nil)
	defer eventBus.Stop()
	_, voteCh := eventBus.Subscribe(event.VoteCastEventType)
	_, daoCh := eventBus.Subscribe(event.DaoCreatedEventType)
	svc := newTestService(t, governance.WithEventBus(eventBus))
	ctx := context.Background()
	daoId, proposalId := setupProposal(t, svc)
	evt := testutil.RequireReceive(t, daoCh, 5*time.Second, "dao created")
	assert.Equal(t, daoId.String(), evt.Data.(event.DaoCreatedEvent).DaoId)
	_, err := svc.CastVote(ctx, testAlice, proposalId, 1, 3)
	require.NoError(t, err)
	evt = testutil.RequireReceive(t, voteCh, 5*time.Second, "vote cast")
	data, ok := evt.Data.(event.VoteCastEvent)
	require.True(t, ok)
	assert.Equal(t, testAlice, data.Voter)
	assert.Equal(t, uint64(9), data.CreditsSpent)
	// A rejected vote publishes nothing
	_, err = svc.CastVote(ctx, testAlice, proposalId, 1, 3)
	require.Error(t, err)
	testutil.RequireNoReceive(
		t,
		voteCh,
		50*time.Millisecond,
		"rejected vote published an event",
	)
}

func TestRejectionMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	svc := newTestService(t, governance.WithPromRegistry(reg))
	ctx := context.Background()
	_, proposalId := setupProposal(t, svc)
	_, err := svc.CastVote(ctx, testAlice, proposalId, 1, 1)
	require.NoError(t, err)
	_, err = svc.CastVote(ctx, testAlice, proposalId, 1, 1)
	require.ErrorIs(t, err, governance.ErrDuplicateVote)
	families, err := reg.Gather()
	require.NoError(t, err)
	var rejections float64
	for _, family := range families {
		if family.GetName() != "governance_rejections_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "kind" && label.GetValue() == "DuplicateVote" {
					rejections += metric.GetCounter().GetValue()
				}
			}
		}
	}
	assert.Equal(t, float64(1), rejections)
}

func TestNewServiceRequiresDatabase(t *testing.T) {
	_, err := governance.NewService(nil)
	require.Error(t, err)
	db := testutil.NewTestDatabase(t)
	_, err = governance.NewService(db, governance.WithProposalPolicy("anyone"))
	require.Error(t, err)
	assert.False(t, errors.Is(err, governance.ErrUnauthorized))
}
