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
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/blinklabs-io/quadvote/database"
	"github.com/blinklabs-io/quadvote/database/models"
	"github.com/blinklabs-io/quadvote/event"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultCredits             = 100
	DefaultMaxVotesPerBallot   = 10000
	DefaultConflictRetries     = 3
	DefaultExpirySweepInterval = time.Minute

	tracerName = "github.com/blinklabs-io/quadvote/governance"
)

var errNilDatabase = errors.New("governance: database is required")

// Service is the governance surface: DAOs, proposals, quadratic votes and
// voter credits. Every mutation runs as a single database transaction under
// the in-process key locks, and is retried when it loses a race with a
// writer in another process
type Service struct {
	db              *database.Database
	logger          *slog.Logger
	promRegistry    prometheus.Registerer
	eventBus        *event.EventBus
	tracer          trace.Tracer
	clock           func() time.Time
	locks           *LockManager
	metrics         *serviceMetrics
	daos            *DaoRegistry
	proposals       *ProposalStore
	ledger          *VoteLedger
	credits         CreditModel
	tally           TallyEngine
	policy          ProposalPolicy
	defaultCredits  uint64
	maxVotes        uint64
	votingPeriod    time.Duration
	sweepInterval   time.Duration
	conflictRetries int
	sweepMutex      sync.Mutex
	sweepStop       chan struct{}
	sweepDone       chan struct{}
}

type ServiceOptionFunc func(*Service)

func WithLogger(logger *slog.Logger) ServiceOptionFunc {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithPromRegistry(registry prometheus.Registerer) ServiceOptionFunc {
	return func(s *Service) {
		s.promRegistry = registry
	}
}

func WithEventBus(eventBus *event.EventBus) ServiceOptionFunc {
	return func(s *Service) {
		s.eventBus = eventBus
	}
}

func WithTracerProvider(provider trace.TracerProvider) ServiceOptionFunc {
	return func(s *Service) {
		s.tracer = provider.Tracer(tracerName)
	}
}

// WithClock replaces the time source, mainly for tests
func WithClock(clock func() time.Time) ServiceOptionFunc {
	return func(s *Service) {
		s.clock = clock
	}
}

func WithProposalPolicy(policy ProposalPolicy) ServiceOptionFunc {
	return func(s *Service) {
		s.policy = policy
	}
}

func WithDefaultCredits(credits uint64) ServiceOptionFunc {
	return func(s *Service) {
		s.defaultCredits = credits
	}
}

func WithMaxVotesPerBallot(maxVotes uint64) ServiceOptionFunc {
	return func(s *Service) {
		s.maxVotes = maxVotes
	}
}

// WithVotingPeriod sets how long new proposals stay open. Zero disables
// expiry
func WithVotingPeriod(period time.Duration) ServiceOptionFunc {
	return func(s *Service) {
		s.votingPeriod = period
	}
}

func WithExpirySweepInterval(interval time.Duration) ServiceOptionFunc {
	return func(s *Service) {
		s.sweepInterval = interval
	}
}

// WithConflictRetries sets how many times a transaction is retried after a
// concurrent update before the error is returned
func WithConflictRetries(retries int) ServiceOptionFunc {
	return func(s *Service) {
		s.conflictRetries = retries
	}
}

func NewService(
	db *database.Database,
	opts ...ServiceOptionFunc,
) (*Service, error) {
	if db == nil {
		return nil, errNilDatabase
	}
	s := &Service{
		db:              db,
		policy:          ProposalPolicyAdmin,
		defaultCredits:  DefaultCredits,
		maxVotes:        DefaultMaxVotesPerBallot,
		sweepInterval:   DefaultExpirySweepInterval,
		conflictRetries: DefaultConflictRetries,
		locks:           NewLockManager(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		s.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(tracerName)
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if _, err := ParseProposalPolicy(string(s.policy)); err != nil {
		return nil, err
	}
	if s.conflictRetries < 0 {
		s.conflictRetries = 0
	}
	s.metrics = newServiceMetrics(s.promRegistry)
	s.credits = NewCreditModel(s.maxVotes)
	s.daos = NewDaoRegistry(db)
	s.proposals = NewProposalStore(db, s.policy, s.votingPeriod)
	s.ledger = NewVoteLedger(db, s.proposals, s.credits, s.defaultCredits)
	return s, nil
}

// CreditModel returns the cost model used for votes
func (s *Service) CreditModel() CreditModel {
	return s.credits
}

func (s *Service) now() time.Time {
	return s.clock().UTC()
}

// InitDao creates a DAO administered by the caller
func (s *Service) InitDao(
	ctx context.Context,
	caller string,
	name string,
) (daoId Id, err error) {
	ctx, done := s.observe(
		ctx,
		opInitDao,
		attribute.String("caller", caller),
		attribute.String("name", name),
	)
	defer func() { done(err) }()
	if err := validateCaller(caller); err != nil {
		return Id{}, err
	}
	if err := validateName(name); err != nil {
		return Id{}, err
	}
	daoId = DaoId(caller, name)
	release, err := s.locks.Acquire(ctx, daoLockKey(daoId))
	if err != nil {
		return Id{}, err
	}
	defer release()
	var dao *models.Dao
	err = s.update(ctx, opInitDao, func(txn *database.Txn) error {
		var err error
		dao, err = s.daos.Create(txn, caller, name, s.now())
		return err
	})
	if err != nil {
		return Id{}, err
	}
	s.logger.Info(
		"created DAO",
		"component", "governance",
		"dao", daoId.String(),
		"name", name,
		"admin", caller,
	)
	s.publish(event.DaoCreatedEventType, event.DaoCreatedEvent{
		DaoId: daoId.String(),
		Name:  dao.Name,
		Admin: dao.Admin,
	})
	return daoId, nil
}

// InitProposal creates a proposal in the DAO. An empty labels list selects
// the default options no, yes and abstain
func (s *Service) InitProposal(
	ctx context.Context,
	caller string,
	daoId Id,
	metadata string,
	labels []string,
) (proposalId Id, err error) {
	ctx, done := s.observe(
		ctx,
		opInitProposal,
		attribute.String("caller", caller),
		attribute.Stringer("dao", daoId),
	)
	defer func() { done(err) }()
	if err := validateCaller(caller); err != nil {
		return Id{}, err
	}
	release, err := s.locks.Acquire(ctx, daoLockKey(daoId))
	if err != nil {
		return Id{}, err
	}
	defer release()
	var proposal *models.Proposal
	err = s.update(ctx, opInitProposal, func(txn *database.Txn) error {
		dao, err := s.daos.Get(txn, daoId, true)
		if err != nil {
			return err
		}
		proposal, err = s.proposals.Create(txn, caller, dao, metadata, labels, s.now())
		return err
	})
	if err != nil {
		return Id{}, err
	}
	proposalId = idOf(proposal.ProposalId)
	s.logger.Info(
		"created proposal",
		"component", "governance",
		"proposal", proposalId.String(),
		"dao", daoId.String(),
		"sequence", proposal.Sequence,
		"creator", caller,
	)
	s.publish(event.ProposalCreatedEventType, event.ProposalCreatedEvent{
		ProposalId: proposalId.String(),
		DaoId:      daoId.String(),
		Sequence:   proposal.Sequence,
		Creator:    caller,
	})
	return proposalId, nil
}

// CastVote records a vote of the given magnitude for an option. The voter
// pays the square of the magnitude from their credits in the DAO
func (s *Service) CastVote(
	ctx context.Context,
	caller string,
	proposalId Id,
	option uint8,
	votesCast int64,
) (vote *Vote, err error) {
	ctx, done := s.observe(
		ctx,
		opCastVote,
		attribute.String("caller", caller),
		attribute.Stringer("proposal", proposalId),
		attribute.Int("option", int(option)),
		attribute.Int64("votes", votesCast),
	)
	defer func() { done(err) }()
	if err := validateCaller(caller); err != nil {
		return nil, err
	}
	// The DAO of a proposal never changes, so it can be read before taking
	// the locks to learn which credit record to lock
	var daoId Id
	err = s.db.View(func(txn *database.Txn) error {
		proposal, err := s.proposals.Get(txn, proposalId, false)
		if err != nil {
			return err
		}
		daoId = idOf(proposal.DaoId)
		return nil
	})
	if err != nil {
		return nil, err
	}
	release, err := s.locks.Acquire(
		ctx,
		proposalLockKey(proposalId),
		creditLockKey(CreditId(daoId, caller)),
	)
	if err != nil {
		return nil, err
	}
	defer release()
	var result *voteResult
	err = s.update(ctx, opCastVote, func(txn *database.Txn) error {
		var err error
		result, err = s.ledger.Record(txn, caller, proposalId, option, votesCast, s.now())
		return err
	})
	if err != nil {
		return nil, err
	}
	vote = newVote(result.vote)
	balanceAfter := uint64(result.credit.Balance)
	vote.BalanceAfter = &balanceAfter
	s.metrics.votesCast.Add(float64(vote.VotesCast))
	s.metrics.creditsSpent.Add(float64(vote.CreditsSpent))
	s.logger.Info(
		"vote cast",
		"component", "governance",
		"proposal", proposalId.String(),
		"voter", caller,
		"option", option,
		"votes", vote.VotesCast,
		"credits", vote.CreditsSpent,
		"balance", uint64(result.credit.Balance),
	)
	s.publish(event.VoteCastEventType, event.VoteCastEvent{
		ProposalId:   proposalId.String(),
		DaoId:        daoId.String(),
		Voter:        caller,
		Option:       option,
		VotesCast:    vote.VotesCast,
		CreditsSpent: vote.CreditsSpent,
	})
	return vote, nil
}

// CloseProposal closes an open proposal. Only the DAO admin and the
// proposal creator may close it
func (s *Service) CloseProposal(
	ctx context.Context,
	caller string,
	proposalId Id,
) (err error) {
	ctx, done := s.observe(
		ctx,
		opCloseProposal,
		attribute.String("caller", caller),
		attribute.Stringer("proposal", proposalId),
	)
	defer func() { done(err) }()
	if err := validateCaller(caller); err != nil {
		return err
	}
	release, err := s.locks.Acquire(ctx, proposalLockKey(proposalId))
	if err != nil {
		return err
	}
	defer release()
	var proposal *models.Proposal
	err = s.update(ctx, opCloseProposal, func(txn *database.Txn) error {
		var err error
		proposal, err = s.proposals.Close(txn, caller, proposalId, s.now())
		return err
	})
	if err != nil {
		return err
	}
	s.logger.Info(
		"closed proposal",
		"component", "governance",
		"proposal", proposalId.String(),
		"closed_by", caller,
	)
	s.publish(event.ProposalClosedEventType, event.ProposalClosedEvent{
		ProposalId: proposalId.String(),
		DaoId:      idOf(proposal.DaoId).String(),
		ClosedBy:   caller,
	})
	return nil
}

// GrantCredits adds credits to a voter's balance in the DAO and returns the
// new balance. Only the DAO admin may grant credits
func (s *Service) GrantCredits(
	ctx context.Context,
	caller string,
	daoId Id,
	voter string,
	amount uint64,
) (balance uint64, err error) {
	ctx, done := s.observe(
		ctx,
		opGrantCredits,
		attribute.String("caller", caller),
		attribute.Stringer("dao", daoId),
		attribute.String("voter", voter),
	)
	defer func() { done(err) }()
	if err := validateCaller(caller); err != nil {
		return 0, err
	}
	if err := validateCaller(voter); err != nil {
		return 0, err
	}
	release, err := s.locks.Acquire(ctx, creditLockKey(CreditId(daoId, voter)))
	if err != nil {
		return 0, err
	}
	defer release()
	var credit *models.VoterCredit
	err = s.update(ctx, opGrantCredits, func(txn *database.Txn) error {
		dao, err := s.daos.Get(txn, daoId, false)
		if err != nil {
			return err
		}
		if caller != dao.Admin {
			return fmt.Errorf(
				"%w: only the DAO admin may grant credits",
				ErrUnauthorized,
			)
		}
		credit, err = s.ledger.Grant(txn, daoId, voter, amount, s.now())
		return err
	})
	if err != nil {
		return 0, err
	}
	balance = uint64(credit.Balance)
	s.logger.Info(
		"granted credits",
		"component", "governance",
		"dao", daoId.String(),
		"voter", voter,
		"amount", amount,
		"balance", balance,
	)
	s.publish(event.CreditsGrantedEventType, event.CreditsGrantedEvent{
		DaoId:   daoId.String(),
		Voter:   voter,
		Amount:  amount,
		Balance: balance,
	})
	return balance, nil
}

// observe opens a span for a mutation and returns the function that
// finishes it, recording the outcome in metrics
func (s *Service) observe(
	ctx context.Context,
	op string,
	attrs ...attribute.KeyValue,
) (context.Context, func(error)) {
	ctx, span := s.tracer.Start(
		ctx,
		"governance."+op,
		trace.WithAttributes(attrs...),
	)
	start := time.Now()
	return ctx, func(err error) {
		defer span.End()
		s.metrics.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
		if err == nil {
			s.metrics.operations.WithLabelValues(op).Inc()
			return
		}
		kind := ErrorKind(err)
		s.metrics.rejections.WithLabelValues(op, kind).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, kind)
		level := slog.LevelDebug
		if ErrorClass(err) == ClassStorage {
			level = slog.LevelError
		}
		s.logger.Log(
			ctx,
			level,
			"operation rejected",
			"component", "governance",
			"operation", op,
			"kind", kind,
			"error", err,
		)
	}
}

// update runs fn in a read-write transaction, retrying it when it fails
// with ErrConcurrentUpdate. The context is only checked between attempts
func (s *Service) update(
	ctx context.Context,
	op string,
	fn func(*database.Txn) error,
) error {
	var err error
	for attempt := 0; attempt <= s.conflictRetries; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		err = s.db.Update(fn)
		if !errors.Is(err, ErrConcurrentUpdate) {
			return err
		}
		s.metrics.retries.WithLabelValues(op).Inc()
		s.logger.Debug(
			"transaction conflict",
			"component", "governance",
			"operation", op,
			"attempt", attempt+1,
			"error", err,
		)
	}
	return err
}

// publish hands a committed change to the event bus without waiting for
// delivery
func (s *Service) publish(eventType event.EventType, data any) {
	if s.eventBus == nil {
		return
	}
	if !s.eventBus.PublishAsync(eventType, event.NewEvent(eventType, data)) {
		s.logger.Warn(
			"event not queued",
			"component", "governance",
			"type", eventType,
		)
	}
}
