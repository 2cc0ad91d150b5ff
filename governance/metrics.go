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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operation names, used for metric labels, span names and log lines
const (
	opInitDao       = "init_dao"
	opInitProposal  = "init_proposal"
	opCastVote      = "cast_vote"
	opCloseProposal = "close_proposal"
	opGrantCredits  = "grant_credits"
	opExpire        = "expire_proposal"
)

type serviceMetrics struct {
	operations   *prometheus.CounterVec
	rejections   *prometheus.CounterVec
	retries      *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	votesCast    prometheus.Counter
	creditsSpent prometheus.Counter
}

func newServiceMetrics(promRegistry prometheus.Registerer) *serviceMetrics {
	promautoFactory := promauto.With(promRegistry)
	return &serviceMetrics{
		operations: promautoFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "governance_operations_total",
				Help: "successful governance operations, by operation",
			},
			[]string{"operation"},
		),
		rejections: promautoFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "governance_rejections_total",
				Help: "rejected governance operations, by operation and error kind",
			},
			[]string{"operation", "kind"},
		),
		retries: promautoFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "governance_conflict_retries_total",
				Help: "transactions retried after a concurrent update, by operation",
			},
			[]string{"operation"},
		),
		duration: promautoFactory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "governance_operation_duration_seconds",
				Help:    "time spent in governance mutations, including lock waits",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		votesCast: promautoFactory.NewCounter(
			prometheus.CounterOpts{
				Name: "governance_votes_cast_total",
				Help: "sum of the vote magnitudes of accepted votes",
			},
		),
		creditsSpent: promautoFactory.NewCounter(
			prometheus.CounterOpts{
				Name: "governance_credits_spent_total",
				Help: "credits debited by accepted votes",
			},
		),
	}
}
