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

// RootResponse is returned by GET /
type RootResponse struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// HealthResponse is returned by GET /health
type HealthResponse struct {
	IsHealthy bool `json:"is_healthy"`
}

// ErrorResponse is the body of every failed request. Error holds the stable
// error kind
type ErrorResponse struct {
	StatusCode int    `json:"status_code"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}

type CreateDaoRequest struct {
	Name string `json:"name"`
}

type CreateProposalRequest struct {
	Metadata string   `json:"metadata"`
	Options  []string `json:"options,omitempty"`
}

// CastVoteRequest selects an option and a vote magnitude. Votes defaults
// to 1 when omitted
type CastVoteRequest struct {
	Option uint8  `json:"option"`
	Votes  *int64 `json:"votes,omitempty"`
}

type GrantCreditsRequest struct {
	Voter  string `json:"voter"`
	Amount uint64 `json:"amount"`
}

// IdResponse is returned when a record is created
type IdResponse struct {
	Id string `json:"id"`
}

type GrantCreditsResponse struct {
	DaoId   string `json:"dao_id"`
	Voter   string `json:"voter"`
	Balance uint64 `json:"balance"`
}
