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
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/blinklabs-io/quadvote/governance"
	"github.com/blinklabs-io/quadvote/internal/test/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAPI(t *testing.T) *API {
	t.Helper()
	svc, err := governance.NewService(testutil.NewTestDatabase(t))
	require.NoError(t, err)
	return New(Config{ListenAddress: "127.0.0.1:0"}, svc, nil)
}

// do sends a request through the router and decodes the JSON response
// into out when it is not nil
func do(
	t *testing.T,
	handler http.Handler,
	method string,
	path string,
	caller string,
	body any,
	out any,
) *httptest.ResponseRecorder {
	t.Helper()
	var reqBody bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&reqBody).Encode(body))
	}
	req := httptest.NewRequest(method, path, &reqBody)
	if caller != "" {
		req.Header.Set(CallerHeader, caller)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if out != nil {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec
}

func TestHealthAndRoot(t *testing.T) {
	handler := newTestAPI(t).Handler()
	var health HealthResponse
	rec := do(t, handler, http.MethodGet, "/health", "", nil, &health)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, health.IsHealthy)
	var root RootResponse
	rec = do(t, handler, http.MethodGet, "/", "", nil, &root)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "quadvote", root.Name)
	rec = do(t, handler, http.MethodGet, "/nope", "", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestVotingFlow(t *testing.T) {
	handler := newTestAPI(t).Handler()

	var created IdResponse
	rec := do(t, handler, http.MethodPost, "/api/v0/daos", "admin", CreateDaoRequest{Name: "treasury"}, &created)
	require.Equal(t, http.StatusCreated, rec.Code)
	daoId := created.Id

	rec = do(
		t,
		handler,
		http.MethodPost,
		"/api/v0/daos/"+daoId+"/proposals",
		"admin",
		CreateProposalRequest{Metadata: "fund the audit"},
		&created,
	)
	require.Equal(t, http.StatusCreated, rec.Code)
	proposalId := created.Id

	votes := int64(3)
	var vote governance.Vote
	rec = do(
		t,
		handler,
		http.MethodPost,
		"/api/v0/proposals/"+proposalId+"/votes",
		"alice",
		CastVoteRequest{Option: 1, Votes: &votes},
		&vote,
	)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, uint64(9), vote.CreditsSpent)

	// Magnitude defaults to 1
	rec = do(
		t,
		handler,
		http.MethodPost,
		"/api/v0/proposals/"+proposalId+"/votes",
		"bob",
		CastVoteRequest{Option: 0},
		&vote,
	)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, uint32(1), vote.VotesCast)

	var credit governance.Credit
	rec = do(t, handler, http.MethodGet, "/api/v0/daos/"+daoId+"/credits/alice", "", nil, &credit)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(91), credit.Balance)
	assert.Equal(t, uint64(9), credit.MaxVotes)

	var tally governance.Tally
	rec = do(t, handler, http.MethodGet, "/api/v0/proposals/"+proposalId+"/tally", "", nil, &tally)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(4), tally.TotalVotes)
	assert.Equal(t, []int{1}, tally.Leading)

	var voteList []governance.Vote
	rec = do(t, handler, http.MethodGet, "/api/v0/proposals/"+proposalId+"/votes?count=1", "", nil, &voteList)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, voteList, 1)
	assert.Equal(t, "2", rec.Header().Get("X-Pagination-Count-Total"))

	var proposal governance.Proposal
	rec = do(t, handler, http.MethodPost, "/api/v0/proposals/"+proposalId+"/close", "admin", nil, &proposal)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, governance.StatusClosed, proposal.Status)

	var report governance.AuditReport
	rec = do(t, handler, http.MethodGet, "/api/v0/daos/"+daoId+"/audit", "", nil, &report)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, report.Ok())
	assert.Equal(t, 2, report.Votes)
}

func TestErrorStatusMapping(t *testing.T) {
	handler := newTestAPI(t).Handler()
	var created IdResponse
	do(t, handler, http.MethodPost, "/api/v0/daos", "admin", CreateDaoRequest{Name: "treasury"}, &created)
	daoId := created.Id
	do(t, handler, http.MethodPost, "/api/v0/daos/"+daoId+"/proposals", "admin", CreateProposalRequest{Metadata: "m"}, &created)
	proposalId := created.Id
	tooMany := int64(11)
	tests := []struct {
		name   string
		method string
		path   string
		caller string
		body   any
		status int
		kind   string
	}{
		{"missing caller", http.MethodPost, "/api/v0/daos", "", CreateDaoRequest{Name: "x"}, http.StatusBadRequest, "InvalidCaller"},
		{"bad id", http.MethodGet, "/api/v0/daos/xyz", "", nil, http.StatusBadRequest, "InvalidId"},
		{"bad body", http.MethodPost, "/api/v0/daos", "admin", map[string]int{"bogus": 1}, http.StatusBadRequest, errKindInvalidRequest},
		{"unauthorized", http.MethodPost, "/api/v0/daos/" + daoId + "/proposals", "mallory", CreateProposalRequest{Metadata: "m"}, http.StatusForbidden, "Unauthorized"},
		{"not found", http.MethodGet, "/api/v0/proposals/" + governance.Id{}.String(), "", nil, http.StatusNotFound, "ProposalNotFound"},
		{"exists", http.MethodPost, "/api/v0/daos", "admin", CreateDaoRequest{Name: "treasury"}, http.StatusConflict, "DaoAlreadyExists"},
		{"insufficient", http.MethodPost, "/api/v0/proposals/" + proposalId + "/votes", "alice", CastVoteRequest{Option: 1, Votes: &tooMany}, http.StatusUnprocessableEntity, "InsufficientCredits"},
		{"bad option", http.MethodPost, "/api/v0/proposals/" + proposalId + "/votes", "alice", CastVoteRequest{Option: 7}, http.StatusBadRequest, "InvalidOption"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var resp ErrorResponse
			rec := do(t, handler, test.method, test.path, test.caller, test.body, &resp)
			assert.Equal(t, test.status, rec.Code)
			assert.Equal(t, test.status, resp.StatusCode)
			assert.Equal(t, test.kind, resp.Error)
			assert.NotEmpty(t, resp.Message)
		})
	}
	// A duplicate vote is a conflict
	do(t, handler, http.MethodPost, "/api/v0/proposals/"+proposalId+"/votes", "bob", CastVoteRequest{Option: 1}, nil)
	var resp ErrorResponse
	rec := do(t, handler, http.MethodPost, "/api/v0/proposals/"+proposalId+"/votes", "bob", CastVoteRequest{Option: 1}, &resp)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "DuplicateVote", resp.Error)
}

func TestStatusForError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, statusForError(governance.ErrConcurrentUpdate))
	assert.Equal(t, http.StatusInternalServerError, statusForError(assert.AnError))
	assert.Equal(t, http.StatusConflict, statusForError(governance.ErrProposalClosed))
	assert.Equal(t, http.StatusNotFound, statusForError(governance.ErrVoteNotFound))
}

func TestStartStop(t *testing.T) {
	a := newTestAPI(t)
	require.NoError(t, a.Start(t.Context()))
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.Stop(stopCtx)
	}()
	require.ErrorContains(t, a.Start(t.Context()), "already started")
	addr := a.Addr()
	require.NotNil(t, addr)
	resp, err := http.Get("http://" + addr.String() + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGrpcHealthCheck(t *testing.T) {
	handler := newTestAPI(t).Handler()
	req := httptest.NewRequest(
		http.MethodPost,
		"/grpc.health.v1.Health/Check",
		strings.NewReader(`{"service":"`+healthServiceName+`"}`),
	)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "SERVING_STATUS_SERVING", resp.Status)
}
