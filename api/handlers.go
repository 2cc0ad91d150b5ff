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
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/blinklabs-io/quadvote/governance"
	"github.com/blinklabs-io/quadvote/internal/version"
)

// maxRequestBodySize bounds the JSON request bodies we decode
const maxRequestBodySize = 64 * 1024

const errKindInvalidRequest = "InvalidRequest"

// writeJSON writes a JSON response with the given status code
func writeJSON(
	w http.ResponseWriter,
	status int,
	v any,
) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,errchkjson
	json.NewEncoder(w).Encode(v)
}

func writeError(
	w http.ResponseWriter,
	status int,
	errStr string,
	message string,
) {
	writeJSON(w, status, ErrorResponse{
		StatusCode: status,
		Error:      errStr,
		Message:    message,
	})
}

// statusForError maps a governance error to its HTTP status
func statusForError(err error) int {
	switch governance.ErrorClass(err) {
	case governance.ClassValidation:
		return http.StatusBadRequest
	case governance.ClassAuthorization:
		return http.StatusForbidden
	case governance.ClassNotFound:
		return http.StatusNotFound
	case governance.ClassConflict:
		return http.StatusConflict
	case governance.ClassResource:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError renders an error returned by the governance service.
// Storage errors are logged and reported without their details
func (a *API) writeServiceError(
	w http.ResponseWriter,
	r *http.Request,
	err error,
) {
	status := statusForError(err)
	kind := governance.ErrorKind(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		a.logger.Error(
			"request failed",
			"request_id", RequestId(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		message = "internal error"
	}
	writeError(w, status, kind, message)
}

func (a *API) pathId(
	w http.ResponseWriter,
	r *http.Request,
) (governance.Id, bool) {
	id, err := governance.ParseId(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, governance.ErrorKind(err), err.Error())
		return governance.Id{}, false
	}
	return id, true
}

func decodeBody(
	w http.ResponseWriter,
	r *http.Request,
	dest any,
) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		writeError(
			w,
			http.StatusBadRequest,
			errKindInvalidRequest,
			fmt.Sprintf("invalid request body: %s", err),
		)
		return false
	}
	return true
}

func caller(r *http.Request) string {
	return r.Header.Get(CallerHeader)
}

// handleRoot handles GET / and returns API metadata
func (a *API) handleRoot(
	w http.ResponseWriter,
	r *http.Request,
) {
	writeJSON(w, http.StatusOK, RootResponse{
		Name:    "quadvote",
		Version: version.GetVersionString(),
	})
}

func (a *API) handleHealth(
	w http.ResponseWriter,
	_ *http.Request,
) {
	writeJSON(w, http.StatusOK, HealthResponse{
		IsHealthy: true,
	})
}

func (a *API) handleListDaos(
	w http.ResponseWriter,
	r *http.Request,
) {
	params, err := ParsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, errKindInvalidRequest, err.Error())
		return
	}
	daos, err := a.service.ListDaos(r.Context())
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writePage(w, daos, params)
}

func (a *API) handleCreateDao(
	w http.ResponseWriter,
	r *http.Request,
) {
	var req CreateDaoRequest
	if !decodeBody(w, r, &req) {
		return
	}
	daoId, err := a.service.InitDao(r.Context(), caller(r), req.Name)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, IdResponse{Id: daoId.String()})
}

func (a *API) handleGetDao(
	w http.ResponseWriter,
	r *http.Request,
) {
	daoId, ok := a.pathId(w, r)
	if !ok {
		return
	}
	dao, err := a.service.GetDao(r.Context(), daoId)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dao)
}

func (a *API) handleListProposals(
	w http.ResponseWriter,
	r *http.Request,
) {
	daoId, ok := a.pathId(w, r)
	if !ok {
		return
	}
	params, err := ParsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, errKindInvalidRequest, err.Error())
		return
	}
	proposals, err := a.service.ListProposals(r.Context(), daoId)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writePage(w, proposals, params)
}

func (a *API) handleCreateProposal(
	w http.ResponseWriter,
	r *http.Request,
) {
	daoId, ok := a.pathId(w, r)
	if !ok {
		return
	}
	var req CreateProposalRequest
	if !decodeBody(w, r, &req) {
		return
	}
	proposalId, err := a.service.InitProposal(
		r.Context(),
		caller(r),
		daoId,
		req.Metadata,
		req.Options,
	)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, IdResponse{Id: proposalId.String()})
}

func (a *API) handleGetCredits(
	w http.ResponseWriter,
	r *http.Request,
) {
	daoId, ok := a.pathId(w, r)
	if !ok {
		return
	}
	credit, err := a.service.GetCredits(r.Context(), daoId, r.PathValue("voter"))
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, credit)
}

func (a *API) handleGrantCredits(
	w http.ResponseWriter,
	r *http.Request,
) {
	daoId, ok := a.pathId(w, r)
	if !ok {
		return
	}
	var req GrantCreditsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	balance, err := a.service.GrantCredits(
		r.Context(),
		caller(r),
		daoId,
		req.Voter,
		req.Amount,
	)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, GrantCreditsResponse{
		DaoId:   daoId.String(),
		Voter:   req.Voter,
		Balance: balance,
	})
}

func (a *API) handleAudit(
	w http.ResponseWriter,
	r *http.Request,
) {
	daoId, ok := a.pathId(w, r)
	if !ok {
		return
	}
	report, err := a.service.Audit(r.Context(), daoId)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (a *API) handleGetProposal(
	w http.ResponseWriter,
	r *http.Request,
) {
	proposalId, ok := a.pathId(w, r)
	if !ok {
		return
	}
	proposal, err := a.service.GetProposal(r.Context(), proposalId)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, proposal)
}

func (a *API) handleCloseProposal(
	w http.ResponseWriter,
	r *http.Request,
) {
	proposalId, ok := a.pathId(w, r)
	if !ok {
		return
	}
	if err := a.service.CloseProposal(r.Context(), caller(r), proposalId); err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	proposal, err := a.service.GetProposal(r.Context(), proposalId)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, proposal)
}

func (a *API) handleListVotes(
	w http.ResponseWriter,
	r *http.Request,
) {
	proposalId, ok := a.pathId(w, r)
	if !ok {
		return
	}
	params, err := ParsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, errKindInvalidRequest, err.Error())
		return
	}
	votes, err := a.service.ListVotes(r.Context(), proposalId)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writePage(w, votes, params)
}

func (a *API) handleCastVote(
	w http.ResponseWriter,
	r *http.Request,
) {
	proposalId, ok := a.pathId(w, r)
	if !ok {
		return
	}
	var req CastVoteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	votes := int64(1)
	if req.Votes != nil {
		votes = *req.Votes
	}
	vote, err := a.service.CastVote(
		r.Context(),
		caller(r),
		proposalId,
		req.Option,
		votes,
	)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, vote)
}

func (a *API) handleGetVote(
	w http.ResponseWriter,
	r *http.Request,
) {
	proposalId, ok := a.pathId(w, r)
	if !ok {
		return
	}
	vote, err := a.service.GetVote(r.Context(), proposalId, r.PathValue("voter"))
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, vote)
}

func (a *API) handleTally(
	w http.ResponseWriter,
	r *http.Request,
) {
	proposalId, ok := a.pathId(w, r)
	if !ok {
		return
	}
	tally, err := a.service.ReadTally(r.Context(), proposalId)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tally)
}
