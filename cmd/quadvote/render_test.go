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


package main

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/blinklabs-io/quadvote/api"
	"github.com/blinklabs-io/quadvote/governance"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func disableColor(t *testing.T) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })
}

func testTally() *governance.Tally {
	var id governance.Id
	id[0] = 0x01
	return &governance.Tally{
		ProposalId: id,
		Status:     governance.StatusOpen,
		Options: []governance.OptionTally{
			{Code: 0, Label: "no", Votes: 2, Voters: 1, Credits: 4},
			{Code: 1, Label: "yes", Votes: 5, Voters: 2, Credits: 13},
		},
		TotalVotes:   7,
		TotalCredits: 17,
		Voters:       3,
		Leading:      []int{1},
	}
}

func TestRenderJson(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, render(&buf, outputJson, api.IdResponse{Id: "abcd"}))
	var got api.IdResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "abcd", got.Id)
}

func TestRenderTally(t *testing.T) {
	disableColor(t)
	var buf bytes.Buffer
	require.NoError(t, render(&buf, outputTable, testTally()))
	out := buf.String()
	assert.Contains(t, out, "yes *", "leading option is marked")
	assert.NotContains(t, out, "no *")
	assert.Contains(t, out, "TOTAL")
	assert.Contains(t, out, "17")
	assert.Contains(t, out, "(open)")
}

func TestRenderProposals(t *testing.T) {
	disableColor(t)
	expires := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	proposals := []*governance.Proposal{
		{Sequence: 1, Creator: "alice", Metadata: "fund the thing", Status: governance.StatusOpen, ExpiresAt: &expires},
		{Sequence: 2, Creator: "bob", Metadata: "rename", Status: governance.StatusClosed},
	}
	var buf bytes.Buffer
	require.NoError(t, render(&buf, outputTable, proposals))
	out := buf.String()
	for _, want := range []string{"alice", "bob", "fund the thing", "closed", "2026-01-02T03:04:05Z"} {
		assert.Contains(t, out, want)
	}
}

func TestRenderAudit(t *testing.T) {
	disableColor(t)
	report := &governance.AuditReport{Proposals: 1, Votes: 2}
	var buf bytes.Buffer
	require.NoError(t, render(&buf, outputTable, report))
	assert.Contains(t, buf.String(), "no mismatches found")

	report.Mismatches = []governance.AuditMismatch{
		{Subject: "credit bob", Detail: "spent 9, votes cost 4"},
	}
	buf.Reset()
	require.NoError(t, render(&buf, outputTable, report))
	assert.Contains(t, buf.String(), "spent 9, votes cost 4")
	assert.NotContains(t, buf.String(), "no mismatches found")
}

func TestRenderFallsBackToJson(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, render(&buf, outputTable, map[string]int{"closed": 3}))
	assert.JSONEq(t, `{"closed":3}`, buf.String())
}

func TestRenderUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorContains(t, render(&buf, "yaml", testTally()), "unknown output format")
}
