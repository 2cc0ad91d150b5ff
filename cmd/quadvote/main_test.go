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
	"testing"

	"github.com/blinklabs-io/quadvote/governance"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListAllPlugins(t *testing.T) {
	out := listAllPlugins()
	for _, name := range []string{"badger", "gcs", "s3", "sqlite", "postgres", "mysql"} {
		assert.Contains(t, out, "  "+name+": ")
	}
}

func TestParseIdArg(t *testing.T) {
	var want governance.Id
	want[0] = 0xab
	got, err := parseIdArg("DAO", want.String())
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = parseIdArg("DAO", "not-hex")
	assert.ErrorContains(t, err, "invalid DAO id")
}

func TestCommandTree(t *testing.T) {
	testDefs := []struct {
		cmd  *cobra.Command
		subs []string
	}{
		{cmd: daoCommand(), subs: []string{"create", "show", "list"}},
		{cmd: proposalCommand(), subs: []string{"create", "close", "show", "list", "sweep"}},
		{cmd: voteCommand(), subs: []string{"cast", "show", "list"}},
		{cmd: creditsCommand(), subs: []string{"grant", "show"}},
	}
	for _, testDef := range testDefs {
		for _, name := range testDef.subs {
			sub, _, err := testDef.cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name(), "%s %s", testDef.cmd.Name(), name)
		}
	}
}
