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

package sops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyGroupsFromEnv(t *testing.T) {
	t.Setenv(EnvGcpKmsResourceId, "")
	t.Setenv(EnvAwsKmsKeyArns, "")
	_, err := KeyGroupsFromEnv()
	assert.ErrorIs(t, err, ErrNoMasterKeys)

	t.Setenv(
		EnvGcpKmsResourceId,
		"projects/quadvote/locations/global/keyRings/governance/cryptoKeys/commit",
	)
	groups, err := KeyGroupsFromEnv()
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Len(t, groups[0], 1)

	t.Setenv(
		EnvAwsKmsKeyArns,
		"arn:aws:kms:us-east-1:111122223333:key/1234abcd-12ab-34cd-56ef-1234567890ab",
	)
	groups, err = KeyGroupsFromEnv()
	require.NoError(t, err)
	assert.Len(t, groups, 2)
}

func TestEncryptWithoutKeys(t *testing.T) {
	t.Setenv(EnvGcpKmsResourceId, "")
	t.Setenv(EnvAwsKmsKeyArns, "")
	_, err := Encrypt([]byte("1718000000"))
	assert.ErrorIs(t, err, ErrNoMasterKeys)
}
