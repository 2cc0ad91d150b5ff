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

// Package sops seals small values, such as the commit timestamp kept in
// cloud blob stores, with SOPS envelope encryption under cloud KMS keys
package sops

import (
	"errors"
	"fmt"
	"os"

	sopsapi "github.com/getsops/sops/v3"
	"github.com/getsops/sops/v3/aes"
	scommon "github.com/getsops/sops/v3/cmd/sops/common"
	"github.com/getsops/sops/v3/config"
	"github.com/getsops/sops/v3/decrypt"
	"github.com/getsops/sops/v3/gcpkms"
	skeys "github.com/getsops/sops/v3/keys"
	awskms "github.com/getsops/sops/v3/kms"
	jsonstore "github.com/getsops/sops/v3/stores/json"
	"github.com/getsops/sops/v3/version"
)

// Environment variables that select the KMS master keys
const (
	EnvGcpKmsResourceId = "QUADVOTE_GCP_KMS_RESOURCE_ID"
	EnvAwsKmsKeyArns    = "QUADVOTE_AWS_KMS_KEY_ARNS"
	EnvAwsKmsProfile    = "QUADVOTE_AWS_KMS_PROFILE"
)

var (
	ErrAlreadyEncrypted = errors.New("sops: data is already encrypted")
	ErrNoMasterKeys     = errors.New(
		"sops: no master key configured, set " + EnvGcpKmsResourceId +
			" and/or " + EnvAwsKmsKeyArns,
	)
)

func Decrypt(data []byte) ([]byte, error) {
	return decrypt.Data(data, "binary")
}

func Encrypt(data []byte) ([]byte, error) {
	keyGroups, err := KeyGroupsFromEnv()
	if err != nil {
		return nil, err
	}
	store := jsonstore.NewBinaryStore(&config.JSONBinaryStoreConfig{})
	branches, err := store.LoadPlainFile(data)
	if err != nil {
		return nil, fmt.Errorf("sops: load plaintext: %w", err)
	}
	if hasMetadata(branches) {
		return nil, ErrAlreadyEncrypted
	}
	tree := sopsapi.Tree{
		Branches: branches,
		Metadata: sopsapi.Metadata{
			KeyGroups: keyGroups,
			Version:   version.Version,
		},
	}
	dataKey, errs := tree.GenerateDataKey()
	if len(errs) > 0 {
		return nil, fmt.Errorf("sops: generate data key: %v", errs)
	}
	err = scommon.EncryptTree(scommon.EncryptTreeOpts{
		DataKey: dataKey,
		Tree:    &tree,
		Cipher:  aes.NewCipher(),
	})
	if err != nil {
		return nil, fmt.Errorf("sops: encrypt: %w", err)
	}
	encrypted, err := store.EmitEncryptedFile(tree)
	if err != nil {
		return nil, fmt.Errorf("sops: emit: %w", err)
	}
	return encrypted, nil
}

// KeyGroupsFromEnv builds one key group per configured KMS provider
func KeyGroupsFromEnv() ([]sopsapi.KeyGroup, error) {
	var keyGroups []sopsapi.KeyGroup
	if rid := os.Getenv(EnvGcpKmsResourceId); rid != "" {
		if group := keyGroup(gcpkms.MasterKeysFromResourceIDString(rid)); len(group) > 0 {
			keyGroups = append(keyGroups, group)
		}
	}
	if arns := os.Getenv(EnvAwsKmsKeyArns); arns != "" {
		profile := os.Getenv(EnvAwsKmsProfile)
		if group := keyGroup(awskms.MasterKeysFromArnString(arns, nil, profile)); len(group) > 0 {
			keyGroups = append(keyGroups, group)
		}
	}
	if len(keyGroups) == 0 {
		return nil, ErrNoMasterKeys
	}
	return keyGroups, nil
}

func keyGroup[T skeys.MasterKey](keys []T) sopsapi.KeyGroup {
	group := make(sopsapi.KeyGroup, 0, len(keys))
	for _, k := range keys {
		group = append(group, k)
	}
	return group
}

// hasMetadata reports whether a loaded tree already carries a sops section
func hasMetadata(branches sopsapi.TreeBranches) bool {
	for _, branch := range branches {
		for _, item := range branch {
			if item.Key == "sops" {
				return true
			}
		}
	}
	return false
}
