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
	"errors"
)

// Validation errors
var (
	ErrInvalidCaller        = errors.New("invalid caller")
	ErrInvalidName          = errors.New("invalid DAO name")
	ErrInvalidMetadata      = errors.New("invalid proposal metadata")
	ErrInvalidOptions       = errors.New("invalid proposal options")
	ErrInvalidOption        = errors.New("invalid vote option")
	ErrInvalidVoteMagnitude = errors.New("invalid vote magnitude")
	ErrInvalidAmount        = errors.New("invalid credit amount")
	ErrInvalidId            = errors.New("invalid identifier")
)

var ErrUnauthorized = errors.New("unauthorized")

// State conflicts
var (
	ErrDaoAlreadyExists      = errors.New("DAO already exists")
	ErrProposalClosed        = errors.New("proposal is closed")
	ErrProposalAlreadyClosed = errors.New("proposal is already closed")
	ErrDuplicateVote         = errors.New("voter has already voted on this proposal")
)

// Lookups
var (
	ErrDaoNotFound      = errors.New("DAO not found")
	ErrProposalNotFound = errors.New("proposal not found")
	ErrVoteNotFound     = errors.New("vote not found")
)

var ErrInsufficientCredits = errors.New("insufficient credits")

// ErrConcurrentUpdate is returned when another writer modified a record
// between our read and our write. The service retries it a bounded number
// of times before giving up
var ErrConcurrentUpdate = errors.New("concurrent update")

// Class groups error kinds by how a caller should react to them
type Class int

const (
	ClassNone Class = iota
	ClassValidation
	ClassAuthorization
	ClassConflict
	ClassNotFound
	ClassResource
	ClassStorage
)

type errorInfo struct {
	err   error
	kind  string
	class Class
}

var errorTable = []errorInfo{
	{ErrInvalidCaller, "InvalidCaller", ClassValidation},
	{ErrInvalidName, "InvalidName", ClassValidation},
	{ErrInvalidMetadata, "InvalidMetadata", ClassValidation},
	{ErrInvalidOptions, "InvalidOptions", ClassValidation},
	{ErrInvalidOption, "InvalidOption", ClassValidation},
	{ErrInvalidVoteMagnitude, "InvalidVoteMagnitude", ClassValidation},
	{ErrInvalidAmount, "InvalidAmount", ClassValidation},
	{ErrInvalidId, "InvalidId", ClassValidation},
	{ErrUnauthorized, "Unauthorized", ClassAuthorization},
	{ErrDaoAlreadyExists, "DaoAlreadyExists", ClassConflict},
	{ErrProposalClosed, "ProposalClosed", ClassConflict},
	{ErrProposalAlreadyClosed, "ProposalAlreadyClosed", ClassConflict},
	{ErrDuplicateVote, "DuplicateVote", ClassConflict},
	{ErrDaoNotFound, "DaoNotFound", ClassNotFound},
	{ErrProposalNotFound, "ProposalNotFound", ClassNotFound},
	{ErrVoteNotFound, "VoteNotFound", ClassNotFound},
	{ErrInsufficientCredits, "InsufficientCredits", ClassResource},
}

func lookupError(err error) (string, Class) {
	if err == nil {
		return "", ClassNone
	}
	for _, info := range errorTable {
		if errors.Is(err, info.err) {
			return info.kind, info.class
		}
	}
	if errors.Is(err, ErrConcurrentUpdate) {
		return "ConcurrentUpdate", ClassStorage
	}
	return "Storage", ClassStorage
}

// ErrorKind returns the stable name of the error kind, as used in API
// responses and metric labels. It returns "" for a nil error and "Storage"
// for anything that is not a governance error
func ErrorKind(err error) string {
	kind, _ := lookupError(err)
	return kind
}

func ErrorClass(err error) Class {
	_, class := lookupError(err)
	return class
}
