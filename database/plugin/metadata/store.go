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
package metadata

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/blinklabs-io/quadvote/database/models"
	"github.com/blinklabs-io/quadvote/database/plugin"
	"github.com/blinklabs-io/quadvote/database/types"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	// Register metadata plugins
	_ "github.com/blinklabs-io/quadvote/database/plugin/metadata/mysql"
	_ "github.com/blinklabs-io/quadvote/database/plugin/metadata/postgres"
	_ "github.com/blinklabs-io/quadvote/database/plugin/metadata/sqlite"
)

// MetadataStore is the relational side of the database. Lookups return
// nil, nil when no record matches. Lookups that take a lock flag read the
// row for update on backends that support row locks
type MetadataStore interface {
	// Database
	Close() error
	DB() *gorm.DB
	GetCommitTimestamp() (int64, error)
	SetCommitTimestamp(int64, types.Txn) error
	Transaction() types.Txn

	// DAOs
	GetDao(
		[]byte, // daoId
		bool, // lock
		types.Txn,
	) (*models.Dao, error)
	GetDaos(types.Txn) ([]models.Dao, error)
	CreateDao(*models.Dao, types.Txn) error
	UpdateDaoProposalCount(
		[]byte, // daoId
		uint64, // count
		types.Txn,
	) error

	// Proposals
	GetProposal(
		[]byte, // proposalId
		bool, // lock
		types.Txn,
	) (*models.Proposal, error)
	GetProposalsByDao([]byte, types.Txn) ([]models.Proposal, error)
	GetExpiredProposals(
		time.Time, // now
		int, // limit
		types.Txn,
	) ([]models.Proposal, error)
	CreateProposal(*models.Proposal, types.Txn) error
	UpdateProposal(*models.Proposal, types.Txn) error
	UpdateProposalTally(*models.ProposalTally, types.Txn) error

	// Votes
	GetVoteRecord(
		[]byte, // proposalId
		string, // voter
		types.Txn,
	) (*models.VoteRecord, error)
	GetVoteRecords([]byte, types.Txn) ([]models.VoteRecord, error)
	GetVoteRecordsByDao([]byte, types.Txn) ([]models.VoteRecord, error)
	CreateVoteRecord(*models.VoteRecord, types.Txn) error

	// Credits
	GetVoterCredit(
		[]byte, // daoId
		string, // voter
		bool, // lock
		types.Txn,
	) (*models.VoterCredit, error)
	GetVoterCreditsByDao([]byte, types.Txn) ([]models.VoterCredit, error)
	CreateVoterCredit(*models.VoterCredit, types.Txn) error
	UpdateVoterCredit(*models.VoterCredit, types.Txn) error
}

// New returns the started metadata plugin selected by name
func New(
	pluginName string,
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
) (MetadataStore, error) {
	p, err := plugin.StartPlugin(
		plugin.PluginTypeMetadata,
		pluginName,
		logger,
		promRegistry,
	)
	if err != nil {
		return nil, err
	}
	metadataStore, ok := p.(MetadataStore)
	if !ok {
		return nil, fmt.Errorf(
			"plugin '%s' does not implement MetadataStore interface",
			pluginName,
		)
	}
	return metadataStore, nil
}
