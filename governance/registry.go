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
	"fmt"
	"time"

	"github.com/blinklabs-io/quadvote/database"
	"github.com/blinklabs-io/quadvote/database/models"
	"github.com/blinklabs-io/quadvote/database/types"
)

// DaoRegistry creates and looks up DAOs. All methods run inside a caller
// supplied transaction
type DaoRegistry struct {
	db *database.Database
}

func NewDaoRegistry(db *database.Database) *DaoRegistry {
	return &DaoRegistry{db: db}
}

// Create persists a new DAO owned by the caller
func (r *DaoRegistry) Create(
	txn *database.Txn,
	caller string,
	name string,
	now time.Time,
) (*models.Dao, error) {
	if err := validateCaller(caller); err != nil {
		return nil, err
	}
	if err := validateName(name); err != nil {
		return nil, err
	}
	daoId := DaoId(caller, name)
	existing, err := r.db.GetDao(daoId.Bytes(), false, txn)
	if err != nil {
		return nil, fmt.Errorf("lookup DAO: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s", ErrDaoAlreadyExists, daoId)
	}
	dao := &models.Dao{
		DaoId:     daoId.Bytes(),
		Name:      name,
		Admin:     caller,
		CreatedAt: now,
	}
	if err := r.db.CreateDao(dao, txn); err != nil {
		if errors.Is(err, types.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: %s", ErrDaoAlreadyExists, daoId)
		}
		return nil, fmt.Errorf("create DAO: %w", err)
	}
	return dao, nil
}

// Get returns the DAO, or ErrDaoNotFound. With lock set the row is held
// until the transaction ends
func (r *DaoRegistry) Get(
	txn *database.Txn,
	daoId Id,
	lock bool,
) (*models.Dao, error) {
	dao, err := r.db.GetDao(daoId.Bytes(), lock, txn)
	if err != nil {
		return nil, fmt.Errorf("lookup DAO: %w", err)
	}
	if dao == nil {
		return nil, fmt.Errorf("%w: %s", ErrDaoNotFound, daoId)
	}
	return dao, nil
}

func (r *DaoRegistry) List(txn *database.Txn) ([]models.Dao, error) {
	ret, err := r.db.GetDaos(txn)
	if err != nil {
		return nil, fmt.Errorf("list DAOs: %w", err)
	}
	return ret, nil
}
