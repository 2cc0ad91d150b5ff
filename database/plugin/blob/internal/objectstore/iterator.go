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

package objectstore

import (
	"strings"

	"github.com/blinklabs-io/quadvote/database/types"
)

// Iterator walks a sorted snapshot of keys
type Iterator struct {
	txn     *Txn
	keys    []string
	idx     int
	reverse bool
}

func (it *Iterator) Rewind() {
	it.idx = 0
}

func (it *Iterator) Seek(prefix []byte) {
	target := string(prefix)
	it.idx = len(it.keys)
	for i, key := range it.keys {
		if (!it.reverse && key >= target) || (it.reverse && key <= target) {
			it.idx = i
			return
		}
	}
}

func (it *Iterator) Valid() bool {
	return it.idx < len(it.keys)
}

func (it *Iterator) ValidForPrefix(prefix []byte) bool {
	return it.Valid() && strings.HasPrefix(it.keys[it.idx], string(prefix))
}

func (it *Iterator) Next() {
	if it.idx < len(it.keys) {
		it.idx++
	}
}

func (it *Iterator) Item() types.BlobItem {
	if !it.Valid() {
		return nil
	}
	return &item{txn: it.txn, key: it.keys[it.idx]}
}

func (it *Iterator) Close() {}

func (it *Iterator) Err() error { return nil }

// ErrorIterator is returned when an iterator cannot be created
type ErrorIterator struct {
	err error
}

func NewErrorIterator(err error) *ErrorIterator {
	return &ErrorIterator{err: err}
}

func (it *ErrorIterator) Rewind()                      {}
func (it *ErrorIterator) Seek(prefix []byte)           {}
func (it *ErrorIterator) Valid() bool                  { return false }
func (it *ErrorIterator) ValidForPrefix(p []byte) bool { return false }
func (it *ErrorIterator) Next()                        {}
func (it *ErrorIterator) Item() types.BlobItem         { return nil }
func (it *ErrorIterator) Close()                       {}
func (it *ErrorIterator) Err() error                   { return it.err }

type item struct {
	txn *Txn
	key string
}

func (i *item) Key() []byte {
	return []byte(i.key)
}

func (i *item) ValueCopy(dst []byte) ([]byte, error) {
	data, err := i.txn.Get([]byte(i.key))
	if err != nil {
		return nil, err
	}
	return append(dst[:0], data...), nil
}
