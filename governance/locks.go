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
	"context"
	"sync"
)

// LockManager hands out mutexes keyed by record. Callers acquire every key
// they need in a single call, in the order DAO, proposal, credit, and
// release them all together
type LockManager struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

func NewLockManager() *LockManager {
	return &LockManager{
		locks: make(map[string]*keyLock),
	}
}

func daoLockKey(daoId Id) string {
	return "dao:" + daoId.String()
}

func proposalLockKey(proposalId Id) string {
	return "proposal:" + proposalId.String()
}

func creditLockKey(creditId Id) string {
	return "credit:" + creditId.String()
}

func (l *LockManager) ref(key string) *keyLock {
	l.mu.Lock()
	defer l.mu.Unlock()
	kl, ok := l.locks[key]
	if !ok {
		kl = &keyLock{ch: make(chan struct{}, 1)}
		l.locks[key] = kl
	}
	kl.refs++
	return kl
}

func (l *LockManager) unref(key string, kl *keyLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	kl.refs--
	if kl.refs == 0 {
		delete(l.locks, key)
	}
}

// Acquire locks the given keys in order. It returns a function releasing
// all of them, or the context error if ctx ends first, in which case no
// lock is held. Duplicate keys are acquired once
func (l *LockManager) Acquire(ctx context.Context, keys ...string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	type held struct {
		key string
		kl  *keyLock
	}
	acquired := make([]held, 0, len(keys))
	release := func() {
		for i := len(acquired) - 1; i >= 0; i-- {
			<-acquired[i].kl.ch
			l.unref(acquired[i].key, acquired[i].kl)
		}
	}
	seen := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		kl := l.ref(key)
		select {
		case kl.ch <- struct{}{}:
			acquired = append(acquired, held{key: key, kl: kl})
		case <-ctx.Done():
			l.unref(key, kl)
			release()
			return nil, ctx.Err()
		}
	}
	var once sync.Once
	return func() { once.Do(release) }, nil
}

// size returns the number of keys currently tracked
func (l *LockManager) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
