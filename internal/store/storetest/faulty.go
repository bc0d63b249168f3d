/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package storetest provides KVStore doubles for tests.
package storetest

import (
	"context"
	"errors"
	"sync"

	"lease-mining-go/internal/store"
)

var ErrInjected = errors.New("injected write failure")

// FaultyStore wraps a MemoryStore and fails the next N writes.
type FaultyStore struct {
	*store.MemoryStore

	mu        sync.Mutex
	failures  int
	writes    int
	failReads bool
}

func NewFaultyStore() *FaultyStore {
	return &FaultyStore{MemoryStore: store.NewMemoryStore()}
}

// FailNextWrites makes the next n calls to Set/SetMulti return ErrInjected.
func (f *FaultyStore) FailNextWrites(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = n
}

// FailReads makes every Get return ErrInjected until reset with false.
func (f *FaultyStore) FailReads(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failReads = fail
}

// Writes counts successful SetMulti calls.
func (f *FaultyStore) Writes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes
}

func (f *FaultyStore) Get(ctx context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	fail := f.failReads
	f.mu.Unlock()
	if fail {
		return "", false, ErrInjected
	}
	return f.MemoryStore.Get(ctx, key)
}

func (f *FaultyStore) Set(ctx context.Context, key, value string) error {
	return f.SetMulti(ctx, map[string]string{key: value})
}

func (f *FaultyStore) SetMulti(ctx context.Context, values map[string]string) error {
	f.mu.Lock()
	if f.failures > 0 {
		f.failures--
		f.mu.Unlock()
		return ErrInjected
	}
	f.mu.Unlock()

	if err := f.MemoryStore.SetMulti(ctx, values); err != nil {
		return err
	}

	f.mu.Lock()
	f.writes++
	f.mu.Unlock()
	return nil
}
