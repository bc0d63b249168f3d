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

package store

import (
	"context"
	"errors"
)

// Keys of the durable state layout.
const (
	KeyBalance       = "balance"
	KeyRentedServers = "rentedServers"
	KeyTransactions  = "transactions"
	KeyIsMining      = "isMining"
)

// StateKeys lists every key owned by the ledger, in write order.
var StateKeys = []string{KeyBalance, KeyRentedServers, KeyTransactions, KeyIsMining}

// Sentinel errors shared across all backend implementations.
var (
	ErrClosed   = errors.New("store is closed")
	ErrEmptyKey = errors.New("key cannot be empty")
)

// KVStore defines the contract that every backend (SQLite, Redis, memory) must satisfy.
type KVStore interface {
	// Get returns the value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// SetMulti writes all pairs or none of them.
	SetMulti(ctx context.Context, values map[string]string) error
	Delete(ctx context.Context, keys ...string) error

	// --- Lifecycle ---
	Close() error
}

// Versioner is implemented by backends that count writes per key.
type Versioner interface {
	Version(ctx context.Context, key string) (int64, error)
}
