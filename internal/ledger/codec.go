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

package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"lease-mining-go/internal/models"
	"lease-mining-go/internal/store"
)

// encodeState renders the named keys of s in their storage form.
func encodeState(s models.State, keys []string) (map[string]string, error) {
	values := make(map[string]string, len(keys))
	for _, key := range keys {
		switch key {
		case store.KeyBalance:
			values[key] = s.Balance.String()
		case store.KeyRentedServers:
			servers := s.LeasedServers
			if servers == nil {
				servers = []models.LeasedServer{}
			}
			data, err := json.Marshal(servers)
			if err != nil {
				return nil, fmt.Errorf("failed to encode leased servers: %w", err)
			}
			values[key] = string(data)
		case store.KeyTransactions:
			txs := s.Transactions
			if txs == nil {
				txs = []models.Transaction{}
			}
			data, err := json.Marshal(txs)
			if err != nil {
				return nil, fmt.Errorf("failed to encode transactions: %w", err)
			}
			values[key] = string(data)
		case store.KeyIsMining:
			values[key] = strconv.FormatBool(s.Mining)
		default:
			return nil, fmt.Errorf("unknown state key %q", key)
		}
	}
	return values, nil
}

// readState reports found=false only when none of the account keys exist.
func readState(ctx context.Context, kv store.KVStore) (models.State, bool, error) {
	s := models.State{
		Balance:       decimal.Zero,
		LeasedServers: []models.LeasedServer{},
		Transactions:  []models.Transaction{},
	}
	found := false

	raw, ok, err := kv.Get(ctx, store.KeyBalance)
	if err != nil {
		return s, false, fmt.Errorf("failed to read %s: %w", store.KeyBalance, err)
	}
	if ok {
		found = true
		if s.Balance, err = decimal.NewFromString(raw); err != nil {
			return s, false, fmt.Errorf("failed to parse balance '%s': %w", raw, err)
		}
	}

	raw, ok, err = kv.Get(ctx, store.KeyRentedServers)
	if err != nil {
		return s, false, fmt.Errorf("failed to read %s: %w", store.KeyRentedServers, err)
	}
	if ok {
		found = true
		if err := json.Unmarshal([]byte(raw), &s.LeasedServers); err != nil {
			return s, false, fmt.Errorf("failed to parse leased servers: %w", err)
		}
	}

	raw, ok, err = kv.Get(ctx, store.KeyTransactions)
	if err != nil {
		return s, false, fmt.Errorf("failed to read %s: %w", store.KeyTransactions, err)
	}
	if ok {
		found = true
		if err := json.Unmarshal([]byte(raw), &s.Transactions); err != nil {
			return s, false, fmt.Errorf("failed to parse transactions: %w", err)
		}
	}

	raw, ok, err = kv.Get(ctx, store.KeyIsMining)
	if err != nil {
		return s, false, fmt.Errorf("failed to read %s: %w", store.KeyIsMining, err)
	}
	if ok {
		if s.Mining, err = strconv.ParseBool(raw); err != nil {
			return s, false, fmt.Errorf("failed to parse mining flag '%s': %w", raw, err)
		}
	}

	if s.LeasedServers == nil {
		s.LeasedServers = []models.LeasedServer{}
	}
	if s.Transactions == nil {
		s.Transactions = []models.Transaction{}
	}
	return s, found, nil
}
