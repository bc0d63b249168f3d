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

package models

import "github.com/shopspring/decimal"

// State is a point-in-time view of the ledger
type State struct {
	Balance       decimal.Decimal
	LeasedServers []LeasedServer
	Transactions  []Transaction
	Mining        bool
	Loading       bool
}

// Clone returns a copy that shares no slices with s.
func (s State) Clone() State {
	out := s
	out.LeasedServers = append([]LeasedServer(nil), s.LeasedServers...)
	out.Transactions = append([]Transaction(nil), s.Transactions...)
	return out
}

// FindLeasedServer returns the index of the lease with the given id, or -1.
func (s State) FindLeasedServer(id string) int {
	for i, server := range s.LeasedServers {
		if server.Id == id {
			return i
		}
	}
	return -1
}
