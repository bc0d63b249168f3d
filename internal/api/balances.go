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

package api

import (
	"time"

	"github.com/shopspring/decimal"

	"lease-mining-go/internal/history"
	"lease-mining-go/internal/leases"
	"lease-mining-go/internal/models"
)

func (s *LedgerService) Balance() decimal.Decimal {
	return s.ledger.Balance()
}

// TransactionHistory returns one newest-first page of the log.
func (s *LedgerService) TransactionHistory(limit, offset int) []models.Transaction {
	return history.Page(s.ledger.Snapshot().Transactions, limit, offset)
}

// TransactionsByType returns the matching entries newest first.
func (s *LedgerService) TransactionsByType(txType models.TransactionType) []models.Transaction {
	log := s.ledger.Snapshot().Transactions
	return history.SortByRecency(history.FilterByType(log, txType))
}

func (s *LedgerService) Totals() history.Totals {
	return history.Summarize(s.ledger.Snapshot().Transactions)
}

func (s *LedgerService) LeaseHistory(leaseId string) []models.Transaction {
	return history.SortByRecency(history.ForLease(s.ledger.Snapshot().Transactions, leaseId))
}

// Leases lists every leased server with its status at now, expired ones
// included.
func (s *LedgerService) Leases(now time.Time) []models.LeaseView {
	servers := s.ledger.Snapshot().LeasedServers
	views := make([]models.LeaseView, len(servers))
	for i, server := range servers {
		views[i] = models.LeaseView{
			Server:    server,
			Active:    s.leases.IsActive(server, now),
			ExpiresAt: leases.ExpiresAt(server, s.leases.Duration()),
			Remaining: s.leases.Remaining(server, now),
		}
	}
	return views
}
