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

// Package history holds read-only projections over the transaction log.
// Nothing here mutates its input.
package history

import (
	"sort"

	"github.com/shopspring/decimal"

	"lease-mining-go/internal/models"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type Totals struct {
	Income decimal.Decimal
	Rent   decimal.Decimal
	Net    decimal.Decimal
	Count  int
}

func FilterByType(log []models.Transaction, txType models.TransactionType) []models.Transaction {
	out := make([]models.Transaction, 0, len(log))
	for _, tx := range log {
		if tx.Type == txType {
			out = append(out, tx)
		}
	}
	return out
}

// SortByRecency returns a copy ordered newest first. Equal timestamps keep
// the later-appended entry first.
func SortByRecency(log []models.Transaction) []models.Transaction {
	out := make([]models.Transaction, len(log))
	for i := range log {
		out[len(log)-1-i] = log[i]
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

func SumByType(log []models.Transaction, txType models.TransactionType) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range log {
		if tx.Type == txType {
			total = total.Add(tx.Amount)
		}
	}
	return total
}

func Summarize(log []models.Transaction) Totals {
	income := SumByType(log, models.TransactionTypeIncome)
	rent := SumByType(log, models.TransactionTypeRent)
	return Totals{
		Income: income,
		Rent:   rent,
		Net:    income.Sub(rent),
		Count:  len(log),
	}
}

// Page returns one page of the newest-first log. limit outside 1..100
// falls back to 20; a negative offset is treated as 0.
func Page(log []models.Transaction, limit, offset int) []models.Transaction {
	if limit <= 0 || limit > MaxPageSize {
		limit = DefaultPageSize
	}
	if offset < 0 {
		offset = 0
	}

	sorted := SortByRecency(log)
	if offset >= len(sorted) {
		return []models.Transaction{}
	}
	end := offset + limit
	if end > len(sorted) {
		end = len(sorted)
	}
	return sorted[offset:end]
}

func ForLease(log []models.Transaction, leaseId string) []models.Transaction {
	out := make([]models.Transaction, 0)
	for _, tx := range log {
		if tx.ServerId == leaseId {
			out = append(out, tx)
		}
	}
	return out
}
