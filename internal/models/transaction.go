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

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the kind of balance event recorded in the log
type TransactionType string

const (
	TransactionTypeRent   TransactionType = "RENT"
	TransactionTypeIncome TransactionType = "INCOME"
)

// Transaction is an immutable ledger entry. Amount is always positive;
// the sign comes from Type.
type Transaction struct {
	Id          string          `json:"id"`
	Type        TransactionType `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Timestamp   time.Time       `json:"timestamp"`
	ServerId    string          `json:"serverId,omitempty"`
	ServerName  string          `json:"serverName,omitempty"`
}

// SignedAmount returns +Amount for INCOME and -Amount for RENT.
func (t Transaction) SignedAmount() decimal.Decimal {
	if t.Type == TransactionTypeRent {
		return t.Amount.Neg()
	}
	return t.Amount
}
