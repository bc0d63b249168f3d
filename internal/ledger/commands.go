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
	"fmt"

	"github.com/shopspring/decimal"

	"lease-mining-go/internal/models"
	"lease-mining-go/internal/store"
)

// Command is a single state transition. The set of commands is closed and
// every variant is handled by apply.
type Command interface {
	command()
}

type SetBalance struct {
	Amount decimal.Decimal
}

type AddLeasedServer struct {
	Server models.LeasedServer
}

type UpdateLeasedServer struct {
	Server models.LeasedServer
}

type AppendTransaction struct {
	Transaction models.Transaction
}

type SetMining struct {
	Mining bool
}

type SetLoading struct {
	Loading bool
}

func (SetBalance) command()         {}
func (AddLeasedServer) command()    {}
func (UpdateLeasedServer) command() {}
func (AppendTransaction) command()  {}
func (SetMining) command()          {}
func (SetLoading) command()         {}

// apply mutates s and returns the storage key the command dirtied, or ""
// when the change is not durable.
func apply(s *models.State, cmd Command) (string, error) {
	switch c := cmd.(type) {
	case SetBalance:
		if c.Amount.IsNegative() {
			return "", fmt.Errorf("%w: balance cannot be negative: %s", ErrInvalidAmount, c.Amount)
		}
		s.Balance = c.Amount
		return store.KeyBalance, nil

	case AddLeasedServer:
		server := c.Server.Millis()
		if server.Id == "" {
			return "", fmt.Errorf("leased server id cannot be empty")
		}
		if s.FindLeasedServer(server.Id) >= 0 {
			return "", fmt.Errorf("%w: %s", ErrDuplicateID, server.Id)
		}
		s.LeasedServers = append(s.LeasedServers, server)
		return store.KeyRentedServers, nil

	case UpdateLeasedServer:
		server := c.Server.Millis()
		i := s.FindLeasedServer(server.Id)
		if i < 0 {
			return "", fmt.Errorf("%w: %s", ErrNotFound, server.Id)
		}
		if !s.LeasedServers[i].LeaseStart.Equal(server.LeaseStart) {
			return "", fmt.Errorf("%w: %s", ErrLeaseStartChanged, server.Id)
		}
		s.LeasedServers[i] = server
		return store.KeyRentedServers, nil

	case AppendTransaction:
		tx := c.Transaction
		if !tx.Amount.IsPositive() {
			return "", fmt.Errorf("%w: transaction amount must be positive: %s", ErrInvalidAmount, tx.Amount)
		}
		if tx.Id == "" {
			return "", fmt.Errorf("%w: empty id", ErrInvalidTransaction)
		}
		if tx.Type != models.TransactionTypeRent && tx.Type != models.TransactionTypeIncome {
			return "", fmt.Errorf("%w: unknown type %q", ErrInvalidTransaction, tx.Type)
		}
		s.Transactions = append(s.Transactions, tx)
		return store.KeyTransactions, nil

	case SetMining:
		s.Mining = c.Mining
		return store.KeyIsMining, nil

	case SetLoading:
		s.Loading = c.Loading
		return "", nil

	default:
		return "", fmt.Errorf("unhandled command %T", cmd)
	}
}
