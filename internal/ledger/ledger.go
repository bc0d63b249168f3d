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

// Package ledger owns the account state: balance, leased servers,
// transaction log and the mining flag. Every change goes through apply and
// is persisted before it becomes visible.
package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"lease-mining-go/internal/models"
	"lease-mining-go/internal/store"
)

const SeedDescription = "initial bonus"

var SeedBalance = decimal.NewFromInt(10)

type Ledger struct {
	mu    sync.Mutex
	kv    store.KVStore
	state models.State
	now   func() time.Time
}

type Option func(*Ledger)

// WithClock overrides the clock used to stamp the seed transaction.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

func New(kv store.KVStore, opts ...Option) *Ledger {
	l := &Ledger{
		kv:  kv,
		now: time.Now,
		state: models.State{
			Balance:       decimal.Zero,
			LeasedServers: []models.LeasedServer{},
			Transactions:  []models.Transaction{},
		},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewTransactionId returns a time-ordered id, falling back to a random one.
func NewTransactionId() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

func (l *Ledger) Snapshot() models.State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Clone()
}

func (l *Ledger) Balance() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Balance
}

// Load restores state from the store, seeding it on first use.
func (l *Ledger) Load(ctx context.Context) error {
	l.mu.Lock()
	_ = l.commitLocked(ctx, []Command{SetLoading{Loading: true}})
	l.mu.Unlock()

	loaded, found, err := readState(ctx, l.kv)

	l.mu.Lock()
	defer l.mu.Unlock()

	if err != nil {
		_ = l.commitLocked(ctx, []Command{SetLoading{Loading: false}})
		return fmt.Errorf("%w: %w", ErrStorageFailure, err)
	}

	if !found {
		zap.L().Info("No saved state found, seeding new account",
			zap.String("balance", SeedBalance.String()))
		if err := l.resetLocked(ctx); err != nil {
			_ = l.commitLocked(ctx, []Command{SetLoading{Loading: false}})
			return err
		}
		return nil
	}

	l.state = loaded
	zap.L().Info("Loaded account state",
		zap.String("balance", loaded.Balance.String()),
		zap.Int("leased_servers", len(loaded.LeasedServers)),
		zap.Int("transactions", len(loaded.Transactions)),
		zap.Bool("mining", loaded.Mining))
	return nil
}

// Reset replaces all durable state with the seed state.
func (l *Ledger) Reset(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.resetLocked(ctx)
}

func (l *Ledger) resetLocked(ctx context.Context) error {
	seed := seedState(l.now())

	values, err := encodeState(seed, store.StateKeys)
	if err != nil {
		return err
	}
	if err := l.kv.SetMulti(ctx, values); err != nil {
		return fmt.Errorf("%w: %w", ErrStorageFailure, err)
	}

	l.state = seed
	zap.L().Info("Account state reset", zap.String("balance", seed.Balance.String()))
	return nil
}

func seedState(now time.Time) models.State {
	return models.State{
		Balance:       SeedBalance,
		LeasedServers: []models.LeasedServer{},
		Transactions: []models.Transaction{{
			Id:          NewTransactionId(),
			Type:        models.TransactionTypeIncome,
			Amount:      SeedBalance,
			Description: SeedDescription,
			Timestamp:   now.UTC(),
		}},
	}
}

// Dispatch applies cmds as one unit: all of them are persisted and become
// visible, or none do.
func (l *Ledger) Dispatch(ctx context.Context, cmds ...Command) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.commitLocked(ctx, cmds)
}

// Update runs fn against a copy of the current state while holding the
// ledger lock, then commits the commands it returns. Returning an error
// from fn aborts without changes.
func (l *Ledger) Update(ctx context.Context, fn func(models.State) ([]Command, error)) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	cmds, err := fn(l.state.Clone())
	if err != nil {
		return err
	}
	return l.commitLocked(ctx, cmds)
}

func (l *Ledger) commitLocked(ctx context.Context, cmds []Command) error {
	if len(cmds) == 0 {
		return nil
	}

	next := l.state.Clone()
	dirty := make([]string, 0, len(store.StateKeys))
	seen := make(map[string]bool, len(store.StateKeys))
	for _, cmd := range cmds {
		key, err := apply(&next, cmd)
		if err != nil {
			return err
		}
		if key != "" && !seen[key] {
			seen[key] = true
			dirty = append(dirty, key)
		}
	}

	if len(dirty) > 0 {
		values, err := encodeState(next, dirty)
		if err != nil {
			return err
		}
		if err := l.kv.SetMulti(ctx, values); err != nil {
			zap.L().Error("Failed to persist state", zap.Strings("keys", dirty), zap.Error(err))
			return fmt.Errorf("%w: %w", ErrStorageFailure, err)
		}
	}

	l.state = next
	return nil
}

func (l *Ledger) SetBalance(ctx context.Context, amount decimal.Decimal) error {
	return l.Dispatch(ctx, SetBalance{Amount: amount})
}

func (l *Ledger) AddLeasedServer(ctx context.Context, server models.LeasedServer) error {
	return l.Dispatch(ctx, AddLeasedServer{Server: server})
}

func (l *Ledger) UpdateLeasedServer(ctx context.Context, server models.LeasedServer) error {
	return l.Dispatch(ctx, UpdateLeasedServer{Server: server})
}

func (l *Ledger) AppendTransaction(ctx context.Context, tx models.Transaction) error {
	return l.Dispatch(ctx, AppendTransaction{Transaction: tx})
}

func (l *Ledger) SetMining(ctx context.Context, mining bool) error {
	return l.Dispatch(ctx, SetMining{Mining: mining})
}

// Reconcile checks that the balance equals the signed sum of the
// transaction log.
func (l *Ledger) Reconcile() error {
	l.mu.Lock()
	balance := l.state.Balance
	calculated := SumSigned(l.state.Transactions)
	l.mu.Unlock()

	if !balance.Equal(calculated) {
		zap.L().Warn("Balance mismatch detected",
			zap.String("balance", balance.String()),
			zap.String("calculated", calculated.String()))
		return fmt.Errorf("%w: balance=%s, calculated=%s", ErrBalanceMismatch, balance, calculated)
	}

	zap.L().Debug("Balance reconciled", zap.String("balance", balance.String()))
	return nil
}

func SumSigned(txs []models.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		total = total.Add(tx.SignedAmount())
	}
	return total
}
