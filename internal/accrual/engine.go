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

// Package accrual credits periodic income for active leases while mining
// is running.
package accrual

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"lease-mining-go/internal/leases"
	"lease-mining-go/internal/ledger"
	"lease-mining-go/internal/metrics"
	"lease-mining-go/internal/models"
)

const DefaultInterval = 5 * time.Second

var ErrNoLeasedServers = errors.New("no leased servers")

type State int

const (
	Stopped State = iota
	Running
)

func (s State) String() string {
	switch s {
	case Running:
		return "RUNNING"
	default:
		return "STOPPED"
	}
}

var secondsPerHour = decimal.NewFromInt(3600)

// Income is the amount one tick of length interval earns at hourlyIncome.
func Income(hourlyIncome decimal.Decimal, interval time.Duration) decimal.Decimal {
	seconds := decimal.New(interval.Milliseconds(), -3)
	return hourlyIncome.Mul(seconds).Div(secondsPerHour)
}

type Engine struct {
	ledger        *ledger.Ledger
	interval      time.Duration
	leaseDuration time.Duration
	now           func() time.Time
	metrics       *metrics.Collector

	mu       sync.Mutex
	state    State
	stopChan chan struct{}
	doneChan chan struct{}

	// tickMu serializes ticks and guards pending.
	tickMu  sync.Mutex
	pending map[string]decimal.Decimal
}

type Option func(*Engine)

func WithInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.interval = d
		}
	}
}

func WithLeaseDuration(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.leaseDuration = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

func WithMetrics(c *metrics.Collector) Option {
	return func(e *Engine) {
		e.metrics = c
	}
}

func NewEngine(l *ledger.Ledger, opts ...Option) *Engine {
	e := &Engine{
		ledger:        l,
		interval:      DefaultInterval,
		leaseDuration: leases.DefaultDuration,
		now:           time.Now,
		pending:       make(map[string]decimal.Decimal),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Interval() time.Duration {
	return e.interval
}

// State reports RUNNING only while the tick loop is alive. A loop ended by
// context cancellation reads as STOPPED but leaves the persisted mining
// flag set so the next session resumes.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.runningLocked() {
		return Running
	}
	return Stopped
}

// runningLocked reports whether the tick loop is live, moving to STOPPED if
// it exited on its own.
func (e *Engine) runningLocked() bool {
	if e.state == Running {
		select {
		case <-e.doneChan:
			e.state = Stopped
			e.metrics.SetEngineRunning(false)
		default:
		}
	}
	return e.state == Running
}

func (e *Engine) Running() bool {
	return e.State() == Running
}

// Start moves STOPPED to RUNNING. It needs at least one leased server and
// persists the mining flag before the first tick is scheduled.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.runningLocked() {
		return nil
	}

	if len(e.ledger.Snapshot().LeasedServers) == 0 {
		zap.L().Warn("Cannot start mining without leased servers")
		return ErrNoLeasedServers
	}

	if err := e.ledger.SetMining(ctx, true); err != nil {
		return fmt.Errorf("failed to persist mining flag: %w", err)
	}

	e.stopChan = make(chan struct{})
	e.doneChan = make(chan struct{})
	e.state = Running
	e.metrics.SetEngineRunning(true)

	go e.tickLoop(ctx, e.stopChan, e.doneChan)

	zap.L().Info("Mining started", zap.Duration("tick_interval", e.interval))
	return nil
}

// Stop cancels the tick schedule and waits for the loop to exit, so no
// tick is applied after Stop returns.
func (e *Engine) Stop(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == Running {
		close(e.stopChan)
		<-e.doneChan
		e.state = Stopped
		e.metrics.SetEngineRunning(false)
		zap.L().Info("Mining stopped")
	}

	if err := e.ledger.SetMining(ctx, false); err != nil {
		return fmt.Errorf("failed to persist mining flag: %w", err)
	}
	return nil
}

// Wait blocks until the tick loop started last has exited.
func (e *Engine) Wait() {
	e.mu.Lock()
	done := e.doneChan
	e.mu.Unlock()

	if done != nil {
		<-done
	}
}

// Resume restarts mining when the loaded state says it was running. Only
// future ticks are credited.
func (e *Engine) Resume(ctx context.Context) (bool, error) {
	s := e.ledger.Snapshot()
	if !s.Mining {
		return false, nil
	}

	if len(s.LeasedServers) == 0 {
		zap.L().Info("Clearing stale mining flag, no leased servers")
		return false, e.ledger.SetMining(ctx, false)
	}

	if err := e.Start(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// ClearPending drops deferred credits. Used after a reset.
func (e *Engine) ClearPending() {
	e.tickMu.Lock()
	defer e.tickMu.Unlock()
	e.pending = make(map[string]decimal.Decimal)
}

func (e *Engine) Pending() map[string]decimal.Decimal {
	e.tickMu.Lock()
	defer e.tickMu.Unlock()

	out := make(map[string]decimal.Decimal, len(e.pending))
	for id, amount := range e.pending {
		out[id] = amount
	}
	return out
}

func (e *Engine) tickLoop(ctx context.Context, stop, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			select {
			case <-stop:
				return
			default:
			}
			if _, err := e.Tick(ctx, e.now()); err != nil {
				zap.L().Warn("Accrual tick incomplete, failed credits deferred", zap.Error(err))
			}
		case <-stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Tick credits every active lease for one interval, one ledger commit and
// one INCOME transaction per lease. Credits that fail to commit are kept
// and added to the same lease's next credit.
func (e *Engine) Tick(ctx context.Context, now time.Time) (int, error) {
	e.tickMu.Lock()
	defer e.tickMu.Unlock()

	started := time.Now()
	defer func() { e.metrics.RecordTick(time.Since(started)) }()

	servers := e.ledger.Snapshot().LeasedServers
	e.dropOrphanedPending(servers)

	credited := 0
	var errs []error
	for _, server := range servers {
		amount := decimal.Zero
		if leases.IsActive(server, now, e.leaseDuration) {
			amount = Income(server.HourlyIncome, e.interval)
		}
		if owed, ok := e.pending[server.Id]; ok {
			amount = amount.Add(owed)
		}
		if !amount.IsPositive() {
			continue
		}

		if err := e.credit(ctx, server.Id, amount, now); err != nil {
			e.pending[server.Id] = amount
			e.metrics.RecordCreditFailure()
			zap.L().Error("Failed to credit income",
				zap.String("lease_id", server.Id),
				zap.String("amount", amount.String()),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("lease %s: %w", server.Id, err))
			continue
		}

		delete(e.pending, server.Id)
		credited++
		e.metrics.RecordCredit(amount)
		zap.L().Debug("Income credited",
			zap.String("lease_id", server.Id),
			zap.String("amount", amount.String()))
	}

	e.metrics.SetBalance(e.ledger.Balance())
	return credited, errors.Join(errs...)
}

func (e *Engine) credit(ctx context.Context, leaseId string, amount decimal.Decimal, now time.Time) error {
	return e.ledger.Update(ctx, func(s models.State) ([]ledger.Command, error) {
		i := s.FindLeasedServer(leaseId)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ledger.ErrNotFound, leaseId)
		}

		server := s.LeasedServers[i]
		server.LastIncome = time.UnixMilli(now.UnixMilli()).UTC()

		tx := models.Transaction{
			Id:          ledger.NewTransactionId(),
			Type:        models.TransactionTypeIncome,
			Amount:      amount,
			Description: `Income from server "` + server.Name + `"`,
			Timestamp:   now.UTC(),
			ServerId:    server.Id,
			ServerName:  server.Name,
		}

		return []ledger.Command{
			ledger.SetBalance{Amount: s.Balance.Add(amount)},
			ledger.UpdateLeasedServer{Server: server},
			ledger.AppendTransaction{Transaction: tx},
		}, nil
	})
}

func (e *Engine) dropOrphanedPending(servers []models.LeasedServer) {
	if len(e.pending) == 0 {
		return
	}
	live := make(map[string]bool, len(servers))
	for _, server := range servers {
		live[server.Id] = true
	}
	for id := range e.pending {
		if !live[id] {
			delete(e.pending, id)
		}
	}
}
