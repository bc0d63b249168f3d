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

// Package leases executes server rentals against the ledger and derives
// lease status from lease timestamps.
package leases

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"lease-mining-go/internal/ledger"
	"lease-mining-go/internal/metrics"
	"lease-mining-go/internal/models"
)

const DefaultDuration = 30 * 24 * time.Hour

type RentParams struct {
	OfferingId   string
	Name         string
	Description  string
	Price        decimal.Decimal
	StarsPrice   int
	HourlyIncome decimal.Decimal
	ImageUrl     string
}

func ParamsFromOffering(o models.Offering) RentParams {
	return RentParams{
		OfferingId:   o.Id,
		Name:         o.Name,
		Description:  o.Description,
		Price:        o.Price,
		StarsPrice:   o.StarsPrice,
		HourlyIncome: o.HourlyIncome,
		ImageUrl:     o.ImageUrl,
	}
}

type Manager struct {
	ledger   *ledger.Ledger
	duration time.Duration
	now      func() time.Time
	metrics  *metrics.Collector

	mu        sync.Mutex
	lastStamp int64
}

type Option func(*Manager)

func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

func WithDuration(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.duration = d
		}
	}
}

func WithMetrics(c *metrics.Collector) Option {
	return func(m *Manager) {
		m.metrics = c
	}
}

func NewManager(l *ledger.Ledger, opts ...Option) *Manager {
	m := &Manager{
		ledger:   l,
		duration: DefaultDuration,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Duration() time.Duration {
	return m.duration
}

// Rent debits the price, records the lease and its RENT transaction in a
// single ledger commit. Nothing changes when the balance is short.
func (m *Manager) Rent(ctx context.Context, p RentParams) (models.LeasedServer, error) {
	if p.OfferingId == "" {
		return models.LeasedServer{}, fmt.Errorf("offering id cannot be empty")
	}
	if !p.Price.IsPositive() {
		return models.LeasedServer{}, fmt.Errorf("%w: price must be positive: %s", ledger.ErrInvalidAmount, p.Price)
	}

	var leased models.LeasedServer
	err := m.ledger.Update(ctx, func(s models.State) ([]ledger.Command, error) {
		if s.Balance.LessThan(p.Price) {
			return nil, fmt.Errorf("%w: balance %s, price %s", ledger.ErrInsufficientFunds, s.Balance, p.Price)
		}

		start := m.stamp()
		id := leaseId(p.OfferingId, start)
		for s.FindLeasedServer(id) >= 0 {
			start = m.stamp()
			id = leaseId(p.OfferingId, start)
		}

		leased = models.LeasedServer{
			Id:           id,
			Name:         p.Name,
			Description:  p.Description,
			Price:        p.Price,
			StarsPrice:   p.StarsPrice,
			HourlyIncome: p.HourlyIncome,
			ImageUrl:     p.ImageUrl,
			LeaseStart:   start,
			LastIncome:   start,
		}
		tx := models.Transaction{
			Id:          ledger.NewTransactionId(),
			Type:        models.TransactionTypeRent,
			Amount:      p.Price,
			Description: "Server rental " + p.Name,
			Timestamp:   start,
			ServerId:    id,
			ServerName:  p.Name,
		}

		return []ledger.Command{
			ledger.SetBalance{Amount: s.Balance.Sub(p.Price)},
			ledger.AddLeasedServer{Server: leased},
			ledger.AppendTransaction{Transaction: tx},
		}, nil
	})
	if err != nil {
		m.metrics.RecordRentalRejected(rejectReason(err))
		zap.L().Warn("Server rental rejected",
			zap.String("offering_id", p.OfferingId),
			zap.String("price", p.Price.String()),
			zap.Error(err))
		return models.LeasedServer{}, err
	}

	m.metrics.RecordRental(p.Price)
	zap.L().Info("Server rented",
		zap.String("lease_id", leased.Id),
		zap.String("name", leased.Name),
		zap.String("price", leased.Price.String()),
		zap.String("hourly_income", leased.HourlyIncome.String()))
	return leased, nil
}

// RentServer reports only whether the rental went through.
func (m *Manager) RentServer(ctx context.Context, offeringId, name string, price, hourlyIncome decimal.Decimal) bool {
	_, err := m.Rent(ctx, RentParams{
		OfferingId:   offeringId,
		Name:         name,
		Price:        price,
		HourlyIncome: hourlyIncome,
	})
	return err == nil
}

// stamp returns the current time truncated to milliseconds, strictly after
// every stamp handed out before.
func (m *Manager) stamp() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()

	ms := m.now().UnixMilli()
	if ms <= m.lastStamp {
		ms = m.lastStamp + 1
	}
	m.lastStamp = ms
	return time.UnixMilli(ms).UTC()
}

func leaseId(offeringId string, start time.Time) string {
	return fmt.Sprintf("%s_%d", offeringId, start.UnixMilli())
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ledger.ErrStorageFailure):
		return "storage"
	case errors.Is(err, ledger.ErrInvalidAmount):
		return "invalid_amount"
	default:
		return "other"
	}
}

func (m *Manager) IsActive(server models.LeasedServer, now time.Time) bool {
	return IsActive(server, now, m.duration)
}

func (m *Manager) Remaining(server models.LeasedServer, now time.Time) string {
	return FormatRemaining(server, now, m.duration)
}
