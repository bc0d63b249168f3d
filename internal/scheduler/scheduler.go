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

package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"lease-mining-go/internal/leases"
	"lease-mining-go/internal/ledger"
	"lease-mining-go/internal/metrics"
)

// Scheduler runs periodic housekeeping over the ledger.
type Scheduler struct {
	cron          *cron.Cron
	ledger        *ledger.Ledger
	leaseDuration time.Duration
	metrics       *metrics.Collector
	now           func() time.Time

	mu      sync.Mutex
	expired map[string]bool
}

// Report is the outcome of one housekeeping pass.
type Report struct {
	ReconcileErr error
	Active       int
	NewlyExpired []string
}

func NewScheduler(l *ledger.Ledger, leaseDuration time.Duration, m *metrics.Collector) *Scheduler {
	return &Scheduler{
		cron:          cron.New(cron.WithSeconds()),
		ledger:        l,
		leaseDuration: leaseDuration,
		metrics:       m,
		now:           time.Now,
		expired:       make(map[string]bool),
	}
}

// Register schedules housekeeping with a six-field cron spec.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.cron.AddFunc(spec, func() { s.Housekeep() }); err != nil {
		return fmt.Errorf("register housekeeping task: %w", err)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	zap.L().Info("Scheduler started", zap.Int("jobs", len(s.cron.Entries())))
}

// Stop waits for a running job to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
	zap.L().Info("Scheduler stopped")
}

// Housekeep reconciles the balance, logs leases that expired since the last
// pass and refreshes the gauges.
func (s *Scheduler) Housekeep() Report {
	var report Report

	report.ReconcileErr = s.ledger.Reconcile()
	s.metrics.RecordReconcile(report.ReconcileErr)
	if report.ReconcileErr != nil {
		zap.L().Error("Reconciliation failed", zap.Error(report.ReconcileErr))
	}

	snapshot := s.ledger.Snapshot()
	now := s.now()

	s.mu.Lock()
	for _, server := range snapshot.LeasedServers {
		if leases.IsActive(server, now, s.leaseDuration) {
			report.Active++
			continue
		}
		if !s.expired[server.Id] {
			s.expired[server.Id] = true
			report.NewlyExpired = append(report.NewlyExpired, server.Id)
			zap.L().Info("Lease expired",
				zap.String("lease_id", server.Id),
				zap.String("name", server.Name),
				zap.Time("expired_at", leases.ExpiresAt(server, s.leaseDuration)))
		}
	}
	s.mu.Unlock()

	s.metrics.SetActiveLeases(report.Active)
	s.metrics.SetBalance(snapshot.Balance)

	zap.L().Debug("Housekeeping complete",
		zap.Int("active_leases", report.Active),
		zap.Int("newly_expired", len(report.NewlyExpired)))
	return report
}
