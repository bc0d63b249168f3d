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
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"lease-mining-go/internal/accrual"
	"lease-mining-go/internal/catalog"
	"lease-mining-go/internal/leases"
	"lease-mining-go/internal/ledger"
	"lease-mining-go/internal/models"
	"lease-mining-go/internal/store"
)

// LedgerService is the session handle handed to every surface that reads
// or changes the account.
type LedgerService struct {
	kv      store.KVStore
	ledger  *ledger.Ledger
	leases  *leases.Manager
	engine  *accrual.Engine
	catalog *catalog.Catalog
	user    *models.User
	notices *noticeBoard
	now     func() time.Time
}

type Dependencies struct {
	Store     store.KVStore
	Ledger    *ledger.Ledger
	Leases    *leases.Manager
	Engine    *accrual.Engine
	Catalog   *catalog.Catalog
	User      *models.User
	NoticeTTL time.Duration
	Clock     func() time.Time
}

func NewLedgerService(deps Dependencies) *LedgerService {
	now := deps.Clock
	if now == nil {
		now = time.Now
	}
	cat := deps.Catalog
	if cat == nil {
		cat = catalog.Default()
	}
	return &LedgerService{
		kv:      deps.Store,
		ledger:  deps.Ledger,
		leases:  deps.Leases,
		engine:  deps.Engine,
		catalog: cat,
		user:    deps.User,
		notices: newNoticeBoard(deps.NoticeTTL),
		now:     now,
	}
}

func (s *LedgerService) HealthCheck(ctx context.Context) error {
	if _, _, err := s.kv.Get(ctx, store.KeyBalance); err != nil {
		return fmt.Errorf("store health check failed: %w", err)
	}

	if v, ok := s.kv.(store.Versioner); ok {
		version, err := v.Version(ctx, store.KeyBalance)
		if err != nil {
			return fmt.Errorf("store health check failed: %w", err)
		}
		zap.L().Info("Store healthy", zap.Int64("balance_version", version))
	}
	return nil
}

func (s *LedgerService) Snapshot() models.State {
	return s.ledger.Snapshot()
}

// User is nil for an anonymous session.
func (s *LedgerService) User() *models.User {
	return s.user
}

func (s *LedgerService) Catalog() []models.Offering {
	return s.catalog.All()
}

func (s *LedgerService) MiningState() accrual.State {
	return s.engine.State()
}
