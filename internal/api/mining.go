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
	"errors"
	"fmt"

	"go.uber.org/zap"

	"lease-mining-go/internal/accrual"
	"lease-mining-go/internal/models"
)

// StartMining starts accrual. ctx bounds the lifetime of the tick loop.
func (s *LedgerService) StartMining(ctx context.Context) bool {
	err := s.engine.Start(ctx)
	switch {
	case errors.Is(err, accrual.ErrNoLeasedServers):
		s.notices.post(models.NoticeError, "Rent a server first to start mining", s.now())
		return false
	case err != nil:
		zap.L().Error("Failed to start mining", zap.Error(err))
		s.notices.post(models.NoticeError, "Could not start mining, please try again", s.now())
		return false
	}

	s.notices.post(models.NoticeSuccess, "Mining started", s.now())
	return true
}

func (s *LedgerService) StopMining(ctx context.Context) bool {
	if err := s.engine.Stop(ctx); err != nil {
		zap.L().Error("Failed to persist stopped mining state", zap.Error(err))
		s.notices.post(models.NoticeError, "Mining paused but could not be saved", s.now())
		return false
	}

	s.notices.post(models.NoticeInfo, "Mining paused", s.now())
	return true
}

// Resume restarts mining if the loaded session was mining. No income is
// credited for the time the session was closed.
func (s *LedgerService) Resume(ctx context.Context) (bool, error) {
	resumed, err := s.engine.Resume(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to resume mining: %w", err)
	}
	if resumed {
		zap.L().Info("Resumed mining from saved state")
	}
	return resumed, nil
}

// ResetState stops mining and restores the seed account.
func (s *LedgerService) ResetState(ctx context.Context) error {
	if err := s.engine.Stop(ctx); err != nil {
		zap.L().Warn("Failed to persist stopped mining state before reset", zap.Error(err))
	}
	s.engine.ClearPending()

	if err := s.ledger.Reset(ctx); err != nil {
		s.notices.post(models.NoticeError, "Could not reset the account, please try again", s.now())
		return fmt.Errorf("failed to reset state: %w", err)
	}

	s.notices.post(models.NoticeInfo, "Account reset", s.now())
	return nil
}
