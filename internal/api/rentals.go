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

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"lease-mining-go/internal/leases"
	"lease-mining-go/internal/ledger"
	"lease-mining-go/internal/models"
)

// RentOffering rents one server of a catalog offering at catalog terms.
func (s *LedgerService) RentOffering(ctx context.Context, offeringId string) *models.RentResult {
	offering, err := s.catalog.Lookup(offeringId)
	if err != nil {
		zap.L().Warn("Rental requested for unknown offering", zap.String("offering_id", offeringId))
		msg := fmt.Sprintf("Unknown server %q", offeringId)
		s.notices.post(models.NoticeError, msg, s.now())
		return &models.RentResult{
			Success:    false,
			Error:      msg,
			NewBalance: s.ledger.Balance(),
		}
	}
	return s.rent(ctx, leases.ParamsFromOffering(offering))
}

// RentServer rents at the given terms and reports whether it succeeded.
// Catalog details such as the description fill in when the offering is known.
func (s *LedgerService) RentServer(ctx context.Context, offeringId, name string, price, hourlyIncome decimal.Decimal) bool {
	params := leases.RentParams{OfferingId: offeringId}
	if offering, err := s.catalog.Lookup(offeringId); err == nil {
		params = leases.ParamsFromOffering(offering)
	}
	params.Name = name
	params.Price = price
	params.HourlyIncome = hourlyIncome

	return s.rent(ctx, params).Success
}

func (s *LedgerService) rent(ctx context.Context, params leases.RentParams) *models.RentResult {
	server, err := s.leases.Rent(ctx, params)
	if err != nil {
		msg := rentFailureMessage(err)
		s.notices.post(models.NoticeError, msg, s.now())
		return &models.RentResult{
			Success:    false,
			Error:      msg,
			NewBalance: s.ledger.Balance(),
		}
	}

	s.notices.post(models.NoticeSuccess, fmt.Sprintf("Server %s rented", server.Name), s.now())
	return &models.RentResult{
		Success:    true,
		Lease:      &server,
		NewBalance: s.ledger.Balance(),
	}
}

func rentFailureMessage(err error) string {
	switch {
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return "Insufficient funds to rent this server"
	case errors.Is(err, ledger.ErrStorageFailure):
		return "Could not save the rental, please try again"
	case errors.Is(err, ledger.ErrInvalidAmount):
		return "Invalid server price"
	default:
		return err.Error()
	}
}
