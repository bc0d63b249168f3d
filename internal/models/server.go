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
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Offering is a catalog entry describing a leasable server
type Offering struct {
	Id           string
	Name         string
	Description  string
	Price        decimal.Decimal
	StarsPrice   int
	HourlyIncome decimal.Decimal
	ImageUrl     string
}

// LeasedServer is one rental of an offering. LeaseStart never changes after creation.
type LeasedServer struct {
	Id           string
	Name         string
	Description  string
	Price        decimal.Decimal
	StarsPrice   int
	HourlyIncome decimal.Decimal
	ImageUrl     string
	LeaseStart   time.Time
	LastIncome   time.Time
}

// Millis returns s with LeaseStart and LastIncome cut to the epoch-millisecond
// precision they are stored with.
func (s LeasedServer) Millis() LeasedServer {
	s.LeaseStart = time.UnixMilli(s.LeaseStart.UnixMilli()).UTC()
	s.LastIncome = time.UnixMilli(s.LastIncome.UnixMilli()).UTC()
	return s
}

// OfferingId recovers the catalog id from the lease id ("<offeringId>_<stamp>").
func (s LeasedServer) OfferingId() string {
	if i := strings.LastIndex(s.Id, "_"); i > 0 {
		return s.Id[:i]
	}
	return s.Id
}

// leasedServerJSON is the persisted form; timestamps are epoch milliseconds.
type leasedServerJSON struct {
	Id             string          `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Price          decimal.Decimal `json:"price"`
	StarsPrice     int             `json:"starsPrice"`
	HourlyIncome   decimal.Decimal `json:"hourlyIncome"`
	ImageUrl       string          `json:"imageUrl"`
	RentDate       int64           `json:"rentDate"`
	LastIncomeDate int64           `json:"lastIncomeDate"`
}

func (s LeasedServer) MarshalJSON() ([]byte, error) {
	return json.Marshal(leasedServerJSON{
		Id:             s.Id,
		Name:           s.Name,
		Description:    s.Description,
		Price:          s.Price,
		StarsPrice:     s.StarsPrice,
		HourlyIncome:   s.HourlyIncome,
		ImageUrl:       s.ImageUrl,
		RentDate:       s.LeaseStart.UnixMilli(),
		LastIncomeDate: s.LastIncome.UnixMilli(),
	})
}

func (s *LeasedServer) UnmarshalJSON(data []byte) error {
	var raw leasedServerJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	lastIncome := raw.LastIncomeDate
	if lastIncome == 0 {
		lastIncome = raw.RentDate
	}

	*s = LeasedServer{
		Id:           raw.Id,
		Name:         raw.Name,
		Description:  raw.Description,
		Price:        raw.Price,
		StarsPrice:   raw.StarsPrice,
		HourlyIncome: raw.HourlyIncome,
		ImageUrl:     raw.ImageUrl,
		LeaseStart:   time.UnixMilli(raw.RentDate).UTC(),
		LastIncome:   time.UnixMilli(lastIncome).UTC(),
	}
	return nil
}
