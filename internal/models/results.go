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

// RentResult is the outcome of a rental request
type RentResult struct {
	Success    bool
	Error      string
	Lease      *LeasedServer
	NewBalance decimal.Decimal
}

// LeaseView is a leased server with its derived status
type LeaseView struct {
	Server    LeasedServer
	Active    bool
	ExpiresAt time.Time
	Remaining string
}

type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
	NoticeInfo    NoticeLevel = "info"
)

// Notice is a transient user-facing message
type Notice struct {
	Level     NoticeLevel
	Message   string
	CreatedAt time.Time
	ExpiresAt time.Time
}
