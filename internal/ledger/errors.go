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

import "errors"

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrDuplicateID        = errors.New("leased server already exists")
	ErrNotFound           = errors.New("leased server not found")
	ErrLeaseStartChanged  = errors.New("lease start cannot change")
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrStorageFailure     = errors.New("storage failure")
	ErrBalanceMismatch    = errors.New("balance does not match transaction history")
)
