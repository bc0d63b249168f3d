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

package common

import (
	"lease-mining-go/internal/identity"
	"lease-mining-go/internal/models"

	"go.uber.org/zap"
)

// ResolveUser asks the host platform who is playing. nil means anonymous;
// the account works the same either way.
func ResolveUser(cfg models.IdentityConfig) *models.User {
	user := identity.NewInitDataProvider(cfg).User()
	if user == nil {
		zap.L().Info("Session is anonymous")
		return nil
	}

	zap.L().Info("Session user",
		zap.Int64("user_id", user.Id),
		zap.String("name", user.DisplayName()))
	return user
}
