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

package leases

import (
	"fmt"
	"strings"
	"time"

	"lease-mining-go/internal/models"
)

const Expired = "expired"

func ExpiresAt(server models.LeasedServer, duration time.Duration) time.Time {
	return server.LeaseStart.Add(duration)
}

// IsActive is true strictly before expiry.
func IsActive(server models.LeasedServer, now time.Time, duration time.Duration) bool {
	return now.Before(ExpiresAt(server, duration))
}

func Remaining(server models.LeasedServer, now time.Time, duration time.Duration) time.Duration {
	left := ExpiresAt(server, duration).Sub(now)
	if left < 0 {
		return 0
	}
	return left
}

// FormatRemaining renders the time left as "12d 3h 4m", dropping leading
// zero units, or Expired at or after expiry.
func FormatRemaining(server models.LeasedServer, now time.Time, duration time.Duration) string {
	if !IsActive(server, now, duration) {
		return Expired
	}

	left := Remaining(server, now, duration)
	days := int(left / (24 * time.Hour))
	hours := int(left % (24 * time.Hour) / time.Hour)
	minutes := int(left % time.Hour / time.Minute)

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if days > 0 || hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	parts = append(parts, fmt.Sprintf("%dm", minutes))
	return strings.Join(parts, " ")
}

// Active filters servers down to the ones still earning at now.
func Active(servers []models.LeasedServer, now time.Time, duration time.Duration) []models.LeasedServer {
	var active []models.LeasedServer
	for _, server := range servers {
		if IsActive(server, now, duration) {
			active = append(active, server)
		}
	}
	return active
}
