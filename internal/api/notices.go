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
	"sync"
	"time"

	"lease-mining-go/internal/models"
)

const defaultNoticeTTL = 3 * time.Second

type noticeBoard struct {
	mu      sync.Mutex
	ttl     time.Duration
	notices []models.Notice
}

func newNoticeBoard(ttl time.Duration) *noticeBoard {
	if ttl <= 0 {
		ttl = defaultNoticeTTL
	}
	return &noticeBoard{ttl: ttl}
}

func (b *noticeBoard) post(level models.NoticeLevel, message string, now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notices = append(b.notices, models.Notice{
		Level:     level,
		Message:   message,
		CreatedAt: now,
		ExpiresAt: now.Add(b.ttl),
	})
}

// active drops expired notices and returns the rest, oldest first.
func (b *noticeBoard) active(now time.Time) []models.Notice {
	b.mu.Lock()
	defer b.mu.Unlock()

	kept := b.notices[:0]
	for _, n := range b.notices {
		if now.Before(n.ExpiresAt) {
			kept = append(kept, n)
		}
	}
	b.notices = kept
	return append([]models.Notice(nil), kept...)
}

// Notices returns the user-facing messages that have not yet been dismissed.
func (s *LedgerService) Notices(now time.Time) []models.Notice {
	return s.notices.active(now)
}
