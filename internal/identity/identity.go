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

// Package identity resolves the current user from the host messaging
// platform. The ledger never depends on who the user is; a nil user is
// the anonymous session.
package identity

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"lease-mining-go/internal/models"
)

const EnvProduction = "production"

var (
	ErrNoInitData   = errors.New("no init data")
	ErrNoUser       = errors.New("init data has no user")
	ErrMalformed    = errors.New("malformed init data")
	ErrMissingHash  = errors.New("init data is not signed")
	ErrBadSignature = errors.New("init data signature mismatch")
)

type Provider interface {
	// User returns the current user or nil for an anonymous session.
	User() *models.User
}

// DevUser stands in for a real user outside production.
func DevUser() *models.User {
	return &models.User{
		Id:        123456789,
		FirstName: "Test",
		LastName:  "User",
		Username:  "test_user",
	}
}

type StaticProvider struct {
	user *models.User
}

func NewStaticProvider(user *models.User) *StaticProvider {
	return &StaticProvider{user: user}
}

func Anonymous() *StaticProvider {
	return &StaticProvider{}
}

func (p *StaticProvider) User() *models.User {
	return p.user
}

// InitDataProvider reads a Telegram WebApp initData string.
type InitDataProvider struct {
	initData    string
	botToken    string
	devFallback bool
}

func NewInitDataProvider(cfg models.IdentityConfig) *InitDataProvider {
	return &InitDataProvider{
		initData:    cfg.InitData,
		botToken:    cfg.BotToken,
		devFallback: cfg.Environment != EnvProduction,
	}
}

func (p *InitDataProvider) User() *models.User {
	user, err := ParseInitData(p.initData, p.botToken)
	if err == nil {
		zap.L().Info("Resolved user from init data",
			zap.Int64("user_id", user.Id),
			zap.String("username", user.Username))
		return user
	}

	if p.devFallback {
		zap.L().Warn("Using development user", zap.Error(err))
		return DevUser()
	}

	zap.L().Warn("No authenticated user, continuing anonymously", zap.Error(err))
	return nil
}

// ParseInitData extracts the user from initData. With a non-empty
// botToken the hash field must match.
func ParseInitData(initData, botToken string) (*models.User, error) {
	if initData == "" {
		return nil, ErrNoInitData
	}

	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	if botToken != "" {
		if err := Verify(values, botToken); err != nil {
			return nil, err
		}
	}

	raw := values.Get("user")
	if raw == "" {
		return nil, ErrNoUser
	}
	if !gjson.Valid(raw) {
		return nil, fmt.Errorf("%w: user is not valid JSON", ErrMalformed)
	}

	parsed := gjson.Parse(raw)
	id := parsed.Get("id")
	if !id.Exists() || id.Int() == 0 {
		return nil, fmt.Errorf("%w: user has no id", ErrMalformed)
	}

	return &models.User{
		Id:        id.Int(),
		FirstName: parsed.Get("first_name").String(),
		LastName:  parsed.Get("last_name").String(),
		Username:  parsed.Get("username").String(),
		PhotoUrl:  parsed.Get("photo_url").String(),
	}, nil
}

// Verify checks the WebApp signature: HMAC-SHA256 over the sorted
// key=value lines, keyed by HMAC-SHA256("WebAppData", botToken).
func Verify(values url.Values, botToken string) error {
	hash := values.Get("hash")
	if hash == "" {
		return ErrMissingHash
	}

	expected := Sign(values, botToken)
	if !hmac.Equal([]byte(strings.ToLower(hash)), []byte(expected)) {
		return ErrBadSignature
	}
	return nil
}

// Sign returns the hex signature for values, ignoring any hash field.
func Sign(values url.Values, botToken string) string {
	keys := make([]string, 0, len(values))
	for key := range values {
		if key != "hash" {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, key := range keys {
		lines = append(lines, key+"="+values.Get(key))
	}

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))

	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(strings.Join(lines, "\n")))
	return hex.EncodeToString(mac.Sum(nil))
}
