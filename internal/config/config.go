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

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"lease-mining-go/internal/models"

	"github.com/go-playground/validator/v10"
)

func Load() (*models.Config, error) {
	tickInterval, err := getEnvDuration("MINING_TICK_INTERVAL", 5*time.Second)
	if err != nil {
		return nil, err
	}

	leaseDuration, err := getEnvDuration("LEASE_DURATION", 30*24*time.Hour)
	if err != nil {
		return nil, err
	}

	noticeTTL, err := getEnvDuration("NOTICE_TTL", 3*time.Second)
	if err != nil {
		return nil, err
	}

	connMaxLifetime, err := getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	connMaxIdleTime, err := getEnvDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Second)
	if err != nil {
		return nil, err
	}

	pingTimeout, err := getEnvDuration("DB_PING_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &models.Config{
		Store: models.StoreConfig{
			Backend: getEnvString("STORE_BACKEND", "sqlite"),
		},
		Database: models.DatabaseConfig{
			Path:            getEnvString("DATABASE_PATH", "miner.db"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 1),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 1),
			ConnMaxLifetime: connMaxLifetime,
			ConnMaxIdleTime: connMaxIdleTime,
			PingTimeout:     pingTimeout,
		},
		Redis: models.RedisConfig{
			Addr:      getEnvString("REDIS_ADDR", "localhost:6379"),
			Password:  getEnvString("REDIS_PASSWORD", ""),
			DB:        getEnvInt("REDIS_DB", 0),
			KeyPrefix: getEnvString("REDIS_KEY_PREFIX", "miner:"),
		},
		Mining: models.MiningConfig{
			TickInterval:  tickInterval,
			LeaseDuration: leaseDuration,
			AutoResume:    getEnvBool("MINING_AUTO_RESUME", true),
			ReconcileCron: getEnvString("RECONCILE_CRON", "0 */5 * * * *"),
			NoticeTTL:     noticeTTL,
		},
		Catalog: models.CatalogConfig{
			File: getEnvString("CATALOG_FILE", ""),
		},
		Identity: models.IdentityConfig{
			InitData:    getEnvString("TELEGRAM_INIT_DATA", ""),
			BotToken:    getEnvString("TELEGRAM_BOT_TOKEN", ""),
			Environment: getEnvString("APP_ENV", "development"),
		},
		Metrics: models.MetricsConfig{
			Addr: getEnvString("METRICS_ADDR", ""),
		},
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the struct tags on the configuration.
func Validate(cfg *models.Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
