package models

import "time"

// Config represents the application configuration
type Config struct {
	Store    StoreConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Mining   MiningConfig
	Catalog  CatalogConfig
	Identity IdentityConfig
	Metrics  MetricsConfig
}

// StoreConfig selects the durable key-value backend
type StoreConfig struct {
	Backend string `validate:"oneof=sqlite redis memory"`
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// RedisConfig holds redis connection settings
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int `validate:"gte=0"`
	KeyPrefix string
}

// MiningConfig holds accrual and lease settings
type MiningConfig struct {
	TickInterval  time.Duration `validate:"gt=0"`
	LeaseDuration time.Duration `validate:"gt=0"`
	AutoResume    bool
	ReconcileCron string        `validate:"required"`
	NoticeTTL     time.Duration `validate:"gte=0"`
}

// CatalogConfig points at an optional YAML catalog override
type CatalogConfig struct {
	File string
}

// IdentityConfig holds the host platform identity inputs
type IdentityConfig struct {
	InitData    string
	BotToken    string
	Environment string `validate:"oneof=development production test"`
}

// MetricsConfig controls the optional Prometheus endpoint
type MetricsConfig struct {
	Addr string
}
