/**
 * Copyright 2025-present Paylance, Inc.
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

// Config holds all application configuration
type Config struct {
	Database   DatabaseConfig
	Server     ServerConfig
	Custody    CustodyConfig
	Settlement SettlementConfig
	Formance   FormanceConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
	SeedDemoUsers   bool
}

// ServerConfig holds HTTP server settings for the webhook surface
type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// CustodyConfig holds custody provider API settings.
// The provider signs webhooks with the same API key used for REST calls,
// so APIKey doubles as the webhook HMAC secret.
type CustodyConfig struct {
	BaseURL        string
	APIKey         string
	MasterWalletID string
	RequestTimeout time.Duration
}

// SettlementConfig holds settlement engine settings
type SettlementConfig struct {
	FeeRate     decimal.Decimal
	AliasesFile string
	CatalogTTL  time.Duration
}

// FormanceConfig holds Formance Stack ledger mirror settings.
// The mirror is disabled when StackURL is empty.
type FormanceConfig struct {
	StackURL     string
	ClientID     string
	ClientSecret string
	LedgerName   string
}
