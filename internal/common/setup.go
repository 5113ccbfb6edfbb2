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

package common

import (
	"context"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"paylance-go/internal/custody"
	"paylance-go/internal/database"
	"paylance-go/internal/formance"
	"paylance-go/internal/models"
	"paylance-go/internal/settlement"
)

// init loads environment variables from .env file if it exists
func init() {
	if err := godotenv.Load(); err != nil {
		// .env is optional; variables can come from the environment directly
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
	}
}

type Services struct {
	DbService      *database.Service
	CustodyService *custody.Service
	Engine         *settlement.Engine
	Reconciler     *settlement.Reconciler
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	custodyService, err := custody.NewService(cfg.Custody)
	if err != nil {
		dbService.Close()
		return nil, err
	}

	var mirror settlement.Mirror
	if cfg.Formance.StackURL != "" {
		formanceService, err := formance.NewService(ctx, cfg.Formance)
		if err != nil {
			dbService.Close()
			return nil, err
		}
		mirror = formanceService
	}

	aliases, err := settlement.LoadAliases(cfg.Settlement.AliasesFile)
	if err != nil {
		dbService.Close()
		return nil, err
	}

	notifier := settlement.NewNotifier(dbService, nil)

	engine, err := settlement.NewEngine(settlement.EngineConfig{
		Store:          dbService,
		Provider:       custodyService,
		Notifier:       notifier,
		Mirror:         mirror,
		Aliases:        aliases,
		Cache:          settlement.NewCatalogCache(cfg.Settlement.CatalogTTL),
		FeeRate:        &cfg.Settlement.FeeRate,
		MasterWalletId: cfg.Custody.MasterWalletID,
	})
	if err != nil {
		dbService.Close()
		return nil, err
	}

	return &Services{
		DbService:      dbService,
		CustodyService: custodyService,
		Engine:         engine,
		Reconciler:     settlement.NewReconciler(dbService, notifier, mirror),
	}, nil
}

// InitializeDatabaseOnly initializes just the database service.
// Useful for read-only operations like querying balances.
func InitializeDatabaseOnly(ctx context.Context, cfg *models.Config) (*database.Service, error) {
	return database.NewService(ctx, cfg.Database)
}

func (cs *Services) Close() {
	if cs.DbService != nil {
		cs.DbService.Close()
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
