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

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"

	"go.uber.org/zap"

	"paylance-go/internal/common"
	"paylance-go/internal/config"
	"paylance-go/internal/models"
)

// Bootstraps the local database: creates a user with a payout wallet,
// a client, a draft invoice, and the custody address mapping the
// webhook pipeline resolves deposits through.
func main() {
	name := flag.String("name", "Demo Freelancer", "User display name")
	email := flag.String("email", "demo@example.com", "User email (unique)")
	evmWallet := flag.String("evm-wallet", "", "EVM payout wallet address")
	solWallet := flag.String("solana-wallet", "", "Solana payout wallet address")
	addressId := flag.String("address-id", "", "Custody deposit address id to map to this user")
	walletId := flag.String("wallet-id", "", "Custody wallet id backing the deposit address")
	chain := flag.String("chain", "ethereum", "Chain of the deposit address")
	invoiceAmount := flag.String("invoice", "100", "Amount for the seeded draft invoice")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		_, _ = zap.NewProduction()
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	ctx := context.Background()

	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	user, err := dbService.CreateUser(ctx, *name, *email, *evmWallet, *solWallet)
	if err != nil {
		zap.L().Fatal("Failed to create user", zap.Error(err))
	}
	zap.L().Info("User created",
		zap.String("user_id", user.Id),
		zap.String("email", user.Email))

	clientId, err := dbService.CreateClient(ctx, user.Id, "Demo Client", "client@example.com")
	if err != nil {
		zap.L().Fatal("Failed to create client", zap.Error(err))
	}
	zap.L().Info("Client created", zap.String("client_id", clientId))

	content, _ := json.Marshal(map[string]string{
		"amount":   *invoiceAmount,
		"currency": "USDC",
	})
	docId, err := dbService.CreateDocument(ctx, user.Id, clientId,
		models.DocumentTypeInvoice, models.DocumentStatusSent, string(content))
	if err != nil {
		zap.L().Fatal("Failed to create document", zap.Error(err))
	}
	zap.L().Info("Invoice created", zap.String("document_id", docId))

	if *addressId != "" {
		if err := dbService.StoreAddress(ctx, *addressId, user.Id, "", *walletId, *chain); err != nil {
			zap.L().Fatal("Failed to map custody address", zap.Error(err))
		}
		zap.L().Info("Custody address mapped",
			zap.String("address_id", *addressId),
			zap.String("user_id", user.Id))
	}

	fmt.Printf("\nSetup complete.\n  user_id:     %s\n  client_id:   %s\n  document_id: %s\n", user.Id, clientId, docId)
	if *addressId != "" {
		fmt.Printf("  address_id:  %s\n", *addressId)
	}
}
