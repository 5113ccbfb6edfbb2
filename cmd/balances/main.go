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
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"paylance-go/internal/common"
	"paylance-go/internal/config"
	"paylance-go/internal/models"
)

func shortHash(hash string) string {
	if hash == "" {
		return "none"
	}
	if len(hash) > 12 {
		return hash[:12] + "..."
	}
	return hash
}

func printBalances(balances []models.AccountBalance) {
	fmt.Println("Balances:")
	if len(balances) == 0 {
		fmt.Println("  (none)")
		return
	}
	for _, b := range balances {
		fmt.Printf("  %-12s %-8s %20s (v%d, updated %s)\n",
			b.Chain, b.Asset, b.Balance.String(), b.Version,
			b.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
}

func printHistory(history []models.Transaction) {
	fmt.Println("\nTransactions:")
	if len(history) == 0 {
		fmt.Println("  (none)")
		return
	}
	for _, t := range history {
		fmt.Printf("  %-7s %-6s %12s %-6s %-10s tx=%s doc=%s\n",
			t.Purpose, t.Direction, t.NetAmount.String(), t.Token,
			t.Status, shortHash(t.TxHash), t.DocumentId)
	}
}

func main() {
	userId := flag.String("user", "", "User id to inspect (required)")
	limit := flag.Int("limit", 20, "Number of transactions to show")
	flag.Parse()

	if *userId == "" {
		fmt.Fprintln(os.Stderr, "usage: balances -user <user-id> [-limit N]")
		os.Exit(2)
	}

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

	user, err := dbService.GetUserById(ctx, *userId)
	if err != nil {
		zap.L().Fatal("Failed to load user", zap.String("user_id", *userId), zap.Error(err))
	}

	fmt.Printf("User: %s (%s)\n\n", user.Name, user.Email)

	balances, err := dbService.GetAllUserBalances(ctx, user.Id)
	if err != nil {
		zap.L().Fatal("Failed to load balances", zap.Error(err))
	}
	printBalances(balances)

	history, err := dbService.GetTransactionHistory(ctx, user.Id, *limit, 0)
	if err != nil {
		zap.L().Fatal("Failed to load transactions", zap.Error(err))
	}
	printHistory(history)
}
