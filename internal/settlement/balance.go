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

package settlement

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"paylance-go/internal/custody"
)

// ErrNothingToPay aborts a payout whose clamped amount is not positive.
var ErrNothingToPay = errors.New("payout amount is not positive")

// BalanceGuard clamps an intended payout to the wallet's live balance to
// absorb gas and timing drift between the webhook snapshot and now. The
// balance check is advisory: if the provider can't answer, the payout
// proceeds with the computed amount and the provider stays the source of
// truth at withdrawal time.
type BalanceGuard struct {
	provider custody.Provider
}

func NewBalanceGuard(provider custody.Provider) *BalanceGuard {
	return &BalanceGuard{provider: provider}
}

// Clamp returns the final payout amount for the resolved asset.
func (g *BalanceGuard) Clamp(ctx context.Context, walletId, assetId string, net decimal.Decimal) (decimal.Decimal, error) {
	final := net

	balances, err := g.provider.GetWalletBalances(ctx, walletId)
	if err != nil {
		zap.L().Warn("Balance check failed, proceeding with computed payout amount",
			zap.String("wallet_id", walletId),
			zap.String("asset_id", assetId),
			zap.String("net", net.String()),
			zap.Error(err))
	} else {
		for _, b := range balances {
			if b.AssetId != assetId {
				continue
			}
			if b.Balance.GreaterThan(decimal.Zero) && b.Balance.LessThan(net) {
				zap.L().Info("Clamping payout to available balance",
					zap.String("wallet_id", walletId),
					zap.String("asset_id", assetId),
					zap.String("computed_net", net.String()),
					zap.String("available", b.Balance.String()))
				final = b.Balance
			}
			break
		}
	}

	if final.LessThanOrEqual(decimal.Zero) {
		zap.L().Error("Payout aborted: final amount is not positive",
			zap.String("wallet_id", walletId),
			zap.String("asset_id", assetId),
			zap.String("final", final.String()))
		return decimal.Zero, ErrNothingToPay
	}
	return final, nil
}
