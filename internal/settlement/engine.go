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

// Package settlement turns verified custody webhook events into ledger,
// document and payout effects.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"paylance-go/internal/custody"
	"paylance-go/internal/models"
	"paylance-go/internal/store"
)

// Engine classifies a deposit as a generic top-up or a document-linked
// settlement and drives the resolve -> fee -> clamp -> dispatch chain
// for linked settlements.
//
// Stages are deliberately not transactional with each other: the
// document's PAID transition commits before the payout is attempted and
// is never rolled back if the payout fails. A payout failure must never
// make a genuinely received deposit look unpaid; it surfaces to the
// freelancer as "payment received, action required" instead.
type Engine struct {
	store          store.Store
	provider       custody.Provider
	resolver       *Resolver
	fees           *FeeCalculator
	guard          *BalanceGuard
	dispatcher     *Dispatcher
	notifier       *Notifier
	mirror         Mirror
	masterWalletId string
}

// EngineConfig wires an Engine. Mirror and Cache may be nil; PushSender
// defaults to logging.
type EngineConfig struct {
	Store          store.Store
	Provider       custody.Provider
	Notifier       *Notifier
	Mirror         Mirror
	Aliases        *AssetAliases
	Cache          *CatalogCache
	// FeeRate is the platform fee rate; nil means DefaultFeeRate. A
	// pointer so an explicit zero rate is distinguishable from unset.
	FeeRate        *decimal.Decimal
	MasterWalletId string
}

func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Store == nil || cfg.Provider == nil {
		return nil, fmt.Errorf("engine requires a store and a custody provider")
	}
	if cfg.Notifier == nil {
		cfg.Notifier = NewNotifier(cfg.Store, nil)
	}
	feeRate := DefaultFeeRate
	if cfg.FeeRate != nil {
		feeRate = *cfg.FeeRate
	}

	fees, err := NewFeeCalculator(feeRate)
	if err != nil {
		return nil, err
	}

	return &Engine{
		store:          cfg.Store,
		provider:       cfg.Provider,
		resolver:       NewResolver(cfg.Provider, cfg.Aliases, cfg.Cache),
		fees:           fees,
		guard:          NewBalanceGuard(cfg.Provider),
		dispatcher:     NewDispatcher(cfg.Store, cfg.Provider, cfg.Notifier, cfg.Mirror),
		notifier:       cfg.Notifier,
		mirror:         cfg.Mirror,
		masterWalletId: cfg.MasterWalletId,
	}, nil
}

// SettleDeposit processes one deposit delivery to completion. Errors are
// returned for logging only; the webhook has already been acknowledged
// and a failure here never propagates back to the provider.
func (e *Engine) SettleDeposit(ctx context.Context, dep *models.Deposit) error {
	if dep == nil {
		return fmt.Errorf("nil deposit")
	}
	if dep.TxHash == "" {
		return fmt.Errorf("deposit carries no transaction hash")
	}

	user, err := e.store.FindUserByAddressId(ctx, dep.AddressId)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			// An unmapped address cannot be settled. Logged and dropped;
			// the audit row already preserves the delivery.
			zap.L().Warn("Deposit to unmapped custody address",
				zap.String("address_id", dep.AddressId),
				zap.String("tx_hash", dep.TxHash),
				zap.String("amount", dep.Amount.String()))
			return nil
		}
		return fmt.Errorf("unable to resolve deposit address: %w", err)
	}

	if dep.Metadata.DocumentId == "" {
		return e.settleTopUp(ctx, user, dep)
	}
	return e.settleLinked(ctx, user, dep)
}

// settleTopUp credits the user's running balance. No payout is
// triggered on this path.
func (e *Engine) settleTopUp(ctx context.Context, user *models.User, dep *models.Deposit) error {
	chain := chainLabel(dep)
	token := tokenSymbol(dep)

	err := e.store.CreditDeposit(ctx, store.CreditDepositParams{
		UserId: user.Id,
		Chain:  chain,
		Asset:  token,
		Amount: dep.Amount,
		TxHash: dep.TxHash,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateTransaction) {
			zap.L().Info("Duplicate top-up delivery, already credited",
				zap.String("tx_hash", dep.TxHash))
			return nil
		}
		return fmt.Errorf("unable to credit top-up: %w", err)
	}

	if e.mirror != nil {
		e.mirror.DepositCredited(ctx, MirrorEntry{
			UserId: user.Id,
			Chain:  chain,
			Asset:  token,
			TxHash: dep.TxHash,
			Gross:  dep.Amount,
		})
	}

	e.notifier.Notify(ctx, user.Id, models.NotificationTopUpReceived,
		"Funds received",
		fmt.Sprintf("%s %s was added to your balance.", dep.Amount.String(), token),
		map[string]string{"txHash": dep.TxHash, "chain": chain})

	return nil
}

// settleLinked settles a document-linked deposit and attempts the
// automatic payout. The CreditDeposit call doubles as the idempotency
// gate: a second delivery of the same hash stops here, before any
// document write or payout attempt.
func (e *Engine) settleLinked(ctx context.Context, user *models.User, dep *models.Deposit) error {
	chain := chainLabel(dep)
	token := tokenSymbol(dep)

	err := e.store.CreditDeposit(ctx, store.CreditDepositParams{
		UserId:     user.Id,
		Chain:      chain,
		Asset:      token,
		Amount:     dep.Amount,
		TxHash:     dep.TxHash,
		DocumentId: dep.Metadata.DocumentId,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateTransaction) {
			zap.L().Info("Duplicate settlement delivery, already processed",
				zap.String("tx_hash", dep.TxHash),
				zap.String("document_id", dep.Metadata.DocumentId))
			return nil
		}
		return fmt.Errorf("unable to record settlement deposit: %w", err)
	}

	doc, err := e.store.GetDocument(ctx, dep.Metadata.DocumentId)
	if err != nil {
		zap.L().Error("Settlement references unknown document",
			zap.String("document_id", dep.Metadata.DocumentId),
			zap.String("tx_hash", dep.TxHash),
			zap.Error(err))
		return nil
	}

	// Customer-facing receipt first. Committed before the payout attempt
	// and never reverted by anything below.
	if err := e.store.MarkDocumentPaid(ctx, store.MarkDocumentPaidParams{
		DocumentId:   doc.Id,
		PaidAt:       time.Now().UTC(),
		TxHash:       dep.TxHash,
		PaymentToken: token,
		PaidAmount:   dep.Amount,
	}); err != nil {
		zap.L().Error("Failed to mark document paid",
			zap.String("document_id", doc.Id),
			zap.Error(err))
	}

	if doc.ClientId != "" {
		if err := e.store.RecomputeClientEarnings(ctx, doc.ClientId); err != nil {
			zap.L().Warn("Failed to recompute client earnings",
				zap.String("client_id", doc.ClientId),
				zap.Error(err))
		}
	}

	if milestoneId := doc.MilestoneId(); milestoneId != "" {
		if err := e.store.MarkMilestonePaid(ctx, milestoneId); err != nil {
			zap.L().Warn("Failed to mark milestone paid",
				zap.String("milestone_id", milestoneId),
				zap.Error(err))
		}
	}

	if e.mirror != nil {
		e.mirror.DepositCredited(ctx, MirrorEntry{
			UserId:     user.Id,
			Chain:      chain,
			Asset:      token,
			TxHash:     dep.TxHash,
			DocumentId: doc.Id,
			Gross:      dep.Amount,
		})
	}

	e.notifier.Notify(ctx, user.Id, models.NotificationPaymentReceived,
		"Payment received",
		fmt.Sprintf("A payment of %s %s settled against your %s.",
			dep.Amount.String(), token, documentLabel(doc.Type)),
		map[string]string{"documentId": doc.Id, "txHash": dep.TxHash})

	e.attemptPayout(ctx, user, dep, doc, token)
	return nil
}

// attemptPayout drives resolve -> fee -> clamp -> dispatch. Every stage
// failure is terminal for the payout only; the settled document is
// untouched and the failure is logged or recorded by the stage itself.
func (e *Engine) attemptPayout(ctx context.Context, user *models.User, dep *models.Deposit, doc *models.Document, token string) {
	walletId := dep.WalletId
	if walletId == "" {
		walletId = dep.Metadata.WalletId
	}
	if walletId == "" {
		walletId = e.masterWalletId
	}

	resolved, err := e.resolver.Resolve(ctx, walletId, dep.Asset)
	if err != nil {
		zap.L().Error("Asset resolution failed, payout skipped",
			zap.String("document_id", doc.Id),
			zap.String("tx_hash", dep.TxHash),
			zap.Error(err))
		return
	}

	fee, net, err := e.fees.Split(dep.Amount)
	if err != nil {
		zap.L().Error("Fee computation rejected deposit amount",
			zap.String("amount", dep.Amount.String()),
			zap.Error(err))
		return
	}

	final, err := e.guard.Clamp(ctx, walletId, resolved.AssetId, net)
	if err != nil {
		return
	}

	if err := e.dispatcher.Dispatch(ctx, PayoutRequest{
		User:        user,
		ChainFamily: resolved.ChainFamily,
		WalletId:    walletId,
		AssetId:     resolved.AssetId,
		Token:       token,
		TxHash:      dep.TxHash,
		DocumentId:  doc.Id,
		Gross:       dep.Amount,
		Fee:         fee,
		Net:         final,
	}); err != nil {
		zap.L().Error("Payout dispatch failed",
			zap.String("document_id", doc.Id),
			zap.String("tx_hash", dep.TxHash),
			zap.Error(err))
	}
}

func chainLabel(dep *models.Deposit) string {
	if dep.Asset.Blockchain.Name != "" {
		return dep.Asset.Blockchain.Name
	}
	if dep.Asset.Blockchain.Symbol != "" {
		return dep.Asset.Blockchain.Symbol
	}
	return "unknown"
}

func tokenSymbol(dep *models.Deposit) string {
	if dep.Asset.Symbol != "" {
		return dep.Asset.Symbol
	}
	if dep.Asset.Name != "" {
		return dep.Asset.Name
	}
	return "UNKNOWN"
}

func documentLabel(docType string) string {
	if docType == models.DocumentTypePaymentLink {
		return "payment link"
	}
	return "invoice"
}
