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
	"fmt"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"paylance-go/internal/custody"
	"paylance-go/internal/models"
	"paylance-go/internal/store"
)

var (
	// ErrMissingWallet means the user has no destination wallet for the
	// resolved chain family. Non-fatal and user-actionable; surfaced as a
	// notification, never retried automatically.
	ErrMissingWallet = errors.New("no destination wallet configured for chain family")

	// ErrWithdrawalProvider means the provider rejected or failed the
	// payout call. Fatal for this attempt; reconciliation happens only
	// through a later provider status callback.
	ErrWithdrawalProvider = errors.New("withdrawal provider call failed")
)

// PayoutRequest carries everything the dispatcher needs for one payout
type PayoutRequest struct {
	User        *models.User
	ChainFamily models.ChainFamily
	WalletId    string
	AssetId     string
	Token       string
	TxHash      string
	DocumentId  string
	Gross       decimal.Decimal
	Fee         decimal.Decimal
	Net         decimal.Decimal
}

// Dispatcher resolves the freelancer's destination wallet for the chain
// family and initiates the payout with the custody provider.
type Dispatcher struct {
	store    store.Store
	provider custody.Provider
	notifier *Notifier
	mirror   Mirror
}

func NewDispatcher(s store.Store, provider custody.Provider, notifier *Notifier, mirror Mirror) *Dispatcher {
	return &Dispatcher{store: s, provider: provider, notifier: notifier, mirror: mirror}
}

// Dispatch initiates the payout. A missing or malformed destination is
// the AWAITING_WALLET outcome: no provider call, an actionable
// notification, and a nil error since the settlement itself succeeded.
func (d *Dispatcher) Dispatch(ctx context.Context, req PayoutRequest) error {
	destination, err := d.destinationFor(req.User, req.ChainFamily)
	if err != nil {
		zap.L().Info("Payout awaiting wallet setup",
			zap.String("user_id", req.User.Id),
			zap.String("chain_family", string(req.ChainFamily)),
			zap.String("tx_hash", req.TxHash))
		d.notifier.Notify(ctx, req.User.Id, models.NotificationWalletRequired,
			"Action required: add a payout wallet",
			fmt.Sprintf("A payment of %s %s arrived, but you have no %s wallet configured. Add one to receive your payout.",
				req.Net.String(), req.Token, chainFamilyLabel(req.ChainFamily)),
			map[string]string{
				"documentId":  req.DocumentId,
				"chainFamily": string(req.ChainFamily),
				"txHash":      req.TxHash,
			})
		return nil
	}

	result, err := d.provider.InitiateWithdrawal(ctx, models.WithdrawalRequest{
		WalletId:    req.WalletId,
		ToAddress:   destination,
		Amount:      req.Net,
		AssetId:     req.AssetId,
		ChainFamily: req.ChainFamily,
		Reference:   req.TxHash,
		Metadata: map[string]string{
			"documentId": req.DocumentId,
			"userId":     req.User.Id,
		},
	})
	if err != nil {
		d.recordFailure(ctx, req, err)
		return fmt.Errorf("%w: %s", ErrWithdrawalProvider, err)
	}

	if err := d.store.RecordPayout(ctx, store.RecordPayoutParams{
		UserId:      req.User.Id,
		Chain:       string(req.ChainFamily),
		Token:       req.Token,
		TxHash:      req.TxHash,
		GrossAmount: req.Gross,
		FeeAmount:   req.Fee,
		NetAmount:   req.Net,
		Status:      models.TxStatusProcessing,
		DocumentId:  req.DocumentId,
		PayoutId:    result.Id,
	}); err != nil {
		if errors.Is(err, store.ErrDuplicateTransaction) {
			zap.L().Info("Payout row already exists for deposit hash",
				zap.String("tx_hash", req.TxHash))
			return nil
		}
		// The payout is in flight but unrecorded: loud, with enough
		// context for an operator to reconcile by payout id.
		zap.L().Error("Payout initiated but ledger write failed",
			zap.String("payout_id", result.Id),
			zap.String("tx_hash", req.TxHash),
			zap.Error(err))
		return err
	}

	if d.mirror != nil {
		d.mirror.PayoutInitiated(ctx, MirrorEntry{
			UserId:     req.User.Id,
			Chain:      string(req.ChainFamily),
			Asset:      req.Token,
			TxHash:     req.TxHash,
			PayoutId:   result.Id,
			DocumentId: req.DocumentId,
			Gross:      req.Gross,
			Fee:        req.Fee,
			Net:        req.Net,
		})
	}

	d.notifier.Notify(ctx, req.User.Id, models.NotificationPayoutInFlight,
		"Payout on the way",
		fmt.Sprintf("%s %s is being sent to your %s wallet.",
			req.Net.String(), req.Token, chainFamilyLabel(req.ChainFamily)),
		map[string]string{
			"documentId": req.DocumentId,
			"payoutId":   result.Id,
			"txHash":     req.TxHash,
		})

	zap.L().Info("Payout dispatched",
		zap.String("user_id", req.User.Id),
		zap.String("payout_id", result.Id),
		zap.String("status", result.Status),
		zap.String("net", req.Net.String()),
		zap.String("destination", destination))
	return nil
}

// destinationFor picks and validates the user's wallet for the chain
// family. A malformed stored address is treated like a missing one; it
// must never reach the provider.
func (d *Dispatcher) destinationFor(user *models.User, family models.ChainFamily) (string, error) {
	switch family {
	case models.ChainFamilyEVM:
		if user.EvmWallet == "" {
			return "", ErrMissingWallet
		}
		if !ethcommon.IsHexAddress(user.EvmWallet) {
			zap.L().Warn("Stored EVM wallet address is malformed",
				zap.String("user_id", user.Id),
				zap.String("address", user.EvmWallet))
			return "", ErrMissingWallet
		}
		return user.EvmWallet, nil
	case models.ChainFamilySolana:
		if user.SolanaWallet == "" {
			return "", ErrMissingWallet
		}
		if _, err := solana.PublicKeyFromBase58(user.SolanaWallet); err != nil {
			zap.L().Warn("Stored Solana wallet address is malformed",
				zap.String("user_id", user.Id),
				zap.String("address", user.SolanaWallet))
			return "", ErrMissingWallet
		}
		return user.SolanaWallet, nil
	default:
		return "", fmt.Errorf("unsupported chain family %q", family)
	}
}

func (d *Dispatcher) recordFailure(ctx context.Context, req PayoutRequest, cause error) {
	zap.L().Error("Withdrawal provider call failed",
		zap.String("user_id", req.User.Id),
		zap.String("tx_hash", req.TxHash),
		zap.String("net", req.Net.String()),
		zap.Error(cause))

	if err := d.store.RecordPayout(ctx, store.RecordPayoutParams{
		UserId:      req.User.Id,
		Chain:       string(req.ChainFamily),
		Token:       req.Token,
		TxHash:      req.TxHash,
		GrossAmount: req.Gross,
		FeeAmount:   req.Fee,
		NetAmount:   req.Net,
		Status:      models.TxStatusFailed,
		DocumentId:  req.DocumentId,
		Reason:      cause.Error(),
	}); err != nil && !errors.Is(err, store.ErrDuplicateTransaction) {
		zap.L().Error("Failed to record failed payout",
			zap.String("tx_hash", req.TxHash),
			zap.Error(err))
	}

	// No mirror reversal here: the payout-initiated posting only happens
	// after a successful provider call, so a rejected call has no pending
	// leg to unwind.

	d.notifier.Notify(ctx, req.User.Id, models.NotificationPayoutFailed,
		"Payout could not be processed",
		fmt.Sprintf("Your payment of %s %s was received, but the payout to your wallet failed. Support has a full record of the attempt.",
			req.Net.String(), req.Token),
		map[string]string{
			"documentId": req.DocumentId,
			"txHash":     req.TxHash,
		})
}

func chainFamilyLabel(family models.ChainFamily) string {
	if family == models.ChainFamilySolana {
		return "Solana"
	}
	return "EVM"
}
