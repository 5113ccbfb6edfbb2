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
	"strings"

	"go.uber.org/zap"

	"paylance-go/internal/models"
	"paylance-go/internal/store"
)

// Reconciler applies later withdrawal and offramp status callbacks to
// rows created during settlement. It never creates ledger entries of
// its own; a failed payout does trigger a mirror reversal, since the
// payout-initiated posting already moved funds into the pending
// account. A callback for an unknown payout or order is logged and
// dropped.
type Reconciler struct {
	store    store.Store
	notifier *Notifier
	mirror   Mirror
}

func NewReconciler(s store.Store, notifier *Notifier, mirror Mirror) *Reconciler {
	if notifier == nil {
		notifier = NewNotifier(s, nil)
	}
	return &Reconciler{store: s, notifier: notifier, mirror: mirror}
}

// HandleWithdrawal reconciles a withdrawal.success or withdrawal.failed
// callback against the PROCESSING payout row it refers to.
func (r *Reconciler) HandleWithdrawal(ctx context.Context, kind models.EventKind, wd *models.Withdrawal) error {
	if wd == nil || wd.Id == "" {
		return fmt.Errorf("withdrawal callback carries no payout id")
	}

	switch kind {
	case models.EventWithdrawalSuccess:
		return r.confirmPayout(ctx, wd)
	case models.EventWithdrawalFailed:
		return r.failPayout(ctx, wd)
	default:
		return fmt.Errorf("unexpected withdrawal event kind %q", kind)
	}
}

func (r *Reconciler) confirmPayout(ctx context.Context, wd *models.Withdrawal) error {
	if err := r.store.UpdatePayoutStatus(ctx, wd.Id, models.TxStatusConfirmed, wd.TxHash); err != nil {
		return fmt.Errorf("unable to confirm payout %s: %w", wd.Id, err)
	}
	zap.L().Info("Payout confirmed on chain",
		zap.String("payout_id", wd.Id),
		zap.String("tx_hash", wd.TxHash))

	// Offramp-bound payouts advance their order once the chain leg lands.
	if orderId := wd.Metadata.OfframpOrderId; orderId != "" {
		_, err := r.store.UpdateOfframpOrder(ctx, store.UpdateOfframpOrderParams{
			OrderId: orderId,
			Status:  models.OfframpStatusProcessing,
			TxHash:  wd.TxHash,
		})
		if err != nil {
			zap.L().Warn("Failed to advance offramp order after payout confirmation",
				zap.String("order_id", orderId),
				zap.Error(err))
		}
	}
	return nil
}

func (r *Reconciler) failPayout(ctx context.Context, wd *models.Withdrawal) error {
	// Load the payout row before the status update overwrites its tx
	// hash; the hash anchors the mirror posting references.
	payout, err := r.store.GetPayoutByPayoutId(ctx, wd.Id)
	if err != nil && !errors.Is(err, store.ErrPayoutNotFound) {
		return fmt.Errorf("unable to load payout %s: %w", wd.Id, err)
	}

	if err := r.store.UpdatePayoutStatus(ctx, wd.Id, models.TxStatusFailed, wd.TxHash); err != nil {
		return fmt.Errorf("unable to fail payout %s: %w", wd.Id, err)
	}
	zap.L().Warn("Payout rejected by custody provider",
		zap.String("payout_id", wd.Id),
		zap.String("reason", wd.Reason))

	// The payout-initiated posting moved net into the pending account
	// and fee into platform fees; a failed payout unwinds both.
	if r.mirror != nil && payout != nil {
		r.mirror.PayoutFailed(ctx, MirrorEntry{
			UserId:     payout.UserId,
			Chain:      payout.Chain,
			Asset:      payout.Token,
			TxHash:     payout.TxHash,
			PayoutId:   wd.Id,
			DocumentId: payout.DocumentId,
			Gross:      payout.GrossAmount,
			Fee:        payout.FeeAmount,
			Net:        payout.NetAmount,
		})
	}

	if orderId := wd.Metadata.OfframpOrderId; orderId != "" {
		order, err := r.store.UpdateOfframpOrder(ctx, store.UpdateOfframpOrderParams{
			OrderId:       orderId,
			Status:        models.OfframpStatusFailed,
			FailureReason: wd.Reason,
		})
		if err != nil {
			zap.L().Warn("Failed to fail offramp order after payout rejection",
				zap.String("order_id", orderId),
				zap.Error(err))
			return nil
		}
		r.notifier.Notify(ctx, order.UserId, models.NotificationOfframpFailed,
			"Withdrawal to bank failed",
			"Your withdrawal could not be completed. The funds remain in your balance.",
			map[string]string{"orderId": orderId, "reason": wd.Reason})
	}
	return nil
}

// HandleSweep records internal fund movements for observability only.
// Sweeps move funds between provider-internal wallets and never touch
// user balances or documents.
func (r *Reconciler) HandleSweep(kind models.EventKind, ev *models.Event) {
	zap.L().Info("Custody sweep observed",
		zap.String("kind", string(kind)),
		zap.String("event_id", ev.Id),
		zap.String("raw_type", ev.RawType))
}

// MapOfframpStatus translates an offramp partner's status vocabulary
// into ours. Unrecognized statuses map to empty string; the caller logs
// and drops those rather than guessing a transition.
func MapOfframpStatus(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "initiated", "pending":
		return models.OfframpStatusPending
	case "validated":
		return models.OfframpStatusProcessing
	case "settled":
		return models.OfframpStatusCompleted
	case "refunded", "expired":
		return models.OfframpStatusFailed
	default:
		return ""
	}
}

// ApplyOfframpCallback applies one partner status callback to an order.
func (r *Reconciler) ApplyOfframpCallback(ctx context.Context, orderId, rawStatus, txHash, reason string) error {
	status := MapOfframpStatus(rawStatus)
	if status == "" {
		zap.L().Warn("Unrecognized offramp status, callback dropped",
			zap.String("order_id", orderId),
			zap.String("status", rawStatus))
		return nil
	}

	order, err := r.store.UpdateOfframpOrder(ctx, store.UpdateOfframpOrderParams{
		OrderId:       orderId,
		Status:        status,
		TxHash:        txHash,
		FailureReason: reason,
	})
	if err != nil {
		return fmt.Errorf("unable to update offramp order %s: %w", orderId, err)
	}

	if status == models.OfframpStatusFailed {
		r.notifier.Notify(ctx, order.UserId, models.NotificationOfframpFailed,
			"Withdrawal to bank failed",
			"Your withdrawal could not be completed. The funds remain in your balance.",
			map[string]string{"orderId": orderId, "reason": reason})
	}
	return nil
}
