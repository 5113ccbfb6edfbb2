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

package formance

import (
	"context"

	"github.com/formancehq/formance-sdk-go/v3/pkg/models/operations"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/shared"
	"go.uber.org/zap"

	"paylance-go/internal/settlement"
)

// ---------------------------------------------------------------------------
// Numscript templates. All metadata is set inside the script via
// set_tx_meta() so the Formance transaction is fully self-describing.
// ---------------------------------------------------------------------------

const numscriptDepositCredited = `vars {
  asset $asset
  number $amount
  account $user_id
  string $external_tx_id
  string $asset_symbol
  string $chain
  string $document_id
}

send [$asset $amount] (
  source = @custody:deposits allowing unbounded overdraft
  destination = @users:$user_id
)

set_tx_meta("event_type", "deposit_credited")
set_tx_meta("external_tx_id", $external_tx_id)
set_tx_meta("asset_symbol", $asset_symbol)
set_tx_meta("chain", $chain)
set_tx_meta("document_id", $document_id)
`

const numscriptPayoutInitiated = `vars {
  asset $asset
  number $net
  number $fee
  account $user_id
  string $external_tx_id
  string $payout_id
  string $asset_symbol
  string $document_id
}

send [$asset $net] (
  source = @users:$user_id allowing unbounded overdraft
  destination = @custody:payouts:pending
)

send [$asset $fee] (
  source = @users:$user_id allowing unbounded overdraft
  destination = @platform:fees
)

set_tx_meta("event_type", "payout_initiated")
set_tx_meta("external_tx_id", $external_tx_id)
set_tx_meta("payout_id", $payout_id)
set_tx_meta("asset_symbol", $asset_symbol)
set_tx_meta("document_id", $document_id)
`

const numscriptPayoutFailed = `vars {
  asset $asset
  number $net
  number $fee
  account $user_id
  string $external_tx_id
  string $asset_symbol
  string $document_id
}

send [$asset $net] (
  source = @custody:payouts:pending allowing unbounded overdraft
  destination = @users:$user_id
)

send [$asset $fee] (
  source = @platform:fees allowing unbounded overdraft
  destination = @users:$user_id
)

set_tx_meta("event_type", "payout_failed")
set_tx_meta("external_tx_id", $external_tx_id)
set_tx_meta("asset_symbol", $asset_symbol)
set_tx_meta("document_id", $document_id)
`

// ---------------------------------------------------------------------------
// settlement.Mirror implementation. Every method is best-effort: failures
// are logged and swallowed so the mirror can never block settlement.
// ---------------------------------------------------------------------------

// DepositCredited posts the inbound deposit to the user's account.
func (s *Service) DepositCredited(ctx context.Context, entry settlement.MirrorEntry) {
	s.post(ctx, entry.TxHash+"-credit", numscriptDepositCredited, map[string]string{
		"asset":          formanceAsset(entry.Asset),
		"amount":         smallestUnit(entry.Gross, entry.Asset),
		"user_id":        entry.UserId,
		"external_tx_id": entry.TxHash,
		"asset_symbol":   entry.Asset,
		"chain":          entry.Chain,
		"document_id":    entry.DocumentId,
	})
}

// PayoutInitiated moves the net to a pending payout account and the fee
// to the platform fee account.
func (s *Service) PayoutInitiated(ctx context.Context, entry settlement.MirrorEntry) {
	s.post(ctx, entry.TxHash+"-payout", numscriptPayoutInitiated, map[string]string{
		"asset":          formanceAsset(entry.Asset),
		"net":            smallestUnit(entry.Net, entry.Asset),
		"fee":            smallestUnit(entry.Fee, entry.Asset),
		"user_id":        entry.UserId,
		"external_tx_id": entry.TxHash,
		"payout_id":      entry.PayoutId,
		"asset_symbol":   entry.Asset,
		"document_id":    entry.DocumentId,
	})
}

// PayoutFailed is the exact inverse of PayoutInitiated: net comes back
// out of the pending payout account and the fee out of platform fees.
func (s *Service) PayoutFailed(ctx context.Context, entry settlement.MirrorEntry) {
	s.post(ctx, entry.TxHash+"-payout-failed", numscriptPayoutFailed, map[string]string{
		"asset":          formanceAsset(entry.Asset),
		"net":            smallestUnit(entry.Net, entry.Asset),
		"fee":            smallestUnit(entry.Fee, entry.Asset),
		"user_id":        entry.UserId,
		"external_tx_id": entry.TxHash,
		"asset_symbol":   entry.Asset,
		"document_id":    entry.DocumentId,
	})
}

// post runs one numscript transaction with the given reference. A
// conflict on the reference means the posting already landed from an
// earlier delivery; that is a success.
func (s *Service) post(ctx context.Context, reference, script string, vars map[string]string) {
	_, err := s.client.Ledger.V2.CreateTransaction(ctx, operations.V2CreateTransactionRequest{
		Ledger: s.ledger,
		V2PostTransaction: shared.V2PostTransaction{
			Reference: strPtr(reference),
			Script: &shared.V2PostTransactionScript{
				Plain: script,
				Vars:  vars,
			},
		},
	})
	if err != nil {
		if isConflictError(err) {
			return
		}
		zap.L().Warn("Formance mirror posting failed",
			zap.String("reference", reference),
			zap.Error(err))
		return
	}
	zap.L().Debug("Formance mirror posting recorded", zap.String("reference", reference))
}
