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

	"github.com/shopspring/decimal"
)

// MirrorEntry is one money movement forwarded to an external ledger
type MirrorEntry struct {
	UserId     string
	Chain      string
	Asset      string
	TxHash     string
	PayoutId   string
	DocumentId string
	Gross      decimal.Decimal
	Fee        decimal.Decimal
	Net        decimal.Decimal
}

// Mirror receives money-movement postings for an external audit ledger.
// Implementations are best-effort: they log their own failures and never
// return errors, so the mirror can never block settlement.
type Mirror interface {
	DepositCredited(ctx context.Context, entry MirrorEntry)
	PayoutInitiated(ctx context.Context, entry MirrorEntry)
	PayoutFailed(ctx context.Context, entry MirrorEntry)
}
