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

import "github.com/shopspring/decimal"

// CustodyAsset is one entry of the custodial wallet's live enabled-asset
// catalog. Never persisted; fetched per resolution.
type CustodyAsset struct {
	Id         string
	Symbol     string
	Name       string
	Blockchain BlockchainRef
}

// WalletBalance is the provider's live balance for one asset
type WalletBalance struct {
	AssetId string
	Balance decimal.Decimal
}

// WithdrawalRequest contains the parameters for initiating a payout
type WithdrawalRequest struct {
	WalletId    string
	ToAddress   string
	Amount      decimal.Decimal
	AssetId     string
	ChainFamily ChainFamily
	Reference   string
	Metadata    map[string]string
}

// WithdrawalResponse is the provider's acknowledgment of a payout
type WithdrawalResponse struct {
	Id     string
	Status string
	TxHash string
}
