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

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// ChainFamily determines which destination address format and provider
// call shape applies.
type ChainFamily string

const (
	ChainFamilyEVM    ChainFamily = "EVM"
	ChainFamilySolana ChainFamily = "SOLANA"
)

// EventKind discriminates the parsed webhook event union
type EventKind string

const (
	EventDepositSuccess    EventKind = "deposit.success"
	EventWithdrawalSuccess EventKind = "withdrawal.success"
	EventWithdrawalFailed  EventKind = "withdrawal.failed"
	EventSweepSuccess      EventKind = "sweep.success"
	EventSweepFailed       EventKind = "sweep.failed"
	EventUnknown           EventKind = "unknown"
)

// Event is the strict representation of a custody webhook delivery.
// The provider's payloads are deeply optional; parsing them once into
// this union keeps every fallback decision in one place. Exactly one of
// Deposit/Withdrawal is set depending on Kind; sweep and unknown events
// carry only the raw payload.
type Event struct {
	Id         string
	Kind       EventKind
	RawType    string
	Deposit    *Deposit
	Withdrawal *Withdrawal
	Raw        json.RawMessage
}

// AssetRef is the asset reference as reported by the webhook or the
// provider's asset catalog.
type AssetRef struct {
	Id         string
	Symbol     string
	Name       string
	Blockchain BlockchainRef
}

// BlockchainRef is the provider's network hint for an asset
type BlockchainRef struct {
	Name   string
	Symbol string
}

// PaymentMetadata is the settlement metadata attached by the payment
// flow when the deposit address was created. All fields are optional.
type PaymentMetadata struct {
	DocumentId     string
	UserId         string
	WalletId       string
	OfframpOrderId string
}

// Deposit is a transient view of an inbound transfer, derived from a
// single webhook delivery and discarded after processing.
type Deposit struct {
	AddressId string
	WalletId  string
	Amount    decimal.Decimal
	TxHash    string
	Asset     AssetRef
	Metadata  PaymentMetadata
}

// Withdrawal is a later status callback for a previously initiated payout
type Withdrawal struct {
	Id       string
	TxHash   string
	Reason   string
	Amount   decimal.Decimal
	Asset    AssetRef
	Metadata PaymentMetadata
}
