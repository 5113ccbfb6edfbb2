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
	"time"

	"github.com/shopspring/decimal"
)

// Document types and statuses. Status only advances forward; a PAID
// document is never reverted by the settlement pipeline.
const (
	DocumentTypeInvoice     = "INVOICE"
	DocumentTypePaymentLink = "PAYMENT_LINK"

	DocumentStatusDraft = "DRAFT"
	DocumentStatusSent  = "SENT"
	DocumentStatusPaid  = "PAID"
)

// Transaction statuses, purposes and directions
const (
	TxStatusConfirmed  = "CONFIRMED"
	TxStatusProcessing = "PROCESSING"
	TxStatusFailed     = "FAILED"

	TxPurposeDeposit = "deposit"
	TxPurposePayout  = "payout"

	TxDirectionCredit = "credit"
	TxDirectionDebit  = "debit"
)

// Offramp order statuses
const (
	OfframpStatusPending    = "PENDING"
	OfframpStatusProcessing = "PROCESSING"
	OfframpStatusCompleted  = "COMPLETED"
	OfframpStatusFailed     = "FAILED"
)

// Notification types created by the settlement pipeline
const (
	NotificationPaymentReceived = "PAYMENT_RECEIVED"
	NotificationPayoutInFlight  = "PAYOUT_IN_FLIGHT"
	NotificationPayoutFailed    = "PAYOUT_FAILED"
	NotificationWalletRequired  = "WALLET_REQUIRED"
	NotificationOfframpFailed   = "OFFRAMP_FAILED"
	NotificationTopUpReceived   = "TOPUP_RECEIVED"
)

// User represents a freelancer account
type User struct {
	Id           string    `db:"id"`
	Name         string    `db:"name"`
	Email        string    `db:"email"`
	EvmWallet    string    `db:"evm_wallet_address"`
	SolanaWallet string    `db:"solana_wallet_address"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// Client represents a freelancer's customer
type Client struct {
	Id            string          `db:"id"`
	UserId        string          `db:"user_id"`
	Name          string          `db:"name"`
	Email         string          `db:"email"`
	TotalEarnings decimal.Decimal `db:"total_earnings"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}

// Milestone represents a project milestone, marked paid when a
// document referencing it settles.
type Milestone struct {
	Id        string    `db:"id"`
	ProjectId string    `db:"project_id"`
	Title     string    `db:"title"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Document represents an invoice or payment link. The content blob
// carries free-form fields; settlement only writes paid_at, tx_hash,
// payment_token and paid_amount into it.
type Document struct {
	Id        string          `db:"id"`
	UserId    string          `db:"user_id"`
	ClientId  string          `db:"client_id"`
	Type      string          `db:"doc_type"`
	Status    string          `db:"status"`
	Content   json.RawMessage `db:"content"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}

// MilestoneId returns the milestone referenced by the document content,
// or "" when the content carries none.
func (d *Document) MilestoneId() string {
	var content struct {
		MilestoneId string `json:"milestoneId"`
	}
	if len(d.Content) == 0 {
		return ""
	}
	if err := json.Unmarshal(d.Content, &content); err != nil {
		return ""
	}
	return content.MilestoneId
}

// Transaction represents an immutable ledger row. At most one row exists
// per (tx_hash, purpose); a deposit and its payout reference the same
// hash as distinct rows.
type Transaction struct {
	Id          string          `db:"id"`
	UserId      string          `db:"user_id"`
	Direction   string          `db:"direction"`
	Chain       string          `db:"chain"`
	TxHash      string          `db:"tx_hash"`
	GrossAmount decimal.Decimal `db:"gross_amount"`
	FeeAmount   decimal.Decimal `db:"fee_amount"`
	NetAmount   decimal.Decimal `db:"net_amount"`
	Token       string          `db:"token"`
	Status      string          `db:"status"`
	Purpose     string          `db:"purpose"`
	DocumentId  string          `db:"document_id"`
	PayoutId    string          `db:"payout_id"`
	Reason      string          `db:"reason"`
	CreatedAt   time.Time       `db:"created_at"`
}

// AccountBalance represents a running balance keyed by (user, chain, asset)
type AccountBalance struct {
	Id        string          `db:"id"`
	UserId    string          `db:"user_id"`
	Chain     string          `db:"chain"`
	Asset     string          `db:"asset"`
	Balance   decimal.Decimal `db:"balance"`
	Version   int64           `db:"version"`
	UpdatedAt time.Time       `db:"updated_at"`
}

// Notification represents an in-app notification row
type Notification struct {
	Id        string          `db:"id"`
	UserId    string          `db:"user_id"`
	Type      string          `db:"notification_type"`
	Title     string          `db:"title"`
	Message   string          `db:"message"`
	Metadata  json.RawMessage `db:"metadata"`
	Read      bool            `db:"read"`
	CreatedAt time.Time       `db:"created_at"`
}

// OfframpOrder represents a fiat conversion order reconciled by status callbacks
type OfframpOrder struct {
	Id            string          `db:"id"`
	UserId        string          `db:"user_id"`
	Status        string          `db:"status"`
	Amount        decimal.Decimal `db:"amount"`
	Token         string          `db:"token"`
	TxHash        string          `db:"tx_hash"`
	FailureReason string          `db:"failure_reason"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}

// WebhookEvent is one append-only audit row per webhook delivery.
// Duplicates are allowed; idempotency is enforced in the ledger, not here.
type WebhookEvent struct {
	Id            string          `db:"id"`
	EventType     string          `db:"event_type"`
	AddressId     string          `db:"address_id"`
	TransactionId string          `db:"transaction_id"`
	Payload       json.RawMessage `db:"payload"`
	ReceivedAt    time.Time       `db:"received_at"`
}
