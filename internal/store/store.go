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

// Package store defines the persistence contract for the settlement
// pipeline and the sentinel errors its callers branch on.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"paylance-go/internal/models"
)

var (
	ErrDuplicateTransaction = errors.New("duplicate transaction")
	ErrUserNotFound         = errors.New("no user found for address")
	ErrDocumentNotFound     = errors.New("document not found")
	ErrOrderNotFound        = errors.New("offramp order not found")
	ErrPayoutNotFound       = errors.New("payout not found")
)

// RecordEventParams captures one webhook delivery for the audit log
type RecordEventParams struct {
	Id            string
	EventType     string
	AddressId     string
	TransactionId string
	Payload       json.RawMessage
}

// CreditDepositParams records an inbound deposit: a CONFIRMED ledger row
// plus an upsert of the running balance keyed by (user, chain, asset).
type CreditDepositParams struct {
	UserId     string
	Chain      string
	Asset      string
	Amount     decimal.Decimal
	TxHash     string
	DocumentId string
}

// RecordPayoutParams records a payout attempt against a deposit hash
type RecordPayoutParams struct {
	UserId      string
	Chain       string
	Token       string
	TxHash      string
	GrossAmount decimal.Decimal
	FeeAmount   decimal.Decimal
	NetAmount   decimal.Decimal
	Status      string
	DocumentId  string
	PayoutId    string
	Reason      string
}

// MarkDocumentPaidParams carries the payment metadata written into the
// document content blob on the PAID transition.
type MarkDocumentPaidParams struct {
	DocumentId   string
	PaidAt       time.Time
	TxHash       string
	PaymentToken string
	PaidAmount   decimal.Decimal
}

// CreateNotificationParams creates one in-app notification row
type CreateNotificationParams struct {
	UserId   string
	Type     string
	Title    string
	Message  string
	Metadata map[string]string
}

// UpdateOfframpOrderParams transitions an offramp order
type UpdateOfframpOrderParams struct {
	OrderId       string
	Status        string
	TxHash        string
	FailureReason string
}

// Store defines the contract the settlement pipeline requires of its
// persistence backend.
type Store interface {
	// --- Users ---
	GetUserById(ctx context.Context, userId string) (*models.User, error)
	FindUserByAddressId(ctx context.Context, addressId string) (*models.User, error)

	// --- Audit log ---
	RecordWebhookEvent(ctx context.Context, params RecordEventParams) error

	// --- Ledger ---
	CreditDeposit(ctx context.Context, params CreditDepositParams) error
	RecordPayout(ctx context.Context, params RecordPayoutParams) error
	GetPayoutByPayoutId(ctx context.Context, payoutId string) (*models.Transaction, error)
	UpdatePayoutStatus(ctx context.Context, payoutId, status, txHash string) error
	GetUserBalance(ctx context.Context, userId, chain, asset string) (decimal.Decimal, error)
	GetTransactionHistory(ctx context.Context, userId string, limit, offset int) ([]models.Transaction, error)

	// --- Documents ---
	GetDocument(ctx context.Context, documentId string) (*models.Document, error)
	MarkDocumentPaid(ctx context.Context, params MarkDocumentPaidParams) error
	MarkMilestonePaid(ctx context.Context, milestoneId string) error
	RecomputeClientEarnings(ctx context.Context, clientId string) error

	// --- Notifications ---
	CreateNotification(ctx context.Context, params CreateNotificationParams) error

	// --- Offramp orders ---
	UpdateOfframpOrder(ctx context.Context, params UpdateOfframpOrderParams) (*models.OfframpOrder, error)

	// --- Lifecycle ---
	Close()
}
