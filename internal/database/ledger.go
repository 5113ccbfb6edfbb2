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

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"paylance-go/internal/models"
	"paylance-go/internal/store"
)

// CreditDeposit records an inbound deposit as a CONFIRMED ledger row and
// upserts the running balance keyed by (user, chain, asset). A repeated
// delivery of the same deposit hash returns store.ErrDuplicateTransaction
// without touching the balance.
func (s *Service) CreditDeposit(ctx context.Context, params store.CreditDepositParams) error {
	if params.UserId == "" || params.TxHash == "" {
		return fmt.Errorf("user id and tx hash are required")
	}
	if params.Amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("deposit amount must be positive, got %s", params.Amount.String())
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("unable to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var existingId string
	err = tx.QueryRowContext(ctx, queryCheckDuplicateTransaction, params.TxHash, models.TxPurposeDeposit).Scan(&existingId)
	if err == nil {
		return store.ErrDuplicateTransaction
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("unable to check for duplicate deposit: %w", err)
	}

	_, err = tx.ExecContext(ctx, queryInsertTransaction,
		uuid.New().String(), params.UserId, models.TxDirectionCredit, params.Chain,
		params.TxHash, params.Amount.String(), "0", params.Amount.String(),
		params.Asset, models.TxStatusConfirmed, models.TxPurposeDeposit,
		params.DocumentId, "", "")
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicateTransaction
		}
		return fmt.Errorf("unable to insert deposit transaction: %w", err)
	}

	if err := upsertBalance(ctx, tx, params.UserId, params.Chain, params.Asset, params.Amount); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("unable to commit deposit: %w", err)
	}

	zap.L().Info("Deposit credited",
		zap.String("user_id", params.UserId),
		zap.String("chain", params.Chain),
		zap.String("asset", params.Asset),
		zap.String("amount", params.Amount.String()),
		zap.String("tx_hash", params.TxHash))
	return nil
}

// RecordPayout inserts a payout-purpose ledger row for a deposit hash.
// The unique (tx_hash, purpose) index guarantees at most one payout row
// per deposit regardless of how many times the webhook is delivered.
func (s *Service) RecordPayout(ctx context.Context, params store.RecordPayoutParams) error {
	if params.UserId == "" || params.TxHash == "" {
		return fmt.Errorf("user id and tx hash are required")
	}

	_, err := s.db.ExecContext(ctx, queryInsertTransaction,
		uuid.New().String(), params.UserId, models.TxDirectionDebit, params.Chain,
		params.TxHash, params.GrossAmount.String(), params.FeeAmount.String(),
		params.NetAmount.String(), params.Token, params.Status, models.TxPurposePayout,
		params.DocumentId, params.PayoutId, params.Reason)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicateTransaction
		}
		return fmt.Errorf("unable to insert payout transaction: %w", err)
	}

	zap.L().Info("Payout recorded",
		zap.String("user_id", params.UserId),
		zap.String("status", params.Status),
		zap.String("net_amount", params.NetAmount.String()),
		zap.String("tx_hash", params.TxHash),
		zap.String("payout_id", params.PayoutId))
	return nil
}

// GetPayoutByPayoutId loads the payout row for a provider payout id.
func (s *Service) GetPayoutByPayoutId(ctx context.Context, payoutId string) (*models.Transaction, error) {
	if payoutId == "" {
		return nil, store.ErrPayoutNotFound
	}

	var t models.Transaction
	var gross, fee, net string
	err := s.db.QueryRowContext(ctx, queryGetPayoutByPayoutId, payoutId).Scan(
		&t.Id, &t.UserId, &t.Direction, &t.Chain, &t.TxHash,
		&gross, &fee, &net, &t.Token, &t.Status, &t.Purpose,
		&t.DocumentId, &t.PayoutId, &t.Reason, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrPayoutNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("unable to get payout %s: %w", payoutId, err)
	}
	if t.GrossAmount, err = decimal.NewFromString(gross); err != nil {
		return nil, fmt.Errorf("corrupt gross amount %q: %w", gross, err)
	}
	if t.FeeAmount, err = decimal.NewFromString(fee); err != nil {
		return nil, fmt.Errorf("corrupt fee amount %q: %w", fee, err)
	}
	if t.NetAmount, err = decimal.NewFromString(net); err != nil {
		return nil, fmt.Errorf("corrupt net amount %q: %w", net, err)
	}
	return &t, nil
}

// UpdatePayoutStatus transitions a previously recorded payout row, keyed
// by the provider's payout id from a later status callback.
func (s *Service) UpdatePayoutStatus(ctx context.Context, payoutId, status, txHash string) error {
	if payoutId == "" {
		return fmt.Errorf("payout id is required")
	}

	var result sql.Result
	var err error
	if txHash != "" {
		result, err = s.db.ExecContext(ctx, queryUpdatePayoutStatusAndHash, status, txHash, payoutId)
	} else {
		result, err = s.db.ExecContext(ctx, queryUpdatePayoutStatus, status, payoutId)
	}
	if err != nil {
		return fmt.Errorf("unable to update payout %s: %w", payoutId, err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		zap.L().Debug("No payout row for status callback", zap.String("payout_id", payoutId))
	}
	return nil
}

func (s *Service) GetUserBalance(ctx context.Context, userId, chain, asset string) (decimal.Decimal, error) {
	var id, balanceStr string
	var version int64
	err := s.db.QueryRowContext(ctx, queryGetBalanceRow, userId, chain, asset).Scan(&id, &balanceStr, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("unable to get balance: %w", err)
	}
	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return decimal.Zero, fmt.Errorf("corrupt balance value %q: %w", balanceStr, err)
	}
	return balance, nil
}

// GetAllUserBalances returns every (chain, asset) balance row for a user.
func (s *Service) GetAllUserBalances(ctx context.Context, userId string) ([]models.AccountBalance, error) {
	rows, err := s.db.QueryContext(ctx, queryGetAllUserBalances, userId)
	if err != nil {
		return nil, fmt.Errorf("unable to query balances: %w", err)
	}
	defer rows.Close()

	var balances []models.AccountBalance
	for rows.Next() {
		var b models.AccountBalance
		var balanceStr string
		if err := rows.Scan(&b.Id, &b.UserId, &b.Chain, &b.Asset, &balanceStr, &b.Version, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("unable to scan balance: %w", err)
		}
		if b.Balance, err = decimal.NewFromString(balanceStr); err != nil {
			return nil, fmt.Errorf("corrupt balance value %q: %w", balanceStr, err)
		}
		balances = append(balances, b)
	}
	return balances, rows.Err()
}

func (s *Service) GetTransactionHistory(ctx context.Context, userId string, limit, offset int) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, queryGetTransactionHistory, userId, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("unable to query transaction history: %w", err)
	}
	defer rows.Close()

	var history []models.Transaction
	for rows.Next() {
		var t models.Transaction
		var gross, fee, net string
		if err := rows.Scan(&t.Id, &t.UserId, &t.Direction, &t.Chain, &t.TxHash,
			&gross, &fee, &net, &t.Token, &t.Status, &t.Purpose,
			&t.DocumentId, &t.PayoutId, &t.Reason, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("unable to scan transaction: %w", err)
		}
		if t.GrossAmount, err = decimal.NewFromString(gross); err != nil {
			return nil, fmt.Errorf("corrupt gross amount %q: %w", gross, err)
		}
		if t.FeeAmount, err = decimal.NewFromString(fee); err != nil {
			return nil, fmt.Errorf("corrupt fee amount %q: %w", fee, err)
		}
		if t.NetAmount, err = decimal.NewFromString(net); err != nil {
			return nil, fmt.Errorf("corrupt net amount %q: %w", net, err)
		}
		history = append(history, t)
	}
	return history, rows.Err()
}

// upsertBalance applies an optimistic-concurrency balance update inside
// the caller's transaction.
func upsertBalance(ctx context.Context, tx *sql.Tx, userId, chain, asset string, delta decimal.Decimal) error {
	var id, balanceStr string
	var version int64

	err := tx.QueryRowContext(ctx, queryGetBalanceRow, userId, chain, asset).Scan(&id, &balanceStr, &version)
	if errors.Is(err, sql.ErrNoRows) {
		_, err = tx.ExecContext(ctx, queryInsertBalanceRow,
			uuid.New().String(), userId, chain, asset, delta.String())
		if err != nil {
			return fmt.Errorf("unable to insert balance row: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("unable to read balance row: %w", err)
	}

	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return fmt.Errorf("corrupt balance value %q: %w", balanceStr, err)
	}

	result, err := tx.ExecContext(ctx, queryUpdateBalanceRow,
		balance.Add(delta).String(), userId, chain, asset, version)
	if err != nil {
		return fmt.Errorf("unable to update balance row: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("balance row for %s/%s/%s changed concurrently", userId, chain, asset)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
