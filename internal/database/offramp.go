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

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"paylance-go/internal/models"
	"paylance-go/internal/store"
)

func (s *Service) getOfframpOrder(ctx context.Context, orderId string) (*models.OfframpOrder, error) {
	var order models.OfframpOrder
	var amount string
	err := s.db.QueryRowContext(ctx, queryGetOfframpOrder, orderId).Scan(
		&order.Id, &order.UserId, &order.Status, &amount, &order.Token,
		&order.TxHash, &order.FailureReason, &order.CreatedAt, &order.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("unable to get offramp order %s: %w", orderId, err)
	}
	if order.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("corrupt order amount %q: %w", amount, err)
	}
	return &order, nil
}

// UpdateOfframpOrder transitions an order and returns its updated state.
// Terminal states are sticky: a COMPLETED or FAILED order is not moved
// back to an earlier status by a late or out-of-order callback.
func (s *Service) UpdateOfframpOrder(ctx context.Context, params store.UpdateOfframpOrderParams) (*models.OfframpOrder, error) {
	order, err := s.getOfframpOrder(ctx, params.OrderId)
	if err != nil {
		return nil, err
	}

	if isTerminalOfframpStatus(order.Status) && !isTerminalOfframpStatus(params.Status) {
		zap.L().Debug("Ignoring out-of-order offramp callback",
			zap.String("order_id", order.Id),
			zap.String("current", order.Status),
			zap.String("requested", params.Status))
		return order, nil
	}

	_, err = s.db.ExecContext(ctx, queryUpdateOfframpOrder,
		params.Status,
		params.TxHash, params.TxHash,
		params.FailureReason, params.FailureReason,
		params.OrderId)
	if err != nil {
		return nil, fmt.Errorf("unable to update offramp order %s: %w", params.OrderId, err)
	}

	zap.L().Info("Offramp order updated",
		zap.String("order_id", params.OrderId),
		zap.String("status", params.Status),
		zap.String("tx_hash", params.TxHash))

	return s.getOfframpOrder(ctx, params.OrderId)
}

func isTerminalOfframpStatus(status string) bool {
	return status == models.OfframpStatusCompleted || status == models.OfframpStatusFailed
}
