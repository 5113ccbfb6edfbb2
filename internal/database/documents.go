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
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"paylance-go/internal/models"
	"paylance-go/internal/store"
)

func (s *Service) GetDocument(ctx context.Context, documentId string) (*models.Document, error) {
	var doc models.Document
	var content string
	err := s.db.QueryRowContext(ctx, queryGetDocument, documentId).Scan(
		&doc.Id, &doc.UserId, &doc.ClientId, &doc.Type, &doc.Status,
		&content, &doc.CreatedAt, &doc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("unable to get document %s: %w", documentId, err)
	}
	doc.Content = json.RawMessage(content)
	return &doc, nil
}

// MarkDocumentPaid advances a document to PAID and writes the payment
// metadata into its content blob, preserving unrelated content fields.
// Re-applying the same transition is a no-op in effect; a PAID document
// never moves backwards. Two concurrent deliveries of the same deposit
// race on the content write, which is acceptable since both write fields
// derived from the same deposit.
func (s *Service) MarkDocumentPaid(ctx context.Context, params store.MarkDocumentPaidParams) error {
	doc, err := s.GetDocument(ctx, params.DocumentId)
	if err != nil {
		return err
	}

	content := map[string]interface{}{}
	if len(doc.Content) > 0 {
		if err := json.Unmarshal(doc.Content, &content); err != nil {
			zap.L().Warn("Document content is not valid JSON, rewriting payment fields only",
				zap.String("document_id", doc.Id),
				zap.Error(err))
			content = map[string]interface{}{}
		}
	}

	content["paid_at"] = params.PaidAt.UTC().Format(time.RFC3339)
	content["tx_hash"] = params.TxHash
	content["payment_token"] = params.PaymentToken
	content["paid_amount"] = params.PaidAmount.String()

	updated, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("unable to marshal document content: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, queryMarkDocumentPaid,
		models.DocumentStatusPaid, string(updated), params.DocumentId); err != nil {
		return fmt.Errorf("unable to mark document %s paid: %w", params.DocumentId, err)
	}

	zap.L().Info("Document marked paid",
		zap.String("document_id", params.DocumentId),
		zap.String("tx_hash", params.TxHash),
		zap.String("paid_amount", params.PaidAmount.String()))
	return nil
}

func (s *Service) MarkMilestonePaid(ctx context.Context, milestoneId string) error {
	result, err := s.db.ExecContext(ctx, queryMarkMilestonePaid, milestoneId)
	if err != nil {
		return fmt.Errorf("unable to mark milestone %s paid: %w", milestoneId, err)
	}
	rows, _ := result.RowsAffected()
	if rows > 0 {
		zap.L().Info("Milestone marked paid", zap.String("milestone_id", milestoneId))
	}
	return nil
}

// RecomputeClientEarnings rebuilds the client's aggregate earnings from
// confirmed deposit rows linked to the client's documents. Amounts are
// stored as strings and summed with decimals; a SQL-side SUM would
// coerce them through floats.
func (s *Service) RecomputeClientEarnings(ctx context.Context, clientId string) error {
	rows, err := s.db.QueryContext(ctx, querySelectClientDepositAmounts, clientId)
	if err != nil {
		return fmt.Errorf("unable to load deposits for client %s: %w", clientId, err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return fmt.Errorf("unable to scan deposit amount for client %s: %w", clientId, err)
		}
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return fmt.Errorf("corrupt deposit amount %q for client %s: %w", raw, clientId, err)
		}
		total = total.Add(amount)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("unable to iterate deposits for client %s: %w", clientId, err)
	}

	if _, err := s.db.ExecContext(ctx, queryUpdateClientEarnings, total.String(), clientId); err != nil {
		return fmt.Errorf("unable to recompute earnings for client %s: %w", clientId, err)
	}
	return nil
}
