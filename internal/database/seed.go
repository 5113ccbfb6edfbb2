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

// Write helpers for records the settlement pipeline only reads. The CRUD
// product surface lives in a separate service; these exist for the setup
// tooling and tests.

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"paylance-go/internal/models"
)

func (s *Service) CreateUser(ctx context.Context, name, email, evmWallet, solanaWallet string) (*models.User, error) {
	id := uuid.New().String()
	if _, err := s.db.ExecContext(ctx, queryInsertUser, id, name, email, evmWallet, solanaWallet); err != nil {
		return nil, fmt.Errorf("unable to create user: %w", err)
	}
	return s.GetUserById(ctx, id)
}

func (s *Service) CreateClient(ctx context.Context, userId, name, email string) (string, error) {
	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx, queryInsertClient, id, userId, name, email)
	if err != nil {
		return "", fmt.Errorf("unable to create client: %w", err)
	}
	return id, nil
}

func (s *Service) CreateMilestone(ctx context.Context, projectId, title string) (string, error) {
	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx, queryInsertMilestone, id, projectId, title)
	if err != nil {
		return "", fmt.Errorf("unable to create milestone: %w", err)
	}
	return id, nil
}

func (s *Service) CreateDocument(ctx context.Context, userId, clientId, docType, status, content string) (string, error) {
	id := uuid.New().String()
	if content == "" {
		content = "{}"
	}
	_, err := s.db.ExecContext(ctx, queryInsertDocument, id, userId, clientId, docType, status, content)
	if err != nil {
		return "", fmt.Errorf("unable to create document: %w", err)
	}
	return id, nil
}

func (s *Service) CreateOfframpOrder(ctx context.Context, userId string, amount decimal.Decimal, token string) (string, error) {
	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx, queryInsertOfframpOrder, id, userId, amount.String(), token)
	if err != nil {
		return "", fmt.Errorf("unable to create offramp order: %w", err)
	}
	return id, nil
}

// GetClientEarnings reads the client's current aggregate earnings.
func (s *Service) GetClientEarnings(ctx context.Context, clientId string) (decimal.Decimal, error) {
	var earnings string
	err := s.db.QueryRowContext(ctx, queryGetClientEarnings, clientId).Scan(&earnings)
	if err != nil {
		return decimal.Zero, fmt.Errorf("unable to get client earnings: %w", err)
	}
	return decimal.NewFromString(earnings)
}

// GetMilestoneStatus reads a milestone's current status.
func (s *Service) GetMilestoneStatus(ctx context.Context, milestoneId string) (string, error) {
	var status string
	err := s.db.QueryRowContext(ctx, queryGetMilestoneStatus, milestoneId).Scan(&status)
	if err != nil {
		return "", fmt.Errorf("unable to get milestone status: %w", err)
	}
	return status, nil
}
