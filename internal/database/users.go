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

	"paylance-go/internal/models"
	"paylance-go/internal/store"
)

func (s *Service) GetUserById(ctx context.Context, userId string) (*models.User, error) {
	var user models.User
	err := s.db.QueryRowContext(ctx, queryGetUserById, userId).Scan(
		&user.Id, &user.Name, &user.Email, &user.EvmWallet, &user.SolanaWallet,
		&user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("unable to get user %s: %w", userId, err)
	}
	return &user, nil
}

// FindUserByAddressId resolves the owner of a custody deposit address by
// the provider's address id. Returns store.ErrUserNotFound when the
// address is not mapped to any user.
func (s *Service) FindUserByAddressId(ctx context.Context, addressId string) (*models.User, error) {
	var user models.User
	err := s.db.QueryRowContext(ctx, queryFindUserByAddressId, addressId).Scan(
		&user.Id, &user.Name, &user.Email, &user.EvmWallet, &user.SolanaWallet,
		&user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("unable to find user for address %s: %w", addressId, err)
	}
	return &user, nil
}

// StoreAddress maps a custody deposit address id to a user. Used by the
// setup tooling; the settlement pipeline only reads the mapping.
func (s *Service) StoreAddress(ctx context.Context, addressId, userId, address, walletId, chain string) error {
	if _, err := s.db.ExecContext(ctx, queryInsertAddress, addressId, userId, address, walletId, chain); err != nil {
		return fmt.Errorf("unable to store address: %w", err)
	}
	return nil
}
