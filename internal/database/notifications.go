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
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"paylance-go/internal/store"
)

func (s *Service) CreateNotification(ctx context.Context, params store.CreateNotificationParams) error {
	if params.UserId == "" || params.Type == "" {
		return fmt.Errorf("user id and notification type are required")
	}

	metadata := "{}"
	if len(params.Metadata) > 0 {
		raw, err := json.Marshal(params.Metadata)
		if err != nil {
			return fmt.Errorf("unable to marshal notification metadata: %w", err)
		}
		metadata = string(raw)
	}

	_, err := s.db.ExecContext(ctx, queryInsertNotification,
		uuid.New().String(), params.UserId, params.Type, params.Title, params.Message, metadata)
	if err != nil {
		return fmt.Errorf("unable to insert notification: %w", err)
	}
	return nil
}
