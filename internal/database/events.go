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
	"fmt"

	"github.com/google/uuid"

	"paylance-go/internal/store"
)

// RecordWebhookEvent appends one audit row per webhook delivery. The
// payload id is used when present; on an id collision (the provider
// redelivered with the same id) the row is written under a generated id
// so that every delivery stays visible in the audit trail.
func (s *Service) RecordWebhookEvent(ctx context.Context, params store.RecordEventParams) error {
	id := params.Id
	if id == "" {
		id = uuid.New().String()
	}

	payload := params.Payload
	if len(payload) == 0 {
		payload = []byte("{}")
	}

	_, err := s.db.ExecContext(ctx, queryInsertWebhookEvent,
		id, params.EventType, params.AddressId, params.TransactionId, string(payload))
	if err != nil {
		_, retryErr := s.db.ExecContext(ctx, queryInsertWebhookEvent,
			uuid.New().String(), params.EventType, params.AddressId, params.TransactionId, string(payload))
		if retryErr != nil {
			return fmt.Errorf("unable to record webhook event: %w", retryErr)
		}
	}
	return nil
}
