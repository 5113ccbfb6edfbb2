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

package settlement

import (
	"context"

	"go.uber.org/zap"

	"paylance-go/internal/store"
)

// PushSender delivers push notifications to a user's devices
type PushSender interface {
	Send(ctx context.Context, userId, title, message string) error
}

// LogPushSender logs instead of pushing. The default when no push
// provider is configured.
type LogPushSender struct{}

func (LogPushSender) Send(_ context.Context, userId, title, _ string) error {
	zap.L().Debug("Push notification suppressed (no provider configured)",
		zap.String("user_id", userId),
		zap.String("title", title))
	return nil
}

// Notifier records in-app notifications and triggers push delivery.
// It never fails: notification problems are logged, not propagated,
// so settlement correctness never depends on them.
type Notifier struct {
	store store.Store
	push  PushSender
}

func NewNotifier(s store.Store, push PushSender) *Notifier {
	if push == nil {
		push = LogPushSender{}
	}
	return &Notifier{store: s, push: push}
}

func (n *Notifier) Notify(ctx context.Context, userId, notificationType, title, message string, metadata map[string]string) {
	if userId == "" {
		return
	}

	err := n.store.CreateNotification(ctx, store.CreateNotificationParams{
		UserId:   userId,
		Type:     notificationType,
		Title:    title,
		Message:  message,
		Metadata: metadata,
	})
	if err != nil {
		zap.L().Error("Failed to record notification",
			zap.String("user_id", userId),
			zap.String("type", notificationType),
			zap.Error(err))
	}

	if err := n.push.Send(ctx, userId, title, message); err != nil {
		zap.L().Warn("Failed to send push notification",
			zap.String("user_id", userId),
			zap.String("type", notificationType),
			zap.Error(err))
	}
}
