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

package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"paylance-go/internal/models"
	"paylance-go/internal/settlement"
	"paylance-go/internal/store"
	"paylance-go/internal/webhook"
)

// maxBodyBytes bounds webhook payloads. Custody events are small; a
// megabyte is already generous.
const maxBodyBytes = 1 << 20

type Handler struct {
	store      store.Store
	engine     *settlement.Engine
	reconciler *settlement.Reconciler
	secret     string
}

func NewHandler(s store.Store, engine *settlement.Engine, reconciler *settlement.Reconciler, secret string) *Handler {
	return &Handler{store: s, engine: engine, reconciler: reconciler, secret: secret}
}

// CustodyWebhook receives provider event deliveries. Once the signature
// is verified the provider always gets a 200: processing failures are
// our problem to log and chase, and a non-2xx would only trigger
// redeliveries of an event we already accepted.
func (h *Handler) CustodyWebhook(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unable to read request body")
		return
	}

	signature := r.Header.Get(webhook.SignatureHeader)
	if err := webhook.VerifySignature(raw, signature, h.secret); err != nil {
		if errors.Is(err, webhook.ErrConfiguration) {
			zap.L().Error("Webhook secret not configured, rejecting delivery")
			writeError(w, http.StatusInternalServerError, "webhook verification unavailable")
			return
		}
		zap.L().Warn("Webhook signature rejected",
			zap.String("remote", r.RemoteAddr))
		writeError(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	h.process(r, raw)
	writeJSON(w, http.StatusOK, map[string]string{"status": "accepted"})
}

// process runs the audit append and the settlement pipeline. Called
// synchronously so a crash between ack and effect cannot lose events
// silently; every branch below is idempotent under redelivery.
func (h *Handler) process(r *http.Request, raw []byte) {
	ctx := r.Context()

	event, parseErr := webhook.Parse(raw)

	// Every verified delivery lands in the audit log, parseable or not.
	params := store.RecordEventParams{Payload: raw}
	if event != nil {
		params.Id = event.Id
		params.EventType = event.RawType
		if event.Deposit != nil {
			params.AddressId = event.Deposit.AddressId
			params.TransactionId = event.Deposit.TxHash
		}
		if event.Withdrawal != nil {
			params.TransactionId = event.Withdrawal.TxHash
		}
	}
	if err := h.store.RecordWebhookEvent(ctx, params); err != nil {
		zap.L().Error("Failed to append webhook audit row", zap.Error(err))
	}

	if parseErr != nil {
		zap.L().Warn("Unparseable webhook payload", zap.Error(parseErr))
		return
	}

	switch event.Kind {
	case models.EventDepositSuccess:
		if err := h.engine.SettleDeposit(ctx, event.Deposit); err != nil {
			zap.L().Error("Deposit settlement failed",
				zap.String("event_id", event.Id),
				zap.Error(err))
		}
	case models.EventWithdrawalSuccess, models.EventWithdrawalFailed:
		if err := h.reconciler.HandleWithdrawal(ctx, event.Kind, event.Withdrawal); err != nil {
			zap.L().Error("Withdrawal reconciliation failed",
				zap.String("event_id", event.Id),
				zap.Error(err))
		}
	case models.EventSweepSuccess, models.EventSweepFailed:
		h.reconciler.HandleSweep(event.Kind, event)
	default:
		zap.L().Info("Ignoring unhandled webhook event",
			zap.String("event_type", event.RawType))
	}
}

type offrampCallback struct {
	Event string `json:"event"`
	Data  struct {
		Id     string `json:"id"`
		Status string `json:"status"`
		TxHash string `json:"txHash"`
		Reason string `json:"reason"`
	} `json:"data"`
}

// OfframpCallback receives status updates from the fiat offramp
// partner. Like the custody webhook it always acks with 200 once the
// payload decodes; unknown orders and statuses are logged and dropped.
func (h *Handler) OfframpCallback(w http.ResponseWriter, r *http.Request) {
	var cb offrampCallback
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&cb); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if cb.Data.Id == "" {
		writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	status := cb.Data.Status
	if status == "" {
		status = cb.Event
	}

	if err := h.reconciler.ApplyOfframpCallback(r.Context(), cb.Data.Id, status, cb.Data.TxHash, cb.Data.Reason); err != nil {
		zap.L().Error("Offramp callback failed",
			zap.String("order_id", cb.Data.Id),
			zap.Error(err))
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "accepted"})
}
