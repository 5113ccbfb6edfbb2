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

package webhook

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"paylance-go/internal/models"
)

// rawPayload mirrors the provider's loosely-typed webhook shape. Every
// field is optional on the wire; Parse resolves the fallbacks exactly
// once so downstream code never touches this type.
type rawPayload struct {
	Id    string `json:"id"`
	Event string `json:"event"`
	Type  string `json:"type"`
	Data  struct {
		Id        string `json:"id"`
		AddressId string `json:"addressId"`
		Address   struct {
			Id string `json:"id"`
		} `json:"address"`
		// Amounts arrive as either JSON numbers or strings depending on
		// the event type, so they are kept raw until parseAmount.
		Amount json.RawMessage `json:"amount"`
		Value  json.RawMessage `json:"value"`
		Asset  struct {
			Id         string `json:"id"`
			Symbol     string `json:"symbol"`
			Name       string `json:"name"`
			Blockchain struct {
				Name   string `json:"name"`
				Symbol string `json:"symbol"`
			} `json:"blockchain"`
		} `json:"asset"`
		TxHash   string `json:"txHash"`
		Hash     string `json:"hash"`
		WalletId string `json:"walletId"`
		Reason   string `json:"reason"`
		Metadata struct {
			DocumentId     string `json:"documentId"`
			UserId         string `json:"userId"`
			WalletId       string `json:"walletId"`
			OfframpOrderId string `json:"offrampOrderId"`
		} `json:"metadata"`
	} `json:"data"`
}

// Parse turns one raw webhook delivery into the discriminated event
// union. Unknown event types parse successfully as EventUnknown so the
// caller can still audit-log them.
func Parse(raw []byte) (*models.Event, error) {
	var payload rawPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("unable to decode webhook payload: %w", err)
	}

	eventType := payload.Event
	if eventType == "" {
		eventType = payload.Type
	}

	event := &models.Event{
		Id:      payload.Id,
		Kind:    classify(eventType),
		RawType: eventType,
		Raw:     json.RawMessage(raw),
	}

	switch event.Kind {
	case models.EventDepositSuccess:
		deposit, err := parseDeposit(&payload)
		if err != nil {
			return nil, err
		}
		event.Deposit = deposit
	case models.EventWithdrawalSuccess, models.EventWithdrawalFailed:
		event.Withdrawal = parseWithdrawal(&payload)
	}

	return event, nil
}

func classify(eventType string) models.EventKind {
	switch strings.ToLower(eventType) {
	case "deposit.success":
		return models.EventDepositSuccess
	case "withdrawal.success", "withdrawal.confirmed":
		return models.EventWithdrawalSuccess
	case "withdrawal.failed":
		return models.EventWithdrawalFailed
	case "sweep.success":
		return models.EventSweepSuccess
	case "sweep.failed":
		return models.EventSweepFailed
	default:
		return models.EventUnknown
	}
}

func parseDeposit(payload *rawPayload) (*models.Deposit, error) {
	amount, err := parseAmount(payload)
	if err != nil {
		return nil, err
	}

	addressId := payload.Data.AddressId
	if addressId == "" {
		addressId = payload.Data.Address.Id
	}

	return &models.Deposit{
		AddressId: addressId,
		WalletId:  payload.Data.WalletId,
		Amount:    amount,
		TxHash:    txHash(payload),
		Asset:     parseAsset(payload),
		Metadata:  parseMetadata(payload),
	}, nil
}

func parseWithdrawal(payload *rawPayload) *models.Withdrawal {
	amount, err := parseAmount(payload)
	if err != nil {
		amount = decimal.Zero
	}

	return &models.Withdrawal{
		Id:       payload.Data.Id,
		TxHash:   txHash(payload),
		Reason:   payload.Data.Reason,
		Amount:   amount,
		Asset:    parseAsset(payload),
		Metadata: parseMetadata(payload),
	}
}

func parseAmount(payload *rawPayload) (decimal.Decimal, error) {
	value := rawString(payload.Data.Amount)
	if value == "" {
		value = rawString(payload.Data.Value)
	}
	if value == "" {
		return decimal.Zero, fmt.Errorf("webhook payload carries no amount")
	}
	amount, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	return amount, nil
}

// rawString unwraps a raw JSON scalar: quoted strings lose their
// quotes, numbers pass through, null and empty become "".
func rawString(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return ""
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

func txHash(payload *rawPayload) string {
	if payload.Data.TxHash != "" {
		return payload.Data.TxHash
	}
	return payload.Data.Hash
}

func parseAsset(payload *rawPayload) models.AssetRef {
	return models.AssetRef{
		Id:     payload.Data.Asset.Id,
		Symbol: payload.Data.Asset.Symbol,
		Name:   payload.Data.Asset.Name,
		Blockchain: models.BlockchainRef{
			Name:   payload.Data.Asset.Blockchain.Name,
			Symbol: payload.Data.Asset.Blockchain.Symbol,
		},
	}
}

func parseMetadata(payload *rawPayload) models.PaymentMetadata {
	return models.PaymentMetadata{
		DocumentId:     payload.Data.Metadata.DocumentId,
		UserId:         payload.Data.Metadata.UserId,
		WalletId:       payload.Data.Metadata.WalletId,
		OfframpOrderId: payload.Data.Metadata.OfframpOrderId,
	}
}
