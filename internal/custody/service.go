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

// Package custody is the REST client for the custodial wallet provider.
// The provider holds assets at provider-managed deposit addresses and
// reports activity through signed webhooks handled elsewhere; this
// package covers the outbound calls only.
package custody

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/net/http2"

	"paylance-go/internal/models"
)

// Provider is the contract the settlement pipeline requires of the
// custodial wallet provider.
type Provider interface {
	ListAssets(ctx context.Context, walletId string) ([]models.CustodyAsset, error)
	GetWalletBalances(ctx context.Context, walletId string) ([]models.WalletBalance, error)
	InitiateWithdrawal(ctx context.Context, params models.WithdrawalRequest) (*models.WithdrawalResponse, error)
}

// Compile-time check: *Service must satisfy Provider.
var _ Provider = (*Service)(nil)

type Service struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewService(cfg models.CustodyConfig) (*Service, error) {
	if cfg.BaseURL == "" || cfg.APIKey == "" {
		return nil, fmt.Errorf("custody config requires BaseURL and APIKey")
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	httpClient, err := createCustomHttpClient(timeout)
	if err != nil {
		return nil, fmt.Errorf("unable to create custom http client: %w", err)
	}

	return &Service{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  httpClient,
	}, nil
}

func createCustomHttpClient(timeout time.Duration) (*http.Client, error) {
	tr := &http.Transport{
		ResponseHeaderTimeout: 30 * time.Second,
		Proxy:                 http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			KeepAlive: 30 * time.Second,
			Timeout:   15 * time.Second,
		}).DialContext,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		MaxIdleConnsPerHost:   5,
		ExpectContinueTimeout: 5 * time.Second,
	}

	if err := http2.ConfigureTransport(tr); err != nil {
		return nil, err
	}

	return &http.Client{
		Transport: tr,
		Timeout:   timeout,
	}, nil
}

// Wire types. All amounts travel as strings.
type assetEnvelope struct {
	Data []struct {
		Id         string `json:"id"`
		Symbol     string `json:"symbol"`
		Name       string `json:"name"`
		Blockchain struct {
			Name   string `json:"name"`
			Symbol string `json:"symbol"`
		} `json:"blockchain"`
	} `json:"data"`
}

type balanceEnvelope struct {
	Data []struct {
		AssetId string `json:"assetId"`
		Balance string `json:"balance"`
	} `json:"data"`
}

type withdrawRequest struct {
	Address   string            `json:"address"`
	Amount    string            `json:"amount"`
	AssetId   string            `json:"assetId"`
	Reference string            `json:"reference,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

type withdrawEnvelope struct {
	Data struct {
		Id     string `json:"id"`
		Status string `json:"status"`
		Hash   string `json:"hash"`
	} `json:"data"`
	Message string `json:"message"`
}

// ListAssets fetches the wallet's live enabled-asset catalog. The result
// is never cached here; callers decide whether a short-lived cache is
// worth the staleness.
func (s *Service) ListAssets(ctx context.Context, walletId string) ([]models.CustodyAsset, error) {
	var envelope assetEnvelope
	path := fmt.Sprintf("/v1/wallets/%s/assets", walletId)
	if err := s.get(ctx, path, &envelope); err != nil {
		return nil, fmt.Errorf("unable to list wallet assets: %w", err)
	}

	assets := make([]models.CustodyAsset, len(envelope.Data))
	for i, a := range envelope.Data {
		assets[i] = models.CustodyAsset{
			Id:     a.Id,
			Symbol: a.Symbol,
			Name:   a.Name,
			Blockchain: models.BlockchainRef{
				Name:   a.Blockchain.Name,
				Symbol: a.Blockchain.Symbol,
			},
		}
	}
	return assets, nil
}

func (s *Service) GetWalletBalances(ctx context.Context, walletId string) ([]models.WalletBalance, error) {
	var envelope balanceEnvelope
	path := fmt.Sprintf("/v1/wallets/%s/balances", walletId)
	if err := s.get(ctx, path, &envelope); err != nil {
		return nil, fmt.Errorf("unable to get wallet balances: %w", err)
	}

	balances := make([]models.WalletBalance, 0, len(envelope.Data))
	for _, b := range envelope.Data {
		amount, err := decimal.NewFromString(b.Balance)
		if err != nil {
			zap.L().Warn("Skipping balance with unparseable amount",
				zap.String("asset_id", b.AssetId),
				zap.String("balance", b.Balance))
			continue
		}
		balances = append(balances, models.WalletBalance{AssetId: b.AssetId, Balance: amount})
	}
	return balances, nil
}

func (s *Service) InitiateWithdrawal(ctx context.Context, params models.WithdrawalRequest) (*models.WithdrawalResponse, error) {
	zap.L().Info("Initiating withdrawal via custody provider",
		zap.String("wallet_id", params.WalletId),
		zap.String("asset_id", params.AssetId),
		zap.String("amount", params.Amount.String()),
		zap.String("chain_family", string(params.ChainFamily)),
		zap.String("destination", params.ToAddress))

	body := withdrawRequest{
		Address:   params.ToAddress,
		Amount:    params.Amount.String(),
		AssetId:   params.AssetId,
		Reference: params.Reference,
		Metadata:  params.Metadata,
	}

	var envelope withdrawEnvelope
	path := fmt.Sprintf("/v1/wallets/%s/withdraw", params.WalletId)
	if err := s.post(ctx, path, body, &envelope); err != nil {
		return nil, fmt.Errorf("unable to initiate withdrawal: %w", err)
	}

	return &models.WithdrawalResponse{
		Id:     envelope.Data.Id,
		Status: envelope.Data.Status,
		TxHash: envelope.Data.Hash,
	}, nil
}

func (s *Service) get(ctx context.Context, path string, out interface{}) error {
	return s.do(ctx, http.MethodGet, path, nil, out)
}

func (s *Service) post(ctx context.Context, path string, body, out interface{}) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("unable to marshal request body: %w", err)
	}
	return s.do(ctx, http.MethodPost, path, raw, out)
}

func (s *Service) do(ctx context.Context, method, path string, body []byte, out interface{}) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("unable to build request: %w", err)
	}
	req.Header.Set("x-api-key", s.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("unable to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("provider returned %d for %s %s: %s", resp.StatusCode, method, path, truncate(raw, 256))
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("unable to decode response: %w", err)
		}
	}
	return nil
}

func truncate(raw []byte, n int) string {
	if len(raw) <= n {
		return string(raw)
	}
	return string(raw[:n]) + "..."
}
