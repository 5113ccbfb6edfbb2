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
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"paylance-go/internal/custody"
	"paylance-go/internal/models"
)

// ErrAssetResolution aborts the payout leg of a linked settlement. The
// document PAID transition and balance updates are unaffected.
var ErrAssetResolution = errors.New("unable to resolve deposit asset")

// ResolvedAsset is the resolver's verdict for one deposit
type ResolvedAsset struct {
	AssetId     string
	Symbol      string
	ChainFamily models.ChainFamily
}

// CatalogCache is an optional short-TTL cache for the provider's asset
// catalog, passed in explicitly as a dependency. A nil cache means every
// resolution fetches live.
type CatalogCache struct {
	ttl time.Duration

	mu        sync.Mutex
	walletId  string
	fetchedAt time.Time
	assets    []models.CustodyAsset
}

func NewCatalogCache(ttl time.Duration) *CatalogCache {
	return &CatalogCache{ttl: ttl}
}

func (c *CatalogCache) get(walletId string) ([]models.CustodyAsset, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.walletId != walletId || time.Since(c.fetchedAt) > c.ttl {
		return nil, false
	}
	return c.assets, true
}

func (c *CatalogCache) put(walletId string, assets []models.CustodyAsset) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.walletId = walletId
	c.fetchedAt = time.Now()
	c.assets = assets
}

// Resolver reconciles a webhook-reported asset reference against the
// wallet's live enabled-asset catalog.
type Resolver struct {
	provider custody.Provider
	aliases  *AssetAliases
	cache    *CatalogCache
}

func NewResolver(provider custody.Provider, aliases *AssetAliases, cache *CatalogCache) *Resolver {
	if aliases == nil {
		aliases = NewAssetAliases(nil)
	}
	return &Resolver{provider: provider, aliases: aliases, cache: cache}
}

// Resolve matches the webhook's asset reference to a catalog entry and
// determines the chain family. Precedence: exact id match, then
// alias-based symbol/name match, then the first catalog entry with a
// warning. The matched entry's blockchain is authoritative for the
// chain family; the webhook's own network hint is only a fallback
// because it has been observed missing or wrong for non-default chains.
func (r *Resolver) Resolve(ctx context.Context, walletId string, ref models.AssetRef) (*ResolvedAsset, error) {
	catalog, err := r.fetchCatalog(ctx, walletId)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrAssetResolution, err)
	}
	if len(catalog) == 0 {
		return nil, fmt.Errorf("%w: wallet %s has no enabled assets", ErrAssetResolution, walletId)
	}

	matched := r.match(catalog, ref)
	if matched == nil {
		matched = &catalog[0]
		zap.L().Warn("No catalog match for deposit asset, falling back to first enabled asset",
			zap.String("webhook_asset_id", ref.Id),
			zap.String("webhook_symbol", ref.Symbol),
			zap.String("fallback_asset_id", matched.Id),
			zap.String("fallback_symbol", matched.Symbol))
	}

	family, ok := chainFamilyFromHint(matched.Blockchain.Name, matched.Blockchain.Symbol)
	if !ok {
		// The catalog entry carries no usable network; the webhook's own
		// hint is all that's left.
		family, ok = chainFamilyFromHint(ref.Blockchain.Name, ref.Blockchain.Symbol)
	}
	if !ok {
		return nil, fmt.Errorf("%w: no chain family for asset %s", ErrAssetResolution, matched.Id)
	}

	symbol := matched.Symbol
	if symbol == "" {
		symbol = ref.Symbol
	}

	return &ResolvedAsset{
		AssetId:     matched.Id,
		Symbol:      symbol,
		ChainFamily: family,
	}, nil
}

func (r *Resolver) fetchCatalog(ctx context.Context, walletId string) ([]models.CustodyAsset, error) {
	if r.cache != nil {
		if assets, ok := r.cache.get(walletId); ok {
			return assets, nil
		}
	}
	assets, err := r.provider.ListAssets(ctx, walletId)
	if err != nil {
		return nil, err
	}
	if r.cache != nil {
		r.cache.put(walletId, assets)
	}
	return assets, nil
}

func (r *Resolver) match(catalog []models.CustodyAsset, ref models.AssetRef) *models.CustodyAsset {
	// 1. Exact id match.
	if ref.Id != "" {
		for i := range catalog {
			if catalog[i].Id == ref.Id {
				return &catalog[i]
			}
		}
	}

	// 2. Symbol/name match through the stable-asset alias table.
	canonical := r.aliases.Canonical(ref.Symbol)
	if canonical == "" {
		canonical = r.aliases.Canonical(ref.Name)
	}
	if canonical != "" {
		for i := range catalog {
			if r.aliases.Canonical(catalog[i].Symbol) == canonical ||
				r.aliases.Canonical(catalog[i].Name) == canonical {
				return &catalog[i]
			}
		}
	}

	return nil
}

// chainFamilyFromHint classifies a blockchain name/symbol pair. Anything
// recognizably Solana routes to the Solana family; any other non-empty
// network is treated as EVM-compatible.
func chainFamilyFromHint(name, symbol string) (models.ChainFamily, bool) {
	n := strings.ToLower(name)
	sym := strings.ToLower(symbol)
	if n == "" && sym == "" {
		return "", false
	}
	if strings.Contains(n, "solana") || sym == "sol" {
		return models.ChainFamilySolana, true
	}
	return models.ChainFamilyEVM, true
}
