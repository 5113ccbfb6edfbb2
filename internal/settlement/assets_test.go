package settlement

import (
	"context"
	"errors"
	"testing"

	"paylance-go/internal/models"
)

func evmCatalog() []models.CustodyAsset {
	return []models.CustodyAsset{
		{
			Id:         "usdc-eth",
			Symbol:     "USDC",
			Blockchain: models.BlockchainRef{Name: "ethereum", Symbol: "ETH"},
		},
		{
			Id:         "usdc-sol",
			Symbol:     "USDC",
			Blockchain: models.BlockchainRef{Name: "solana", Symbol: "SOL"},
		},
		{
			Id:         "usdt-eth",
			Symbol:     "USDT",
			Blockchain: models.BlockchainRef{Name: "ethereum", Symbol: "ETH"},
		},
	}
}

func TestResolver_ExactIdMatch(t *testing.T) {
	provider := &fakeProvider{assets: evmCatalog()}
	resolver := NewResolver(provider, nil, nil)

	resolved, err := resolver.Resolve(context.Background(), "wallet-1", models.AssetRef{Id: "usdc-sol"})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if resolved.AssetId != "usdc-sol" {
		t.Errorf("Expected usdc-sol, got %s", resolved.AssetId)
	}
	if resolved.ChainFamily != models.ChainFamilySolana {
		t.Errorf("Expected SOLANA family, got %s", resolved.ChainFamily)
	}
}

func TestResolver_AliasMatch(t *testing.T) {
	provider := &fakeProvider{assets: evmCatalog()}
	resolver := NewResolver(provider, nil, nil)

	// The webhook reports a spelled-out name rather than a catalog id.
	resolved, err := resolver.Resolve(context.Background(), "wallet-1", models.AssetRef{Name: "USD Coin"})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if resolved.AssetId != "usdc-eth" {
		t.Errorf("Expected first USDC entry usdc-eth, got %s", resolved.AssetId)
	}
	if resolved.ChainFamily != models.ChainFamilyEVM {
		t.Errorf("Expected EVM family, got %s", resolved.ChainFamily)
	}
}

func TestResolver_FallsBackToFirstEntry(t *testing.T) {
	provider := &fakeProvider{assets: evmCatalog()}
	resolver := NewResolver(provider, nil, nil)

	resolved, err := resolver.Resolve(context.Background(), "wallet-1", models.AssetRef{Symbol: "WETH"})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if resolved.AssetId != "usdc-eth" {
		t.Errorf("Expected fallback to first entry, got %s", resolved.AssetId)
	}
}

func TestResolver_EmptyCatalogFails(t *testing.T) {
	provider := &fakeProvider{}
	resolver := NewResolver(provider, nil, nil)

	_, err := resolver.Resolve(context.Background(), "wallet-1", models.AssetRef{Symbol: "USDC"})
	if !errors.Is(err, ErrAssetResolution) {
		t.Fatalf("Expected ErrAssetResolution, got: %v", err)
	}
}

func TestResolver_CatalogFetchErrorFails(t *testing.T) {
	provider := &fakeProvider{assetsErr: errors.New("boom")}
	resolver := NewResolver(provider, nil, nil)

	_, err := resolver.Resolve(context.Background(), "wallet-1", models.AssetRef{Symbol: "USDC"})
	if !errors.Is(err, ErrAssetResolution) {
		t.Fatalf("Expected ErrAssetResolution, got: %v", err)
	}
}

func TestResolver_CatalogChainBeatsWebhookHint(t *testing.T) {
	provider := &fakeProvider{assets: evmCatalog()}
	resolver := NewResolver(provider, nil, nil)

	// The webhook claims Solana, but the matched catalog entry says
	// ethereum. The catalog wins.
	resolved, err := resolver.Resolve(context.Background(), "wallet-1", models.AssetRef{
		Id:         "usdt-eth",
		Blockchain: models.BlockchainRef{Name: "solana"},
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if resolved.ChainFamily != models.ChainFamilyEVM {
		t.Errorf("Expected catalog chain EVM to win, got %s", resolved.ChainFamily)
	}
}

func TestResolver_WebhookHintUsedWhenCatalogSilent(t *testing.T) {
	provider := &fakeProvider{assets: []models.CustodyAsset{
		{Id: "usdc-x", Symbol: "USDC"},
	}}
	resolver := NewResolver(provider, nil, nil)

	resolved, err := resolver.Resolve(context.Background(), "wallet-1", models.AssetRef{
		Id:         "usdc-x",
		Blockchain: models.BlockchainRef{Name: "solana"},
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if resolved.ChainFamily != models.ChainFamilySolana {
		t.Errorf("Expected webhook hint SOLANA fallback, got %s", resolved.ChainFamily)
	}
}

func TestResolver_NoChainHintAnywhereFails(t *testing.T) {
	provider := &fakeProvider{assets: []models.CustodyAsset{
		{Id: "usdc-x", Symbol: "USDC"},
	}}
	resolver := NewResolver(provider, nil, nil)

	_, err := resolver.Resolve(context.Background(), "wallet-1", models.AssetRef{Id: "usdc-x"})
	if !errors.Is(err, ErrAssetResolution) {
		t.Fatalf("Expected ErrAssetResolution for missing chain, got: %v", err)
	}
}

func TestChainFamilyFromHint(t *testing.T) {
	cases := []struct {
		name, symbol string
		want         models.ChainFamily
		ok           bool
	}{
		{"ethereum", "ETH", models.ChainFamilyEVM, true},
		{"polygon", "", models.ChainFamilyEVM, true},
		{"Solana Mainnet", "", models.ChainFamilySolana, true},
		{"", "SOL", models.ChainFamilySolana, true},
		{"", "", "", false},
	}

	for _, c := range cases {
		got, ok := chainFamilyFromHint(c.name, c.symbol)
		if ok != c.ok || got != c.want {
			t.Errorf("chainFamilyFromHint(%q, %q) = (%s, %v), want (%s, %v)",
				c.name, c.symbol, got, ok, c.want, c.ok)
		}
	}
}

func TestCatalogCache_ServesWithinTTL(t *testing.T) {
	provider := &fakeProvider{assets: evmCatalog()}
	cache := NewCatalogCache(1000000000000) // effectively forever
	resolver := NewResolver(provider, nil, cache)

	ctx := context.Background()
	if _, err := resolver.Resolve(ctx, "wallet-1", models.AssetRef{Id: "usdc-eth"}); err != nil {
		t.Fatalf("First resolve failed: %v", err)
	}

	// Provider starts failing; the cache should still answer.
	provider.assetsErr = errors.New("provider down")
	if _, err := resolver.Resolve(ctx, "wallet-1", models.AssetRef{Id: "usdc-eth"}); err != nil {
		t.Fatalf("Cached resolve failed: %v", err)
	}

	// A different wallet misses the cache and hits the failing provider.
	if _, err := resolver.Resolve(ctx, "wallet-2", models.AssetRef{Id: "usdc-eth"}); err == nil {
		t.Fatal("Expected cache miss for different wallet to surface provider error")
	}
}
