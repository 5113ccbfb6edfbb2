package settlement

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"paylance-go/internal/models"
)

func TestBalanceGuard_SufficientBalancePassesThrough(t *testing.T) {
	provider := &fakeProvider{balances: []models.WalletBalance{
		{AssetId: "usdc-eth", Balance: decimal.NewFromInt(500)},
	}}
	guard := NewBalanceGuard(provider)

	net := decimal.RequireFromString("99.5")
	final, err := guard.Clamp(context.Background(), "wallet-1", "usdc-eth", net)
	if err != nil {
		t.Fatalf("Clamp failed: %v", err)
	}
	if !final.Equal(net) {
		t.Errorf("Expected passthrough %s, got %s", net.String(), final.String())
	}
}

func TestBalanceGuard_ClampsToAvailable(t *testing.T) {
	provider := &fakeProvider{balances: []models.WalletBalance{
		{AssetId: "usdc-eth", Balance: decimal.RequireFromString("99.00")},
	}}
	guard := NewBalanceGuard(provider)

	final, err := guard.Clamp(context.Background(), "wallet-1", "usdc-eth", decimal.RequireFromString("99.5"))
	if err != nil {
		t.Fatalf("Clamp failed: %v", err)
	}
	if !final.Equal(decimal.RequireFromString("99.00")) {
		t.Errorf("Expected clamp to 99.00, got %s", final.String())
	}
}

func TestBalanceGuard_QueryFailureProceedsWithComputedAmount(t *testing.T) {
	provider := &fakeProvider{balancesErr: errors.New("timeout")}
	guard := NewBalanceGuard(provider)

	net := decimal.RequireFromString("99.5")
	final, err := guard.Clamp(context.Background(), "wallet-1", "usdc-eth", net)
	if err != nil {
		t.Fatalf("Clamp should proceed on query failure, got: %v", err)
	}
	if !final.Equal(net) {
		t.Errorf("Expected computed amount %s, got %s", net.String(), final.String())
	}
}

func TestBalanceGuard_ZeroBalanceAborts(t *testing.T) {
	provider := &fakeProvider{balances: []models.WalletBalance{
		{AssetId: "usdc-eth", Balance: decimal.Zero},
	}}
	guard := NewBalanceGuard(provider)

	// A zero balance is not a clamp target; the computed net stands, so
	// the payout proceeds.
	final, err := guard.Clamp(context.Background(), "wallet-1", "usdc-eth", decimal.NewFromInt(10))
	if err != nil {
		t.Fatalf("Clamp failed: %v", err)
	}
	if !final.Equal(decimal.NewFromInt(10)) {
		t.Errorf("Expected computed amount to stand, got %s", final.String())
	}
}

func TestBalanceGuard_NonPositiveNetAborts(t *testing.T) {
	provider := &fakeProvider{}
	guard := NewBalanceGuard(provider)

	_, err := guard.Clamp(context.Background(), "wallet-1", "usdc-eth", decimal.Zero)
	if !errors.Is(err, ErrNothingToPay) {
		t.Fatalf("Expected ErrNothingToPay, got: %v", err)
	}
}

func TestBalanceGuard_OtherAssetBalanceIgnored(t *testing.T) {
	provider := &fakeProvider{balances: []models.WalletBalance{
		{AssetId: "usdt-eth", Balance: decimal.NewFromInt(1)},
	}}
	guard := NewBalanceGuard(provider)

	net := decimal.NewFromInt(100)
	final, err := guard.Clamp(context.Background(), "wallet-1", "usdc-eth", net)
	if err != nil {
		t.Fatalf("Clamp failed: %v", err)
	}
	if !final.Equal(net) {
		t.Errorf("Expected other-asset balance to be ignored, got %s", final.String())
	}
}
