package webhook

import (
	"testing"

	"github.com/shopspring/decimal"

	"paylance-go/internal/models"
)

func TestParse_DepositWithStringAmount(t *testing.T) {
	raw := []byte(`{
		"id": "evt-1",
		"event": "deposit.success",
		"data": {
			"addressId": "addr-1",
			"walletId": "wallet-1",
			"amount": "100.5",
			"txHash": "0xabc",
			"asset": {
				"id": "usdc-eth",
				"symbol": "USDC",
				"blockchain": {"name": "ethereum", "symbol": "ETH"}
			},
			"metadata": {"documentId": "doc-1"}
		}
	}`)

	event, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if event.Kind != models.EventDepositSuccess {
		t.Fatalf("Expected deposit.success, got %s", event.Kind)
	}
	if event.Deposit == nil {
		t.Fatal("Expected deposit payload, got nil")
	}
	if event.Deposit.AddressId != "addr-1" {
		t.Errorf("Expected address addr-1, got %s", event.Deposit.AddressId)
	}
	if !event.Deposit.Amount.Equal(decimal.RequireFromString("100.5")) {
		t.Errorf("Expected amount 100.5, got %s", event.Deposit.Amount.String())
	}
	if event.Deposit.Asset.Symbol != "USDC" {
		t.Errorf("Expected asset USDC, got %s", event.Deposit.Asset.Symbol)
	}
	if event.Deposit.Metadata.DocumentId != "doc-1" {
		t.Errorf("Expected document doc-1, got %s", event.Deposit.Metadata.DocumentId)
	}
}

func TestParse_DepositWithNumericAmountAndNestedAddress(t *testing.T) {
	raw := []byte(`{
		"type": "deposit.success",
		"data": {
			"address": {"id": "addr-2"},
			"value": 42.25,
			"hash": "0xdef",
			"asset": {"symbol": "USDT"}
		}
	}`)

	event, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if event.Deposit.AddressId != "addr-2" {
		t.Errorf("Expected nested address id addr-2, got %s", event.Deposit.AddressId)
	}
	if !event.Deposit.Amount.Equal(decimal.RequireFromString("42.25")) {
		t.Errorf("Expected amount 42.25, got %s", event.Deposit.Amount.String())
	}
	if event.Deposit.TxHash != "0xdef" {
		t.Errorf("Expected hash fallback 0xdef, got %s", event.Deposit.TxHash)
	}
}

func TestParse_DepositWithoutAmountFails(t *testing.T) {
	raw := []byte(`{"event": "deposit.success", "data": {"addressId": "addr-1"}}`)
	if _, err := Parse(raw); err == nil {
		t.Fatal("Expected error for deposit without amount")
	}
}

func TestParse_WithdrawalConfirmedMapsToSuccess(t *testing.T) {
	raw := []byte(`{
		"event": "withdrawal.confirmed",
		"data": {"id": "payout-1", "txHash": "0x123", "amount": "99.5"}
	}`)

	event, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if event.Kind != models.EventWithdrawalSuccess {
		t.Fatalf("Expected withdrawal.success, got %s", event.Kind)
	}
	if event.Withdrawal.Id != "payout-1" {
		t.Errorf("Expected payout id payout-1, got %s", event.Withdrawal.Id)
	}
}

func TestParse_WithdrawalFailedCarriesReason(t *testing.T) {
	raw := []byte(`{
		"event": "withdrawal.failed",
		"data": {"id": "payout-2", "reason": "insufficient funds"}
	}`)

	event, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if event.Kind != models.EventWithdrawalFailed {
		t.Fatalf("Expected withdrawal.failed, got %s", event.Kind)
	}
	if event.Withdrawal.Reason != "insufficient funds" {
		t.Errorf("Expected failure reason, got %q", event.Withdrawal.Reason)
	}
}

func TestParse_UnknownEventStillParses(t *testing.T) {
	raw := []byte(`{"event": "address.created", "data": {}}`)

	event, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if event.Kind != models.EventUnknown {
		t.Fatalf("Expected unknown kind, got %s", event.Kind)
	}
	if event.RawType != "address.created" {
		t.Errorf("Expected raw type preserved, got %s", event.RawType)
	}
}

func TestParse_InvalidJson(t *testing.T) {
	if _, err := Parse([]byte(`not json`)); err == nil {
		t.Fatal("Expected error for invalid json")
	}
}
