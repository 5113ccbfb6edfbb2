package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"paylance-go/internal/models"
	"paylance-go/internal/store"
)

func setupTestDb(t *testing.T) (*Service, func()) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	service := &Service{db: db}
	if err := service.InitSchema(); err != nil {
		t.Fatalf("Failed to create test schema: %v", err)
	}

	cleanup := func() {
		db.Close()
	}

	return service, cleanup
}

func createTestUser(t *testing.T, s *Service) *models.User {
	t.Helper()
	user, err := s.CreateUser(context.Background(), "Test User", "test@example.com",
		"0x52f1984Cd3e46e1214dB222D3Ff63712E7aCEedD", "")
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}

func TestCreditDeposit_UpdatesBalance(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	user := createTestUser(t, service)

	err := service.CreditDeposit(ctx, store.CreditDepositParams{
		UserId: user.Id,
		Chain:  "ethereum",
		Asset:  "USDC",
		Amount: decimal.NewFromInt(100),
		TxHash: "0xaaa",
	})
	if err != nil {
		t.Fatalf("CreditDeposit failed: %v", err)
	}

	balance, err := service.GetUserBalance(ctx, user.Id, "ethereum", "USDC")
	if err != nil {
		t.Fatalf("GetUserBalance failed: %v", err)
	}
	if !balance.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Expected balance 100, got %s", balance.String())
	}

	// A second deposit with a different hash accumulates.
	err = service.CreditDeposit(ctx, store.CreditDepositParams{
		UserId: user.Id,
		Chain:  "ethereum",
		Asset:  "USDC",
		Amount: decimal.RequireFromString("50.25"),
		TxHash: "0xbbb",
	})
	if err != nil {
		t.Fatalf("Second CreditDeposit failed: %v", err)
	}

	balance, _ = service.GetUserBalance(ctx, user.Id, "ethereum", "USDC")
	if !balance.Equal(decimal.RequireFromString("150.25")) {
		t.Errorf("Expected balance 150.25, got %s", balance.String())
	}
}

func TestCreditDeposit_DuplicateHashRejected(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	user := createTestUser(t, service)

	params := store.CreditDepositParams{
		UserId: user.Id,
		Chain:  "ethereum",
		Asset:  "USDC",
		Amount: decimal.NewFromInt(100),
		TxHash: "0xdup",
	}

	if err := service.CreditDeposit(ctx, params); err != nil {
		t.Fatalf("First CreditDeposit failed: %v", err)
	}

	err := service.CreditDeposit(ctx, params)
	if !errors.Is(err, store.ErrDuplicateTransaction) {
		t.Fatalf("Expected ErrDuplicateTransaction, got: %v", err)
	}

	// The balance must reflect exactly one credit.
	balance, _ := service.GetUserBalance(ctx, user.Id, "ethereum", "USDC")
	if !balance.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Expected balance 100 after duplicate, got %s", balance.String())
	}
}

func TestRecordPayout_SameHashAsDepositAllowed(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	user := createTestUser(t, service)

	if err := service.CreditDeposit(ctx, store.CreditDepositParams{
		UserId: user.Id, Chain: "ethereum", Asset: "USDC",
		Amount: decimal.NewFromInt(100), TxHash: "0xshared",
	}); err != nil {
		t.Fatalf("CreditDeposit failed: %v", err)
	}

	// Deposit and payout rows share the hash; purposes differ.
	err := service.RecordPayout(ctx, store.RecordPayoutParams{
		UserId:      user.Id,
		Chain:       "EVM",
		Token:       "USDC",
		TxHash:      "0xshared",
		GrossAmount: decimal.NewFromInt(100),
		FeeAmount:   decimal.RequireFromString("0.5"),
		NetAmount:   decimal.RequireFromString("99.5"),
		Status:      models.TxStatusProcessing,
		PayoutId:    "payout-1",
	})
	if err != nil {
		t.Fatalf("RecordPayout failed: %v", err)
	}

	// A second payout row for the same deposit hash must be rejected.
	err = service.RecordPayout(ctx, store.RecordPayoutParams{
		UserId:    user.Id,
		TxHash:    "0xshared",
		NetAmount: decimal.RequireFromString("99.5"),
		Status:    models.TxStatusProcessing,
		PayoutId:  "payout-2",
	})
	if !errors.Is(err, store.ErrDuplicateTransaction) {
		t.Fatalf("Expected ErrDuplicateTransaction for duplicate payout, got: %v", err)
	}
}

func TestUpdatePayoutStatus(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	user := createTestUser(t, service)

	if err := service.RecordPayout(ctx, store.RecordPayoutParams{
		UserId:      user.Id,
		Chain:       "EVM",
		Token:       "USDC",
		TxHash:      "0xdep",
		GrossAmount: decimal.NewFromInt(100),
		NetAmount:   decimal.RequireFromString("99.5"),
		Status:      models.TxStatusProcessing,
		PayoutId:    "payout-1",
	}); err != nil {
		t.Fatalf("RecordPayout failed: %v", err)
	}

	if err := service.UpdatePayoutStatus(ctx, "payout-1", models.TxStatusConfirmed, "0xchain"); err != nil {
		t.Fatalf("UpdatePayoutStatus failed: %v", err)
	}

	history, err := service.GetTransactionHistory(ctx, user.Id, 10, 0)
	if err != nil {
		t.Fatalf("GetTransactionHistory failed: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("Expected one transaction, got %d", len(history))
	}
	if history[0].Status != models.TxStatusConfirmed {
		t.Errorf("Expected CONFIRMED, got %s", history[0].Status)
	}
	if history[0].TxHash != "0xchain" {
		t.Errorf("Expected on-chain hash, got %s", history[0].TxHash)
	}
}

func TestGetPayoutByPayoutId(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	user := createTestUser(t, service)

	if err := service.RecordPayout(ctx, store.RecordPayoutParams{
		UserId:      user.Id,
		Chain:       "EVM",
		Token:       "USDC",
		TxHash:      "0xdep",
		GrossAmount: decimal.NewFromInt(100),
		FeeAmount:   decimal.RequireFromString("0.5"),
		NetAmount:   decimal.RequireFromString("99.5"),
		Status:      models.TxStatusProcessing,
		PayoutId:    "payout-1",
		DocumentId:  "doc-1",
	}); err != nil {
		t.Fatalf("RecordPayout failed: %v", err)
	}

	payout, err := service.GetPayoutByPayoutId(ctx, "payout-1")
	if err != nil {
		t.Fatalf("GetPayoutByPayoutId failed: %v", err)
	}
	if payout.UserId != user.Id {
		t.Errorf("Expected user %s, got %s", user.Id, payout.UserId)
	}
	if payout.TxHash != "0xdep" {
		t.Errorf("Expected deposit hash 0xdep, got %s", payout.TxHash)
	}
	if !payout.NetAmount.Equal(decimal.RequireFromString("99.5")) {
		t.Errorf("Expected net 99.5, got %s", payout.NetAmount.String())
	}
	if !payout.FeeAmount.Equal(decimal.RequireFromString("0.5")) {
		t.Errorf("Expected fee 0.5, got %s", payout.FeeAmount.String())
	}
	if payout.DocumentId != "doc-1" {
		t.Errorf("Expected doc-1, got %s", payout.DocumentId)
	}

	if _, err := service.GetPayoutByPayoutId(ctx, "ghost"); !errors.Is(err, store.ErrPayoutNotFound) {
		t.Fatalf("Expected ErrPayoutNotFound, got: %v", err)
	}
	if _, err := service.GetPayoutByPayoutId(ctx, ""); !errors.Is(err, store.ErrPayoutNotFound) {
		t.Fatalf("Expected ErrPayoutNotFound for empty id, got: %v", err)
	}
}

func TestFindUserByAddressId(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	user := createTestUser(t, service)

	if err := service.StoreAddress(ctx, "addr-1", user.Id, "0xdeposit", "wallet-1", "ethereum"); err != nil {
		t.Fatalf("StoreAddress failed: %v", err)
	}

	found, err := service.FindUserByAddressId(ctx, "addr-1")
	if err != nil {
		t.Fatalf("FindUserByAddressId failed: %v", err)
	}
	if found.Id != user.Id {
		t.Errorf("Expected user %s, got %s", user.Id, found.Id)
	}

	if _, err := service.FindUserByAddressId(ctx, "nope"); !errors.Is(err, store.ErrUserNotFound) {
		t.Fatalf("Expected ErrUserNotFound, got: %v", err)
	}
}

func TestGetAllUserBalances(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	user := createTestUser(t, service)

	for i, p := range []store.CreditDepositParams{
		{UserId: user.Id, Chain: "ethereum", Asset: "USDC", Amount: decimal.NewFromInt(10)},
		{UserId: user.Id, Chain: "solana", Asset: "USDC", Amount: decimal.NewFromInt(20)},
	} {
		p.TxHash = string(rune('a' + i))
		if err := service.CreditDeposit(ctx, p); err != nil {
			t.Fatalf("CreditDeposit failed: %v", err)
		}
	}

	balances, err := service.GetAllUserBalances(ctx, user.Id)
	if err != nil {
		t.Fatalf("GetAllUserBalances failed: %v", err)
	}
	if len(balances) != 2 {
		t.Fatalf("Expected two balance rows, got %d", len(balances))
	}
}
