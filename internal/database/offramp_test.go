package database

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"paylance-go/internal/models"
	"paylance-go/internal/store"
)

func TestUpdateOfframpOrder_Transitions(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	user := createTestUser(t, service)
	orderId, err := service.CreateOfframpOrder(ctx, user.Id, decimal.NewFromInt(500), "USDC")
	if err != nil {
		t.Fatalf("CreateOfframpOrder failed: %v", err)
	}

	order, err := service.UpdateOfframpOrder(ctx, store.UpdateOfframpOrderParams{
		OrderId: orderId,
		Status:  models.OfframpStatusProcessing,
		TxHash:  "0xchain",
	})
	if err != nil {
		t.Fatalf("UpdateOfframpOrder failed: %v", err)
	}
	if order.Status != models.OfframpStatusProcessing {
		t.Errorf("Expected PROCESSING, got %s", order.Status)
	}
	if order.TxHash != "0xchain" {
		t.Errorf("Expected tx hash stored, got %s", order.TxHash)
	}

	order, err = service.UpdateOfframpOrder(ctx, store.UpdateOfframpOrderParams{
		OrderId: orderId,
		Status:  models.OfframpStatusCompleted,
	})
	if err != nil {
		t.Fatalf("UpdateOfframpOrder failed: %v", err)
	}
	if order.Status != models.OfframpStatusCompleted {
		t.Errorf("Expected COMPLETED, got %s", order.Status)
	}
	// Earlier tx hash survives an update that carries none.
	if order.TxHash != "0xchain" {
		t.Errorf("Expected tx hash preserved, got %s", order.TxHash)
	}
}

func TestUpdateOfframpOrder_TerminalStatusSticky(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	user := createTestUser(t, service)
	orderId, _ := service.CreateOfframpOrder(ctx, user.Id, decimal.NewFromInt(500), "USDC")

	if _, err := service.UpdateOfframpOrder(ctx, store.UpdateOfframpOrderParams{
		OrderId: orderId,
		Status:  models.OfframpStatusCompleted,
	}); err != nil {
		t.Fatalf("UpdateOfframpOrder failed: %v", err)
	}

	// A late PENDING callback must not regress the order.
	order, err := service.UpdateOfframpOrder(ctx, store.UpdateOfframpOrderParams{
		OrderId: orderId,
		Status:  models.OfframpStatusPending,
	})
	if err != nil {
		t.Fatalf("Out-of-order callback must not error: %v", err)
	}
	if order.Status != models.OfframpStatusCompleted {
		t.Errorf("Expected COMPLETED to stick, got %s", order.Status)
	}
}

func TestUpdateOfframpOrder_FailureReason(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	user := createTestUser(t, service)
	orderId, _ := service.CreateOfframpOrder(ctx, user.Id, decimal.NewFromInt(100), "USDT")

	order, err := service.UpdateOfframpOrder(ctx, store.UpdateOfframpOrderParams{
		OrderId:       orderId,
		Status:        models.OfframpStatusFailed,
		FailureReason: "partner rejected kyc",
	})
	if err != nil {
		t.Fatalf("UpdateOfframpOrder failed: %v", err)
	}
	if order.FailureReason != "partner rejected kyc" {
		t.Errorf("Expected failure reason stored, got %q", order.FailureReason)
	}
}

func TestUpdateOfframpOrder_NotFound(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	_, err := service.UpdateOfframpOrder(context.Background(), store.UpdateOfframpOrderParams{
		OrderId: "ghost",
		Status:  models.OfframpStatusPending,
	})
	if !errors.Is(err, store.ErrOrderNotFound) {
		t.Fatalf("Expected ErrOrderNotFound, got: %v", err)
	}
}

func TestRecordWebhookEvent_DuplicateIdStillRecorded(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	params := store.RecordEventParams{
		Id:        "evt-1",
		EventType: "deposit.success",
		Payload:   []byte(`{"event":"deposit.success"}`),
	}

	if err := service.RecordWebhookEvent(ctx, params); err != nil {
		t.Fatalf("First RecordWebhookEvent failed: %v", err)
	}
	// A redelivery with the same payload id must still land as a row.
	if err := service.RecordWebhookEvent(ctx, params); err != nil {
		t.Fatalf("Redelivered event must be recorded: %v", err)
	}

	var count int
	if err := service.db.QueryRow(`SELECT COUNT(*) FROM webhook_events WHERE event_type = 'deposit.success'`).Scan(&count); err != nil {
		t.Fatalf("Count query failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected two audit rows, got %d", count)
	}
}
