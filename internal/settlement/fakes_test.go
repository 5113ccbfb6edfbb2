package settlement

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"paylance-go/internal/models"
	"paylance-go/internal/store"
)

// fakeStore is an in-memory store.Store for pipeline tests. It enforces
// the same (tx_hash, purpose) idempotency rule as the SQLite backend.
type fakeStore struct {
	users         map[string]*models.User       // by id
	addresses     map[string]string             // address id -> user id
	documents     map[string]*models.Document   // by id
	orders        map[string]*models.OfframpOrder
	deposits      []store.CreditDepositParams
	payouts       []store.RecordPayoutParams
	notifications []store.CreateNotificationParams
	events        []store.RecordEventParams
	paidDocs      []store.MarkDocumentPaidParams
	paidMilestones []string
	recomputed    []string

	creditErr error
	payoutErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:     make(map[string]*models.User),
		addresses: make(map[string]string),
		documents: make(map[string]*models.Document),
		orders:    make(map[string]*models.OfframpOrder),
	}
}

func (f *fakeStore) GetUserById(_ context.Context, userId string) (*models.User, error) {
	u, ok := f.users[userId]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeStore) FindUserByAddressId(_ context.Context, addressId string) (*models.User, error) {
	userId, ok := f.addresses[addressId]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return f.users[userId], nil
}

func (f *fakeStore) RecordWebhookEvent(_ context.Context, params store.RecordEventParams) error {
	f.events = append(f.events, params)
	return nil
}

func (f *fakeStore) CreditDeposit(_ context.Context, params store.CreditDepositParams) error {
	if f.creditErr != nil {
		return f.creditErr
	}
	for _, d := range f.deposits {
		if d.TxHash == params.TxHash {
			return store.ErrDuplicateTransaction
		}
	}
	f.deposits = append(f.deposits, params)
	return nil
}

func (f *fakeStore) RecordPayout(_ context.Context, params store.RecordPayoutParams) error {
	if f.payoutErr != nil {
		return f.payoutErr
	}
	for _, p := range f.payouts {
		if p.TxHash == params.TxHash {
			return store.ErrDuplicateTransaction
		}
	}
	f.payouts = append(f.payouts, params)
	return nil
}

func (f *fakeStore) GetPayoutByPayoutId(_ context.Context, payoutId string) (*models.Transaction, error) {
	for _, p := range f.payouts {
		if p.PayoutId == payoutId {
			return &models.Transaction{
				UserId:      p.UserId,
				Direction:   models.TxDirectionDebit,
				Chain:       p.Chain,
				TxHash:      p.TxHash,
				GrossAmount: p.GrossAmount,
				FeeAmount:   p.FeeAmount,
				NetAmount:   p.NetAmount,
				Token:       p.Token,
				Status:      p.Status,
				Purpose:     "payout",
				DocumentId:  p.DocumentId,
				PayoutId:    p.PayoutId,
				Reason:      p.Reason,
			}, nil
		}
	}
	return nil, store.ErrPayoutNotFound
}

func (f *fakeStore) UpdatePayoutStatus(_ context.Context, payoutId, status, txHash string) error {
	for i := range f.payouts {
		if f.payouts[i].PayoutId == payoutId {
			f.payouts[i].Status = status
			if txHash != "" {
				f.payouts[i].TxHash = txHash
			}
			return nil
		}
	}
	return fmt.Errorf("payout %s not found", payoutId)
}

func (f *fakeStore) GetUserBalance(_ context.Context, userId, chain, asset string) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, d := range f.deposits {
		if d.UserId == userId && d.Chain == chain && d.Asset == asset {
			total = total.Add(d.Amount)
		}
	}
	return total, nil
}

func (f *fakeStore) GetTransactionHistory(context.Context, string, int, int) ([]models.Transaction, error) {
	return nil, nil
}

func (f *fakeStore) GetDocument(_ context.Context, documentId string) (*models.Document, error) {
	doc, ok := f.documents[documentId]
	if !ok {
		return nil, store.ErrDocumentNotFound
	}
	return doc, nil
}

func (f *fakeStore) MarkDocumentPaid(_ context.Context, params store.MarkDocumentPaidParams) error {
	doc, ok := f.documents[params.DocumentId]
	if !ok {
		return store.ErrDocumentNotFound
	}
	doc.Status = models.DocumentStatusPaid
	f.paidDocs = append(f.paidDocs, params)
	return nil
}

func (f *fakeStore) MarkMilestonePaid(_ context.Context, milestoneId string) error {
	f.paidMilestones = append(f.paidMilestones, milestoneId)
	return nil
}

func (f *fakeStore) RecomputeClientEarnings(_ context.Context, clientId string) error {
	f.recomputed = append(f.recomputed, clientId)
	return nil
}

func (f *fakeStore) CreateNotification(_ context.Context, params store.CreateNotificationParams) error {
	f.notifications = append(f.notifications, params)
	return nil
}

func (f *fakeStore) UpdateOfframpOrder(_ context.Context, params store.UpdateOfframpOrderParams) (*models.OfframpOrder, error) {
	order, ok := f.orders[params.OrderId]
	if !ok {
		return nil, store.ErrOrderNotFound
	}
	order.Status = params.Status
	if params.TxHash != "" {
		order.TxHash = params.TxHash
	}
	if params.FailureReason != "" {
		order.FailureReason = params.FailureReason
	}
	return order, nil
}

func (f *fakeStore) Close() {}

func (f *fakeStore) notificationTypes() []string {
	types := make([]string, 0, len(f.notifications))
	for _, n := range f.notifications {
		types = append(types, n.Type)
	}
	return types
}

func (f *fakeStore) hasNotification(notificationType string) bool {
	for _, n := range f.notifications {
		if n.Type == notificationType {
			return true
		}
	}
	return false
}

// fakeMirror records mirror postings in call order.
type fakeMirror struct {
	calls   []string
	entries []MirrorEntry
}

func (f *fakeMirror) DepositCredited(_ context.Context, entry MirrorEntry) {
	f.calls = append(f.calls, "deposit_credited")
	f.entries = append(f.entries, entry)
}

func (f *fakeMirror) PayoutInitiated(_ context.Context, entry MirrorEntry) {
	f.calls = append(f.calls, "payout_initiated")
	f.entries = append(f.entries, entry)
}

func (f *fakeMirror) PayoutFailed(_ context.Context, entry MirrorEntry) {
	f.calls = append(f.calls, "payout_failed")
	f.entries = append(f.entries, entry)
}

// fakeProvider is an in-memory custody.Provider with scriptable
// failures.
type fakeProvider struct {
	assets       []models.CustodyAsset
	balances     []models.WalletBalance
	assetsErr    error
	balancesErr  error
	withdrawErr  error
	withdrawals  []models.WithdrawalRequest
	nextPayoutId string
}

func (f *fakeProvider) ListAssets(context.Context, string) ([]models.CustodyAsset, error) {
	if f.assetsErr != nil {
		return nil, f.assetsErr
	}
	return f.assets, nil
}

func (f *fakeProvider) GetWalletBalances(context.Context, string) ([]models.WalletBalance, error) {
	if f.balancesErr != nil {
		return nil, f.balancesErr
	}
	return f.balances, nil
}

func (f *fakeProvider) InitiateWithdrawal(_ context.Context, req models.WithdrawalRequest) (*models.WithdrawalResponse, error) {
	if f.withdrawErr != nil {
		return nil, f.withdrawErr
	}
	f.withdrawals = append(f.withdrawals, req)
	id := f.nextPayoutId
	if id == "" {
		id = "payout-fake"
	}
	return &models.WithdrawalResponse{Id: id, Status: "PENDING"}, nil
}
