package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/rsravisharma/swap-web-sub002/internal/model"
)

func TestCoinService_DebitWithinBalance(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.fund(t, buyerID, 100)

	entry, err := env.coins.Debit(ctx, buyerID, 30, model.CoinReasonItemListing, CoinOptions{})
	if err != nil {
		t.Fatalf("Debit returned error: %v", err)
	}
	if entry.Amount != -30 || entry.BalanceAfter != 70 {
		t.Fatalf("unexpected entry: amount=%d balance_after=%d", entry.Amount, entry.BalanceAfter)
	}
	if entry.Reason != model.CoinReasonItemListing {
		t.Fatalf("unexpected reason %q", entry.Reason)
	}

	balance, err := env.coins.Balance(ctx, buyerID)
	if err != nil {
		t.Fatalf("Balance returned error: %v", err)
	}
	if balance != 70 {
		t.Fatalf("expected balance 70, got %d", balance)
	}
	if got := len(env.store.Ledger(buyerID)); got != 2 {
		t.Fatalf("expected 2 ledger rows, got %d", got)
	}
	env.assertLedgerConsistent(t, buyerID)
}

func TestCoinService_DebitInsufficientWritesNothing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.fund(t, buyerID, 100)
	if _, err := env.coins.Debit(ctx, buyerID, 30, model.CoinReasonItemListing, CoinOptions{}); err != nil {
		t.Fatalf("Debit returned error: %v", err)
	}
	before := len(env.store.Ledger(buyerID))

	_, err := env.coins.Debit(ctx, buyerID, 1000, model.CoinReasonItemListing, CoinOptions{})
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	balance, _ := env.coins.Balance(ctx, buyerID)
	if balance != 70 {
		t.Fatalf("expected balance to stay 70, got %d", balance)
	}
	if got := len(env.store.Ledger(buyerID)); got != before {
		t.Fatalf("expected no new ledger rows, got %d -> %d", before, got)
	}
}

func TestCoinService_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		amount int64
		reason model.CoinReason
		want   error
	}{
		{name: "zero amount", amount: 0, reason: model.CoinReasonRefund, want: ErrInvalidAmount},
		{name: "negative amount", amount: -5, reason: model.CoinReasonRefund, want: ErrInvalidAmount},
		{name: "unknown reason", amount: 5, reason: model.CoinReason("gift"), want: ErrInvalidReason},
		{name: "empty reason", amount: 5, reason: "", want: ErrInvalidReason},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := env.coins.Credit(ctx, buyerID, tt.amount, tt.reason, CoinOptions{}); !errors.Is(err, tt.want) {
				t.Fatalf("Credit: expected %v, got %v", tt.want, err)
			}
			if _, err := env.coins.Debit(ctx, buyerID, tt.amount, tt.reason, CoinOptions{}); !errors.Is(err, tt.want) {
				t.Fatalf("Debit: expected %v, got %v", tt.want, err)
			}
		})
	}

	if got := len(env.store.Ledger(buyerID)); got != 0 {
		t.Fatalf("rejected mutations must not be logged, got %d rows", got)
	}
}

func TestCoinService_UnknownUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.coins.Credit(ctx, 42, 10, model.CoinReasonRefund, CoinOptions{}); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("Credit: expected ErrUserNotFound, got %v", err)
	}
	if _, err := env.coins.Debit(ctx, 42, 10, model.CoinReasonRefund, CoinOptions{}); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("Debit: expected ErrUserNotFound, got %v", err)
	}
	if _, err := env.coins.Balance(ctx, 42); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("Balance: expected ErrUserNotFound, got %v", err)
	}
}

func TestCoinService_StorageFailureIsWrapped(t *testing.T) {
	env := newTestEnv(t)
	boom := errors.New("connection reset")
	env.store.WithFailure("CreditCoins", boom)

	_, err := env.coins.Credit(context.Background(), buyerID, 10, model.CoinReasonRefund, CoinOptions{})
	if !errors.Is(err, ErrStorageFailure) {
		t.Fatalf("expected ErrStorageFailure, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected the cause to be kept, got %v", err)
	}
}

func TestCoinService_OptionsAreStored(t *testing.T) {
	env := newTestEnv(t)
	itemID := uuid.New()
	offerID := uuid.New()

	entry, err := env.coins.Credit(context.Background(), buyerID, 5, model.CoinReasonRefund, CoinOptions{
		ItemID:      &itemID,
		OfferID:     &offerID,
		Description: "refund",
	})
	if err != nil {
		t.Fatalf("Credit returned error: %v", err)
	}
	if entry.ItemID == nil || *entry.ItemID != itemID {
		t.Fatalf("item id not stored: %v", entry.ItemID)
	}
	if entry.OfferID == nil || *entry.OfferID != offerID {
		t.Fatalf("offer id not stored: %v", entry.OfferID)
	}
	if entry.Description == nil || *entry.Description != "refund" {
		t.Fatalf("description not stored: %v", entry.Description)
	}
}

func TestCoinService_ConcurrentDebits(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	const (
		workers = 20
		cost    = 10
		initial = 75 // covers 7 debits
	)
	env.fund(t, buyerID, initial)

	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		succeeded    int
		insufficient int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.coins.Debit(ctx, buyerID, cost, model.CoinReasonPurchase, CoinOptions{})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrInsufficientBalance):
				insufficient++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded != initial/cost {
		t.Fatalf("expected %d successful debits, got %d", initial/cost, succeeded)
	}
	if insufficient != workers-succeeded {
		t.Fatalf("expected %d insufficient results, got %d", workers-succeeded, insufficient)
	}

	balance, _ := env.coins.Balance(ctx, buyerID)
	if balance != initial-int64(succeeded)*cost {
		t.Fatalf("expected balance %d, got %d", initial-int64(succeeded)*cost, balance)
	}
	env.assertLedgerConsistent(t, buyerID)
}

func TestCoinService_ConcurrentCredits(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := env.coins.Credit(ctx, sellerID, 50, model.CoinReasonReferralBonus, CoinOptions{}); err != nil {
				t.Errorf("Credit returned error: %v", err)
			}
		}()
	}
	wg.Wait()

	balance, _ := env.coins.Balance(ctx, sellerID)
	if balance != 500 {
		t.Fatalf("expected balance 500, got %d", balance)
	}

	ledger := env.store.Ledger(sellerID)
	if len(ledger) != 10 {
		t.Fatalf("expected 10 ledger rows, got %d", len(ledger))
	}
	ids := make(map[uuid.UUID]bool)
	var running int64
	for _, entry := range ledger {
		ids[entry.ID] = true
		running += entry.Amount
		if entry.BalanceAfter != running {
			t.Fatalf("balance_after %d does not match running total %d", entry.BalanceAfter, running)
		}
	}
	if len(ids) != 10 {
		t.Fatalf("expected 10 distinct transactions, got %d", len(ids))
	}
	if !sort.SliceIsSorted(ledger, func(i, j int) bool { return ledger[i].BalanceAfter < ledger[j].BalanceAfter }) {
		t.Fatal("balance_after is not increasing in commit order")
	}
}

func TestCoinService_TransactionsNewestFirst(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		env.fund(t, buyerID, int64(i))
	}

	txs, err := env.coins.Transactions(ctx, buyerID, 2, 0)
	if err != nil {
		t.Fatalf("Transactions returned error: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(txs))
	}
	if txs[0].Amount != 3 || txs[1].Amount != 2 {
		t.Fatalf("expected newest first, got %d then %d", txs[0].Amount, txs[1].Amount)
	}

	rest, err := env.coins.Transactions(ctx, buyerID, 0, 2)
	if err != nil {
		t.Fatalf("Transactions returned error: %v", err)
	}
	if len(rest) != 1 || rest[0].Amount != 1 {
		t.Fatalf("unexpected second page: %+v", rest)
	}
}

func TestClampLimit(t *testing.T) {
	tests := map[int]int{-1: 20, 0: 20, 5: 5, 100: 100, 500: 100}
	for in, want := range tests {
		if got := clampLimit(in); got != want {
			t.Errorf("clampLimit(%d) = %d, want %d", in, got, want)
		}
	}
}
