package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rsravisharma/swap-web-sub002/internal/model"
)

func TestOfferService_NegotiationScenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	itemID := env.activeItem(sellerID)

	offer1, err := env.offers.CreateInitialOffer(ctx, buyerID, sellerID, itemID, amount("500"), "interested")
	if err != nil {
		t.Fatalf("CreateInitialOffer returned error: %v", err)
	}
	if offer1.Status != model.OfferStatusPending || offer1.Kind != model.OfferKindInitial {
		t.Fatalf("unexpected root offer: status=%s kind=%s", offer1.Status, offer1.Kind)
	}
	if !offer1.IsRoot() {
		t.Fatal("root offer has a parent")
	}
	if got := env.notifier.last(); got.UserID != sellerID || got.Event != OfferEventCreated {
		t.Fatalf("expected created notification to seller, got %+v", got)
	}

	offer2, err := env.offers.Counter(ctx, offer1.ID, sellerID, amount("600"), "how about 600")
	if err != nil {
		t.Fatalf("Counter returned error: %v", err)
	}
	if offer2.Status != model.OfferStatusPending || offer2.Kind != model.OfferKindCounter {
		t.Fatalf("unexpected counter: status=%s kind=%s", offer2.Status, offer2.Kind)
	}
	if offer2.ParentOfferID == nil || *offer2.ParentOfferID != offer1.ID {
		t.Fatalf("counter parent = %v, want %s", offer2.ParentOfferID, offer1.ID)
	}
	if offer2.SenderID != sellerID || offer2.ReceiverID != buyerID || offer2.ItemID != itemID {
		t.Fatalf("counter parties or item are wrong: %+v", offer2)
	}

	accepted, err := env.offers.Accept(ctx, offer2.ID, buyerID)
	if err != nil {
		t.Fatalf("Accept returned error: %v", err)
	}
	if accepted.Status != model.OfferStatusAccepted {
		t.Fatalf("expected accepted, got %s", accepted.Status)
	}
	if accepted.AcceptedBy == nil || *accepted.AcceptedBy != buyerID || accepted.AcceptedAt == nil {
		t.Fatal("acceptance actor or time not recorded")
	}
	if got := env.notifier.last(); got.UserID != sellerID || got.Event != OfferEventAccepted {
		t.Fatalf("expected accepted notification to seller, got %+v", got)
	}

	chain, err := env.offers.ResolveChain(ctx, offer2.ID)
	if err != nil {
		t.Fatalf("ResolveChain returned error: %v", err)
	}
	if len(chain) != 2 || chain[0].ID != offer1.ID || chain[1].ID != offer2.ID {
		t.Fatalf("unexpected chain: %+v", chain)
	}

	root, err := env.offers.RootOf(ctx, offer2.ID)
	if err != nil {
		t.Fatalf("RootOf returned error: %v", err)
	}
	if root.ID != offer1.ID {
		t.Fatalf("RootOf = %s, want %s", root.ID, offer1.ID)
	}
}

func TestOfferService_AcceptBySenderForbidden(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	offer1, _ := env.offers.CreateInitialOffer(ctx, buyerID, sellerID, env.activeItem(sellerID), amount("500"), "")

	if _, err := env.offers.Accept(ctx, offer1.ID, buyerID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := env.offers.Accept(ctx, offer1.ID, otherID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for a stranger, got %v", err)
	}
	if _, err := env.offers.Accept(ctx, offer1.ID, sellerID); err != nil {
		t.Fatalf("receiver accept returned error: %v", err)
	}
}

func TestOfferService_CancelRules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	offer1, _ := env.offers.CreateInitialOffer(ctx, buyerID, sellerID, env.activeItem(sellerID), amount("500"), "")

	if _, err := env.offers.Cancel(ctx, offer1.ID, sellerID, ""); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	cancelled, err := env.offers.Cancel(ctx, offer1.ID, buyerID, "changed my mind")
	if err != nil {
		t.Fatalf("Cancel returned error: %v", err)
	}
	if cancelled.Status != model.OfferStatusCancelled || cancelled.CancelledAt == nil {
		t.Fatalf("unexpected cancelled offer: %+v", cancelled)
	}
	if cancelled.CancellationReason == nil || *cancelled.CancellationReason != "changed my mind" {
		t.Fatalf("cancellation reason not stored: %v", cancelled.CancellationReason)
	}
	if got := env.notifier.last(); got.UserID != sellerID || got.Event != OfferEventCancelled {
		t.Fatalf("expected cancelled notification to seller, got %+v", got)
	}
}

func TestOfferService_RejectStoresReason(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	offer1, _ := env.offers.CreateInitialOffer(ctx, buyerID, sellerID, env.activeItem(sellerID), amount("500"), "")

	if _, err := env.offers.Reject(ctx, offer1.ID, buyerID, ""); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	rejected, err := env.offers.Reject(ctx, offer1.ID, sellerID, "too low")
	if err != nil {
		t.Fatalf("Reject returned error: %v", err)
	}
	if rejected.Status != model.OfferStatusRejected || rejected.RejectedAt == nil {
		t.Fatalf("unexpected rejected offer: %+v", rejected)
	}
	if rejected.RejectionReason == nil || *rejected.RejectionReason != "too low" {
		t.Fatalf("rejection reason not stored: %v", rejected.RejectionReason)
	}
}

func TestOfferService_TerminalStatesAreFinal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	offer1, _ := env.offers.CreateInitialOffer(ctx, buyerID, sellerID, env.activeItem(sellerID), amount("500"), "")
	if _, err := env.offers.Reject(ctx, offer1.ID, sellerID, ""); err != nil {
		t.Fatalf("Reject returned error: %v", err)
	}

	checks := []struct {
		name string
		call func() error
	}{
		{"accept", func() error { _, err := env.offers.Accept(ctx, offer1.ID, sellerID); return err }},
		{"reject", func() error { _, err := env.offers.Reject(ctx, offer1.ID, sellerID, ""); return err }},
		{"cancel", func() error { _, err := env.offers.Cancel(ctx, offer1.ID, buyerID, ""); return err }},
		{"counter", func() error { _, err := env.offers.Counter(ctx, offer1.ID, sellerID, amount("1"), ""); return err }},
	}
	for _, c := range checks {
		t.Run(c.name, func(t *testing.T) {
			if err := c.call(); !errors.Is(err, ErrInvalidState) {
				t.Fatalf("expected ErrInvalidState, got %v", err)
			}
		})
	}

	offer, _ := env.store.GetOffer(ctx, offer1.ID)
	if offer.Status != model.OfferStatusRejected {
		t.Fatalf("status changed out of a terminal state: %s", offer.Status)
	}
}

func TestOfferService_CreateInitialOfferValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	active := env.activeItem(sellerID)
	draft := uuid.New()
	env.store.AddItem(model.Item{ID: draft, OwnerID: sellerID, Status: model.ItemStatusDraft})
	sold := uuid.New()
	env.store.AddItem(model.Item{ID: sold, OwnerID: sellerID, Status: model.ItemStatusSold})

	tests := []struct {
		name     string
		sender   int64
		receiver int64
		item     uuid.UUID
		amount   string
		want     error
	}{
		{"self dealing", sellerID, sellerID, active, "10", ErrInvalidOffer},
		{"zero amount", buyerID, sellerID, active, "0", ErrInvalidOffer},
		{"negative amount", buyerID, sellerID, active, "-5", ErrInvalidOffer},
		{"three decimals", buyerID, sellerID, active, "10.005", ErrInvalidOffer},
		{"too large", buyerID, sellerID, active, "10000000000", ErrInvalidOffer},
		{"receiver does not own item", buyerID, otherID, active, "10", ErrInvalidOffer},
		{"draft item", buyerID, sellerID, draft, "10", ErrInvalidOffer},
		{"sold item", buyerID, sellerID, sold, "10", ErrInvalidOffer},
		{"missing item", buyerID, sellerID, uuid.New(), "10", ErrItemNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.offers.CreateInitialOffer(ctx, tt.sender, tt.receiver, tt.item, amount(tt.amount), "")
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}

	if _, err := env.offers.CreateInitialOffer(ctx, buyerID, sellerID, active, amount("10.50"), ""); err != nil {
		t.Fatalf("two decimals should be accepted: %v", err)
	}
}

func TestOfferService_CounterRules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	offer1, _ := env.offers.CreateInitialOffer(ctx, buyerID, sellerID, env.activeItem(sellerID), amount("500"), "")

	if _, err := env.offers.Counter(ctx, offer1.ID, otherID, amount("550"), ""); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for a stranger, got %v", err)
	}
	if _, err := env.offers.Counter(ctx, offer1.ID, sellerID, amount("0"), ""); !errors.Is(err, ErrInvalidOffer) {
		t.Fatalf("expected ErrInvalidOffer, got %v", err)
	}
	if _, err := env.offers.Counter(ctx, uuid.New(), sellerID, amount("550"), ""); !errors.Is(err, ErrOfferNotFound) {
		t.Fatalf("expected ErrOfferNotFound, got %v", err)
	}

	if _, err := env.offers.Counter(ctx, offer1.ID, sellerID, amount("550"), ""); err != nil {
		t.Fatalf("Counter returned error: %v", err)
	}
	// offer1 now has a pending counter and is superseded
	if _, err := env.offers.Counter(ctx, offer1.ID, buyerID, amount("520"), ""); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState on superseded parent, got %v", err)
	}
}

func TestOfferService_CounterAfterCounterWasWithdrawn(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	offer1, _ := env.offers.CreateInitialOffer(ctx, buyerID, sellerID, env.activeItem(sellerID), amount("500"), "")
	offer2, _ := env.offers.Counter(ctx, offer1.ID, sellerID, amount("600"), "")
	if _, err := env.offers.Cancel(ctx, offer2.ID, sellerID, ""); err != nil {
		t.Fatalf("Cancel returned error: %v", err)
	}

	offer3, err := env.offers.Counter(ctx, offer1.ID, sellerID, amount("580"), "")
	if err != nil {
		t.Fatalf("Counter after withdrawn counter returned error: %v", err)
	}

	thread, err := env.offers.GetThread(ctx, offer1.ID, buyerID)
	if err != nil {
		t.Fatalf("GetThread returned error: %v", err)
	}
	if !thread.Superseded || thread.IsLiveTip {
		t.Fatalf("offer1 should be superseded by %s: %+v", offer3.ID, thread)
	}
}

func TestOfferService_CounterDepthCap(t *testing.T) {
	env := newTestEnv(t)
	env.offers.maxDepth = 3
	ctx := context.Background()

	tip, _ := env.offers.CreateInitialOffer(ctx, buyerID, sellerID, env.activeItem(sellerID), amount("100"), "")
	actor := sellerID
	for i := 0; i < 3; i++ {
		next, err := env.offers.Counter(ctx, tip.ID, actor, amount("101"), "")
		if err != nil {
			t.Fatalf("counter %d returned error: %v", i+1, err)
		}
		tip = next
		actor = tip.ReceiverID
	}

	if _, err := env.offers.Counter(ctx, tip.ID, actor, amount("102"), ""); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState past the depth cap, got %v", err)
	}
}

func TestOfferService_ExpiredOfferCannotBeAccepted(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	offer1, _ := env.offers.CreateInitialOffer(ctx, buyerID, sellerID, env.activeItem(sellerID), amount("500"), "")
	if offer1.ExpiresAt == nil {
		t.Fatal("expected expires_at to be set")
	}

	later := time.Now().Add(73 * time.Hour)
	env.offers.now = func() time.Time { return later }
	env.store.Now = func() time.Time { return later }

	if _, err := env.offers.Accept(ctx, offer1.ID, sellerID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}

	thread, err := env.offers.GetThread(ctx, offer1.ID, sellerID)
	if err != nil {
		t.Fatalf("GetThread returned error: %v", err)
	}
	if !thread.Expired || thread.DisplayStatus() != "expired" {
		t.Fatalf("expected derived expired status, got %+v", thread)
	}
	if thread.Offer.Status != model.OfferStatusPending {
		t.Fatalf("expired must not be stored, got %s", thread.Offer.Status)
	}
}

func TestOfferService_NoTTL(t *testing.T) {
	env := newTestEnv(t)
	env.offers.ttl = 0
	offer1, err := env.offers.CreateInitialOffer(context.Background(), buyerID, sellerID, env.activeItem(sellerID), amount("5"), "")
	if err != nil {
		t.Fatalf("CreateInitialOffer returned error: %v", err)
	}
	if offer1.ExpiresAt != nil {
		t.Fatalf("expected no expiry, got %v", offer1.ExpiresAt)
	}
}

func TestOfferService_ConcurrentAccept(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	offer1, _ := env.offers.CreateInitialOffer(ctx, buyerID, sellerID, env.activeItem(sellerID), amount("500"), "")

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok       int
		conflict int
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.offers.Accept(ctx, offer1.ID, sellerID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, ErrInvalidState):
				conflict++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if ok != 1 || conflict != 1 {
		t.Fatalf("expected exactly one success and one conflict, got %d and %d", ok, conflict)
	}
}

func TestOfferService_ConcurrentCounters(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	offer1, _ := env.offers.CreateInitialOffer(ctx, buyerID, sellerID, env.activeItem(sellerID), amount("500"), "")

	const workers = 8
	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.offers.Counter(ctx, offer1.ID, sellerID, amount("600"), "")
			if err != nil && !errors.Is(err, ErrInvalidState) {
				t.Errorf("unexpected error: %v", err)
			}
			if err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if ok != 1 {
		t.Fatalf("expected exactly one counter, got %d", ok)
	}
	children, _ := env.store.ListChildOffers(ctx, offer1.ID)
	if len(children) != 1 {
		t.Fatalf("expected one stored counter, got %d", len(children))
	}
}

func TestOfferService_DealFee(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	if _, err := env.settings.Set(ctx, model.SettingDealFeeCoins, 15); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	itemID := env.activeItem(sellerID)

	offer1, _ := env.offers.CreateInitialOffer(ctx, buyerID, sellerID, itemID, amount("500"), "")
	offer2, _ := env.offers.Counter(ctx, offer1.ID, sellerID, amount("550"), "")

	// the seller cannot cover the fee yet
	if _, err := env.offers.Accept(ctx, offer2.ID, buyerID); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	offer, _ := env.store.GetOffer(ctx, offer2.ID)
	if offer.Status != model.OfferStatusPending {
		t.Fatalf("acceptance must roll back, status is %s", offer.Status)
	}

	env.fund(t, sellerID, 20)
	if _, err := env.offers.Accept(ctx, offer2.ID, buyerID); err != nil {
		t.Fatalf("Accept returned error: %v", err)
	}

	balance, _ := env.coins.Balance(ctx, sellerID)
	if balance != 5 {
		t.Fatalf("expected seller balance 5, got %d", balance)
	}
	ledger := env.store.Ledger(sellerID)
	fee := ledger[len(ledger)-1]
	if fee.Amount != -15 || fee.Reason != model.CoinReasonPurchase {
		t.Fatalf("unexpected fee entry: %+v", fee)
	}
	if fee.OfferID == nil || *fee.OfferID != offer2.ID || fee.ItemID == nil || *fee.ItemID != itemID {
		t.Fatal("fee entry does not reference the offer and item")
	}
	if len(env.store.Ledger(buyerID)) != 0 {
		t.Fatal("buyer must not be charged")
	}
	env.assertLedgerConsistent(t, sellerID)
}

// Accepting a counter leaves its parent pending. Both can be accepted and
// the deal fee is charged for each acceptance.
func TestOfferService_ParentStaysAcceptableAfterCounterAccepted(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	if _, err := env.settings.Set(ctx, model.SettingDealFeeCoins, 15); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	env.fund(t, sellerID, 40)
	itemID := env.activeItem(sellerID)

	offer1, _ := env.offers.CreateInitialOffer(ctx, buyerID, sellerID, itemID, amount("500"), "")
	offer2, _ := env.offers.Counter(ctx, offer1.ID, sellerID, amount("550"), "")

	if _, err := env.offers.Accept(ctx, offer2.ID, buyerID); err != nil {
		t.Fatalf("Accept counter returned error: %v", err)
	}
	parent, _ := env.store.GetOffer(ctx, offer1.ID)
	if parent.Status != model.OfferStatusPending {
		t.Fatalf("parent status = %s, want pending", parent.Status)
	}

	if _, err := env.offers.Accept(ctx, offer1.ID, sellerID); err != nil {
		t.Fatalf("Accept parent returned error: %v", err)
	}

	balance, _ := env.coins.Balance(ctx, sellerID)
	if balance != 10 {
		t.Fatalf("expected two deal fees charged, seller balance = %d", balance)
	}
	env.assertLedgerConsistent(t, sellerID)
}

func TestOfferService_ResolveChainDetectsCorruption(t *testing.T) {
	itemID := uuid.New()
	otherItem := uuid.New()
	rootID, aID, bID := uuid.New(), uuid.New(), uuid.New()

	tests := []struct {
		name   string
		offers []model.Offer
		start  uuid.UUID
	}{
		{
			name: "cycle",
			offers: []model.Offer{
				{ID: aID, ItemID: itemID, ParentOfferID: &bID, Kind: model.OfferKindCounter, Status: model.OfferStatusPending},
				{ID: bID, ItemID: itemID, ParentOfferID: &aID, Kind: model.OfferKindCounter, Status: model.OfferStatusPending},
			},
			start: aID,
		},
		{
			name: "self parent",
			offers: []model.Offer{
				{ID: aID, ItemID: itemID, ParentOfferID: &aID, Kind: model.OfferKindCounter, Status: model.OfferStatusPending},
			},
			start: aID,
		},
		{
			name: "missing parent",
			offers: []model.Offer{
				{ID: aID, ItemID: itemID, ParentOfferID: &rootID, Kind: model.OfferKindCounter, Status: model.OfferStatusPending},
			},
			start: aID,
		},
		{
			name: "parent on another item",
			offers: []model.Offer{
				{ID: rootID, ItemID: otherItem, Kind: model.OfferKindInitial, Status: model.OfferStatusPending},
				{ID: aID, ItemID: itemID, ParentOfferID: &rootID, Kind: model.OfferKindCounter, Status: model.OfferStatusPending},
			},
			start: aID,
		},
		{
			name: "root is a counter",
			offers: []model.Offer{
				{ID: rootID, ItemID: itemID, Kind: model.OfferKindCounter, Status: model.OfferStatusPending},
			},
			start: rootID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			for _, o := range tt.offers {
				env.store.PutOffer(o)
			}
			if _, err := env.offers.ResolveChain(context.Background(), tt.start); !errors.Is(err, ErrInvalidState) {
				t.Fatalf("expected ErrInvalidState, got %v", err)
			}
		})
	}
}

func TestOfferService_RootOfLongChain(t *testing.T) {
	env := newTestEnv(t)
	env.offers.maxDepth = 0
	ctx := context.Background()

	root, _ := env.offers.CreateInitialOffer(ctx, buyerID, sellerID, env.activeItem(sellerID), amount("100"), "")
	tip := root
	for i := 0; i < 25; i++ {
		next, err := env.offers.Counter(ctx, tip.ID, tip.ReceiverID, amount("100"), "")
		if err != nil {
			t.Fatalf("counter %d returned error: %v", i+1, err)
		}
		tip = next
	}

	got, err := env.offers.RootOf(ctx, tip.ID)
	if err != nil {
		t.Fatalf("RootOf returned error: %v", err)
	}
	if got.ID != root.ID || got.ParentOfferID != nil {
		t.Fatalf("RootOf = %s, want %s", got.ID, root.ID)
	}
	chain, _ := env.offers.ResolveChain(ctx, tip.ID)
	if len(chain) != 26 {
		t.Fatalf("expected 26 offers in chain, got %d", len(chain))
	}
}

func TestOfferService_GetThread(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	offer1, _ := env.offers.CreateInitialOffer(ctx, buyerID, sellerID, env.activeItem(sellerID), amount("500"), "")
	offer2, _ := env.offers.Counter(ctx, offer1.ID, sellerID, amount("600"), "")
	offer3, _ := env.offers.Counter(ctx, offer2.ID, buyerID, amount("550"), "")

	thread, err := env.offers.GetThread(ctx, offer2.ID, buyerID)
	if err != nil {
		t.Fatalf("GetThread returned error: %v", err)
	}
	if thread.Sequence != 2 || thread.Total != 3 || thread.Counters != 2 {
		t.Fatalf("expected counter 2 of 3, got sequence=%d total=%d counters=%d", thread.Sequence, thread.Total, thread.Counters)
	}
	if !thread.Superseded || thread.IsLiveTip {
		t.Fatalf("offer2 should be superseded, got %+v", thread)
	}

	tip, err := env.offers.GetThread(ctx, offer3.ID, sellerID)
	if err != nil {
		t.Fatalf("GetThread returned error: %v", err)
	}
	if tip.Sequence != 3 || tip.Total != 3 || !tip.IsLiveTip || tip.Superseded {
		t.Fatalf("offer3 should be the live tip, got %+v", tip)
	}

	if _, err := env.offers.GetThread(ctx, offer3.ID, otherID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for a stranger, got %v", err)
	}
}

func TestOfferService_ListOffers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	item := env.activeItem(sellerID)
	first, _ := env.offers.CreateInitialOffer(ctx, buyerID, sellerID, item, amount("1"), "")
	second, _ := env.offers.CreateInitialOffer(ctx, otherID, sellerID, item, amount("2"), "")

	offers, err := env.offers.ListOffers(ctx, sellerID, 10, 0)
	if err != nil {
		t.Fatalf("ListOffers returned error: %v", err)
	}
	if len(offers) != 2 || offers[0].ID != second.ID || offers[1].ID != first.ID {
		t.Fatalf("expected newest first, got %+v", offers)
	}

	mine, _ := env.offers.ListOffers(ctx, buyerID, 10, 0)
	if len(mine) != 1 || mine[0].ID != first.ID {
		t.Fatalf("buyer should only see their offer, got %+v", mine)
	}
}

func TestOfferService_NotifierFailureDoesNotFailOperation(t *testing.T) {
	env := newTestEnv(t)
	env.notifier.err = errors.New("telegram down")

	if _, err := env.offers.CreateInitialOffer(context.Background(), buyerID, sellerID, env.activeItem(sellerID), amount("5"), ""); err != nil {
		t.Fatalf("CreateInitialOffer returned error: %v", err)
	}
}
