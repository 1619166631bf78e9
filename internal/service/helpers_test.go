package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/rsravisharma/swap-web-sub002/internal/config"
	"github.com/rsravisharma/swap-web-sub002/internal/model"
	"github.com/rsravisharma/swap-web-sub002/internal/repository/memory"
)

var _ Store = (*memory.Store)(nil)

func init() {
	zerolog.SetGlobalLevel(zerolog.Disabled)
}

const (
	buyerID  int64 = 1001
	sellerID int64 = 2002
	otherID  int64 = 3003
	adminID  int64 = 9009
)

type testEnv struct {
	store    *memory.Store
	settings *SettingsService
	coins    *CoinService
	offers   *OfferService
	listing  *ListingService
	referral *ReferralService
	users    *UserService
	admin    *AdminService
	notifier *recordingNotifier
}

func testCoinsConfig() config.CoinsConfig {
	return config.CoinsConfig{
		ListingFee:         10,
		DealFee:            0,
		ReferralBonus:      50,
		LoginStreakBonus:   5,
		LoginStreakDays:    7,
		MonthlyStreakBonus: 100,
		MonthlyStreakDays:  30,
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := memory.New()
	for _, id := range []int64{buyerID, sellerID, otherID, adminID} {
		store.AddUser(model.User{ID: id, ReferralCode: "code" + uuid.NewString()[:4]})
	}
	store.AddAdmin(adminID)

	coinsCfg := testCoinsConfig()
	settings := NewSettingsService(store, coinsCfg)
	coins := NewCoinService(store)
	offers := NewOfferService(store, store, settings, config.OffersConfig{TTL: 72 * time.Hour, MaxCounterDepth: 10})
	notifier := &recordingNotifier{}
	offers.SetNotifier(notifier)

	return &testEnv{
		store:    store,
		settings: settings,
		coins:    coins,
		offers:   offers,
		listing:  NewListingService(store, coins, settings),
		referral: NewReferralService(store, store, coins, settings),
		users:    NewUserService(store, coins, settings, coinsCfg),
		admin:    NewAdminService(store, coins, settings),
		notifier: notifier,
	}
}

// fund gives a user coins through the ledger so balance and log agree.
func (e *testEnv) fund(t *testing.T, userID, amount int64) {
	t.Helper()
	if _, err := e.coins.Credit(context.Background(), userID, amount, model.CoinReasonAdminAdjustment, CoinOptions{}); err != nil {
		t.Fatalf("fund user %d: %v", userID, err)
	}
}

func (e *testEnv) activeItem(ownerID int64) uuid.UUID {
	id := uuid.New()
	e.store.AddItem(model.Item{ID: id, OwnerID: ownerID, Title: "Calculus textbook", Status: model.ItemStatusActive})
	return id
}

func (e *testEnv) assertLedgerConsistent(t *testing.T, userID int64) {
	t.Helper()
	rec, err := e.coins.Reconcile(context.Background(), userID)
	if err != nil {
		t.Fatalf("reconcile %d: %v", userID, err)
	}
	if !rec.Consistent() {
		t.Fatalf("ledger inconsistent for %d: %+v", userID, rec)
	}
	if rec.Balance < 0 {
		t.Fatalf("negative balance for %d: %d", userID, rec.Balance)
	}
}

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type notification struct {
	UserID  int64
	Event   OfferEvent
	OfferID uuid.UUID
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notification
	err    error
}

func (n *recordingNotifier) NotifyOffer(_ context.Context, userID int64, event OfferEvent, offer *model.Offer) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, notification{UserID: userID, Event: event, OfferID: offer.ID})
	return n.err
}

func (n *recordingNotifier) last() notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.events) == 0 {
		return notification{}
	}
	return n.events[len(n.events)-1]
}
