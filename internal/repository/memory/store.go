// Package memory is an in-process implementation of the service stores. A
// single mutex stands in for the row locks and transactions of the SQL
// repository, so conditional updates keep the same all-or-nothing semantics.
package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rsravisharma/swap-web-sub002/internal/model"
	"github.com/rsravisharma/swap-web-sub002/internal/repository"
)

type Store struct {
	mu sync.Mutex

	users        map[int64]*model.User
	transactions []model.CoinTransaction // commit order
	offers       map[uuid.UUID]*model.Offer
	offerOrder   []uuid.UUID
	items        map[uuid.UUID]*model.Item
	referrals    map[uuid.UUID]*model.Referral
	settings     map[string]model.CoinSetting
	admins       map[int64]bool
	adminLogs    []model.AdminLog
	failures     map[string]error

	// Now is the store clock, used for timestamps and offer expiry.
	Now func() time.Time
}

func New() *Store {
	return &Store{
		users:     make(map[int64]*model.User),
		offers:    make(map[uuid.UUID]*model.Offer),
		items:     make(map[uuid.UUID]*model.Item),
		referrals: make(map[uuid.UUID]*model.Referral),
		settings:  make(map[string]model.CoinSetting),
		admins:    make(map[int64]bool),
		failures:  make(map[string]error),
		Now:       time.Now,
	}
}

// WithFailure makes the named method return err on every call.
func (s *Store) WithFailure(method string, err error) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method] = err
	return s
}

func (s *Store) fail(method string) error {
	return s.failures[method]
}

// --- seeding ---

func (s *Store) AddUser(user model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = s.Now()
		user.UpdatedAt = user.CreatedAt
	}
	s.users[user.ID] = &user
}

func (s *Store) AddItem(item model.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	s.items[item.ID] = &item
}

func (s *Store) AddAdmin(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.admins[userID] = true
}

// PutOffer stores an offer as given, without any checks.
func (s *Store) PutOffer(offer model.Offer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.offers[offer.ID]; !ok {
		s.offerOrder = append(s.offerOrder, offer.ID)
	}
	s.offers[offer.ID] = &offer
}

// SetCheckIn overwrites the streak state of a user.
func (s *Store) SetCheckIn(userID int64, streak int, last time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[userID]; ok {
		u.LoginStreak = streak
		day := truncateDay(last)
		u.LastCheckIn = &day
	}
}

// Ledger returns a user's ledger entries in commit order.
func (s *Store) Ledger(userID int64) []model.CoinTransaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.CoinTransaction
	for _, t := range s.transactions {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out
}

// AdminLogs returns every recorded admin action, oldest first.
func (s *Store) AdminLogs() []model.AdminLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.AdminLog(nil), s.adminLogs...)
}

// --- users ---

func (s *Store) GetUser(_ context.Context, id int64) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("GetUser"); err != nil {
		return nil, err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Store) CreateUser(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.Now()
	if existing, ok := s.users[user.ID]; ok {
		existing.Username = user.Username
		existing.FirstName = user.FirstName
		existing.LastName = user.LastName
		existing.LanguageCode = user.LanguageCode
		existing.UpdatedAt = now
		*user = *existing
		return nil
	}
	user.Coins = 0
	user.CreatedAt = now
	user.UpdatedAt = now
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *Store) UpdateUser(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.users[user.ID]; ok {
		existing.Username = user.Username
		existing.FirstName = user.FirstName
		existing.LastName = user.LastName
		existing.LanguageCode = user.LanguageCode
		existing.UpdatedAt = s.Now()
	}
	return nil
}

func (s *Store) GetUserByReferralCode(_ context.Context, code string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ReferralCode == code {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (s *Store) RecordCheckIn(_ context.Context, userID int64, bonuses repository.CheckInBonusFunc) (int, bool, []model.CoinTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("RecordCheckIn"); err != nil {
		return 0, false, nil, err
	}
	u, ok := s.users[userID]
	if !ok {
		return 0, false, nil, repository.ErrUserNotFound
	}

	today := truncateDay(s.Now())
	if u.LastCheckIn != nil && !u.LastCheckIn.Before(today) {
		return u.LoginStreak, false, nil, nil
	}
	streak := 1
	if u.LastCheckIn != nil && u.LastCheckIn.Equal(today.AddDate(0, 0, -1)) {
		streak = u.LoginStreak + 1
	}

	// Bonuses are settled before any state changes so a failure leaves
	// the user untouched.
	var mutations []model.CoinMutation
	if bonuses != nil {
		var err error
		if mutations, err = bonuses(streak); err != nil {
			return 0, false, nil, err
		}
	}
	if len(mutations) > 0 {
		if err := s.fail("CreditCoins"); err != nil {
			return 0, false, nil, err
		}
	}

	u.LoginStreak = streak
	u.LastCheckIn = &today
	var entries []model.CoinTransaction
	for _, m := range mutations {
		u.Coins += m.Amount
		entries = append(entries, *s.appendTransaction(m, m.Amount, u.Coins))
	}
	return streak, true, entries, nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// --- ledger ---

func (s *Store) GetUserCoins(_ context.Context, userID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return 0, repository.ErrUserNotFound
	}
	return u.Coins, nil
}

func (s *Store) CreditCoins(_ context.Context, m model.CoinMutation) (*model.CoinTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("CreditCoins"); err != nil {
		return nil, err
	}
	u, ok := s.users[m.UserID]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	u.Coins += m.Amount
	return s.appendTransaction(m, m.Amount, u.Coins), nil
}

func (s *Store) DebitCoins(_ context.Context, m model.CoinMutation) (*model.CoinTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("DebitCoins"); err != nil {
		return nil, err
	}
	return s.debitLocked(m)
}

func (s *Store) debitLocked(m model.CoinMutation) (*model.CoinTransaction, error) {
	u, ok := s.users[m.UserID]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	if u.Coins < m.Amount {
		return nil, repository.ErrInsufficientBalance
	}
	u.Coins -= m.Amount
	return s.appendTransaction(m, -m.Amount, u.Coins), nil
}

func (s *Store) appendTransaction(m model.CoinMutation, amount, balanceAfter int64) *model.CoinTransaction {
	var desc *string
	if m.Description != "" {
		d := m.Description
		desc = &d
	}
	entry := model.CoinTransaction{
		ID:           uuid.New(),
		UserID:       m.UserID,
		Amount:       amount,
		Reason:       m.Reason,
		ItemID:       m.ItemID,
		OfferID:      m.OfferID,
		Description:  desc,
		BalanceAfter: balanceAfter,
		CreatedAt:    s.Now(),
	}
	s.transactions = append(s.transactions, entry)
	return &entry
}

func (s *Store) GetCoinTransactions(_ context.Context, userID int64, limit, offset int) ([]model.CoinTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.CoinTransaction{}
	skipped := 0
	for i := len(s.transactions) - 1; i >= 0 && len(out) < limit; i-- {
		t := s.transactions[i]
		if t.UserID != userID {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *Store) reconcileLocked(u *model.User) model.LedgerReconciliation {
	rec := model.LedgerReconciliation{UserID: u.ID, Balance: u.Coins}
	for _, t := range s.transactions {
		if t.UserID != u.ID {
			continue
		}
		rec.LedgerSum += t.Amount
		rec.LastBalanceAfter = t.BalanceAfter
		rec.Transactions++
	}
	return rec
}

func (s *Store) ReconcileUser(_ context.Context, userID int64) (*model.LedgerReconciliation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	rec := s.reconcileLocked(u)
	return &rec, nil
}

func (s *Store) ListLedgerMismatches(_ context.Context, limit int) ([]model.LedgerReconciliation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := []model.LedgerReconciliation{}
	for _, id := range ids {
		if len(out) >= limit {
			break
		}
		if rec := s.reconcileLocked(s.users[id]); !rec.Consistent() {
			out = append(out, rec)
		}
	}
	return out, nil
}

// --- offers ---

func (s *Store) GetOffer(_ context.Context, id uuid.UUID) (*model.Offer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("GetOffer"); err != nil {
		return nil, err
	}
	o, ok := s.offers[id]
	if !ok {
		return nil, repository.ErrOfferNotFound
	}
	cp := *o
	return &cp, nil
}

func (s *Store) CreateOffer(_ context.Context, offer *model.Offer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertOfferLocked(offer)
	return nil
}

func (s *Store) CreateCounterOffer(_ context.Context, offer *model.Offer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	parent, ok := s.offers[*offer.ParentOfferID]
	if !ok {
		return repository.ErrOfferNotFound
	}
	if parent.Status != model.OfferStatusPending {
		return repository.ErrOfferNotPending
	}
	for _, o := range s.offers {
		if o.ParentOfferID != nil && *o.ParentOfferID == parent.ID && o.Status == model.OfferStatusPending {
			return repository.ErrOfferSuperseded
		}
	}
	s.insertOfferLocked(offer)
	return nil
}

func (s *Store) insertOfferLocked(offer *model.Offer) {
	offer.ID = uuid.New()
	offer.CreatedAt = s.Now()
	offer.UpdatedAt = offer.CreatedAt
	cp := *offer
	s.offers[cp.ID] = &cp
	s.offerOrder = append(s.offerOrder, cp.ID)
}

func (s *Store) ListChildOffers(_ context.Context, parentID uuid.UUID) ([]model.Offer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Offer{}
	for _, id := range s.offerOrder {
		o := s.offers[id]
		if o.ParentOfferID != nil && *o.ParentOfferID == parentID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (s *Store) AcceptOffer(_ context.Context, id uuid.UUID, actorID int64, fee *model.CoinMutation) (*model.Offer, *model.CoinTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.offers[id]
	now := s.Now()
	if !ok || o.ReceiverID != actorID || o.Status != model.OfferStatusPending ||
		(o.ExpiresAt != nil && !o.ExpiresAt.After(now)) {
		return nil, nil, repository.ErrOfferNotPending
	}

	var entry *model.CoinTransaction
	if fee != nil {
		var err error
		entry, err = s.debitLocked(*fee)
		if err != nil {
			return nil, nil, err
		}
	}

	o.Status = model.OfferStatusAccepted
	o.AcceptedBy = &actorID
	o.AcceptedAt = &now
	o.UpdatedAt = now
	cp := *o
	return &cp, entry, nil
}

func (s *Store) RejectOffer(_ context.Context, id uuid.UUID, actorID int64, reason *string) (*model.Offer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.offers[id]
	if !ok || o.ReceiverID != actorID || o.Status != model.OfferStatusPending {
		return nil, repository.ErrOfferNotPending
	}
	now := s.Now()
	o.Status = model.OfferStatusRejected
	o.RejectionReason = reason
	o.RejectedAt = &now
	o.UpdatedAt = now
	cp := *o
	return &cp, nil
}

func (s *Store) CancelOffer(_ context.Context, id uuid.UUID, actorID int64, reason *string) (*model.Offer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.offers[id]
	if !ok || o.SenderID != actorID || o.Status != model.OfferStatusPending {
		return nil, repository.ErrOfferNotPending
	}
	now := s.Now()
	o.Status = model.OfferStatusCancelled
	o.CancellationReason = reason
	o.CancelledAt = &now
	o.UpdatedAt = now
	cp := *o
	return &cp, nil
}

func (s *Store) ListOffersByUser(_ context.Context, userID int64, limit, offset int) ([]model.Offer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Offer{}
	skipped := 0
	for i := len(s.offerOrder) - 1; i >= 0 && len(out) < limit; i-- {
		o := s.offers[s.offerOrder[i]]
		if o.SenderID != userID && o.ReceiverID != userID {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		out = append(out, *o)
	}
	return out, nil
}

// --- items ---

func (s *Store) GetItem(_ context.Context, id uuid.UUID) (*model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return nil, repository.ErrItemNotFound
	}
	cp := *item
	return &cp, nil
}

func (s *Store) PublishItem(_ context.Context, id uuid.UUID, ownerID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("PublishItem"); err != nil {
		return err
	}
	item, ok := s.items[id]
	if !ok || item.OwnerID != ownerID || item.Status != model.ItemStatusDraft {
		return repository.ErrItemNotPublishable
	}
	item.Status = model.ItemStatusActive
	item.UpdatedAt = s.Now()
	return nil
}

// --- referrals ---

func (s *Store) CreateReferral(_ context.Context, referral *model.Referral) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.referrals {
		if r.ReferredID == referral.ReferredID {
			return repository.ErrReferralAlreadyExists
		}
	}
	referral.ID = uuid.New()
	referral.CreatedAt = s.Now()
	cp := *referral
	s.referrals[cp.ID] = &cp
	return nil
}

func (s *Store) GetReferralByReferredID(_ context.Context, referredID int64) (*model.Referral, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.referrals {
		if r.ReferredID == referredID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, repository.ErrReferralNotFound
}

func (s *Store) CreditReferral(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.referrals[id]
	if !ok || r.Status != model.ReferralStatusPending {
		return repository.ErrReferralAlreadyCredited
	}
	now := s.Now()
	r.Status = model.ReferralStatusCredited
	r.CreditedAt = &now
	return nil
}

func (s *Store) GetReferralStats(_ context.Context, referrerID int64) (*model.ReferralStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := &model.ReferralStats{}
	for _, r := range s.referrals {
		if r.ReferrerID != referrerID {
			continue
		}
		stats.TotalReferrals++
		if r.Status == model.ReferralStatusPending {
			stats.PendingReferrals++
		} else {
			stats.CreditedCoins += r.BonusCoins
		}
	}
	return stats, nil
}

// --- settings ---

func (s *Store) GetCoinSetting(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	setting, ok := s.settings[key]
	if !ok {
		return 0, repository.ErrSettingNotFound
	}
	return setting.Coins, nil
}

func (s *Store) SetCoinSetting(_ context.Context, key string, coins int64) (*model.CoinSetting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("SetCoinSetting"); err != nil {
		return nil, err
	}
	if !model.IsCoinSetting(key) || coins < 0 {
		return nil, repository.ErrInvalidCoinSetting
	}
	setting := model.CoinSetting{Key: key, Coins: coins, UpdatedAt: s.Now()}
	s.settings[key] = setting
	return &setting, nil
}

func (s *Store) ListCoinSettings(_ context.Context) ([]model.CoinSetting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.CoinSetting, 0, len(s.settings))
	for _, setting := range s.settings {
		out = append(out, setting)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// --- admins ---

func (s *Store) IsAdmin(_ context.Context, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.admins[userID], nil
}

func (s *Store) LogAdminAction(_ context.Context, adminID int64, action string, targetUserID *int64, details interface{}) error {
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.adminLogs = append(s.adminLogs, model.AdminLog{
		ID:           uuid.New(),
		AdminID:      adminID,
		Action:       action,
		TargetUserID: targetUserID,
		Details:      detailsJSON,
		CreatedAt:    s.Now(),
	})
	return nil
}

func (s *Store) GetAdminLogs(_ context.Context, limit, offset int) ([]model.AdminLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.AdminLog{}
	for i := len(s.adminLogs) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.adminLogs[i])
	}
	return out, nil
}
