package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/rsravisharma/swap-web-sub002/internal/model"
	"github.com/rsravisharma/swap-web-sub002/internal/repository"
)

var _ Store = (*repository.Repository)(nil)

// The interfaces below are satisfied by *repository.Repository.

type LedgerStore interface {
	GetUserCoins(ctx context.Context, userID int64) (int64, error)
	CreditCoins(ctx context.Context, m model.CoinMutation) (*model.CoinTransaction, error)
	DebitCoins(ctx context.Context, m model.CoinMutation) (*model.CoinTransaction, error)
	GetCoinTransactions(ctx context.Context, userID int64, limit, offset int) ([]model.CoinTransaction, error)
	ReconcileUser(ctx context.Context, userID int64) (*model.LedgerReconciliation, error)
	ListLedgerMismatches(ctx context.Context, limit int) ([]model.LedgerReconciliation, error)
}

type OfferStore interface {
	GetOffer(ctx context.Context, id uuid.UUID) (*model.Offer, error)
	CreateOffer(ctx context.Context, offer *model.Offer) error
	CreateCounterOffer(ctx context.Context, offer *model.Offer) error
	ListChildOffers(ctx context.Context, parentID uuid.UUID) ([]model.Offer, error)
	AcceptOffer(ctx context.Context, id uuid.UUID, actorID int64, fee *model.CoinMutation) (*model.Offer, *model.CoinTransaction, error)
	RejectOffer(ctx context.Context, id uuid.UUID, actorID int64, reason *string) (*model.Offer, error)
	CancelOffer(ctx context.Context, id uuid.UUID, actorID int64, reason *string) (*model.Offer, error)
	ListOffersByUser(ctx context.Context, userID int64, limit, offset int) ([]model.Offer, error)
}

type ItemStore interface {
	GetItem(ctx context.Context, id uuid.UUID) (*model.Item, error)
	PublishItem(ctx context.Context, id uuid.UUID, ownerID int64) error
}

type UserStore interface {
	GetUser(ctx context.Context, id int64) (*model.User, error)
	CreateUser(ctx context.Context, user *model.User) error
	UpdateUser(ctx context.Context, user *model.User) error
	GetUserByReferralCode(ctx context.Context, code string) (*model.User, error)
	RecordCheckIn(ctx context.Context, userID int64, bonuses repository.CheckInBonusFunc) (streak int, firstToday bool, entries []model.CoinTransaction, err error)
}

type ReferralStore interface {
	CreateReferral(ctx context.Context, referral *model.Referral) error
	GetReferralByReferredID(ctx context.Context, referredID int64) (*model.Referral, error)
	CreditReferral(ctx context.Context, id uuid.UUID) error
	GetReferralStats(ctx context.Context, referrerID int64) (*model.ReferralStats, error)
}

type SettingsStore interface {
	GetCoinSetting(ctx context.Context, key string) (int64, error)
	SetCoinSetting(ctx context.Context, key string, coins int64) (*model.CoinSetting, error)
	ListCoinSettings(ctx context.Context) ([]model.CoinSetting, error)
}

type AdminStore interface {
	IsAdmin(ctx context.Context, userID int64) (bool, error)
	LogAdminAction(ctx context.Context, adminID int64, action string, targetUserID *int64, details interface{}) error
	GetAdminLogs(ctx context.Context, limit, offset int) ([]model.AdminLog, error)
}

// Store is everything the services need from persistence.
type Store interface {
	LedgerStore
	OfferStore
	ItemStore
	UserStore
	ReferralStore
	SettingsStore
	AdminStore
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > 100 {
		return 100
	}
	return limit
}
