package model

import (
	"time"

	"github.com/google/uuid"
)

type CoinReason string

const (
	CoinReasonItemListing        CoinReason = "item_listing"
	CoinReasonPurchase           CoinReason = "purchase"
	CoinReasonReferralBonus      CoinReason = "referral_bonus"
	CoinReasonLoginStreakBonus   CoinReason = "login_streak_bonus"
	CoinReasonMonthlyStreakBonus CoinReason = "monthly_streak_bonus"
	CoinReasonRefund             CoinReason = "refund"
	CoinReasonAdminAdjustment    CoinReason = "admin_adjustment"
)

// Valid reports whether r is one of the known ledger reason codes.
func (r CoinReason) Valid() bool {
	switch r {
	case CoinReasonItemListing,
		CoinReasonPurchase,
		CoinReasonReferralBonus,
		CoinReasonLoginStreakBonus,
		CoinReasonMonthlyStreakBonus,
		CoinReasonRefund,
		CoinReasonAdminAdjustment:
		return true
	}
	return false
}

type CoinTransaction struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	UserID       int64      `json:"user_id" db:"user_id"`
	Amount       int64      `json:"amount" db:"amount"` // positive = credit, negative = debit
	Reason       CoinReason `json:"reason" db:"reason"`
	ItemID       *uuid.UUID `json:"item_id,omitempty" db:"item_id"`
	OfferID      *uuid.UUID `json:"offer_id,omitempty" db:"offer_id"`
	Description  *string    `json:"description,omitempty" db:"description"`
	BalanceAfter int64      `json:"balance_after" db:"balance_after"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

// CoinMutation is a request to move coins on one user's balance.
// Amount is always positive; the direction comes from the ledger call.
type CoinMutation struct {
	UserID      int64
	Amount      int64
	Reason      CoinReason
	ItemID      *uuid.UUID
	OfferID     *uuid.UUID
	Description string
}

// LedgerReconciliation compares the cached balance with the transaction log.
type LedgerReconciliation struct {
	UserID           int64 `json:"user_id" db:"user_id"`
	Balance          int64 `json:"balance" db:"balance"`
	LedgerSum        int64 `json:"ledger_sum" db:"ledger_sum"`
	LastBalanceAfter int64 `json:"last_balance_after" db:"last_balance_after"`
	Transactions     int   `json:"transactions" db:"transactions"`
}

func (r LedgerReconciliation) Consistent() bool {
	if r.Balance != r.LedgerSum {
		return false
	}
	return r.Transactions == 0 || r.LastBalanceAfter == r.Balance
}
