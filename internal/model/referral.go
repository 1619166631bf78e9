package model

import (
	"time"

	"github.com/google/uuid"
)

type ReferralStatus string

const (
	ReferralStatusPending  ReferralStatus = "pending"
	ReferralStatusCredited ReferralStatus = "credited"
)

type Referral struct {
	ID         uuid.UUID      `json:"id" db:"id"`
	ReferrerID int64          `json:"referrer_id" db:"referrer_id"`
	ReferredID int64          `json:"referred_id" db:"referred_id"`
	BonusCoins int64          `json:"bonus_coins" db:"bonus_coins"`
	Status     ReferralStatus `json:"status" db:"status"`
	CreatedAt  time.Time      `json:"created_at" db:"created_at"`
	CreditedAt *time.Time     `json:"credited_at,omitempty" db:"credited_at"`
}

type ReferralStats struct {
	TotalReferrals   int   `json:"total_referrals" db:"total_referrals"`
	PendingReferrals int   `json:"pending_referrals" db:"pending_referrals"`
	CreditedCoins    int64 `json:"credited_coins" db:"credited_coins"`
}
