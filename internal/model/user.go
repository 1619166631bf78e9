package model

import (
	"time"
)

type User struct {
	ID           int64      `json:"id" db:"id"`
	Username     *string    `json:"username,omitempty" db:"username"`
	FirstName    *string    `json:"first_name,omitempty" db:"first_name"`
	LastName     *string    `json:"last_name,omitempty" db:"last_name"`
	LanguageCode *string    `json:"language_code,omitempty" db:"language_code"`
	ReferralCode string     `json:"referral_code" db:"referral_code"`
	ReferredBy   *int64     `json:"referred_by,omitempty" db:"referred_by"`
	Coins        int64      `json:"coins" db:"coins"` // read-only here; mutated by the ledger only
	LoginStreak  int        `json:"login_streak" db:"login_streak"`
	LastCheckIn  *time.Time `json:"last_check_in,omitempty" db:"last_check_in"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// CheckInResult describes what a daily check-in awarded.
type CheckInResult struct {
	Streak       int               `json:"streak"`
	FirstToday   bool              `json:"first_today"`
	Bonuses      []CoinTransaction `json:"bonuses,omitempty"`
	BalanceAfter int64             `json:"balance_after"`
}
