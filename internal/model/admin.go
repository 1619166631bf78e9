package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type AdminRole string

const (
	AdminRoleAdmin      AdminRole = "admin"
	AdminRoleSuperAdmin AdminRole = "superadmin"
)

type Admin struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	Role      AdminRole `json:"role" db:"role"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	CreatedBy *int64    `json:"created_by,omitempty" db:"created_by"`
}

type AdminLog struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	AdminID      int64           `json:"admin_id" db:"admin_id"`
	Action       string          `json:"action" db:"action"`
	TargetUserID *int64          `json:"target_user_id,omitempty" db:"target_user_id"`
	Details      json.RawMessage `json:"details,omitempty" db:"details"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}

// Admin action constants
const (
	AdminActionAdjustCoins = "adjust_coins"
	AdminActionSetSetting  = "set_setting"
)

// Setting keys for runtime-tunable coin amounts
const (
	SettingListingFeeCoins         = "listing_fee_coins"
	SettingDealFeeCoins            = "deal_fee_coins"
	SettingReferralBonusCoins      = "referral_bonus_coins"
	SettingLoginStreakBonusCoins   = "login_streak_bonus_coins"
	SettingMonthlyStreakBonusCoins = "monthly_streak_bonus_coins"
)

// CoinSettingKeys lists every tunable coin amount in display order
var CoinSettingKeys = []string{
	SettingListingFeeCoins,
	SettingDealFeeCoins,
	SettingReferralBonusCoins,
	SettingLoginStreakBonusCoins,
	SettingMonthlyStreakBonusCoins,
}

// CoinSetting is a stored override of a configured coin amount
type CoinSetting struct {
	Key       string    `json:"key" db:"key"`
	Coins     int64     `json:"coins" db:"coins"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// SettingsSnapshot is the effective coin amounts plus the overrides behind them
type SettingsSnapshot struct {
	Coins     map[string]int64 `json:"coins"`
	Overrides []CoinSetting    `json:"overrides"`
}

func IsCoinSetting(key string) bool {
	switch key {
	case SettingListingFeeCoins,
		SettingDealFeeCoins,
		SettingReferralBonusCoins,
		SettingLoginStreakBonusCoins,
		SettingMonthlyStreakBonusCoins:
		return true
	}
	return false
}
