package service

import (
	"context"
	"errors"

	"github.com/rsravisharma/swap-web-sub002/internal/config"
	"github.com/rsravisharma/swap-web-sub002/internal/model"
	"github.com/rsravisharma/swap-web-sub002/internal/repository"
)

// SettingsService resolves coin amounts from the settings table, falling
// back to the configured defaults.
type SettingsService struct {
	store    SettingsStore
	defaults config.CoinsConfig
}

func NewSettingsService(store SettingsStore, defaults config.CoinsConfig) *SettingsService {
	return &SettingsService{store: store, defaults: defaults}
}

// Coins returns the coin amount stored under key
func (s *SettingsService) Coins(ctx context.Context, key string) (int64, error) {
	value, err := s.store.GetCoinSetting(ctx, key)
	if err == nil {
		return value, nil
	}
	if !errors.Is(err, repository.ErrSettingNotFound) {
		return 0, storageFailure("get setting", err)
	}
	return s.defaultFor(key), nil
}

func (s *SettingsService) defaultFor(key string) int64 {
	switch key {
	case model.SettingListingFeeCoins:
		return s.defaults.ListingFee
	case model.SettingDealFeeCoins:
		return s.defaults.DealFee
	case model.SettingReferralBonusCoins:
		return s.defaults.ReferralBonus
	case model.SettingLoginStreakBonusCoins:
		return s.defaults.LoginStreakBonus
	case model.SettingMonthlyStreakBonusCoins:
		return s.defaults.MonthlyStreakBonus
	}
	return 0
}

// All returns every coin setting with defaults filled in, along with the
// stored overrides.
func (s *SettingsService) All(ctx context.Context) (*model.SettingsSnapshot, error) {
	overrides, err := s.store.ListCoinSettings(ctx)
	if err != nil {
		return nil, storageFailure("list settings", err)
	}

	snapshot := &model.SettingsSnapshot{
		Coins:     make(map[string]int64, len(model.CoinSettingKeys)),
		Overrides: overrides,
	}
	for _, key := range model.CoinSettingKeys {
		snapshot.Coins[key] = s.defaultFor(key)
	}
	for _, o := range overrides {
		snapshot.Coins[o.Key] = o.Coins
	}
	return snapshot, nil
}

func (s *SettingsService) Set(ctx context.Context, key string, value int64) (*model.CoinSetting, error) {
	setting, err := s.store.SetCoinSetting(ctx, key, value)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidCoinSetting) {
			return nil, ErrInvalidSetting
		}
		return nil, storageFailure("set setting", err)
	}
	return setting, nil
}
