package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/rsravisharma/swap-web-sub002/internal/model"
	"github.com/rsravisharma/swap-web-sub002/internal/repository"
)

type ReferralService struct {
	referrals ReferralStore
	users     UserStore
	coins     *CoinService
	settings  *SettingsService
}

// referralStartPrefix prefixes the code in t.me start links
const referralStartPrefix = "ref_"

func NewReferralService(referrals ReferralStore, users UserStore, coins *CoinService, settings *SettingsService) *ReferralService {
	return &ReferralService{referrals: referrals, users: users, coins: coins, settings: settings}
}

// ApplyReferralCode links userID to the owner of code and pays the referrer
// their bonus. The referral is claimed before the credit so the bonus is paid
// at most once. A code taken from a start link may keep its ref_ prefix.
func (s *ReferralService) ApplyReferralCode(ctx context.Context, userID int64, code string) (*model.Referral, error) {
	code = strings.TrimPrefix(strings.TrimSpace(code), referralStartPrefix)
	referrer, err := s.users.GetUserByReferralCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: unknown referral code", ErrUserNotFound)
		}
		return nil, storageFailure("get user by referral code", err)
	}
	if referrer.ID == userID {
		return nil, ErrSelfReferral
	}

	// Check if referral already exists
	_, err = s.referrals.GetReferralByReferredID(ctx, userID)
	if err == nil {
		return nil, ErrReferralAlreadyExists
	}
	if !errors.Is(err, repository.ErrReferralNotFound) {
		return nil, storageFailure("get referral", err)
	}

	bonus, err := s.settings.Coins(ctx, model.SettingReferralBonusCoins)
	if err != nil {
		return nil, err
	}

	referral := &model.Referral{
		ReferrerID: referrer.ID,
		ReferredID: userID,
		BonusCoins: bonus,
		Status:     model.ReferralStatusPending,
	}
	if err := s.referrals.CreateReferral(ctx, referral); err != nil {
		if errors.Is(err, repository.ErrReferralAlreadyExists) {
			return nil, ErrReferralAlreadyExists
		}
		return nil, storageFailure("create referral", err)
	}

	if err := s.referrals.CreditReferral(ctx, referral.ID); err != nil {
		if errors.Is(err, repository.ErrReferralAlreadyCredited) {
			return referral, nil
		}
		return nil, storageFailure("credit referral", err)
	}
	referral.Status = model.ReferralStatusCredited

	if bonus > 0 {
		_, err := s.coins.Credit(ctx, referrer.ID, bonus, model.CoinReasonReferralBonus, CoinOptions{
			Description: fmt.Sprintf("Referral bonus for user %d", userID),
		})
		if err != nil {
			log.Error().Err(err).
				Str("referral_id", referral.ID.String()).
				Int64("user_id", referrer.ID).
				Int64("amount", bonus).
				Msg("failed to pay referral bonus")
			return nil, err
		}
	}

	log.Info().
		Int64("referrer_id", referrer.ID).
		Int64("referred_id", userID).
		Int64("bonus", bonus).
		Msg("referral applied")
	return referral, nil
}

func (s *ReferralService) GetReferralStats(ctx context.Context, userID int64) (*model.ReferralStats, error) {
	stats, err := s.referrals.GetReferralStats(ctx, userID)
	if err != nil {
		return nil, storageFailure("get referral stats", err)
	}
	return stats, nil
}

func (s *ReferralService) GetReferralLink(ctx context.Context, userID int64, botUsername string) (string, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", ErrUserNotFound
		}
		return "", storageFailure("get user", err)
	}

	return "https://t.me/" + botUsername + "?start=" + referralStartPrefix + user.ReferralCode, nil
}
