package service

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/rsravisharma/swap-web-sub002/internal/config"
	"github.com/rsravisharma/swap-web-sub002/internal/model"
	"github.com/rsravisharma/swap-web-sub002/internal/repository"
)

type UserService struct {
	users    UserStore
	coins    *CoinService
	settings *SettingsService
	cfg      config.CoinsConfig
}

func NewUserService(users UserStore, coins *CoinService, settings *SettingsService, cfg config.CoinsConfig) *UserService {
	return &UserService{users: users, coins: coins, settings: settings, cfg: cfg}
}

func (s *UserService) GetOrCreateUser(ctx context.Context, telegramUser TelegramUser) (*model.User, bool, error) {
	existingUser, err := s.users.GetUser(ctx, telegramUser.ID)
	if err == nil {
		// Update user info if changed
		existingUser.Username = telegramUser.Username
		existingUser.FirstName = telegramUser.FirstName
		existingUser.LastName = telegramUser.LastName
		existingUser.LanguageCode = telegramUser.LanguageCode
		if err := s.users.UpdateUser(ctx, existingUser); err != nil {
			return nil, false, storageFailure("update user", err)
		}
		return existingUser, false, nil
	}

	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, false, storageFailure("get user", err)
	}

	referralCode, err := generateReferralCode()
	if err != nil {
		return nil, false, err
	}

	user := &model.User{
		ID:           telegramUser.ID,
		Username:     telegramUser.Username,
		FirstName:    telegramUser.FirstName,
		LastName:     telegramUser.LastName,
		LanguageCode: telegramUser.LanguageCode,
		ReferralCode: referralCode,
		ReferredBy:   telegramUser.ReferredBy,
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, false, storageFailure("create user", err)
	}

	log.Info().Int64("user_id", user.ID).Msg("user registered")
	return user, true, nil
}

func (s *UserService) GetUser(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, storageFailure("get user", err)
	}
	return user, nil
}

// CheckIn records today's visit and pays streak bonuses in the same
// transaction. It returns ErrAlreadyCheckedIn on every call after the first
// one of the day.
func (s *UserService) CheckIn(ctx context.Context, userID int64) (*model.CheckInResult, error) {
	bonuses := []struct {
		every  int
		key    string
		reason model.CoinReason
		label  string
		amount int64
	}{
		{every: s.cfg.LoginStreakDays, key: model.SettingLoginStreakBonusCoins, reason: model.CoinReasonLoginStreakBonus, label: "Login streak"},
		{every: s.cfg.MonthlyStreakDays, key: model.SettingMonthlyStreakBonusCoins, reason: model.CoinReasonMonthlyStreakBonus, label: "Monthly streak"},
	}
	for i := range bonuses {
		amount, err := s.settings.Coins(ctx, bonuses[i].key)
		if err != nil {
			return nil, err
		}
		bonuses[i].amount = amount
	}

	owed := func(streak int) ([]model.CoinMutation, error) {
		var mutations []model.CoinMutation
		for _, b := range bonuses {
			if b.every <= 0 || streak%b.every != 0 || b.amount <= 0 {
				continue
			}
			m, err := newMutation(userID, b.amount, b.reason, CoinOptions{
				Description: fmt.Sprintf("%s bonus: day %d", b.label, streak),
			})
			if err != nil {
				return nil, err
			}
			mutations = append(mutations, m)
		}
		return mutations, nil
	}

	streak, firstToday, entries, err := s.users.RecordCheckIn(ctx, userID, owed)
	if err != nil {
		return nil, ledgerError("record check-in", err)
	}
	if !firstToday {
		return nil, ErrAlreadyCheckedIn
	}

	result := &model.CheckInResult{Streak: streak, FirstToday: true, Bonuses: entries}
	for _, entry := range entries {
		log.Info().
			Int64("user_id", userID).
			Int("streak", streak).
			Int64("amount", entry.Amount).
			Str("reason", string(entry.Reason)).
			Msg("streak bonus paid")
		result.BalanceAfter = entry.BalanceAfter
	}

	if len(entries) == 0 {
		result.BalanceAfter, err = s.coins.Balance(ctx, userID)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

type TelegramUser struct {
	ID           int64
	Username     *string
	FirstName    *string
	LastName     *string
	LanguageCode *string
	ReferredBy   *int64
}

func generateReferralCode() (string, error) {
	bytes := make([]byte, 5)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	code := base32.StdEncoding.EncodeToString(bytes)
	code = strings.TrimRight(code, "=")
	return strings.ToLower(code[:8]), nil
}
