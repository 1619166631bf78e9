package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/rsravisharma/swap-web-sub002/internal/model"
)

type AdminService struct {
	admins   AdminStore
	coins    *CoinService
	settings *SettingsService
}

func NewAdminService(admins AdminStore, coins *CoinService, settings *SettingsService) *AdminService {
	return &AdminService{admins: admins, coins: coins, settings: settings}
}

// IsAdmin checks if user is an admin
func (s *AdminService) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	ok, err := s.admins.IsAdmin(ctx, userID)
	if err != nil {
		return false, storageFailure("check admin", err)
	}
	return ok, nil
}

func (s *AdminService) requireAdmin(ctx context.Context, adminID int64) error {
	ok, err := s.IsAdmin(ctx, adminID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotAdmin
	}
	return nil
}

// --- Coin Management ---

// AdjustCoins credits a positive amount or debits a negative one, logged
// on the ledger as admin_adjustment.
func (s *AdminService) AdjustCoins(ctx context.Context, adminID, targetUserID, amount int64, description string) (*model.CoinTransaction, error) {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	if amount == 0 {
		return nil, fmt.Errorf("%w: adjustment cannot be zero", ErrInvalidAmount)
	}
	if description == "" {
		description = fmt.Sprintf("Admin adjustment by %d", adminID)
	}

	opts := CoinOptions{Description: description}
	var (
		entry *model.CoinTransaction
		err   error
	)
	if amount > 0 {
		entry, err = s.coins.Credit(ctx, targetUserID, amount, model.CoinReasonAdminAdjustment, opts)
	} else {
		entry, err = s.coins.Debit(ctx, targetUserID, -amount, model.CoinReasonAdminAdjustment, opts)
	}
	if err != nil {
		return nil, err
	}

	s.logAction(ctx, adminID, model.AdminActionAdjustCoins, &targetUserID, map[string]interface{}{
		"amount":         amount,
		"balance_after":  entry.BalanceAfter,
		"transaction_id": entry.ID,
		"description":    description,
	})
	return entry, nil
}

// UserTransactions returns the ledger history of any user
func (s *AdminService) UserTransactions(ctx context.Context, adminID, targetUserID int64, limit, offset int) ([]model.CoinTransaction, error) {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	return s.coins.Transactions(ctx, targetUserID, limit, offset)
}

// Reconcile audits one user's balance against their ledger
func (s *AdminService) Reconcile(ctx context.Context, adminID, targetUserID int64) (*model.LedgerReconciliation, error) {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	return s.coins.Reconcile(ctx, targetUserID)
}

// --- Settings ---

func (s *AdminService) GetSettings(ctx context.Context, adminID int64) (*model.SettingsSnapshot, error) {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	return s.settings.All(ctx)
}

func (s *AdminService) SetSetting(ctx context.Context, adminID int64, key string, value int64) (*model.CoinSetting, error) {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	setting, err := s.settings.Set(ctx, key, value)
	if err != nil {
		return nil, err
	}

	s.logAction(ctx, adminID, model.AdminActionSetSetting, nil, map[string]interface{}{
		"key":   setting.Key,
		"value": setting.Coins,
	})
	return setting, nil
}

// GetLogs returns recent admin actions, newest first
func (s *AdminService) GetLogs(ctx context.Context, adminID int64, limit, offset int) ([]model.AdminLog, error) {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}
	logs, err := s.admins.GetAdminLogs(ctx, clampLimit(limit), offset)
	if err != nil {
		return nil, storageFailure("get admin logs", err)
	}
	return logs, nil
}

func (s *AdminService) logAction(ctx context.Context, adminID int64, action string, targetUserID *int64, details map[string]interface{}) {
	if err := s.admins.LogAdminAction(ctx, adminID, action, targetUserID, details); err != nil {
		log.Warn().Err(err).Int64("admin_id", adminID).Str("action", action).Msg("failed to log admin action")
	}
}
