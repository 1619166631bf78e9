package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/rsravisharma/swap-web-sub002/internal/model"
	"github.com/rsravisharma/swap-web-sub002/internal/repository"
)

// CoinOptions carries the optional references stored on a ledger entry.
type CoinOptions struct {
	ItemID      *uuid.UUID
	OfferID     *uuid.UUID
	Description string
}

// CoinService is the only path through which a coin balance changes.
// Every mutation updates users.coins and appends a coin_transactions row in
// one database transaction.
type CoinService struct {
	store LedgerStore
}

func NewCoinService(store LedgerStore) *CoinService {
	return &CoinService{store: store}
}

// Credit adds amount coins to the user's balance
func (s *CoinService) Credit(ctx context.Context, userID, amount int64, reason model.CoinReason, opts CoinOptions) (*model.CoinTransaction, error) {
	m, err := newMutation(userID, amount, reason, opts)
	if err != nil {
		return nil, err
	}

	entry, err := s.store.CreditCoins(ctx, m)
	if err != nil {
		return nil, ledgerError("credit coins", err)
	}

	log.Info().
		Int64("user_id", userID).
		Int64("amount", amount).
		Str("reason", string(reason)).
		Int64("balance_after", entry.BalanceAfter).
		Msg("coins credited")
	return entry, nil
}

// Debit takes amount coins from the user's balance. It fails with
// ErrInsufficientBalance, writing nothing, when the balance does not cover it.
func (s *CoinService) Debit(ctx context.Context, userID, amount int64, reason model.CoinReason, opts CoinOptions) (*model.CoinTransaction, error) {
	m, err := newMutation(userID, amount, reason, opts)
	if err != nil {
		return nil, err
	}

	entry, err := s.store.DebitCoins(ctx, m)
	if err != nil {
		return nil, ledgerError("debit coins", err)
	}

	log.Info().
		Int64("user_id", userID).
		Int64("amount", -amount).
		Str("reason", string(reason)).
		Int64("balance_after", entry.BalanceAfter).
		Msg("coins debited")
	return entry, nil
}

// Balance returns the user's current coin balance
func (s *CoinService) Balance(ctx context.Context, userID int64) (int64, error) {
	coins, err := s.store.GetUserCoins(ctx, userID)
	if err != nil {
		return 0, ledgerError("get balance", err)
	}
	return coins, nil
}

// Transactions returns ledger history, newest first
func (s *CoinService) Transactions(ctx context.Context, userID int64, limit, offset int) ([]model.CoinTransaction, error) {
	if offset < 0 {
		offset = 0
	}
	transactions, err := s.store.GetCoinTransactions(ctx, userID, clampLimit(limit), offset)
	if err != nil {
		return nil, storageFailure("get coin transactions", err)
	}
	return transactions, nil
}

// Reconcile compares the user's balance with the sum of their ledger
func (s *CoinService) Reconcile(ctx context.Context, userID int64) (*model.LedgerReconciliation, error) {
	rec, err := s.store.ReconcileUser(ctx, userID)
	if err != nil {
		return nil, ledgerError("reconcile", err)
	}
	return rec, nil
}

// Mismatches lists users whose balance disagrees with their ledger
func (s *CoinService) Mismatches(ctx context.Context, limit int) ([]model.LedgerReconciliation, error) {
	mismatches, err := s.store.ListLedgerMismatches(ctx, limit)
	if err != nil {
		return nil, storageFailure("list ledger mismatches", err)
	}
	return mismatches, nil
}

func newMutation(userID, amount int64, reason model.CoinReason, opts CoinOptions) (model.CoinMutation, error) {
	if amount <= 0 {
		return model.CoinMutation{}, fmt.Errorf("%w: got %d", ErrInvalidAmount, amount)
	}
	if !reason.Valid() {
		return model.CoinMutation{}, fmt.Errorf("%w: %q", ErrInvalidReason, reason)
	}
	return model.CoinMutation{
		UserID:      userID,
		Amount:      amount,
		Reason:      reason,
		ItemID:      opts.ItemID,
		OfferID:     opts.OfferID,
		Description: opts.Description,
	}, nil
}

func ledgerError(op string, err error) error {
	switch {
	case errors.Is(err, repository.ErrInsufficientBalance):
		return ErrInsufficientBalance
	case errors.Is(err, repository.ErrUserNotFound):
		return ErrUserNotFound
	}
	return storageFailure(op, err)
}
