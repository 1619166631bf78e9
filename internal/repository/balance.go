package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/rsravisharma/swap-web-sub002/internal/model"
)

var ErrInsufficientBalance = errors.New("insufficient balance")

const coinTransactionColumns = `id, user_id, amount, reason, item_id, offer_id, description, balance_after, created_at`

// GetUserCoins returns the current coin balance of a user
func (r *Repository) GetUserCoins(ctx context.Context, userID int64) (int64, error) {
	var coins int64
	err := r.db.GetContext(ctx, &coins, "SELECT coins FROM users WHERE id = $1", userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrUserNotFound
	}
	return coins, err
}

// CreditCoins adds m.Amount to the balance and appends the ledger entry
// in the same transaction.
func (r *Repository) CreditCoins(ctx context.Context, m model.CoinMutation) (*model.CoinTransaction, error) {
	var entry *model.CoinTransaction
	err := r.inTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		entry, err = creditTx(ctx, tx, m)
		return err
	})
	return entry, err
}

// DebitCoins subtracts m.Amount only if the balance covers it. Nothing is
// written when it does not.
func (r *Repository) DebitCoins(ctx context.Context, m model.CoinMutation) (*model.CoinTransaction, error) {
	var entry *model.CoinTransaction
	err := r.inTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		entry, err = debitTx(ctx, tx, m)
		return err
	})
	return entry, err
}

func creditTx(ctx context.Context, tx *sqlx.Tx, m model.CoinMutation) (*model.CoinTransaction, error) {
	var balanceAfter int64
	err := tx.GetContext(ctx, &balanceAfter, `
		UPDATE users SET coins = coins + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING coins`,
		m.UserID, m.Amount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to credit coins: %w", err)
	}

	return insertCoinTransaction(ctx, tx, m, m.Amount, balanceAfter)
}

func debitTx(ctx context.Context, tx *sqlx.Tx, m model.CoinMutation) (*model.CoinTransaction, error) {
	// The row lock taken here serializes debits per user until commit.
	var balanceAfter int64
	err := tx.GetContext(ctx, &balanceAfter, `
		UPDATE users SET coins = coins - $2, updated_at = NOW()
		WHERE id = $1 AND coins >= $2
		RETURNING coins`,
		m.UserID, m.Amount)
	if errors.Is(err, sql.ErrNoRows) {
		var exists bool
		if err := tx.GetContext(ctx, &exists, "SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)", m.UserID); err != nil {
			return nil, fmt.Errorf("failed to check user: %w", err)
		}
		if !exists {
			return nil, ErrUserNotFound
		}
		return nil, ErrInsufficientBalance
	}
	if err != nil {
		return nil, fmt.Errorf("failed to debit coins: %w", err)
	}

	return insertCoinTransaction(ctx, tx, m, -m.Amount, balanceAfter)
}

func insertCoinTransaction(ctx context.Context, tx *sqlx.Tx, m model.CoinMutation, amount, balanceAfter int64) (*model.CoinTransaction, error) {
	var desc *string
	if m.Description != "" {
		desc = &m.Description
	}

	entry := &model.CoinTransaction{
		UserID:       m.UserID,
		Amount:       amount,
		Reason:       m.Reason,
		ItemID:       m.ItemID,
		OfferID:      m.OfferID,
		Description:  desc,
		BalanceAfter: balanceAfter,
	}

	err := tx.QueryRowxContext(ctx, `
		INSERT INTO coin_transactions (user_id, amount, reason, item_id, offer_id, description, balance_after)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`,
		entry.UserID, entry.Amount, entry.Reason, entry.ItemID, entry.OfferID, entry.Description, entry.BalanceAfter,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction record: %w", err)
	}
	return entry, nil
}

// GetCoinTransactions returns ledger history for a user, newest first
func (r *Repository) GetCoinTransactions(ctx context.Context, userID int64, limit, offset int) ([]model.CoinTransaction, error) {
	transactions := []model.CoinTransaction{}
	err := r.db.SelectContext(ctx, &transactions, `
		SELECT `+coinTransactionColumns+` FROM coin_transactions
		WHERE user_id = $1
		ORDER BY seq DESC
		LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	return transactions, err
}

const reconciliationQuery = `
	SELECT u.id AS user_id,
		u.coins AS balance,
		COALESCE(SUM(t.amount), 0) AS ledger_sum,
		COUNT(t.id) AS transactions,
		COALESCE((
			SELECT l.balance_after FROM coin_transactions l
			WHERE l.user_id = u.id
			ORDER BY l.seq DESC
			LIMIT 1
		), 0) AS last_balance_after
	FROM users u
	LEFT JOIN coin_transactions t ON t.user_id = u.id`

// ReconcileUser compares a user's cached balance with the ledger
func (r *Repository) ReconcileUser(ctx context.Context, userID int64) (*model.LedgerReconciliation, error) {
	var rec model.LedgerReconciliation
	err := r.db.GetContext(ctx, &rec, reconciliationQuery+`
		WHERE u.id = $1
		GROUP BY u.id, u.coins`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListLedgerMismatches returns users whose balance disagrees with their ledger
func (r *Repository) ListLedgerMismatches(ctx context.Context, limit int) ([]model.LedgerReconciliation, error) {
	mismatches := []model.LedgerReconciliation{}
	err := r.db.SelectContext(ctx, &mismatches, `
		SELECT * FROM (`+reconciliationQuery+`
			GROUP BY u.id, u.coins
		) r
		WHERE r.balance <> r.ledger_sum
			OR (r.transactions > 0 AND r.last_balance_after <> r.balance)
		ORDER BY r.user_id
		LIMIT $1`, limit)
	return mismatches, err
}
