package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/rsravisharma/swap-web-sub002/internal/model"
)

var ErrUserNotFound = errors.New("user not found")

const userColumns = `id, username, first_name, last_name, language_code, referral_code, referred_by,
	coins, login_streak, last_check_in, created_at, updated_at`

func (r *Repository) GetUser(ctx context.Context, id int64) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, "SELECT "+userColumns+" FROM users WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// CreateUser inserts the user or refreshes the profile fields. Coins are
// never touched here.
func (r *Repository) CreateUser(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (id, username, first_name, last_name, language_code, referral_code, referred_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			username = EXCLUDED.username,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			language_code = EXCLUDED.language_code,
			updated_at = NOW()
		RETURNING coins, login_streak, last_check_in, created_at, updated_at`

	return r.db.QueryRowxContext(ctx, query,
		user.ID,
		user.Username,
		user.FirstName,
		user.LastName,
		user.LanguageCode,
		user.ReferralCode,
		user.ReferredBy,
	).Scan(&user.Coins, &user.LoginStreak, &user.LastCheckIn, &user.CreatedAt, &user.UpdatedAt)
}

func (r *Repository) UpdateUser(ctx context.Context, user *model.User) error {
	query := `
		UPDATE users SET
			username = $2,
			first_name = $3,
			last_name = $4,
			language_code = $5,
			updated_at = NOW()
		WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.FirstName,
		user.LastName,
		user.LanguageCode,
	)
	return err
}

func (r *Repository) GetUserByReferralCode(ctx context.Context, code string) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, "SELECT "+userColumns+" FROM users WHERE referral_code = $1", code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// CheckInBonusFunc returns the credits owed for reaching streak. It runs
// inside the check-in transaction.
type CheckInBonusFunc func(streak int) ([]model.CoinMutation, error)

// RecordCheckIn advances the login streak at most once per calendar day and
// credits the bonuses for the new streak in the same transaction. firstToday
// is false when the user already checked in today; nothing is written then.
func (r *Repository) RecordCheckIn(ctx context.Context, userID int64, bonuses CheckInBonusFunc) (streak int, firstToday bool, entries []model.CoinTransaction, err error) {
	err = r.inTx(ctx, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &streak, `
			UPDATE users SET
				login_streak = CASE WHEN last_check_in = CURRENT_DATE - 1 THEN login_streak + 1 ELSE 1 END,
				last_check_in = CURRENT_DATE,
				updated_at = NOW()
			WHERE id = $1 AND (last_check_in IS NULL OR last_check_in < CURRENT_DATE)
			RETURNING login_streak`, userID)
		if errors.Is(err, sql.ErrNoRows) {
			err = tx.GetContext(ctx, &streak, "SELECT login_streak FROM users WHERE id = $1", userID)
			if errors.Is(err, sql.ErrNoRows) {
				return ErrUserNotFound
			}
			return err
		}
		if err != nil {
			return fmt.Errorf("failed to record check-in: %w", err)
		}
		firstToday = true

		if bonuses == nil {
			return nil
		}
		mutations, err := bonuses(streak)
		if err != nil {
			return err
		}
		for _, m := range mutations {
			entry, err := creditTx(ctx, tx, m)
			if err != nil {
				return err
			}
			entries = append(entries, *entry)
		}
		return nil
	})
	if err != nil {
		return 0, false, nil, err
	}
	return streak, firstToday, entries, nil
}
