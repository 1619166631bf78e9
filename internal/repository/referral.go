package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/rsravisharma/swap-web-sub002/internal/model"
)

var (
	ErrReferralNotFound        = errors.New("referral not found")
	ErrReferralAlreadyExists   = errors.New("referral already exists")
	ErrReferralAlreadyCredited = errors.New("referral already credited")
)

func (r *Repository) CreateReferral(ctx context.Context, referral *model.Referral) error {
	query := `
		INSERT INTO referrals (referrer_id, referred_id, bonus_coins, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.db.QueryRowxContext(ctx, query,
		referral.ReferrerID,
		referral.ReferredID,
		referral.BonusCoins,
		referral.Status,
	).Scan(&referral.ID, &referral.CreatedAt)
	if isUniqueViolation(err) {
		return ErrReferralAlreadyExists
	}
	return err
}

func (r *Repository) GetReferralByReferredID(ctx context.Context, referredID int64) (*model.Referral, error) {
	var referral model.Referral
	err := r.db.GetContext(ctx, &referral, `
		SELECT id, referrer_id, referred_id, bonus_coins, status, created_at, credited_at
		FROM referrals WHERE referred_id = $1`, referredID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReferralNotFound
		}
		return nil, err
	}
	return &referral, nil
}

// CreditReferral marks a pending referral as credited, once
func (r *Repository) CreditReferral(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE referrals SET status = 'credited', credited_at = NOW()
		WHERE id = $1 AND status = 'pending'`, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrReferralAlreadyCredited
	}
	return nil
}

func (r *Repository) GetReferralStats(ctx context.Context, referrerID int64) (*model.ReferralStats, error) {
	var stats model.ReferralStats
	err := r.db.GetContext(ctx, &stats, `
		SELECT COUNT(*) AS total_referrals,
			COUNT(*) FILTER (WHERE status = 'pending') AS pending_referrals,
			COALESCE(SUM(bonus_coins) FILTER (WHERE status = 'credited'), 0) AS credited_coins
		FROM referrals WHERE referrer_id = $1`, referrerID)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
