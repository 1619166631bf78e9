package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/rsravisharma/swap-web-sub002/internal/model"
)

var (
	ErrOfferNotFound   = errors.New("offer not found")
	ErrOfferNotPending = errors.New("offer is not pending")
	ErrOfferSuperseded = errors.New("offer already has a pending counter")
)

const offerColumns = `id, sender_id, receiver_id, item_id, parent_offer_id, amount, message, status, offer_kind,
	accepted_by, accepted_at, rejected_at, cancelled_at, rejection_reason, cancellation_reason,
	expires_at, created_at, updated_at`

func (r *Repository) GetOffer(ctx context.Context, id uuid.UUID) (*model.Offer, error) {
	var offer model.Offer
	err := r.db.GetContext(ctx, &offer, "SELECT "+offerColumns+" FROM offers WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOfferNotFound
		}
		return nil, err
	}
	return &offer, nil
}

// CreateOffer inserts a thread root
func (r *Repository) CreateOffer(ctx context.Context, offer *model.Offer) error {
	return insertOffer(ctx, r.db, offer)
}

// CreateCounterOffer inserts a counter under offer.ParentOfferID. The parent
// row is locked so that two counters racing on one parent cannot both land.
func (r *Repository) CreateCounterOffer(ctx context.Context, offer *model.Offer) error {
	if offer.ParentOfferID == nil {
		return fmt.Errorf("counter offer without parent")
	}

	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		var status model.OfferStatus
		err := tx.GetContext(ctx, &status,
			"SELECT status FROM offers WHERE id = $1 FOR UPDATE", *offer.ParentOfferID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrOfferNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to lock parent offer: %w", err)
		}
		if status != model.OfferStatusPending {
			return ErrOfferNotPending
		}

		var superseded bool
		err = tx.GetContext(ctx, &superseded, `
			SELECT EXISTS(SELECT 1 FROM offers WHERE parent_offer_id = $1 AND status = 'pending')`,
			*offer.ParentOfferID)
		if err != nil {
			return fmt.Errorf("failed to check counters: %w", err)
		}
		if superseded {
			return ErrOfferSuperseded
		}

		return insertOffer(ctx, tx, offer)
	})
}

func insertOffer(ctx context.Context, q sqlx.QueryerContext, offer *model.Offer) error {
	query := `
		INSERT INTO offers (sender_id, receiver_id, item_id, parent_offer_id, amount, message, status, offer_kind, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`

	return q.QueryRowxContext(ctx, query,
		offer.SenderID,
		offer.ReceiverID,
		offer.ItemID,
		offer.ParentOfferID,
		offer.Amount,
		offer.Message,
		offer.Status,
		offer.Kind,
		offer.ExpiresAt,
	).Scan(&offer.ID, &offer.CreatedAt, &offer.UpdatedAt)
}

// ListChildOffers returns the counters made directly on parentID, oldest first
func (r *Repository) ListChildOffers(ctx context.Context, parentID uuid.UUID) ([]model.Offer, error) {
	offers := []model.Offer{}
	err := r.db.SelectContext(ctx, &offers, `
		SELECT `+offerColumns+` FROM offers
		WHERE parent_offer_id = $1
		ORDER BY created_at, id`, parentID)
	return offers, err
}

// AcceptOffer moves a pending, unexpired offer addressed to actorID to
// accepted. When fee is set it is debited in the same transaction and the
// acceptance is rolled back if the payer cannot cover it.
func (r *Repository) AcceptOffer(ctx context.Context, id uuid.UUID, actorID int64, fee *model.CoinMutation) (*model.Offer, *model.CoinTransaction, error) {
	var (
		offer model.Offer
		entry *model.CoinTransaction
	)

	err := r.inTx(ctx, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &offer, `
			UPDATE offers SET status = 'accepted', accepted_by = $2, accepted_at = NOW(), updated_at = NOW()
			WHERE id = $1 AND receiver_id = $2 AND status = 'pending'
				AND (expires_at IS NULL OR expires_at > NOW())
			RETURNING `+offerColumns,
			id, actorID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrOfferNotPending
		}
		if err != nil {
			return fmt.Errorf("failed to accept offer: %w", err)
		}

		if fee != nil {
			entry, err = debitTx(ctx, tx, *fee)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &offer, entry, nil
}

// RejectOffer moves a pending offer addressed to actorID to rejected
func (r *Repository) RejectOffer(ctx context.Context, id uuid.UUID, actorID int64, reason *string) (*model.Offer, error) {
	var offer model.Offer
	err := r.db.GetContext(ctx, &offer, `
		UPDATE offers SET status = 'rejected', rejection_reason = $3, rejected_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND receiver_id = $2 AND status = 'pending'
		RETURNING `+offerColumns,
		id, actorID, reason)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOfferNotPending
	}
	if err != nil {
		return nil, fmt.Errorf("failed to reject offer: %w", err)
	}
	return &offer, nil
}

// CancelOffer moves a pending offer sent by actorID to cancelled
func (r *Repository) CancelOffer(ctx context.Context, id uuid.UUID, actorID int64, reason *string) (*model.Offer, error) {
	var offer model.Offer
	err := r.db.GetContext(ctx, &offer, `
		UPDATE offers SET status = 'cancelled', cancellation_reason = $3, cancelled_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND sender_id = $2 AND status = 'pending'
		RETURNING `+offerColumns,
		id, actorID, reason)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOfferNotPending
	}
	if err != nil {
		return nil, fmt.Errorf("failed to cancel offer: %w", err)
	}
	return &offer, nil
}

// ListOffersByUser returns offers the user sent or received, newest first
func (r *Repository) ListOffersByUser(ctx context.Context, userID int64, limit, offset int) ([]model.Offer, error) {
	offers := []model.Offer{}
	err := r.db.SelectContext(ctx, &offers, `
		SELECT `+offerColumns+` FROM offers
		WHERE sender_id = $1 OR receiver_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	return offers, err
}
