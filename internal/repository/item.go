package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/rsravisharma/swap-web-sub002/internal/model"
)

var (
	ErrItemNotFound       = errors.New("item not found")
	ErrItemNotPublishable = errors.New("item is not a draft of this owner")
)

func (r *Repository) GetItem(ctx context.Context, id uuid.UUID) (*model.Item, error) {
	var item model.Item
	err := r.db.GetContext(ctx, &item,
		"SELECT id, owner_id, title, status, created_at, updated_at FROM items WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return &item, nil
}

// PublishItem flips a draft owned by ownerID to active
func (r *Repository) PublishItem(ctx context.Context, id uuid.UUID, ownerID int64) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE items SET status = 'active', updated_at = NOW()
		WHERE id = $1 AND owner_id = $2 AND status = 'draft'`, id, ownerID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrItemNotPublishable
	}
	return nil
}
