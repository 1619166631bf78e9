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

type ListingService struct {
	items    ItemStore
	coins    *CoinService
	settings *SettingsService
}

func NewListingService(items ItemStore, coins *CoinService, settings *SettingsService) *ListingService {
	return &ListingService{items: items, coins: coins, settings: settings}
}

// PublishItem charges the listing fee and makes a draft item active.
// The fee is refunded if the item cannot be published after the charge.
func (s *ListingService) PublishItem(ctx context.Context, itemID uuid.UUID, ownerID int64) (*model.Item, *model.CoinTransaction, error) {
	item, err := s.items.GetItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, repository.ErrItemNotFound) {
			return nil, nil, ErrItemNotFound
		}
		return nil, nil, storageFailure("get item", err)
	}
	if item.OwnerID != ownerID {
		return nil, nil, ErrForbidden
	}
	if item.Status != model.ItemStatusDraft {
		return nil, nil, fmt.Errorf("%w: item is already %s", ErrInvalidState, item.Status)
	}

	fee, err := s.settings.Coins(ctx, model.SettingListingFeeCoins)
	if err != nil {
		return nil, nil, err
	}

	var entry *model.CoinTransaction
	if fee > 0 {
		entry, err = s.coins.Debit(ctx, ownerID, fee, model.CoinReasonItemListing, CoinOptions{
			ItemID:      &item.ID,
			Description: fmt.Sprintf("Listing fee: %s", item.Title),
		})
		if err != nil {
			return nil, nil, err
		}
	}

	if err := s.items.PublishItem(ctx, itemID, ownerID); err != nil {
		if entry != nil {
			s.refund(ctx, item, fee)
		}
		if errors.Is(err, repository.ErrItemNotPublishable) {
			return nil, nil, fmt.Errorf("%w: item is no longer a draft", ErrInvalidState)
		}
		return nil, nil, storageFailure("publish item", err)
	}

	item.Status = model.ItemStatusActive
	log.Info().
		Str("item_id", itemID.String()).
		Int64("owner_id", ownerID).
		Int64("fee", fee).
		Msg("item published")
	return item, entry, nil
}

func (s *ListingService) refund(ctx context.Context, item *model.Item, fee int64) {
	_, err := s.coins.Credit(ctx, item.OwnerID, fee, model.CoinReasonRefund, CoinOptions{
		ItemID:      &item.ID,
		Description: fmt.Sprintf("Listing fee refund: %s", item.Title),
	})
	if err != nil {
		log.Error().Err(err).
			Str("item_id", item.ID.String()).
			Int64("user_id", item.OwnerID).
			Int64("amount", fee).
			Msg("CRITICAL: failed to refund listing fee")
	}
}
