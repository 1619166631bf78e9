package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/rsravisharma/swap-web-sub002/internal/config"
	"github.com/rsravisharma/swap-web-sub002/internal/model"
	"github.com/rsravisharma/swap-web-sub002/internal/repository"
)

// maxChainWalk bounds chain traversal regardless of the configured depth so
// corrupt parent pointers cannot stall a request.
const maxChainWalk = 1000

type OfferEvent string

const (
	OfferEventCreated   OfferEvent = "created"
	OfferEventCountered OfferEvent = "countered"
	OfferEventAccepted  OfferEvent = "accepted"
	OfferEventRejected  OfferEvent = "rejected"
	OfferEventCancelled OfferEvent = "cancelled"
)

// Notifier delivers negotiation events to a user.
type Notifier interface {
	NotifyOffer(ctx context.Context, userID int64, event OfferEvent, offer *model.Offer) error
}

type OfferService struct {
	offers   OfferStore
	items    ItemStore
	settings *SettingsService
	notifier Notifier

	ttl      time.Duration
	maxDepth int
	now      func() time.Time
}

func NewOfferService(offers OfferStore, items ItemStore, settings *SettingsService, cfg config.OffersConfig) *OfferService {
	return &OfferService{
		offers:   offers,
		items:    items,
		settings: settings,
		ttl:      cfg.TTL,
		maxDepth: cfg.MaxCounterDepth,
		now:      time.Now,
	}
}

// SetNotifier sets the notifier (the bot is built after the services)
func (s *OfferService) SetNotifier(n Notifier) {
	s.notifier = n
}

// CreateInitialOffer opens a negotiation thread from a buyer to the owner of an item
func (s *OfferService) CreateInitialOffer(ctx context.Context, senderID, receiverID int64, itemID uuid.UUID, amount decimal.Decimal, message string) (*model.Offer, error) {
	if senderID == receiverID {
		return nil, fmt.Errorf("%w: cannot make an offer to yourself", ErrInvalidOffer)
	}
	if err := validateOfferAmount(amount); err != nil {
		return nil, err
	}

	item, err := s.items.GetItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, repository.ErrItemNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, storageFailure("get item", err)
	}
	if !item.EligibleForOffer(receiverID) {
		return nil, fmt.Errorf("%w: item is not open for offers to this user", ErrInvalidOffer)
	}

	offer := &model.Offer{
		SenderID:   senderID,
		ReceiverID: receiverID,
		ItemID:     itemID,
		Amount:     amount,
		Message:    message,
		Status:     model.OfferStatusPending,
		Kind:       model.OfferKindInitial,
		ExpiresAt:  s.expiresAt(),
	}
	if err := s.offers.CreateOffer(ctx, offer); err != nil {
		return nil, storageFailure("create offer", err)
	}

	log.Info().
		Str("offer_id", offer.ID.String()).
		Int64("sender_id", senderID).
		Int64("receiver_id", receiverID).
		Str("item_id", itemID.String()).
		Str("amount", amount.StringFixed(2)).
		Msg("offer created")

	s.notify(ctx, offer.ReceiverID, OfferEventCreated, offer)
	return offer, nil
}

// Counter answers a pending offer with a new one from the other side
func (s *OfferService) Counter(ctx context.Context, parentID uuid.UUID, actorID int64, amount decimal.Decimal, message string) (*model.Offer, error) {
	parent, err := s.getOffer(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if actorID != parent.SenderID && actorID != parent.ReceiverID {
		return nil, ErrForbidden
	}
	if err := validateOfferAmount(amount); err != nil {
		return nil, err
	}
	if err := s.checkPending(parent); err != nil {
		return nil, err
	}

	chain, err := s.walkChain(ctx, parent)
	if err != nil {
		return nil, err
	}
	if s.maxDepth > 0 && len(chain)-1 >= s.maxDepth {
		return nil, fmt.Errorf("%w: thread already has %d counters", ErrInvalidState, s.maxDepth)
	}

	offer := &model.Offer{
		SenderID:      actorID,
		ReceiverID:    parent.Counterparty(actorID),
		ItemID:        parent.ItemID,
		ParentOfferID: &parent.ID,
		Amount:        amount,
		Message:       message,
		Status:        model.OfferStatusPending,
		Kind:          model.OfferKindCounter,
		ExpiresAt:     s.expiresAt(),
	}
	if err := s.offers.CreateCounterOffer(ctx, offer); err != nil {
		switch {
		case errors.Is(err, repository.ErrOfferNotPending):
			return nil, fmt.Errorf("%w: offer is no longer pending", ErrInvalidState)
		case errors.Is(err, repository.ErrOfferSuperseded):
			return nil, fmt.Errorf("%w: offer already has a pending counter", ErrInvalidState)
		case errors.Is(err, repository.ErrOfferNotFound):
			return nil, ErrOfferNotFound
		}
		return nil, storageFailure("create counter offer", err)
	}

	log.Info().
		Str("offer_id", offer.ID.String()).
		Str("parent_offer_id", parent.ID.String()).
		Int64("sender_id", actorID).
		Str("amount", amount.StringFixed(2)).
		Int("counters", len(chain)).
		Msg("counter offer created")

	s.notify(ctx, offer.ReceiverID, OfferEventCountered, offer)
	return offer, nil
}

// Accept closes the negotiation on this offer. When a deal fee is set, the
// item owner pays it in the same transaction as the status change.
func (s *OfferService) Accept(ctx context.Context, offerID uuid.UUID, actorID int64) (*model.Offer, error) {
	offer, err := s.getOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if actorID != offer.ReceiverID {
		return nil, ErrForbidden
	}
	if err := s.checkPending(offer); err != nil {
		return nil, err
	}

	fee, err := s.dealFee(ctx, offer)
	if err != nil {
		return nil, err
	}

	accepted, entry, err := s.offers.AcceptOffer(ctx, offerID, actorID, fee)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrOfferNotPending):
			return nil, fmt.Errorf("%w: offer is no longer pending", ErrInvalidState)
		case errors.Is(err, repository.ErrInsufficientBalance):
			return nil, fmt.Errorf("%w: the deal fee is %d coins", ErrInsufficientBalance, fee.Amount)
		case errors.Is(err, repository.ErrUserNotFound):
			return nil, ErrUserNotFound
		}
		return nil, storageFailure("accept offer", err)
	}

	event := log.Info().
		Str("offer_id", offerID.String()).
		Int64("accepted_by", actorID).
		Str("amount", accepted.Amount.StringFixed(2))
	if entry != nil {
		event = event.Int64("fee_payer_id", entry.UserID).Int64("fee", -entry.Amount)
	}
	event.Msg("offer accepted")

	s.notify(ctx, accepted.SenderID, OfferEventAccepted, accepted)
	return accepted, nil
}

// Reject declines an offer addressed to actorID
func (s *OfferService) Reject(ctx context.Context, offerID uuid.UUID, actorID int64, reason string) (*model.Offer, error) {
	offer, err := s.getOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if actorID != offer.ReceiverID {
		return nil, ErrForbidden
	}
	if offer.Status.Terminal() {
		return nil, fmt.Errorf("%w: offer is %s", ErrInvalidState, offer.Status)
	}

	rejected, err := s.offers.RejectOffer(ctx, offerID, actorID, optionalString(reason))
	if err != nil {
		if errors.Is(err, repository.ErrOfferNotPending) {
			return nil, fmt.Errorf("%w: offer is no longer pending", ErrInvalidState)
		}
		return nil, storageFailure("reject offer", err)
	}

	log.Info().Str("offer_id", offerID.String()).Int64("rejected_by", actorID).Msg("offer rejected")
	s.notify(ctx, rejected.SenderID, OfferEventRejected, rejected)
	return rejected, nil
}

// Cancel withdraws an offer sent by actorID
func (s *OfferService) Cancel(ctx context.Context, offerID uuid.UUID, actorID int64, reason string) (*model.Offer, error) {
	offer, err := s.getOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if actorID != offer.SenderID {
		return nil, ErrForbidden
	}
	if offer.Status.Terminal() {
		return nil, fmt.Errorf("%w: offer is %s", ErrInvalidState, offer.Status)
	}

	cancelled, err := s.offers.CancelOffer(ctx, offerID, actorID, optionalString(reason))
	if err != nil {
		if errors.Is(err, repository.ErrOfferNotPending) {
			return nil, fmt.Errorf("%w: offer is no longer pending", ErrInvalidState)
		}
		return nil, storageFailure("cancel offer", err)
	}

	log.Info().Str("offer_id", offerID.String()).Int64("cancelled_by", actorID).Msg("offer cancelled")
	s.notify(ctx, cancelled.ReceiverID, OfferEventCancelled, cancelled)
	return cancelled, nil
}

// ResolveChain returns the thread from its root down to offerID
func (s *OfferService) ResolveChain(ctx context.Context, offerID uuid.UUID) ([]model.Offer, error) {
	offer, err := s.getOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	return s.walkChain(ctx, offer)
}

// RootOf returns the initial offer of the thread offerID belongs to
func (s *OfferService) RootOf(ctx context.Context, offerID uuid.UUID) (*model.Offer, error) {
	chain, err := s.ResolveChain(ctx, offerID)
	if err != nil {
		return nil, err
	}
	return &chain[0], nil
}

// GetThread builds the read model for one offer as seen by viewerID
func (s *OfferService) GetThread(ctx context.Context, offerID uuid.UUID, viewerID int64) (*model.OfferThread, error) {
	offer, err := s.getOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if viewerID != offer.SenderID && viewerID != offer.ReceiverID {
		return nil, ErrForbidden
	}

	chain, err := s.walkChain(ctx, offer)
	if err != nil {
		return nil, err
	}

	children, err := s.offers.ListChildOffers(ctx, offer.ID)
	if err != nil {
		return nil, storageFailure("list counter offers", err)
	}
	superseded := false
	for _, child := range children {
		if child.Status == model.OfferStatusPending {
			superseded = true
			break
		}
	}

	below, err := s.descendants(ctx, offer.ID, children)
	if err != nil {
		return nil, err
	}

	expired := offer.IsExpired(s.now())
	total := len(chain) + below
	return &model.OfferThread{
		Offer:      offer,
		Chain:      chain,
		Sequence:   len(chain),
		Total:      total,
		Counters:   total - 1,
		Expired:    expired,
		Superseded: superseded,
		IsLiveTip:  offer.Status == model.OfferStatusPending && !superseded && !expired,
	}, nil
}

// ListOffers returns offers the user sent or received, newest first
func (s *OfferService) ListOffers(ctx context.Context, userID int64, limit, offset int) ([]model.Offer, error) {
	if offset < 0 {
		offset = 0
	}
	offers, err := s.offers.ListOffersByUser(ctx, userID, clampLimit(limit), offset)
	if err != nil {
		return nil, storageFailure("list offers", err)
	}
	return offers, nil
}

func (s *OfferService) getOffer(ctx context.Context, id uuid.UUID) (*model.Offer, error) {
	offer, err := s.offers.GetOffer(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrOfferNotFound) {
			return nil, ErrOfferNotFound
		}
		return nil, storageFailure("get offer", err)
	}
	return offer, nil
}

func (s *OfferService) checkPending(offer *model.Offer) error {
	if offer.Status.Terminal() {
		return fmt.Errorf("%w: offer is %s", ErrInvalidState, offer.Status)
	}
	if offer.IsExpired(s.now()) {
		return fmt.Errorf("%w: offer has expired", ErrInvalidState)
	}
	return nil
}

// walkChain follows parent pointers up to the root and returns the chain
// root first. A cycle, a missing parent or a parent on another item means
// the thread is corrupt.
func (s *OfferService) walkChain(ctx context.Context, offer *model.Offer) ([]model.Offer, error) {
	chain := []model.Offer{*offer}
	visited := map[uuid.UUID]struct{}{offer.ID: {}}

	current := offer
	for current.ParentOfferID != nil {
		if current.Kind != model.OfferKindCounter {
			return nil, fmt.Errorf("%w: offer %s has a parent but is not a counter", ErrInvalidState, current.ID)
		}
		if len(chain) >= maxChainWalk {
			return nil, fmt.Errorf("%w: thread of offer %s is longer than %d", ErrInvalidState, offer.ID, maxChainWalk)
		}

		parentID := *current.ParentOfferID
		if _, seen := visited[parentID]; seen {
			return nil, fmt.Errorf("%w: cycle at offer %s", ErrInvalidState, parentID)
		}

		parent, err := s.offers.GetOffer(ctx, parentID)
		if err != nil {
			if errors.Is(err, repository.ErrOfferNotFound) {
				return nil, fmt.Errorf("%w: parent offer %s is missing", ErrInvalidState, parentID)
			}
			return nil, storageFailure("get parent offer", err)
		}
		if parent.ItemID != offer.ItemID {
			return nil, fmt.Errorf("%w: parent offer %s belongs to another item", ErrInvalidState, parentID)
		}

		visited[parentID] = struct{}{}
		chain = append(chain, *parent)
		current = parent
	}

	if current.Kind != model.OfferKindInitial {
		return nil, fmt.Errorf("%w: thread root %s is not an initial offer", ErrInvalidState, current.ID)
	}

	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

// descendants counts offers below id, following the newest counter at each
// level.
func (s *OfferService) descendants(ctx context.Context, id uuid.UUID, children []model.Offer) (int, error) {
	visited := map[uuid.UUID]struct{}{id: {}}
	count := 0
	for len(children) > 0 && count < maxChainWalk {
		next := children[len(children)-1]
		if _, seen := visited[next.ID]; seen {
			break
		}
		visited[next.ID] = struct{}{}
		count++

		var err error
		children, err = s.offers.ListChildOffers(ctx, next.ID)
		if err != nil {
			return 0, storageFailure("list counter offers", err)
		}
	}
	return count, nil
}

// dealFee builds the fee debit for accepting offer, or nil when no fee is set.
// The owner of the item, who received the thread root, pays it.
func (s *OfferService) dealFee(ctx context.Context, offer *model.Offer) (*model.CoinMutation, error) {
	fee, err := s.settings.Coins(ctx, model.SettingDealFeeCoins)
	if err != nil {
		return nil, err
	}
	if fee <= 0 {
		return nil, nil
	}

	chain, err := s.walkChain(ctx, offer)
	if err != nil {
		return nil, err
	}
	root := chain[0]

	itemID := offer.ItemID
	offerID := offer.ID
	return &model.CoinMutation{
		UserID:      root.ReceiverID,
		Amount:      fee,
		Reason:      model.CoinReasonPurchase,
		ItemID:      &itemID,
		OfferID:     &offerID,
		Description: fmt.Sprintf("Deal fee for offer %s", offerID),
	}, nil
}

func (s *OfferService) expiresAt() *time.Time {
	if s.ttl <= 0 {
		return nil
	}
	t := s.now().Add(s.ttl)
	return &t
}

func (s *OfferService) notify(ctx context.Context, userID int64, event OfferEvent, offer *model.Offer) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyOffer(ctx, userID, event, offer); err != nil {
		log.Warn().Err(err).
			Str("offer_id", offer.ID.String()).
			Int64("user_id", userID).
			Str("event", string(event)).
			Msg("failed to send offer notification")
	}
}

func validateOfferAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: amount must be greater than zero", ErrInvalidOffer)
	}
	if !amount.Equal(amount.Truncate(2)) {
		return fmt.Errorf("%w: amount has more than two decimal places", ErrInvalidOffer)
	}
	if amount.GreaterThanOrEqual(maxOfferAmount) {
		return fmt.Errorf("%w: amount is too large", ErrInvalidOffer)
	}
	return nil
}

// NUMERIC(12,2)
var maxOfferAmount = decimal.New(1, 10)

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
