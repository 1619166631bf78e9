package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OfferStatus string

const (
	OfferStatusPending   OfferStatus = "pending"
	OfferStatusAccepted  OfferStatus = "accepted"
	OfferStatusRejected  OfferStatus = "rejected"
	OfferStatusCancelled OfferStatus = "cancelled"
)

// Terminal reports whether no further transition is allowed from s.
func (s OfferStatus) Terminal() bool {
	return s == OfferStatusAccepted || s == OfferStatusRejected || s == OfferStatusCancelled
}

type OfferKind string

const (
	OfferKindInitial OfferKind = "initial"
	OfferKindCounter OfferKind = "counter"
)

type Offer struct {
	ID                 uuid.UUID       `json:"id" db:"id"`
	SenderID           int64           `json:"sender_id" db:"sender_id"`
	ReceiverID         int64           `json:"receiver_id" db:"receiver_id"`
	ItemID             uuid.UUID       `json:"item_id" db:"item_id"`
	ParentOfferID      *uuid.UUID      `json:"parent_offer_id,omitempty" db:"parent_offer_id"`
	Amount             decimal.Decimal `json:"amount" db:"amount"`
	Message            string          `json:"message" db:"message"`
	Status             OfferStatus     `json:"status" db:"status"`
	Kind               OfferKind       `json:"offer_kind" db:"offer_kind"`
	AcceptedBy         *int64          `json:"accepted_by,omitempty" db:"accepted_by"`
	AcceptedAt         *time.Time      `json:"accepted_at,omitempty" db:"accepted_at"`
	RejectedAt         *time.Time      `json:"rejected_at,omitempty" db:"rejected_at"`
	CancelledAt        *time.Time      `json:"cancelled_at,omitempty" db:"cancelled_at"`
	RejectionReason    *string         `json:"rejection_reason,omitempty" db:"rejection_reason"`
	CancellationReason *string         `json:"cancellation_reason,omitempty" db:"cancellation_reason"`
	ExpiresAt          *time.Time      `json:"expires_at,omitempty" db:"expires_at"`
	CreatedAt          time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at" db:"updated_at"`
}

func (o *Offer) IsRoot() bool {
	return o.ParentOfferID == nil
}

// IsExpired checks if a pending offer is past its deadline
func (o *Offer) IsExpired(now time.Time) bool {
	if o.Status != OfferStatusPending || o.ExpiresAt == nil {
		return false
	}
	return !now.Before(*o.ExpiresAt)
}

// Counterparty returns the other side of the offer for userID.
func (o *Offer) Counterparty(userID int64) int64 {
	if o.SenderID == userID {
		return o.ReceiverID
	}
	return o.SenderID
}

// OfferThread is the read model used by the UI to render a negotiation.
type OfferThread struct {
	Offer      *Offer  `json:"offer"`
	Chain      []Offer `json:"chain"`
	Sequence   int     `json:"sequence"` // 1-based position of Offer in Chain
	Total      int     `json:"total"`
	Counters   int     `json:"counters"`
	Expired    bool    `json:"expired"`
	Superseded bool    `json:"superseded"`
	IsLiveTip  bool    `json:"is_live_tip"`
}

// DisplayStatus is the status shown to users; expired is derived, never stored.
func (t *OfferThread) DisplayStatus() string {
	if t.Expired {
		return "expired"
	}
	return string(t.Offer.Status)
}
