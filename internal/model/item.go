package model

import (
	"time"

	"github.com/google/uuid"
)

type ItemStatus string

const (
	ItemStatusDraft  ItemStatus = "draft"
	ItemStatusActive ItemStatus = "active"
	ItemStatusSold   ItemStatus = "sold"
)

// Item is the slice of a listing the negotiation core needs for eligibility.
type Item struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	OwnerID   int64      `json:"owner_id" db:"owner_id"`
	Title     string     `json:"title" db:"title"`
	Status    ItemStatus `json:"status" db:"status"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// EligibleForOffer reports whether a negotiation addressed to sellerID
// may be opened on this item.
func (i *Item) EligibleForOffer(sellerID int64) bool {
	return i.Status == ItemStatusActive && i.OwnerID == sellerID
}
