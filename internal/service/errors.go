package service

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

var (
	ErrInvalidOffer        = errors.New("invalid offer")
	ErrForbidden           = errors.New("you are not allowed to do this")
	ErrInvalidState        = errors.New("offer can no longer be changed")
	ErrInsufficientBalance = errors.New("not enough coins")
	ErrStorageFailure      = errors.New("storage failure")

	ErrOfferNotFound         = errors.New("offer not found")
	ErrUserNotFound          = errors.New("user not found")
	ErrItemNotFound          = errors.New("item not found")
	ErrInvalidAmount         = errors.New("amount must be a positive number of coins")
	ErrInvalidReason         = errors.New("unknown coin transaction reason")
	ErrInvalidSetting        = errors.New("unknown setting or bad value")
	ErrSelfReferral          = errors.New("you cannot refer yourself")
	ErrReferralAlreadyExists = errors.New("referral already exists")
	ErrNotAdmin              = errors.New("user is not an admin")
	ErrAlreadyCheckedIn      = errors.New("already checked in today")
)

// storageFailure logs an unexpected storage error once and wraps it so
// callers can match ErrStorageFailure.
func storageFailure(op string, err error) error {
	log.Error().Err(err).Str("op", op).Msg("storage failure")
	return fmt.Errorf("%w: %s: %w", ErrStorageFailure, op, err)
}
