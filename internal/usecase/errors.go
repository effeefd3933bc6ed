package usecase

import (
	"errors"
)

// Sentinel errors for ledger and settlement failures. Handlers translate
// these with errors.Is; everything else is treated as an internal error.
var (
	// ErrInsufficientCapacity means the session does not have room for the
	// requested spots. Never retried automatically.
	ErrInsufficientCapacity = errors.New("insufficient capacity")

	// ErrAlreadyPrivatelyBooked means the private session is already held by
	// another booking, regardless of its numeric capacity.
	ErrAlreadyPrivatelyBooked = errors.New("session already privately booked")

	// ErrInsufficientBalance means the punch card lacks the requested uses.
	ErrInsufficientBalance = errors.New("insufficient punch card balance")

	// ErrAlreadyDebited means a debit with the same causal booking id was
	// already applied. Callers treat it as a successful replay.
	ErrAlreadyDebited = errors.New("punch card already debited for booking")

	// ErrUnverifiedWebhook means the webhook signature did not verify. The
	// event is rejected and logged, never applied.
	ErrUnverifiedWebhook = errors.New("webhook signature verification failed")

	// ErrPaymentNotCompleted means the gateway reports the intent as not yet
	// succeeded, so settlement cannot proceed.
	ErrPaymentNotCompleted = errors.New("payment not completed")

	ErrBookingNotFound   = errors.New("booking not found")
	ErrSessionNotFound   = errors.New("session not found")
	ErrPunchCardNotFound = errors.New("punch card not found")
	ErrNotBookingOwner   = errors.New("booking does not belong to this member")
)

// IsCapacityError reports whether err is a user-visible "fully booked"
// condition.
func IsCapacityError(err error) bool {
	return errors.Is(err, ErrInsufficientCapacity) ||
		errors.Is(err, ErrAlreadyPrivatelyBooked)
}

// IsClientError reports whether err is caused by the request rather than the
// system.
func IsClientError(err error) bool {
	return IsCapacityError(err) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrPaymentNotCompleted) ||
		errors.Is(err, ErrNotBookingOwner)
}

// IsNotFound reports whether err refers to a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrBookingNotFound) ||
		errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrPunchCardNotFound)
}
