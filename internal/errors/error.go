package errors

import (
	"errors"
)

var (
	ErrEmptyAuth    = errors.New("missing authorization")
	ErrEmptySubject = errors.New("missing subject")
	ErrTokenInvalid = errors.New("invalid token")

	ErrValidation       = errors.New("validation failed")
	ErrNotFound         = errors.New("not found")
	ErrRetryExhausted   = errors.New("retry attempts exhausted")
	ErrMissingSignature = errors.New("missing webhook signature")
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrProductNotSynced = errors.New("associated product must be synced to payments provider first")
	ErrCartEmpty        = errors.New("cart is empty")
	ErrCartNotOwned     = errors.New("cart does not belong to user")
)
