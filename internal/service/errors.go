package service

import (
	"errors"
	"fmt"
)

// Error kinds. Every error a service returns to its caller either wraps one
// of these or is an unexpected storage failure wrapped in ErrStorage.
var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrAuth       = errors.New("unauthorized")
	ErrStorage    = errors.New("storage failure")
)

var (
	ErrInvalidCredentials     = fmt.Errorf("%w: invalid credentials", ErrAuth)
	ErrInvalidToken           = fmt.Errorf("%w: invalid token", ErrAuth)
	ErrTokenExpired           = fmt.Errorf("%w: token expired", ErrAuth)
	ErrForbidden              = fmt.Errorf("%w: admin role required", ErrAuth)
	ErrOrderAccessDenied      = fmt.Errorf("%w: access denied", ErrAuth)
	ErrCartEntryForbidden     = fmt.Errorf("%w: cart item belongs to another user", ErrAuth)
	ErrUserAlreadyExists      = fmt.Errorf("%w: user already exists", ErrConflict)
	ErrDuplicateAuthorization = fmt.Errorf("%w: authorization code already recorded", ErrConflict)
	ErrUserNotFound           = fmt.Errorf("user %w", ErrNotFound)
	ErrCustomerNotFound       = fmt.Errorf("customer %w", ErrNotFound)
	ErrProductNotFound        = fmt.Errorf("product %w", ErrNotFound)
	ErrOrderNotFound          = fmt.Errorf("order %w", ErrNotFound)
	ErrEmptyCart              = fmt.Errorf("%w: cart is empty", ErrValidation)
	ErrPolicyNotAccepted      = fmt.Errorf("%w: privacy policy must be accepted", ErrValidation)
	ErrAmountMismatch         = fmt.Errorf("%w: amount mismatch", ErrValidation)
)

func validationError(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

func storageError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}
