package core

import "errors"

// Error taxonomy. Services and storage return these sentinels (wrapped with
// %w); the HTTP layer maps them onto status codes with errors.Is.
var (
	ErrNotFound            = errors.New("not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrNotAuthorized       = errors.New("not authorized")
	ErrDuplicate           = errors.New("already exists")
)

// Field-level validation errors.
var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidSchedule = errors.New("invalid recurring schedule")
	ErrEmptyCategory   = errors.New("empty category")
	ErrEmptyTitle      = errors.New("empty title")
	ErrEmptyMessage    = errors.New("empty message")
	ErrInvalidStatus   = errors.New("invalid status")
)

// IsValidation reports whether err belongs to the validation family.
func IsValidation(err error) bool {
	for _, v := range []error{
		ErrInvalidAmount,
		ErrInvalidDate,
		ErrInvalidSchedule,
		ErrEmptyCategory,
		ErrEmptyTitle,
		ErrEmptyMessage,
		ErrInvalidStatus,
	} {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}
