package ledger

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrInvalidPrice      = errors.New("purchase price per share must be positive")
	ErrInvalidCommission = errors.New("commission must not be negative")
	ErrInvalidTarget     = errors.New("target buy price must be positive when set")
	ErrSecurityNotFound  = errors.New("security not found")
)

// Reason codes reported to clients alongside the failing field.
const (
	ReasonInvalidQuantity   = "InvalidQuantity"
	ReasonInvalidPrice      = "InvalidPrice"
	ReasonInvalidCommission = "InvalidCommission"
	ReasonInvalidTarget     = "InvalidTarget"
	ReasonSecurityNotFound  = "SecurityNotFound"
)

// ValidationError describes a draft the ledger refused. It wraps one of the
// Err* sentinels.
type ValidationError struct {
	Field  string
	Reason string
	Value  string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %s: %v", e.Field, e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
