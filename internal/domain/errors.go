package domain

import (
	"errors"
	"fmt"
)

var (
	ErrListingNotFound      = errors.New("listing not found")
	ErrInvalidBatch         = errors.New("invalid batch")
	ErrUnknownOperation     = errors.New("unknown operation")
	ErrInvalidRuleConfig    = errors.New("invalid rule config")
	ErrRuleNotFound         = errors.New("rule definition not found")
	ErrHistoryEntryNotFound = errors.New("history entry not found")
	ErrAuditNotFound        = errors.New("no audit recorded for listing")
)

// UserError carries a message meant for the shop owner alongside the cause.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error { return e.Err }

func NewUserError(userMessage string, err error) error {
	return &UserError{UserMessage: userMessage, Err: err}
}

// UserMessage extracts the human-readable message from err.
func UserMessage(err error) string {
	var ue *UserError
	if errors.As(err, &ue) {
		return ue.UserMessage
	}
	if errors.Is(err, ErrListingNotFound) {
		return "Product not found"
	}
	return err.Error()
}
