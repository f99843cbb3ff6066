package domain

import (
	"errors"
	"fmt"
)

var ErrRecordNotFound = errors.New("Record not found")
var ErrInsufficientBalance = errors.New("Insufficient balance")

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func NewValidationError(field string, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// DomainRuleViolationError reports an illegal payment status transition.
// The aggregate is left unchanged when it is returned.
type DomainRuleViolationError struct {
	From PaymentStatus
	To   PaymentStatus
}

func (e *DomainRuleViolationError) Error() string {
	return fmt.Sprintf("payment cannot move from %s to %s", e.From, e.To)
}
