package models

import (
	"errors"
	"strings"

	"github.com/api-sage/p2p-payment-processor/src/internal/domain"
)

type CreateAccountRequest struct {
	UserID              string `json:"userId"`
	OpeningBalanceCents int64  `json:"openingBalanceCents"`
}

func (r CreateAccountRequest) Validate() error {
	var errs []string

	if strings.TrimSpace(r.UserID) == "" {
		errs = append(errs, "userId is required")
	}
	if r.OpeningBalanceCents < 0 {
		errs = append(errs, "openingBalanceCents cannot be negative")
	}
	if r.OpeningBalanceCents > domain.MaxAmountCents {
		errs = append(errs, "openingBalanceCents exceeds maximum allowed value")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

type AccountResponse struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	Balance   string `json:"balance"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

type DepositFundsRequest struct {
	UserID      string `json:"userId"`
	AmountCents int64  `json:"amountCents"`
}

func (r DepositFundsRequest) Validate() error {
	var errs []string

	if strings.TrimSpace(r.UserID) == "" {
		errs = append(errs, "userId is required")
	}
	if r.AmountCents <= 0 {
		errs = append(errs, "amountCents must be greater than zero")
	}
	if r.AmountCents > domain.MaxAmountCents {
		errs = append(errs, "amountCents exceeds maximum allowed value")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

type DepositFundsResponse struct {
	UserID          string `json:"userId"`
	DepositedAmount string `json:"depositedAmount"`
	Balance         string `json:"balance"`
}
