package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "PENDING"
	PaymentStatusProcessing PaymentStatus = "PROCESSING"
	PaymentStatusCompleted  PaymentStatus = "COMPLETED"
	PaymentStatusFailed     PaymentStatus = "FAILED"
	PaymentStatusRefunded   PaymentStatus = "REFUNDED"
)

// Payment is the aggregate root for a peer-to-peer transfer. Status moves
// through the lifecycle PENDING -> PROCESSING -> COMPLETED/FAILED, with the
// single extra transition COMPLETED -> REFUNDED. The aggregate performs no
// I/O; persistence of a transition belongs to the caller.
type Payment struct {
	TransactionID string
	FromUserID    string
	ToUserID      string
	Amount        Amount
	Currency      Currency
	Method        PaymentMethod
	Status        PaymentStatus
	Description   string
	FailureReason *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	ProcessedAt   *time.Time
}

func NewPayment(fromUserID string, toUserID string, amount Amount, currency Currency, method PaymentMethod, description string) Payment {
	return Payment{
		TransactionID: GenerateTransactionID(),
		FromUserID:    strings.TrimSpace(fromUserID),
		ToUserID:      strings.TrimSpace(toUserID),
		Amount:        amount,
		Currency:      currency,
		Method:        method,
		Status:        PaymentStatusPending,
		Description:   strings.TrimSpace(description),
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}
}

// GenerateTransactionID returns a fresh "TXN-" prefixed identifier. The
// payment repository retries creation on the rare collision.
func GenerateTransactionID() string {
	return "TXN-" + uuid.NewString()[:18]
}

func (p *Payment) MarkProcessing() error {
	if p.Status != PaymentStatusPending {
		return &DomainRuleViolationError{From: p.Status, To: PaymentStatusProcessing}
	}

	now := time.Now().UTC()
	p.Status = PaymentStatusProcessing
	p.ProcessedAt = &now
	p.UpdatedAt = now
	return nil
}

func (p *Payment) MarkCompleted() error {
	if p.Status != PaymentStatusProcessing {
		return &DomainRuleViolationError{From: p.Status, To: PaymentStatusCompleted}
	}

	p.Status = PaymentStatusCompleted
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (p *Payment) MarkFailed(reason string) error {
	if p.Status != PaymentStatusProcessing {
		return &DomainRuleViolationError{From: p.Status, To: PaymentStatusFailed}
	}

	p.Status = PaymentStatusFailed
	p.FailureReason = &reason
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (p *Payment) MarkRefunded() error {
	if p.Status != PaymentStatusCompleted {
		return &DomainRuleViolationError{From: p.Status, To: PaymentStatusRefunded}
	}

	p.Status = PaymentStatusRefunded
	p.UpdatedAt = time.Now().UTC()
	return nil
}
