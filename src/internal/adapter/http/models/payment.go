package models

import (
	"errors"
	"strings"

	"github.com/api-sage/p2p-payment-processor/src/internal/domain"
)

type SendPaymentRequest struct {
	FromUserID            string `json:"fromUserId"`
	ToUserID              string `json:"toUserId"`
	AmountCents           int64  `json:"amountCents"`
	Currency              string `json:"currency"`
	PaymentMethodType     string `json:"paymentMethodType"`
	PaymentMethodLastFour string `json:"paymentMethodLastFour"`
	Description           string `json:"description,omitempty"`
}

func (r SendPaymentRequest) Validate() error {
	var errs []string

	fromUserID := strings.TrimSpace(r.FromUserID)
	toUserID := strings.TrimSpace(r.ToUserID)
	if fromUserID == "" {
		errs = append(errs, "fromUserId is required")
	}
	if toUserID == "" {
		errs = append(errs, "toUserId is required")
	}
	if fromUserID != "" && fromUserID == toUserID {
		errs = append(errs, "fromUserId and toUserId cannot be the same")
	}

	if r.AmountCents <= 0 {
		errs = append(errs, "amountCents must be greater than zero")
	}
	if r.AmountCents > domain.MaxAmountCents {
		errs = append(errs, "amountCents exceeds maximum allowed value")
	}

	if strings.TrimSpace(r.Currency) == "" {
		errs = append(errs, "currency is required")
	}
	if strings.TrimSpace(r.PaymentMethodType) == "" {
		errs = append(errs, "paymentMethodType is required")
	}
	if strings.TrimSpace(r.PaymentMethodLastFour) == "" {
		errs = append(errs, "paymentMethodLastFour is required")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

type PaymentMethodPayload struct {
	Type     string `json:"type"`
	LastFour string `json:"lastFour"`
}

type PaymentResponse struct {
	ID            string               `json:"id"`
	FromUserID    string               `json:"fromUserId"`
	ToUserID      string               `json:"toUserId"`
	Amount        string               `json:"amount"`
	Currency      string               `json:"currency"`
	PaymentMethod PaymentMethodPayload `json:"paymentMethod"`
	Status        string               `json:"status"`
	Description   string               `json:"description,omitempty"`
	FailureReason string               `json:"failureReason,omitempty"`
	CreatedAt     string               `json:"createdAt"`
	ProcessedAt   string               `json:"processedAt,omitempty"`
}

type ProcessPaymentRequest struct {
	TransactionID string `json:"transactionId"`
}

func (r ProcessPaymentRequest) Validate() error {
	if strings.TrimSpace(r.TransactionID) == "" {
		return errors.New("transactionId is required")
	}
	return nil
}

type ProcessPaymentResponse struct {
	ID                 string `json:"id"`
	Status             string `json:"status"`
	ProcessedAt        string `json:"processedAt,omitempty"`
	Message            string `json:"message"`
	SenderNewBalance   string `json:"senderNewBalance,omitempty"`
	ReceiverNewBalance string `json:"receiverNewBalance,omitempty"`
}

type RefundPaymentRequest struct {
	TransactionID string `json:"transactionId"`
}

func (r RefundPaymentRequest) Validate() error {
	if strings.TrimSpace(r.TransactionID) == "" {
		return errors.New("transactionId is required")
	}
	return nil
}

type RefundPaymentResponse struct {
	ID                 string `json:"id"`
	Status             string `json:"status"`
	RefundedAmount     string `json:"refundedAmount"`
	Message            string `json:"message"`
	SenderNewBalance   string `json:"senderNewBalance"`
	ReceiverNewBalance string `json:"receiverNewBalance"`
}
