package domain

import "strings"

type PaymentMethodType string

const (
	PaymentMethodCreditCard PaymentMethodType = "CREDIT_CARD"
	PaymentMethodDebitCard  PaymentMethodType = "DEBIT_CARD"
)

type PaymentMethod struct {
	Type     PaymentMethodType
	LastFour string
}

func NewPaymentMethod(methodType string, lastFour string) (PaymentMethod, error) {
	parsedType := PaymentMethodType(strings.ToUpper(strings.TrimSpace(methodType)))
	if parsedType != PaymentMethodCreditCard && parsedType != PaymentMethodDebitCard {
		return PaymentMethod{}, NewValidationError("paymentMethodType", "must be CREDIT_CARD or DEBIT_CARD")
	}

	lastFour = strings.TrimSpace(lastFour)
	if !isFourDigits(lastFour) {
		return PaymentMethod{}, NewValidationError("paymentMethodLastFour", "must be exactly 4 digits")
	}

	return PaymentMethod{Type: parsedType, LastFour: lastFour}, nil
}

func isFourDigits(value string) bool {
	if len(value) != 4 {
		return false
	}
	for _, ch := range value {
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return true
}
