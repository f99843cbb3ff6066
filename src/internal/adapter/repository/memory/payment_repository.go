package memory

import (
	"context"
	"sync"

	"github.com/api-sage/p2p-payment-processor/src/internal/domain"
)

type PaymentRepository struct {
	mu       sync.RWMutex
	payments map[string]domain.Payment
}

func NewPaymentRepository() *PaymentRepository {
	return &PaymentRepository{payments: make(map[string]domain.Payment)}
}

func (r *PaymentRepository) Create(_ context.Context, payment domain.Payment) (domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.payments[payment.TransactionID] = payment
	return payment, nil
}

func (r *PaymentRepository) GetByTransactionID(_ context.Context, transactionID string) (domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	payment, ok := r.payments[transactionID]
	if !ok {
		return domain.Payment{}, domain.ErrRecordNotFound
	}
	return payment, nil
}

func (r *PaymentRepository) Update(_ context.Context, payment domain.Payment) (domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.payments[payment.TransactionID]; !ok {
		return domain.Payment{}, domain.ErrRecordNotFound
	}
	r.payments[payment.TransactionID] = payment
	return payment, nil
}

func (r *PaymentRepository) ListByUserID(_ context.Context, userID string) ([]domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	payments := make([]domain.Payment, 0)
	for _, payment := range r.payments {
		if payment.FromUserID == userID || payment.ToUserID == userID {
			payments = append(payments, payment)
		}
	}
	return payments, nil
}
