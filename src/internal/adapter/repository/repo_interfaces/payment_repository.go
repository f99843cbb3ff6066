package repo_interfaces

import (
	"context"

	"github.com/api-sage/p2p-payment-processor/src/internal/domain"
)

type PaymentRepository interface {
	Create(ctx context.Context, payment domain.Payment) (domain.Payment, error)
	GetByTransactionID(ctx context.Context, transactionID string) (domain.Payment, error)
	Update(ctx context.Context, payment domain.Payment) (domain.Payment, error)
	ListByUserID(ctx context.Context, userID string) ([]domain.Payment, error)
}
