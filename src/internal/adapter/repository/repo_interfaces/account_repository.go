package repo_interfaces

import (
	"context"

	"github.com/api-sage/p2p-payment-processor/src/internal/domain"
)

type AccountRepository interface {
	Create(ctx context.Context, account domain.Account) (domain.Account, error)
	GetByUserID(ctx context.Context, userID string) (domain.Account, error)
	UpdateBalance(ctx context.Context, userID string, balance domain.Amount) error
}
