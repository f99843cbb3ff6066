package service_interfaces

import (
	"context"

	"github.com/api-sage/p2p-payment-processor/src/internal/adapter/http/models"
	"github.com/api-sage/p2p-payment-processor/src/internal/commons"
)

type AccountService interface {
	CreateAccount(ctx context.Context, req models.CreateAccountRequest) (commons.Response[models.AccountResponse], error)
	GetAccount(ctx context.Context, userID string) (commons.Response[models.AccountResponse], error)
	DepositFunds(ctx context.Context, req models.DepositFundsRequest) (commons.Response[models.DepositFundsResponse], error)
}
