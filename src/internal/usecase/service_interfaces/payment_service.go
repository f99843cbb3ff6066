package service_interfaces

import (
	"context"

	"github.com/api-sage/p2p-payment-processor/src/internal/adapter/http/models"
	"github.com/api-sage/p2p-payment-processor/src/internal/commons"
)

type PaymentService interface {
	SendPayment(ctx context.Context, req models.SendPaymentRequest) (commons.Response[models.PaymentResponse], error)
	ProcessPayment(ctx context.Context, transactionID string) (commons.Response[models.ProcessPaymentResponse], error)
	RefundPayment(ctx context.Context, transactionID string) (commons.Response[models.RefundPaymentResponse], error)
	GetPayment(ctx context.Context, transactionID string) (commons.Response[models.PaymentResponse], error)
	ListUserPayments(ctx context.Context, userID string) (commons.Response[[]models.PaymentResponse], error)
}
