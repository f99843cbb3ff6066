package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/api-sage/p2p-payment-processor/src/internal/adapter/http/models"
	"github.com/api-sage/p2p-payment-processor/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/p2p-payment-processor/src/internal/commons"
	"github.com/api-sage/p2p-payment-processor/src/internal/domain"
	"github.com/api-sage/p2p-payment-processor/src/internal/logger"
	"github.com/api-sage/p2p-payment-processor/src/internal/usecase/service_interfaces"
	"github.com/lib/pq"
)

var _ service_interfaces.PaymentService = (*PaymentService)(nil)

const (
	idempotencyScopeProcess = "payment:process"
	idempotencyScopeRefund  = "payment:refund"
)

type PaymentService struct {
	paymentRepo  repo_interfaces.PaymentRepository
	accountRepo  repo_interfaces.AccountRepository
	idempotency  repo_interfaces.IdempotencyStore
	accountLocks *AccountLocks
}

func NewPaymentService(
	paymentRepo repo_interfaces.PaymentRepository,
	accountRepo repo_interfaces.AccountRepository,
	idempotency repo_interfaces.IdempotencyStore,
	accountLocks *AccountLocks,
) *PaymentService {
	return &PaymentService{
		paymentRepo:  paymentRepo,
		accountRepo:  accountRepo,
		idempotency:  idempotency,
		accountLocks: accountLocks,
	}
}

// SendPayment validates the request, creates the payment in PENDING and
// persists it once. No balance is touched here; funds move in ProcessPayment.
func (s *PaymentService) SendPayment(ctx context.Context, req models.SendPaymentRequest) (commons.Response[models.PaymentResponse], error) {
	logger.Info("payment service send payment request", logger.Fields{
		"payload": logger.SanitizePayload(req),
	})

	if err := req.Validate(); err != nil {
		return commons.ErrorResponse[models.PaymentResponse]("validation failed", err.Error()), err
	}

	amount, err := domain.NewAmount(req.AmountCents)
	if err != nil {
		return commons.ErrorResponse[models.PaymentResponse]("validation failed", err.Error()), err
	}

	currency, err := domain.ParseCurrency(req.Currency)
	if err != nil {
		return commons.ErrorResponse[models.PaymentResponse]("validation failed", err.Error()), err
	}

	method, err := domain.NewPaymentMethod(req.PaymentMethodType, req.PaymentMethodLastFour)
	if err != nil {
		return commons.ErrorResponse[models.PaymentResponse]("validation failed", err.Error()), err
	}

	payment := domain.NewPayment(req.FromUserID, req.ToUserID, amount, currency, method, req.Description)

	var created domain.Payment
	for attempt := 0; attempt < 5; attempt++ {
		created, err = s.paymentRepo.Create(ctx, payment)
		if err == nil {
			break
		}
		if !isUniqueViolation(err) {
			logger.Error("payment service create payment repository failed", err, logger.Fields{
				"transactionId": payment.TransactionID,
			})
			return commons.ErrorResponse[models.PaymentResponse]("failed to send payment", "Unable to send payment right now"), err
		}
		payment.TransactionID = domain.GenerateTransactionID()
	}
	if err != nil {
		return commons.ErrorResponse[models.PaymentResponse]("failed to send payment", "Unable to send payment right now"), err
	}

	logger.Info("payment service send payment success", logger.Fields{
		"transactionId": created.TransactionID,
		"fromUserId":    created.FromUserID,
		"toUserId":      created.ToUserID,
		"amount":        created.Amount.String(),
	})

	return commons.SuccessResponse("payment created successfully", mapPaymentToResponse(created)), nil
}

// ProcessPayment moves the money for a PENDING payment. The PROCESSING
// checkpoint is persisted before any balance write so that a crash mid-flight
// is observable from the payment record itself. The account pair lock keeps
// the balance read-modify-write from interleaving with a concurrent transfer
// on either account.
func (s *PaymentService) ProcessPayment(ctx context.Context, transactionID string) (commons.Response[models.ProcessPaymentResponse], error) {
	transactionID = strings.TrimSpace(transactionID)
	logger.Info("payment service process payment request", logger.Fields{
		"transactionId": transactionID,
	})

	if transactionID == "" {
		err := fmt.Errorf("transactionId is required")
		return commons.ErrorResponse[models.ProcessPaymentResponse]("validation failed", err.Error()), err
	}

	locked, err := s.idempotency.TryLock(ctx, idempotencyScopeProcess, transactionID)
	if err != nil {
		logger.Error("payment service process idempotency lock failed", err, logger.Fields{
			"transactionId": transactionID,
		})
		return commons.ErrorResponse[models.ProcessPaymentResponse]("failed to process payment", "Unable to process payment right now"), err
	}
	if !locked {
		err := fmt.Errorf("payment %s is already being processed", transactionID)
		return commons.ErrorResponse[models.ProcessPaymentResponse]("Payment is already being processed"), err
	}
	defer func() {
		if releaseErr := s.idempotency.Release(ctx, idempotencyScopeProcess, transactionID); releaseErr != nil {
			logger.Error("payment service process idempotency release failed", releaseErr, logger.Fields{
				"transactionId": transactionID,
			})
		}
	}()

	payment, err := s.paymentRepo.GetByTransactionID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return commons.ErrorResponse[models.ProcessPaymentResponse]("Payment not found"), err
		}
		return commons.ErrorResponse[models.ProcessPaymentResponse]("failed to process payment", "Unable to process payment right now"), err
	}

	if err := payment.MarkProcessing(); err != nil {
		logger.Info("payment service process rejected by state machine", logger.Fields{
			"transactionId": transactionID,
			"status":        payment.Status,
		})
		return commons.ErrorResponse[models.ProcessPaymentResponse]("Payment cannot be processed", err.Error()), err
	}

	// Checkpoint: make PROCESSING durable before touching any balance.
	if payment, err = s.paymentRepo.Update(ctx, payment); err != nil {
		return commons.ErrorResponse[models.ProcessPaymentResponse]("failed to process payment", "Unable to process payment right now"), err
	}

	unlock := s.accountLocks.LockPair(payment.FromUserID, payment.ToUserID)
	defer unlock()

	sender, err := s.accountRepo.GetByUserID(ctx, payment.FromUserID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return s.failPayment(ctx, payment, "Sender user not found")
		}
		return commons.ErrorResponse[models.ProcessPaymentResponse]("failed to process payment", "Unable to process payment right now"), err
	}

	receiver, err := s.accountRepo.GetByUserID(ctx, payment.ToUserID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return s.failPayment(ctx, payment, "Receiver user not found")
		}
		return commons.ErrorResponse[models.ProcessPaymentResponse]("failed to process payment", "Unable to process payment right now"), err
	}

	if sender.Balance.LessThan(payment.Amount) {
		detail := fmt.Sprintf("required %s, available %s", payment.Amount, sender.Balance)
		return s.failPayment(ctx, payment, "Insufficient balance", detail)
	}

	newSenderBalance, err := sender.Balance.Sub(payment.Amount)
	if err != nil {
		return s.failPayment(ctx, payment, "Sender balance out of bounds")
	}
	newReceiverBalance, err := receiver.Balance.Add(payment.Amount)
	if err != nil {
		return s.failPayment(ctx, payment, "Receiver balance limit exceeded")
	}

	if err := s.accountRepo.UpdateBalance(ctx, sender.UserID, newSenderBalance); err != nil {
		logger.Error("payment service debit sender failed", err, logger.Fields{
			"transactionId": transactionID,
			"fromUserId":    sender.UserID,
		})
		return commons.ErrorResponse[models.ProcessPaymentResponse]("failed to process payment", "Unable to process payment right now"), err
	}
	if err := s.accountRepo.UpdateBalance(ctx, receiver.UserID, newReceiverBalance); err != nil {
		logger.Error("payment service credit receiver failed", err, logger.Fields{
			"transactionId": transactionID,
			"toUserId":      receiver.UserID,
		})
		return commons.ErrorResponse[models.ProcessPaymentResponse]("failed to process payment", "Unable to process payment right now"), err
	}

	if err := payment.MarkCompleted(); err != nil {
		return commons.ErrorResponse[models.ProcessPaymentResponse]("failed to process payment", err.Error()), err
	}
	if payment, err = s.paymentRepo.Update(ctx, payment); err != nil {
		return commons.ErrorResponse[models.ProcessPaymentResponse]("failed to process payment", "Unable to process payment right now"), err
	}

	response := models.ProcessPaymentResponse{
		ID:                 payment.TransactionID,
		Status:             string(payment.Status),
		ProcessedAt:        formatTimePtr(payment.ProcessedAt),
		Message:            fmt.Sprintf("Payment of %s %s from user %s to user %s completed", payment.Amount, payment.Currency, payment.FromUserID, payment.ToUserID),
		SenderNewBalance:   newSenderBalance.String(),
		ReceiverNewBalance: newReceiverBalance.String(),
	}

	logger.Info("payment service process payment success", logger.Fields{
		"transactionId":      payment.TransactionID,
		"senderNewBalance":   response.SenderNewBalance,
		"receiverNewBalance": response.ReceiverNewBalance,
	})

	return commons.SuccessResponse("payment processed successfully", response), nil
}

// RefundPayment reverses the transfer of a COMPLETED payment. The refund is
// all-or-nothing: if the receiver no longer holds the amount, nothing is
// mutated.
func (s *PaymentService) RefundPayment(ctx context.Context, transactionID string) (commons.Response[models.RefundPaymentResponse], error) {
	transactionID = strings.TrimSpace(transactionID)
	logger.Info("payment service refund payment request", logger.Fields{
		"transactionId": transactionID,
	})

	if transactionID == "" {
		err := fmt.Errorf("transactionId is required")
		return commons.ErrorResponse[models.RefundPaymentResponse]("validation failed", err.Error()), err
	}

	locked, err := s.idempotency.TryLock(ctx, idempotencyScopeRefund, transactionID)
	if err != nil {
		return commons.ErrorResponse[models.RefundPaymentResponse]("failed to refund payment", "Unable to refund payment right now"), err
	}
	if !locked {
		err := fmt.Errorf("payment %s is already being refunded", transactionID)
		return commons.ErrorResponse[models.RefundPaymentResponse]("Payment is already being refunded"), err
	}
	defer func() {
		if releaseErr := s.idempotency.Release(ctx, idempotencyScopeRefund, transactionID); releaseErr != nil {
			logger.Error("payment service refund idempotency release failed", releaseErr, logger.Fields{
				"transactionId": transactionID,
			})
		}
	}()

	payment, err := s.paymentRepo.GetByTransactionID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return commons.ErrorResponse[models.RefundPaymentResponse]("Payment not found"), err
		}
		return commons.ErrorResponse[models.RefundPaymentResponse]("failed to refund payment", "Unable to refund payment right now"), err
	}

	// State check first: only a COMPLETED payment is refundable. The
	// transition stays in memory until both balances are restored.
	if err := payment.MarkRefunded(); err != nil {
		logger.Info("payment service refund rejected by state machine", logger.Fields{
			"transactionId": transactionID,
			"status":        payment.Status,
		})
		return commons.ErrorResponse[models.RefundPaymentResponse]("Payment cannot be refunded", err.Error()), err
	}

	unlock := s.accountLocks.LockPair(payment.FromUserID, payment.ToUserID)
	defer unlock()

	sender, err := s.accountRepo.GetByUserID(ctx, payment.FromUserID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return commons.ErrorResponse[models.RefundPaymentResponse]("Sender user not found"), err
		}
		return commons.ErrorResponse[models.RefundPaymentResponse]("failed to refund payment", "Unable to refund payment right now"), err
	}

	receiver, err := s.accountRepo.GetByUserID(ctx, payment.ToUserID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return commons.ErrorResponse[models.RefundPaymentResponse]("Receiver user not found"), err
		}
		return commons.ErrorResponse[models.RefundPaymentResponse]("failed to refund payment", "Unable to refund payment right now"), err
	}

	if receiver.Balance.LessThan(payment.Amount) {
		detail := fmt.Sprintf("required %s, available %s", payment.Amount, receiver.Balance)
		return commons.ErrorResponse[models.RefundPaymentResponse]("Insufficient balance", detail), domain.ErrInsufficientBalance
	}

	newSenderBalance, err := sender.Balance.Add(payment.Amount)
	if err != nil {
		return commons.ErrorResponse[models.RefundPaymentResponse]("failed to refund payment", err.Error()), err
	}
	newReceiverBalance, err := receiver.Balance.Sub(payment.Amount)
	if err != nil {
		return commons.ErrorResponse[models.RefundPaymentResponse]("failed to refund payment", err.Error()), err
	}

	if err := s.accountRepo.UpdateBalance(ctx, sender.UserID, newSenderBalance); err != nil {
		logger.Error("payment service refund credit sender failed", err, logger.Fields{
			"transactionId": transactionID,
			"fromUserId":    sender.UserID,
		})
		return commons.ErrorResponse[models.RefundPaymentResponse]("failed to refund payment", "Unable to refund payment right now"), err
	}
	if err := s.accountRepo.UpdateBalance(ctx, receiver.UserID, newReceiverBalance); err != nil {
		logger.Error("payment service refund debit receiver failed", err, logger.Fields{
			"transactionId": transactionID,
			"toUserId":      receiver.UserID,
		})
		return commons.ErrorResponse[models.RefundPaymentResponse]("failed to refund payment", "Unable to refund payment right now"), err
	}

	if payment, err = s.paymentRepo.Update(ctx, payment); err != nil {
		return commons.ErrorResponse[models.RefundPaymentResponse]("failed to refund payment", "Unable to refund payment right now"), err
	}

	response := models.RefundPaymentResponse{
		ID:                 payment.TransactionID,
		Status:             string(payment.Status),
		RefundedAmount:     payment.Amount.String(),
		Message:            fmt.Sprintf("Refund of %s %s from user %s to user %s completed", payment.Amount, payment.Currency, payment.ToUserID, payment.FromUserID),
		SenderNewBalance:   newSenderBalance.String(),
		ReceiverNewBalance: newReceiverBalance.String(),
	}

	logger.Info("payment service refund payment success", logger.Fields{
		"transactionId":      payment.TransactionID,
		"refundedAmount":     response.RefundedAmount,
		"senderNewBalance":   response.SenderNewBalance,
		"receiverNewBalance": response.ReceiverNewBalance,
	})

	return commons.SuccessResponse("payment refunded successfully", response), nil
}

func (s *PaymentService) GetPayment(ctx context.Context, transactionID string) (commons.Response[models.PaymentResponse], error) {
	transactionID = strings.TrimSpace(transactionID)
	if transactionID == "" {
		err := fmt.Errorf("transactionId is required")
		return commons.ErrorResponse[models.PaymentResponse]("validation failed", err.Error()), err
	}

	payment, err := s.paymentRepo.GetByTransactionID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return commons.ErrorResponse[models.PaymentResponse]("Payment not found"), err
		}
		return commons.ErrorResponse[models.PaymentResponse]("failed to get payment", "Unable to fetch payment right now"), err
	}

	return commons.SuccessResponse("payment fetched successfully", mapPaymentToResponse(payment)), nil
}

func (s *PaymentService) ListUserPayments(ctx context.Context, userID string) (commons.Response[[]models.PaymentResponse], error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		err := fmt.Errorf("userId is required")
		return commons.ErrorResponse[[]models.PaymentResponse]("validation failed", err.Error()), err
	}

	payments, err := s.paymentRepo.ListByUserID(ctx, userID)
	if err != nil {
		return commons.ErrorResponse[[]models.PaymentResponse]("failed to list payments", "Unable to fetch payments right now"), err
	}

	responses := make([]models.PaymentResponse, 0, len(payments))
	for _, payment := range payments {
		responses = append(responses, mapPaymentToResponse(payment))
	}

	return commons.SuccessResponse("payments fetched successfully", responses), nil
}

// failPayment records a business failure as a terminal FAILED payment. The
// attempt stays durable; the caller receives the outcome as a failure
// response rather than an error.
func (s *PaymentService) failPayment(ctx context.Context, payment domain.Payment, reason string, details ...string) (commons.Response[models.ProcessPaymentResponse], error) {
	if err := payment.MarkFailed(reason); err != nil {
		return commons.ErrorResponse[models.ProcessPaymentResponse]("failed to process payment", err.Error()), err
	}

	updated, err := s.paymentRepo.Update(ctx, payment)
	if err != nil {
		logger.Error("payment service persist failed status failed", err, logger.Fields{
			"transactionId": payment.TransactionID,
			"reason":        reason,
		})
		return commons.ErrorResponse[models.ProcessPaymentResponse]("failed to process payment", "Unable to process payment right now"), err
	}

	logger.Info("payment service process payment failed", logger.Fields{
		"transactionId": updated.TransactionID,
		"reason":        reason,
	})

	response := models.ProcessPaymentResponse{
		ID:          updated.TransactionID,
		Status:      string(updated.Status),
		ProcessedAt: formatTimePtr(updated.ProcessedAt),
		Message:     reason,
	}

	return commons.FailureResponse(reason, response, details...), nil
}

func mapPaymentToResponse(payment domain.Payment) models.PaymentResponse {
	response := models.PaymentResponse{
		ID:         payment.TransactionID,
		FromUserID: payment.FromUserID,
		ToUserID:   payment.ToUserID,
		Amount:     payment.Amount.String(),
		Currency:   string(payment.Currency),
		PaymentMethod: models.PaymentMethodPayload{
			Type:     string(payment.Method.Type),
			LastFour: payment.Method.LastFour,
		},
		Status:      string(payment.Status),
		Description: payment.Description,
		CreatedAt:   payment.CreatedAt.Format(time.RFC3339),
		ProcessedAt: formatTimePtr(payment.ProcessedAt),
	}
	if payment.FailureReason != nil {
		response.FailureReason = *payment.FailureReason
	}
	return response
}

func formatTimePtr(value *time.Time) string {
	if value == nil {
		return ""
	}
	return value.Format(time.RFC3339)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == "23505"
	}
	return false
}
