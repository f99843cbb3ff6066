package services_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/api-sage/p2p-payment-processor/src/internal/adapter/http/models"
	"github.com/api-sage/p2p-payment-processor/src/internal/adapter/repository/memory"
	"github.com/api-sage/p2p-payment-processor/src/internal/domain"
	"github.com/api-sage/p2p-payment-processor/src/internal/usecase/services"
)

type paymentFixture struct {
	service     *services.PaymentService
	paymentRepo *memory.PaymentRepository
	accountRepo *memory.AccountRepository
}

func newPaymentFixture(t *testing.T) paymentFixture {
	t.Helper()

	paymentRepo := memory.NewPaymentRepository()
	accountRepo := memory.NewAccountRepository()
	service := services.NewPaymentService(
		paymentRepo,
		accountRepo,
		memory.NewIdempotencyStore(),
		services.NewAccountLocks(),
	)

	return paymentFixture{
		service:     service,
		paymentRepo: paymentRepo,
		accountRepo: accountRepo,
	}
}

func (f paymentFixture) seedAccount(t *testing.T, userID string, balanceCents int64) {
	t.Helper()

	balance, err := domain.NewAmount(balanceCents)
	if err != nil {
		t.Fatalf("failed to build balance for %s: %v", userID, err)
	}
	if _, err := f.accountRepo.Create(context.Background(), domain.Account{UserID: userID, Balance: balance}); err != nil {
		t.Fatalf("failed to seed account for %s: %v", userID, err)
	}
}

func (f paymentFixture) balanceCents(t *testing.T, userID string) int64 {
	t.Helper()

	account, err := f.accountRepo.GetByUserID(context.Background(), userID)
	if err != nil {
		t.Fatalf("failed to fetch account for %s: %v", userID, err)
	}
	return account.Balance.Cents()
}

func (f paymentFixture) sendPayment(t *testing.T, fromUserID string, toUserID string, amountCents int64) string {
	t.Helper()

	resp, err := f.service.SendPayment(context.Background(), models.SendPaymentRequest{
		FromUserID:            fromUserID,
		ToUserID:              toUserID,
		AmountCents:           amountCents,
		Currency:              "USD",
		PaymentMethodType:     "CREDIT_CARD",
		PaymentMethodLastFour: "4242",
	})
	if err != nil {
		t.Fatalf("expected nil error from SendPayment, got %v", err)
	}
	if !resp.Success || resp.Data == nil {
		t.Fatalf("expected successful send payment response, got %+v", resp)
	}
	return resp.Data.ID
}

func TestPaymentServiceSendPaymentCreatesPending(t *testing.T) {
	fixture := newPaymentFixture(t)

	resp, err := fixture.service.SendPayment(context.Background(), models.SendPaymentRequest{
		FromUserID:            "u-1",
		ToUserID:              "u-2",
		AmountCents:           2500,
		Currency:              "USD",
		PaymentMethodType:     "CREDIT_CARD",
		PaymentMethodLastFour: "4242",
		Description:           "lunch",
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !resp.Success || resp.Data == nil {
		t.Fatalf("expected successful response with data, got %+v", resp)
	}

	if resp.Data.Status != string(domain.PaymentStatusPending) {
		t.Fatalf("expected status %s, got %s", domain.PaymentStatusPending, resp.Data.Status)
	}
	if resp.Data.Amount != "25.00" {
		t.Fatalf("expected amount 25.00, got %s", resp.Data.Amount)
	}
	if !strings.HasPrefix(resp.Data.ID, "TXN-") {
		t.Fatalf("expected TXN- prefixed id, got %s", resp.Data.ID)
	}

	stored, err := fixture.paymentRepo.GetByTransactionID(context.Background(), resp.Data.ID)
	if err != nil {
		t.Fatalf("expected created payment to be persisted, got %v", err)
	}
	if stored.Status != domain.PaymentStatusPending {
		t.Fatalf("expected persisted status %s, got %s", domain.PaymentStatusPending, stored.Status)
	}
}

func TestPaymentServiceSendPaymentRejectsSelfPayment(t *testing.T) {
	fixture := newPaymentFixture(t)

	_, err := fixture.service.SendPayment(context.Background(), models.SendPaymentRequest{
		FromUserID:            "u-1",
		ToUserID:              "u-1",
		AmountCents:           2500,
		Currency:              "USD",
		PaymentMethodType:     "CREDIT_CARD",
		PaymentMethodLastFour: "4242",
	})
	if err == nil {
		t.Fatal("expected validation error for payment to self")
	}
	if !strings.Contains(err.Error(), "cannot be the same") {
		t.Fatalf("expected self payment rejection, got %v", err)
	}
}

func TestPaymentServiceSendPaymentValidationError(t *testing.T) {
	fixture := newPaymentFixture(t)

	_, err := fixture.service.SendPayment(context.Background(), models.SendPaymentRequest{})
	if err == nil {
		t.Fatal("expected validation error for empty send payment request")
	}
}

func TestPaymentServiceProcessPaymentCompletesTransfer(t *testing.T) {
	fixture := newPaymentFixture(t)
	fixture.seedAccount(t, "u-1", 10000)
	fixture.seedAccount(t, "u-2", 5000)

	transactionID := fixture.sendPayment(t, "u-1", "u-2", 2500)

	resp, err := fixture.service.ProcessPayment(context.Background(), transactionID)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !resp.Success || resp.Data == nil {
		t.Fatalf("expected successful response with data, got %+v", resp)
	}

	if resp.Data.Status != string(domain.PaymentStatusCompleted) {
		t.Fatalf("expected status %s, got %s", domain.PaymentStatusCompleted, resp.Data.Status)
	}
	if resp.Data.SenderNewBalance != "75.00" {
		t.Fatalf("expected sender balance 75.00, got %s", resp.Data.SenderNewBalance)
	}
	if resp.Data.ReceiverNewBalance != "75.00" {
		t.Fatalf("expected receiver balance 75.00, got %s", resp.Data.ReceiverNewBalance)
	}
	if resp.Data.ProcessedAt == "" {
		t.Fatal("expected processedAt to be set")
	}

	if got := fixture.balanceCents(t, "u-1"); got != 7500 {
		t.Fatalf("expected sender balance 7500 cents, got %d", got)
	}
	if got := fixture.balanceCents(t, "u-2"); got != 7500 {
		t.Fatalf("expected receiver balance 7500 cents, got %d", got)
	}
}

func TestPaymentServiceProcessPaymentInsufficientBalance(t *testing.T) {
	fixture := newPaymentFixture(t)
	fixture.seedAccount(t, "u-1", 1000)
	fixture.seedAccount(t, "u-2", 5000)

	transactionID := fixture.sendPayment(t, "u-1", "u-2", 2500)

	resp, err := fixture.service.ProcessPayment(context.Background(), transactionID)
	if err != nil {
		t.Fatalf("expected nil error for a recorded business failure, got %v", err)
	}
	if resp.Success {
		t.Fatal("expected failure response")
	}
	if resp.Data == nil || resp.Data.Status != string(domain.PaymentStatusFailed) {
		t.Fatalf("expected FAILED payment in response data, got %+v", resp.Data)
	}
	if !strings.Contains(resp.Message, "Insufficient balance") {
		t.Fatalf("expected insufficient balance message, got %q", resp.Message)
	}

	if got := fixture.balanceCents(t, "u-1"); got != 1000 {
		t.Fatalf("expected sender balance unchanged at 1000 cents, got %d", got)
	}
	if got := fixture.balanceCents(t, "u-2"); got != 5000 {
		t.Fatalf("expected receiver balance unchanged at 5000 cents, got %d", got)
	}

	stored, err := fixture.paymentRepo.GetByTransactionID(context.Background(), transactionID)
	if err != nil {
		t.Fatalf("expected payment to still exist, got %v", err)
	}
	if stored.Status != domain.PaymentStatusFailed {
		t.Fatalf("expected persisted status %s, got %s", domain.PaymentStatusFailed, stored.Status)
	}
	if stored.FailureReason == nil || !strings.Contains(*stored.FailureReason, "Insufficient balance") {
		t.Fatalf("expected persisted failure reason, got %v", stored.FailureReason)
	}
}

func TestPaymentServiceProcessPaymentSenderNotFound(t *testing.T) {
	fixture := newPaymentFixture(t)
	fixture.seedAccount(t, "u-2", 5000)

	transactionID := fixture.sendPayment(t, "u-1", "u-2", 2500)

	resp, err := fixture.service.ProcessPayment(context.Background(), transactionID)
	if err != nil {
		t.Fatalf("expected nil error for a recorded business failure, got %v", err)
	}
	if resp.Success {
		t.Fatal("expected failure response")
	}
	if !strings.Contains(resp.Message, "Sender user not found") {
		t.Fatalf("expected sender not found message, got %q", resp.Message)
	}

	stored, _ := fixture.paymentRepo.GetByTransactionID(context.Background(), transactionID)
	if stored.Status != domain.PaymentStatusFailed {
		t.Fatalf("expected persisted status %s, got %s", domain.PaymentStatusFailed, stored.Status)
	}
	if got := fixture.balanceCents(t, "u-2"); got != 5000 {
		t.Fatalf("expected receiver balance unchanged at 5000 cents, got %d", got)
	}
}

func TestPaymentServiceProcessPaymentReceiverNotFound(t *testing.T) {
	fixture := newPaymentFixture(t)
	fixture.seedAccount(t, "u-1", 10000)

	transactionID := fixture.sendPayment(t, "u-1", "u-2", 2500)

	resp, err := fixture.service.ProcessPayment(context.Background(), transactionID)
	if err != nil {
		t.Fatalf("expected nil error for a recorded business failure, got %v", err)
	}
	if resp.Success {
		t.Fatal("expected failure response")
	}
	if !strings.Contains(resp.Message, "Receiver user not found") {
		t.Fatalf("expected receiver not found message, got %q", resp.Message)
	}
	if got := fixture.balanceCents(t, "u-1"); got != 10000 {
		t.Fatalf("expected sender balance unchanged at 10000 cents, got %d", got)
	}
}

func TestPaymentServiceProcessPaymentReceiverBalanceLimitExceeded(t *testing.T) {
	fixture := newPaymentFixture(t)
	fixture.seedAccount(t, "u-1", 10000)
	fixture.seedAccount(t, "u-2", domain.MaxAmountCents)

	transactionID := fixture.sendPayment(t, "u-1", "u-2", 2500)

	resp, err := fixture.service.ProcessPayment(context.Background(), transactionID)
	if err != nil {
		t.Fatalf("expected nil error for a recorded business failure, got %v", err)
	}
	if resp.Success {
		t.Fatal("expected failure response")
	}
	if resp.Data == nil || resp.Data.Status != string(domain.PaymentStatusFailed) {
		t.Fatalf("expected FAILED payment in response data, got %+v", resp.Data)
	}
	if !strings.Contains(resp.Message, "Receiver balance limit exceeded") {
		t.Fatalf("expected balance limit message, got %q", resp.Message)
	}

	// Neither side moved: the sender keeps the funds, the receiver stays
	// at the bound.
	if got := fixture.balanceCents(t, "u-1"); got != 10000 {
		t.Fatalf("expected sender balance unchanged at 10000 cents, got %d", got)
	}
	if got := fixture.balanceCents(t, "u-2"); got != domain.MaxAmountCents {
		t.Fatalf("expected receiver balance unchanged at %d cents, got %d", domain.MaxAmountCents, got)
	}

	stored, err := fixture.paymentRepo.GetByTransactionID(context.Background(), transactionID)
	if err != nil {
		t.Fatalf("expected payment to still exist, got %v", err)
	}
	if stored.Status != domain.PaymentStatusFailed {
		t.Fatalf("expected persisted status %s, got %s", domain.PaymentStatusFailed, stored.Status)
	}
	if stored.FailureReason == nil || *stored.FailureReason != "Receiver balance limit exceeded" {
		t.Fatalf("expected persisted failure reason, got %v", stored.FailureReason)
	}
}

func TestPaymentServiceProcessPaymentUnknownTransaction(t *testing.T) {
	fixture := newPaymentFixture(t)

	resp, err := fixture.service.ProcessPayment(context.Background(), "TXN-does-not-exist")
	if !errors.Is(err, domain.ErrRecordNotFound) {
		t.Fatalf("expected record not found error, got %v", err)
	}
	if resp.Message != "Payment not found" {
		t.Fatalf("expected payment not found message, got %q", resp.Message)
	}
}

func TestPaymentServiceProcessPaymentTwiceRejected(t *testing.T) {
	fixture := newPaymentFixture(t)
	fixture.seedAccount(t, "u-1", 10000)
	fixture.seedAccount(t, "u-2", 5000)

	transactionID := fixture.sendPayment(t, "u-1", "u-2", 2500)

	if _, err := fixture.service.ProcessPayment(context.Background(), transactionID); err != nil {
		t.Fatalf("expected first process to succeed, got %v", err)
	}

	resp, err := fixture.service.ProcessPayment(context.Background(), transactionID)
	if err == nil {
		t.Fatal("expected error when processing a COMPLETED payment again")
	}
	var violation *domain.DomainRuleViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("expected DomainRuleViolationError, got %T", err)
	}
	if resp.Message != "Payment cannot be processed" {
		t.Fatalf("expected state machine rejection message, got %q", resp.Message)
	}

	// Money moved exactly once.
	if got := fixture.balanceCents(t, "u-1"); got != 7500 {
		t.Fatalf("expected sender balance 7500 cents after single debit, got %d", got)
	}
	if got := fixture.balanceCents(t, "u-2"); got != 7500 {
		t.Fatalf("expected receiver balance 7500 cents after single credit, got %d", got)
	}
}

func TestPaymentServiceRefundPaymentRestoresBalances(t *testing.T) {
	fixture := newPaymentFixture(t)
	fixture.seedAccount(t, "u-1", 10000)
	fixture.seedAccount(t, "u-2", 5000)

	transactionID := fixture.sendPayment(t, "u-1", "u-2", 2500)
	if _, err := fixture.service.ProcessPayment(context.Background(), transactionID); err != nil {
		t.Fatalf("expected process to succeed, got %v", err)
	}

	resp, err := fixture.service.RefundPayment(context.Background(), transactionID)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !resp.Success || resp.Data == nil {
		t.Fatalf("expected successful response with data, got %+v", resp)
	}

	if resp.Data.Status != string(domain.PaymentStatusRefunded) {
		t.Fatalf("expected status %s, got %s", domain.PaymentStatusRefunded, resp.Data.Status)
	}
	if resp.Data.RefundedAmount != "25.00" {
		t.Fatalf("expected refunded amount 25.00, got %s", resp.Data.RefundedAmount)
	}

	if got := fixture.balanceCents(t, "u-1"); got != 10000 {
		t.Fatalf("expected sender balance restored to 10000 cents, got %d", got)
	}
	if got := fixture.balanceCents(t, "u-2"); got != 5000 {
		t.Fatalf("expected receiver balance restored to 5000 cents, got %d", got)
	}
}

func TestPaymentServiceRefundPaymentRejectsPending(t *testing.T) {
	fixture := newPaymentFixture(t)
	fixture.seedAccount(t, "u-1", 10000)
	fixture.seedAccount(t, "u-2", 5000)

	transactionID := fixture.sendPayment(t, "u-1", "u-2", 2500)

	resp, err := fixture.service.RefundPayment(context.Background(), transactionID)
	if err == nil {
		t.Fatal("expected error when refunding a PENDING payment")
	}
	var violation *domain.DomainRuleViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("expected DomainRuleViolationError, got %T", err)
	}
	if resp.Message != "Payment cannot be refunded" {
		t.Fatalf("expected refund rejection message, got %q", resp.Message)
	}

	stored, _ := fixture.paymentRepo.GetByTransactionID(context.Background(), transactionID)
	if stored.Status != domain.PaymentStatusPending {
		t.Fatalf("expected payment to remain %s, got %s", domain.PaymentStatusPending, stored.Status)
	}
	if got := fixture.balanceCents(t, "u-1"); got != 10000 {
		t.Fatalf("expected sender balance unchanged at 10000 cents, got %d", got)
	}
	if got := fixture.balanceCents(t, "u-2"); got != 5000 {
		t.Fatalf("expected receiver balance unchanged at 5000 cents, got %d", got)
	}
}

func TestPaymentServiceRefundPaymentInsufficientReceiverBalance(t *testing.T) {
	fixture := newPaymentFixture(t)
	fixture.seedAccount(t, "u-1", 10000)
	fixture.seedAccount(t, "u-2", 0)

	transactionID := fixture.sendPayment(t, "u-1", "u-2", 2500)
	if _, err := fixture.service.ProcessPayment(context.Background(), transactionID); err != nil {
		t.Fatalf("expected process to succeed, got %v", err)
	}

	// Receiver spends the money before the refund arrives.
	drained, _ := domain.NewAmount(100)
	if err := fixture.accountRepo.UpdateBalance(context.Background(), "u-2", drained); err != nil {
		t.Fatalf("failed to drain receiver balance: %v", err)
	}

	resp, err := fixture.service.RefundPayment(context.Background(), transactionID)
	if !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance error, got %v", err)
	}
	if resp.Message != "Insufficient balance" {
		t.Fatalf("expected insufficient balance message, got %q", resp.Message)
	}

	// Nothing moved and the payment stays COMPLETED.
	stored, _ := fixture.paymentRepo.GetByTransactionID(context.Background(), transactionID)
	if stored.Status != domain.PaymentStatusCompleted {
		t.Fatalf("expected payment to remain %s, got %s", domain.PaymentStatusCompleted, stored.Status)
	}
	if got := fixture.balanceCents(t, "u-1"); got != 7500 {
		t.Fatalf("expected sender balance unchanged at 7500 cents, got %d", got)
	}
	if got := fixture.balanceCents(t, "u-2"); got != 100 {
		t.Fatalf("expected receiver balance unchanged at 100 cents, got %d", got)
	}
}

func TestPaymentServiceConcurrentProcessSingleWinner(t *testing.T) {
	fixture := newPaymentFixture(t)
	fixture.seedAccount(t, "u-1", 2500)
	fixture.seedAccount(t, "u-2", 0)

	const workers = 8

	transactionIDs := make([]string, 0, workers)
	for i := 0; i < workers; i++ {
		transactionIDs = append(transactionIDs, fixture.sendPayment(t, "u-1", "u-2", 2500))
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var completed, failed int

	for _, transactionID := range transactionIDs {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()

			resp, err := fixture.service.ProcessPayment(context.Background(), id)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				t.Errorf("expected nil error for process of %s, got %v", id, err)
				return
			}
			if resp.Success {
				completed++
			} else {
				failed++
			}
		}(transactionID)
	}
	wg.Wait()

	if completed != 1 {
		t.Fatalf("expected exactly 1 completed payment, got %d", completed)
	}
	if failed != workers-1 {
		t.Fatalf("expected %d failed payments, got %d", workers-1, failed)
	}

	// The balance covered exactly one transfer, so the sender ends at zero
	// and never goes negative.
	if got := fixture.balanceCents(t, "u-1"); got != 0 {
		t.Fatalf("expected sender balance 0 cents, got %d", got)
	}
	if got := fixture.balanceCents(t, "u-2"); got != 2500 {
		t.Fatalf("expected receiver balance 2500 cents, got %d", got)
	}

	var completedCount, failedCount int
	for _, transactionID := range transactionIDs {
		stored, err := fixture.paymentRepo.GetByTransactionID(context.Background(), transactionID)
		if err != nil {
			t.Fatalf("expected payment %s to exist, got %v", transactionID, err)
		}
		switch stored.Status {
		case domain.PaymentStatusCompleted:
			completedCount++
		case domain.PaymentStatusFailed:
			failedCount++
		default:
			t.Fatalf("expected terminal status for %s, got %s", transactionID, stored.Status)
		}
	}
	if completedCount != 1 || failedCount != workers-1 {
		t.Fatalf("expected 1 COMPLETED and %d FAILED persisted, got %d and %d", workers-1, completedCount, failedCount)
	}
}

func TestPaymentServiceProcessPaymentInFlightRejected(t *testing.T) {
	paymentRepo := memory.NewPaymentRepository()
	accountRepo := memory.NewAccountRepository()
	idempotency := memory.NewIdempotencyStore()
	service := services.NewPaymentService(paymentRepo, accountRepo, idempotency, services.NewAccountLocks())

	fixture := paymentFixture{service: service, paymentRepo: paymentRepo, accountRepo: accountRepo}
	transactionID := fixture.sendPayment(t, "u-1", "u-2", 2500)

	// Another node holds the in-flight marker for this payment.
	locked, err := idempotency.TryLock(context.Background(), "payment:process", transactionID)
	if err != nil || !locked {
		t.Fatalf("failed to seed in-flight marker: locked=%v err=%v", locked, err)
	}

	resp, err := fixture.service.ProcessPayment(context.Background(), transactionID)
	if err == nil {
		t.Fatal("expected error while payment is already in flight")
	}
	if resp.Message != "Payment is already being processed" {
		t.Fatalf("expected in-flight rejection message, got %q", resp.Message)
	}

	stored, _ := paymentRepo.GetByTransactionID(context.Background(), transactionID)
	if stored.Status != domain.PaymentStatusPending {
		t.Fatalf("expected payment to remain %s, got %s", domain.PaymentStatusPending, stored.Status)
	}
}

func TestPaymentServiceGetPaymentNotFound(t *testing.T) {
	fixture := newPaymentFixture(t)

	_, err := fixture.service.GetPayment(context.Background(), "TXN-missing")
	if !errors.Is(err, domain.ErrRecordNotFound) {
		t.Fatalf("expected record not found error, got %v", err)
	}
}

func TestPaymentServiceListUserPayments(t *testing.T) {
	fixture := newPaymentFixture(t)

	fixture.sendPayment(t, "u-1", "u-2", 2500)
	fixture.sendPayment(t, "u-2", "u-1", 1000)
	fixture.sendPayment(t, "u-3", "u-4", 500)

	resp, err := fixture.service.ListUserPayments(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !resp.Success || resp.Data == nil {
		t.Fatalf("expected successful response with data, got %+v", resp)
	}
	if len(*resp.Data) != 2 {
		t.Fatalf("expected 2 payments for u-1, got %d", len(*resp.Data))
	}
}
