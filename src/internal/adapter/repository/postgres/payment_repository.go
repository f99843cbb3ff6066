package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/api-sage/p2p-payment-processor/src/internal/domain"
	"github.com/api-sage/p2p-payment-processor/src/internal/logger"
)

type PaymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, payment domain.Payment) (domain.Payment, error) {
	logger.Info("payment repository create", logger.Fields{
		"transactionId": payment.TransactionID,
		"fromUserId":    payment.FromUserID,
		"toUserId":      payment.ToUserID,
		"status":        payment.Status,
	})

	const query = `
INSERT INTO payments (
	transaction_id,
	from_user_id,
	to_user_id,
	amount_cents,
	currency,
	method_type,
	method_last_four,
	status,
	description
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING created_at, updated_at`

	var createdAt time.Time
	var updatedAt time.Time

	if err := r.db.QueryRowContext(
		ctx,
		query,
		payment.TransactionID,
		payment.FromUserID,
		payment.ToUserID,
		payment.Amount.Cents(),
		payment.Currency,
		payment.Method.Type,
		payment.Method.LastFour,
		payment.Status,
		payment.Description,
	).Scan(&createdAt, &updatedAt); err != nil {
		logger.Error("payment repository create failed", err, logger.Fields{
			"transactionId": payment.TransactionID,
		})
		return domain.Payment{}, fmt.Errorf("create payment: %w", err)
	}

	payment.CreatedAt = createdAt
	payment.UpdatedAt = updatedAt

	return payment, nil
}

func (r *PaymentRepository) GetByTransactionID(ctx context.Context, transactionID string) (domain.Payment, error) {
	const query = `
SELECT transaction_id, from_user_id, to_user_id, amount_cents, currency, method_type, method_last_four,
       status, description, failure_reason, created_at, updated_at, processed_at
FROM payments
WHERE transaction_id = $1`

	row := r.db.QueryRowContext(ctx, query, transactionID)
	payment, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			logger.Info("payment repository record not found", logger.Fields{
				"transactionId": transactionID,
			})
			return domain.Payment{}, domain.ErrRecordNotFound
		}
		logger.Error("payment repository get failed", err, logger.Fields{
			"transactionId": transactionID,
		})
		return domain.Payment{}, fmt.Errorf("get payment by transaction id: %w", err)
	}

	return payment, nil
}

func (r *PaymentRepository) Update(ctx context.Context, payment domain.Payment) (domain.Payment, error) {
	logger.Info("payment repository update", logger.Fields{
		"transactionId": payment.TransactionID,
		"status":        payment.Status,
	})

	const query = `
UPDATE payments
SET status = $2,
    failure_reason = $3,
    processed_at = $4,
    updated_at = NOW()
WHERE transaction_id = $1
RETURNING created_at, updated_at`

	var createdAt time.Time
	var updatedAt time.Time

	if err := r.db.QueryRowContext(
		ctx,
		query,
		payment.TransactionID,
		payment.Status,
		payment.FailureReason,
		payment.ProcessedAt,
	).Scan(&createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Payment{}, domain.ErrRecordNotFound
		}
		logger.Error("payment repository update failed", err, logger.Fields{
			"transactionId": payment.TransactionID,
		})
		return domain.Payment{}, fmt.Errorf("update payment: %w", err)
	}

	payment.CreatedAt = createdAt
	payment.UpdatedAt = updatedAt

	return payment, nil
}

func (r *PaymentRepository) ListByUserID(ctx context.Context, userID string) ([]domain.Payment, error) {
	const query = `
SELECT transaction_id, from_user_id, to_user_id, amount_cents, currency, method_type, method_last_four,
       status, description, failure_reason, created_at, updated_at, processed_at
FROM payments
WHERE from_user_id = $1 OR to_user_id = $1
ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		logger.Error("payment repository list failed", err, logger.Fields{
			"userId": userID,
		})
		return nil, fmt.Errorf("list payments by user id: %w", err)
	}
	defer rows.Close()

	payments := make([]domain.Payment, 0)
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment row: %w", err)
		}
		payments = append(payments, payment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payment rows: %w", err)
	}

	return payments, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPayment(row rowScanner) (domain.Payment, error) {
	var (
		payment       domain.Payment
		amountCents   int64
		currency      string
		methodType    string
		lastFour      string
		status        string
		failureReason sql.NullString
		processedAt   sql.NullTime
	)

	if err := row.Scan(
		&payment.TransactionID,
		&payment.FromUserID,
		&payment.ToUserID,
		&amountCents,
		&currency,
		&methodType,
		&lastFour,
		&status,
		&payment.Description,
		&failureReason,
		&payment.CreatedAt,
		&payment.UpdatedAt,
		&processedAt,
	); err != nil {
		return domain.Payment{}, err
	}

	amount, err := domain.NewAmount(amountCents)
	if err != nil {
		return domain.Payment{}, fmt.Errorf("stored amount invalid: %w", err)
	}

	payment.Amount = amount
	payment.Currency = domain.Currency(currency)
	payment.Method = domain.PaymentMethod{
		Type:     domain.PaymentMethodType(methodType),
		LastFour: lastFour,
	}
	payment.Status = domain.PaymentStatus(status)
	if failureReason.Valid {
		value := failureReason.String
		payment.FailureReason = &value
	}
	if processedAt.Valid {
		value := processedAt.Time
		payment.ProcessedAt = &value
	}

	return payment, nil
}
