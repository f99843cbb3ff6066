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

type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Create(ctx context.Context, account domain.Account) (domain.Account, error) {
	logger.Info("account repository create", logger.Fields{
		"userId": account.UserID,
	})

	const query = `
INSERT INTO accounts (user_id, balance_cents)
VALUES ($1, $2)
RETURNING id, created_at, updated_at`

	var id string
	var createdAt time.Time
	var updatedAt time.Time

	if err := r.db.QueryRowContext(
		ctx,
		query,
		account.UserID,
		account.Balance.Cents(),
	).Scan(&id, &createdAt, &updatedAt); err != nil {
		logger.Error("account repository create failed", err, logger.Fields{
			"userId": account.UserID,
		})
		return domain.Account{}, fmt.Errorf("create account: %w", err)
	}

	account.ID = id
	account.CreatedAt = createdAt
	account.UpdatedAt = updatedAt

	return account, nil
}

func (r *AccountRepository) GetByUserID(ctx context.Context, userID string) (domain.Account, error) {
	const query = `
SELECT id, user_id, balance_cents, created_at, updated_at
FROM accounts
WHERE user_id = $1`

	var account domain.Account
	var balanceCents int64

	if err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&account.ID,
		&account.UserID,
		&balanceCents,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			logger.Info("account repository record not found", logger.Fields{
				"userId": userID,
			})
			return domain.Account{}, domain.ErrRecordNotFound
		}
		logger.Error("account repository get failed", err, logger.Fields{
			"userId": userID,
		})
		return domain.Account{}, fmt.Errorf("get account by user id: %w", err)
	}

	balance, err := domain.NewAmount(balanceCents)
	if err != nil {
		return domain.Account{}, fmt.Errorf("stored balance invalid: %w", err)
	}
	account.Balance = balance

	return account, nil
}

func (r *AccountRepository) UpdateBalance(ctx context.Context, userID string, balance domain.Amount) error {
	logger.Info("account repository update balance", logger.Fields{
		"userId":     userID,
		"newBalance": balance.String(),
	})

	const query = `
UPDATE accounts
SET balance_cents = $2,
    updated_at = NOW()
WHERE user_id = $1`

	result, err := r.db.ExecContext(ctx, query, userID, balance.Cents())
	if err != nil {
		logger.Error("account repository update balance failed", err, logger.Fields{
			"userId": userID,
		})
		return fmt.Errorf("update balance: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update balance rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrRecordNotFound
	}

	return nil
}
