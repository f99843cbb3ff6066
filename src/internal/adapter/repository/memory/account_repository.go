package memory

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/api-sage/p2p-payment-processor/src/internal/domain"
)

type AccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]domain.Account
	sequence uint64
}

func NewAccountRepository() *AccountRepository {
	return &AccountRepository{accounts: make(map[string]domain.Account)}
}

func (r *AccountRepository) Create(_ context.Context, account domain.Account) (domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[account.UserID]; ok {
		return domain.Account{}, fmt.Errorf("account already exists for user %s", account.UserID)
	}

	account.ID = fmt.Sprintf("acc-%d", atomic.AddUint64(&r.sequence, 1))
	account.CreatedAt = time.Now().UTC()
	account.UpdatedAt = account.CreatedAt
	r.accounts[account.UserID] = account
	return account, nil
}

func (r *AccountRepository) GetByUserID(_ context.Context, userID string) (domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.accounts[userID]
	if !ok {
		return domain.Account{}, domain.ErrRecordNotFound
	}
	return account, nil
}

func (r *AccountRepository) UpdateBalance(_ context.Context, userID string, balance domain.Amount) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[userID]
	if !ok {
		return domain.ErrRecordNotFound
	}

	account.Balance = balance
	account.UpdatedAt = time.Now().UTC()
	r.accounts[userID] = account
	return nil
}
