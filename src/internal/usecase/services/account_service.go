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
)

var _ service_interfaces.AccountService = (*AccountService)(nil)

type AccountService struct {
	accountRepo  repo_interfaces.AccountRepository
	accountLocks *AccountLocks
}

func NewAccountService(accountRepo repo_interfaces.AccountRepository, accountLocks *AccountLocks) *AccountService {
	return &AccountService{
		accountRepo:  accountRepo,
		accountLocks: accountLocks,
	}
}

func (s *AccountService) CreateAccount(ctx context.Context, req models.CreateAccountRequest) (commons.Response[models.AccountResponse], error) {
	logger.Info("account service create account request", logger.Fields{
		"payload": logger.SanitizePayload(req),
	})

	if err := req.Validate(); err != nil {
		logger.Error("account service create account validation failed", err, nil)
		return commons.ErrorResponse[models.AccountResponse]("validation failed", err.Error()), err
	}

	balance, err := domain.NewAmount(req.OpeningBalanceCents)
	if err != nil {
		return commons.ErrorResponse[models.AccountResponse]("validation failed", err.Error()), err
	}

	account := domain.Account{
		UserID:  strings.TrimSpace(req.UserID),
		Balance: balance,
	}

	created, err := s.accountRepo.Create(ctx, account)
	if err != nil {
		logger.Error("account service create account repository failed", err, logger.Fields{
			"userId": account.UserID,
		})
		return commons.ErrorResponse[models.AccountResponse]("failed to create account", "Unable to create account right now"), err
	}

	logger.Info("account service create account success", logger.Fields{
		"accountId": created.ID,
		"userId":    created.UserID,
	})

	return commons.SuccessResponse("account created successfully", mapAccountToResponse(created)), nil
}

func (s *AccountService) GetAccount(ctx context.Context, userID string) (commons.Response[models.AccountResponse], error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		err := fmt.Errorf("userId is required")
		return commons.ErrorResponse[models.AccountResponse]("validation failed", err.Error()), err
	}

	account, err := s.accountRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return commons.ErrorResponse[models.AccountResponse]("Account not found"), err
		}
		logger.Error("account service get account failed", err, logger.Fields{
			"userId": userID,
		})
		return commons.ErrorResponse[models.AccountResponse]("failed to get account", "Unable to fetch account right now"), err
	}

	return commons.SuccessResponse("account fetched successfully", mapAccountToResponse(account)), nil
}

func (s *AccountService) DepositFunds(ctx context.Context, req models.DepositFundsRequest) (commons.Response[models.DepositFundsResponse], error) {
	logger.Info("account service deposit funds request", logger.Fields{
		"payload": logger.SanitizePayload(req),
	})

	if err := req.Validate(); err != nil {
		logger.Error("account service deposit funds validation failed", err, nil)
		return commons.ErrorResponse[models.DepositFundsResponse]("validation failed", err.Error()), err
	}

	amount, err := domain.NewAmount(req.AmountCents)
	if err != nil {
		return commons.ErrorResponse[models.DepositFundsResponse]("validation failed", err.Error()), err
	}

	userID := strings.TrimSpace(req.UserID)

	// Deposits share the per-account serialization with transfers.
	unlock := s.accountLocks.Lock(userID)
	defer unlock()

	account, err := s.accountRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return commons.ErrorResponse[models.DepositFundsResponse]("Account not found"), err
		}
		return commons.ErrorResponse[models.DepositFundsResponse]("failed to deposit funds", "Unable to deposit funds right now"), err
	}

	newBalance, err := account.Balance.Add(amount)
	if err != nil {
		return commons.ErrorResponse[models.DepositFundsResponse]("validation failed", err.Error()), err
	}

	if err := s.accountRepo.UpdateBalance(ctx, userID, newBalance); err != nil {
		logger.Error("account service deposit funds failed", err, logger.Fields{
			"userId": userID,
			"amount": amount.String(),
		})
		return commons.ErrorResponse[models.DepositFundsResponse]("failed to deposit funds", "Unable to deposit funds right now"), err
	}

	response := models.DepositFundsResponse{
		UserID:          userID,
		DepositedAmount: amount.String(),
		Balance:         newBalance.String(),
	}

	logger.Info("account service deposit funds success", logger.Fields{
		"userId":          response.UserID,
		"depositedAmount": response.DepositedAmount,
		"balance":         response.Balance,
	})

	return commons.SuccessResponse("funds deposited successfully", response), nil
}

func mapAccountToResponse(account domain.Account) models.AccountResponse {
	return models.AccountResponse{
		ID:        account.ID,
		UserID:    account.UserID,
		Balance:   account.Balance.String(),
		CreatedAt: account.CreatedAt.Format(time.RFC3339),
		UpdatedAt: account.UpdatedAt.Format(time.RFC3339),
	}
}
