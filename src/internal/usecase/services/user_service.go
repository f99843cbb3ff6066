package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/api-sage/p2p-payment-processor/src/internal/adapter/http/models"
	"github.com/api-sage/p2p-payment-processor/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/p2p-payment-processor/src/internal/auth"
	"github.com/api-sage/p2p-payment-processor/src/internal/commons"
	"github.com/api-sage/p2p-payment-processor/src/internal/domain"
	"github.com/api-sage/p2p-payment-processor/src/internal/logger"
	"github.com/api-sage/p2p-payment-processor/src/internal/usecase/service_interfaces"
	"golang.org/x/crypto/bcrypt"
)

var _ service_interfaces.UserService = (*UserService)(nil)

type UserService struct {
	userRepo   repo_interfaces.UserRepository
	jwtManager *auth.JWTManager
}

func NewUserService(userRepo repo_interfaces.UserRepository, jwtManager *auth.JWTManager) *UserService {
	return &UserService{
		userRepo:   userRepo,
		jwtManager: jwtManager,
	}
}

func (s *UserService) RegisterUser(ctx context.Context, req models.RegisterUserRequest) (commons.Response[models.RegisterUserResponse], error) {
	logger.Info("user service register user request", logger.Fields{
		"payload": logger.SanitizePayload(req),
	})

	if err := req.Validate(); err != nil {
		logger.Error("user service register user validation failed", err, nil)
		return commons.ErrorResponse[models.RegisterUserResponse]("validation failed", err.Error()), err
	}

	passwordHash, err := hashPassword(strings.TrimSpace(req.Password))
	if err != nil {
		logger.Error("user service register user hash password failed", err, nil)
		return commons.ErrorResponse[models.RegisterUserResponse]("failed to register user", "failed to hash password"), err
	}

	user := domain.User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		PasswordHash: passwordHash,
	}

	created, err := s.userRepo.Create(ctx, user)
	if err != nil {
		logger.Error("user service register user repository failed", err, logger.Fields{
			"email": user.Email,
		})
		return commons.ErrorResponse[models.RegisterUserResponse]("failed to register user", "Unable to register user right now"), err
	}

	response := models.RegisterUserResponse{
		ID:        created.ID,
		Email:     created.Email,
		FirstName: created.FirstName,
		LastName:  created.LastName,
		CreatedAt: created.CreatedAt.Format(time.RFC3339),
	}

	logger.Info("user service register user success", logger.Fields{
		"userId": response.ID,
		"email":  response.Email,
	})

	return commons.SuccessResponse("user registered successfully", response), nil
}

func (s *UserService) Login(ctx context.Context, req models.LoginRequest) (commons.Response[models.LoginResponse], error) {
	logger.Info("user service login request", logger.Fields{
		"email": strings.TrimSpace(req.Email),
	})

	if err := req.Validate(); err != nil {
		return commons.ErrorResponse[models.LoginResponse]("validation failed", err.Error()), err
	}

	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return commons.ErrorResponse[models.LoginResponse]("invalid credentials", "email or password is incorrect"), fmt.Errorf("invalid credentials")
		}
		return commons.ErrorResponse[models.LoginResponse]("failed to login", "Unable to login right now"), err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(strings.TrimSpace(req.Password))); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			logger.Info("user service login password mismatch", logger.Fields{
				"email": user.Email,
			})
			return commons.ErrorResponse[models.LoginResponse]("invalid credentials", "email or password is incorrect"), fmt.Errorf("invalid credentials")
		}
		wrappedErr := fmt.Errorf("compare password: %w", err)
		return commons.ErrorResponse[models.LoginResponse]("failed to login", "Unable to login right now"), wrappedErr
	}

	token, expiresAt, err := s.jwtManager.Generate(user.ID)
	if err != nil {
		logger.Error("user service login token generation failed", err, logger.Fields{
			"userId": user.ID,
		})
		return commons.ErrorResponse[models.LoginResponse]("failed to login", "Unable to login right now"), err
	}

	response := models.LoginResponse{
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
	}

	logger.Info("user service login success", logger.Fields{
		"userId": user.ID,
	})

	return commons.SuccessResponse("login successful", response), nil
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	return string(hashed), nil
}
