package service

import (
	"context"
	"fmt"

	"github.com/alexedwards/argon2id"
	"github.com/diagnosis/cinelist/pkg/apperr"
	"github.com/diagnosis/cinelist/pkg/auth"
	"github.com/diagnosis/cinelist/pkg/logger"
	"github.com/diagnosis/cinelist/services/auth/internal/domain"
	"github.com/diagnosis/cinelist/services/auth/internal/repository"
)

type AuthService interface {
	Register(ctx context.Context, req *domain.RegisterRequest) (*domain.User, error)
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error)
	Logout(ctx context.Context, token string) error
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	DeleteUser(ctx context.Context, id int64) error
	ListUsers(ctx context.Context, limit, offset int) ([]domain.User, error)
}

// TokenCache drops cached principals once a token is revoked.
type TokenCache interface {
	Invalidate(ctx context.Context, token string) error
}

type authService struct {
	userRepo  repository.UserRepository
	tokenRepo repository.TokenRepository
	otp       OTPService
	cache     TokenCache

	hashParams *argon2id.Params
	newToken   func() (string, error)
}

func NewAuthService(
	userRepo repository.UserRepository,
	tokenRepo repository.TokenRepository,
	otp OTPService,
	cache TokenCache,
) AuthService {
	return &authService{
		userRepo:   userRepo,
		tokenRepo:  tokenRepo,
		otp:        otp,
		cache:      cache,
		hashParams: argon2id.DefaultParams,
		newToken:   auth.NewToken,
	}
}

func (s *authService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.User, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	exists, err := s.userRepo.PhoneExists(ctx, req.Phone)
	if err != nil {
		return nil, fmt.Errorf("failed to check phone: %w", err)
	}
	if exists {
		return nil, apperr.E(apperr.Validation, "user with this phone already exists")
	}

	existing, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, apperr.E(apperr.Validation, "user with this email already exists")
	}

	passwordHash, err := argon2id.CreateHash(req.Password, s.hashParams)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.userRepo.Create(ctx, req.NewUser(passwordHash))
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	// The account exists either way; /resend-otp recovers a lost code.
	if err := s.otp.IssueFor(ctx, user); err != nil {
		logger.ErrorContext(ctx, "Failed to issue otp after registration", "error", err, "user_id", user.ID)
	}

	logger.InfoContext(ctx, "User registered", "user_id", user.ID)
	return user, nil
}

func (s *authService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, apperr.E(apperr.InvalidCredential, "invalid credentials")
	}

	if !user.IsEmailVerified {
		return nil, apperr.E(apperr.Unverified, "email not verified")
	}

	valid, err := argon2id.ComparePasswordAndHash(req.Password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !valid {
		return nil, apperr.E(apperr.InvalidCredential, "invalid credentials")
	}

	candidate, err := s.newToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	key, err := s.tokenRepo.GetOrCreate(ctx, user.ID, candidate)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return &domain.LoginResponse{Token: key}, nil
}

func (s *authService) Logout(ctx context.Context, token string) error {
	deleted, err := s.tokenRepo.DeleteByKey(ctx, token)
	if err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	if err := s.cache.Invalidate(ctx, token); err != nil {
		logger.WarnContext(ctx, "Failed to invalidate token cache", "error", err)
	}
	if !deleted {
		return apperr.E(apperr.Unauthenticated, "invalid token")
	}
	return nil
}

func (s *authService) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, apperr.E(apperr.NotFound, "user not found")
	}
	return user, nil
}

func (s *authService) DeleteUser(ctx context.Context, id int64) error {
	keys, err := s.userRepo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	for _, key := range keys {
		if err := s.cache.Invalidate(ctx, key); err != nil {
			logger.WarnContext(ctx, "Failed to invalidate token cache", "error", err, "user_id", id)
		}
	}
	logger.InfoContext(ctx, "User deleted", "user_id", id)
	return nil
}

func (s *authService) ListUsers(ctx context.Context, limit, offset int) ([]domain.User, error) {
	users, err := s.userRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}
