package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/diagnosis/cinelist/pkg/apperr"
	"github.com/diagnosis/cinelist/pkg/logger"
	"github.com/diagnosis/cinelist/pkg/notifier"
	"github.com/diagnosis/cinelist/services/auth/internal/domain"
	"github.com/diagnosis/cinelist/services/auth/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

const (
	otpMin = 100000
	otpMax = 999999
)

type OTPService interface {
	// Issue generates a fresh code for email, replacing any previous one.
	Issue(ctx context.Context, email string) error
	// IssueFor is Issue for an already loaded user.
	IssueFor(ctx context.Context, user *domain.User) error
	Verify(ctx context.Context, email, code string) (*domain.User, error)
}

type otpService struct {
	users    repository.UserRepository
	notifier notifier.Notifier
	ttl      time.Duration

	now      func() time.Time
	generate func() (string, error)
	cost     int
}

func NewOTPService(users repository.UserRepository, n notifier.Notifier, ttl time.Duration) OTPService {
	return &otpService{
		users:    users,
		notifier: n,
		ttl:      ttl,
		now:      time.Now,
		generate: GenerateOTP,
		cost:     bcrypt.DefaultCost,
	}
}

// GenerateOTP returns a uniformly random integer in [100000, 999999].
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpMax-otpMin+1))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+otpMin, 10), nil
}

func (s *otpService) Issue(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return apperr.E(apperr.NotFound, "user not found")
	}
	return s.IssueFor(ctx, user)
}

func (s *otpService) IssueFor(ctx context.Context, user *domain.User) error {
	if user.IsEmailVerified {
		return apperr.E(apperr.Conflict, "account is already verified")
	}

	code, err := s.generate()
	if err != nil {
		return fmt.Errorf("failed to generate otp: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), s.cost)
	if err != nil {
		return fmt.Errorf("failed to hash otp: %w", err)
	}

	if err := s.users.SetOTP(ctx, user.ID, string(hash), s.now().Add(s.ttl)); err != nil {
		return fmt.Errorf("failed to store otp: %w", err)
	}

	if err := s.notifier.Send(ctx, notifier.OTPEmail(user.Email, code)); err != nil {
		logger.ErrorContext(ctx, "Failed to send otp email", "error", err, "user_id", user.ID)
	}
	return nil
}

func (s *otpService) Verify(ctx context.Context, email, code string) (*domain.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, apperr.E(apperr.NotFound, "user not found")
	}
	if user.IsEmailVerified {
		return nil, apperr.E(apperr.Conflict, "account is already verified")
	}

	if user.OTPHash == nil {
		return nil, apperr.E(apperr.Mismatch, "invalid otp")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.OTPHash), []byte(code)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, apperr.E(apperr.Mismatch, "invalid otp")
		}
		return nil, fmt.Errorf("failed to compare otp: %w", err)
	}
	if user.OTPExpiresAt != nil && s.now().After(*user.OTPExpiresAt) {
		return nil, apperr.E(apperr.Expired, "otp has expired, request a new one")
	}

	if err := s.users.MarkVerified(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("failed to mark user as verified: %w", err)
	}

	user.IsEmailVerified = true
	user.OTPHash = nil
	user.OTPExpiresAt = nil
	logger.InfoContext(ctx, "Email verified", "user_id", user.ID)
	return user, nil
}
