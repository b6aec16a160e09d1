package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/skillshare/skillshare-backend/internal/domain"
	"github.com/skillshare/skillshare-backend/internal/metrics"
	"github.com/skillshare/skillshare-backend/internal/password"
	"github.com/skillshare/skillshare-backend/internal/repository"
	"github.com/skillshare/skillshare-backend/internal/token"
)

// AuthService is the session authority: it issues tokens on verified login,
// validates them against the identity's current token version, and performs
// global invalidation by advancing that version.
type AuthService struct {
	userRepo repository.UserRepository
	hasher   *password.Hasher
	codec    *token.Codec
	metrics  *metrics.Metrics
	sessions SessionCloser
	logger   *slog.Logger

	// dummyHash is verified against when the email is unknown so both
	// rejection paths do the same bcrypt work.
	dummyHash string
}

func NewAuthService(userRepo repository.UserRepository, hasher *password.Hasher, codec *token.Codec, m *metrics.Metrics, logger *slog.Logger) (*AuthService, error) {
	dummy, err := hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}
	return &AuthService{
		userRepo:  userRepo,
		hasher:    hasher,
		codec:     codec,
		metrics:   m,
		logger:    logger.With("component", "service.auth"),
		dummyHash: dummy,
	}, nil
}

// SetSessionCloser makes LogoutAll also drop the user's live connections.
func (s *AuthService) SetSessionCloser(sessions SessionCloser) {
	s.sessions = sessions
}

type RegisterInput struct {
	Name     string
	LastName string
	Email    string
	Password string
}

type LoginInput struct {
	Email    string
	Password string
}

type AuthResult struct {
	User        *domain.User
	AccessToken string
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.LastName = strings.TrimSpace(input.LastName)
	input.Email = strings.TrimSpace(input.Email)
	if input.Name == "" || input.LastName == "" || input.Email == "" || input.Password == "" {
		return nil, domain.ErrMissingField
	}
	if len(input.Password) > password.MaxLength {
		return nil, domain.ErrPasswordTooLong
	}

	// Check if email exists
	_, err := s.userRepo.GetByEmail(ctx, input.Email)
	switch {
	case err == nil:
		return nil, domain.ErrEmailExists
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}

	hashedPassword, err := s.hashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New(),
		Name:         input.Name,
		LastName:     input.LastName,
		Email:        input.Email,
		PasswordHash: hashedPassword,
		Status:       domain.UserStatusActive,
		TokenVersion: 0,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, domain.ErrEmailExists
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID)
	return s.issue(user)
}

// Login returns ErrInvalidCredentials for both an unknown email and a wrong
// password. Logging in to a deactivated account reactivates it.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.hasher.Verify(input.Password, s.dummyHash)
			s.metrics.Login(metrics.ResultRejected)
			return nil, domain.ErrInvalidCredentials
		}
		s.metrics.Login(metrics.ResultError)
		return nil, err
	}

	if !s.hasher.Verify(input.Password, user.PasswordHash) {
		s.metrics.Login(metrics.ResultRejected)
		return nil, domain.ErrInvalidCredentials
	}

	if user.IsDeactivated() {
		user.Status = domain.UserStatusActive
		if err := s.userRepo.Update(ctx, user); err != nil {
			s.metrics.Login(metrics.ResultError)
			return nil, err
		}
		s.logger.InfoContext(ctx, "account reactivated by login", "user_id", user.ID)
	}

	s.metrics.Login(metrics.ResultSuccess)
	return s.issue(user)
}

// FederatedLogin completes a login vouched for by an external identity
// provider. Unknown emails get a new account without a usable password.
func (s *AuthService) FederatedLogin(ctx context.Context, email, name string) (*AuthResult, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, domain.ErrMissingField
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrNotFound):
		now := time.Now().UTC()
		user = &domain.User{
			ID:        uuid.New(),
			Name:      strings.TrimSpace(name),
			Email:     email,
			Status:    domain.UserStatusActive,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			if !errors.Is(err, repository.ErrDuplicate) {
				return nil, err
			}
			// Lost a race with a concurrent first login; use the winner's record.
			if user, err = s.userRepo.GetByEmail(ctx, email); err != nil {
				return nil, err
			}
		} else {
			s.logger.InfoContext(ctx, "user created from federated login", "user_id", user.ID)
		}
	default:
		return nil, err
	}

	if user.IsDeactivated() {
		user.Status = domain.UserStatusActive
		if err := s.userRepo.Update(ctx, user); err != nil {
			return nil, err
		}
	}

	s.metrics.Login(metrics.ResultSuccess)
	return s.issue(user)
}

// Authenticate decodes tokenString and checks it against the identity's live
// record. It returns that freshly read record, never a cached one.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*domain.User, error) {
	claims, err := s.codec.Decode(tokenString)
	if err != nil {
		s.metrics.Authentication(metrics.ResultRejected)
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		s.metrics.Authentication(metrics.ResultRejected)
		return nil, fmt.Errorf("%w: subject is not a user id", domain.ErrInvalidToken)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.metrics.Authentication(metrics.ResultRejected)
			return nil, fmt.Errorf("%w: unknown subject", domain.ErrInvalidToken)
		}
		s.metrics.Authentication(metrics.ResultError)
		return nil, err
	}

	if claims.TokenVersion != user.TokenVersion {
		s.metrics.Authentication(metrics.ResultStale)
		return nil, domain.ErrStaleToken
	}

	if user.IsDeactivated() {
		s.metrics.Authentication(metrics.ResultRejected)
		return nil, domain.ErrAccountDeactivated
	}

	s.metrics.Authentication(metrics.ResultSuccess)
	return user, nil
}

// LogoutAll invalidates every token issued to userID so far and returns the new token version.
func (s *AuthService) LogoutAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	version, err := s.userRepo.IncrementTokenVersion(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, domain.ErrUserNotFound
		}
		return 0, err
	}

	s.metrics.LogoutAll()
	closeSessions(ctx, s.sessions, s.logger, userID)
	s.logger.InfoContext(ctx, "all sessions invalidated", "user_id", userID, "token_version", version)
	return version, nil
}

// ChangePassword replaces the password hash. Existing tokens stay valid.
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error {
	if newPassword == "" {
		return domain.ErrMissingField
	}
	if len(newPassword) > password.MaxLength {
		return domain.ErrPasswordTooLong
	}

	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if !s.hasher.Verify(oldPassword, user.PasswordHash) {
		return domain.ErrWrongOldPassword
	}

	hashed, err := s.hashPassword(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hashed

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}

	s.logger.InfoContext(ctx, "password changed", "user_id", userID)
	return nil
}

func (s *AuthService) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) issue(user *domain.User) (*AuthResult, error) {
	claims := s.codec.NewClaims(user.ID.String(), user.TokenVersion, user.DisplayName())
	accessToken, err := s.codec.Encode(claims)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, AccessToken: accessToken}, nil
}

func (s *AuthService) hashPassword(plaintext string) (string, error) {
	hashed, err := s.hasher.Hash(plaintext)
	if errors.Is(err, password.ErrTooLong) {
		return "", domain.ErrPasswordTooLong
	}
	return hashed, err
}
