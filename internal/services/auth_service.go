package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"keranjang/internal/logger"
	"keranjang/internal/models"
	"keranjang/internal/repositories"
)

// AuthService handles registration, login and session token checks.
type AuthService struct {
	userRepo repositories.UserRepository
	hasher   PasswordHasher
	tokens   *TokenManager
	logger   *slog.Logger
	opts     serviceOptions

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, hasher PasswordHasher, tokens *TokenManager, log *slog.Logger, opts ...Option) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		hasher:   hasher,
		tokens:   tokens,
		logger:   log.With(slog.String("component", "auth")),
		opts:     applyOptions(opts),
	}
}

// Register creates a user with a hashed password and returns it together with
// a fresh session token. Email uniqueness is decided by the store.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*models.User, string, error) {
	if password == "" {
		s.opts.metrics.ObserveAuth("register", "invalid")
		return nil, "", ErrEmptyPassword
	}

	hashed, err := s.hasher.Hash(password)
	if err != nil {
		s.opts.metrics.ObserveAuth("register", "error")
		return nil, "", fmt.Errorf("failed to register user: %w", err)
	}

	user := &models.User{
		Username: username,
		Email:    email,
		Password: hashed,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			s.opts.metrics.ObserveAuth("register", "duplicate")
			return nil, "", ErrDuplicateUser
		}
		s.opts.metrics.ObserveAuth("register", "error")
		return nil, "", fmt.Errorf("failed to register user: %w", err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		s.opts.metrics.ObserveAuth("register", "error")
		return nil, "", err
	}

	s.logger.Info("user registered", slog.String("user_id", user.ID))
	s.opts.metrics.ObserveAuth("register", "success")
	s.opts.publish(ctx, s.logger, Event{Type: EventUserRegistered, UserID: user.ID})
	return user, token, nil
}

// Login authenticates a user by email and password and returns a session
// token. Unknown emails and wrong passwords both yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			// burn the same bcrypt time as a real comparison
			_, _ = s.hasher.Verify(password, s.fallbackHash())
			s.opts.metrics.ObserveAuth("login", "invalid_credentials")
			return "", ErrInvalidCredentials
		}
		s.opts.metrics.ObserveAuth("login", "error")
		return "", fmt.Errorf("failed to look up user: %w", err)
	}

	ok, err := s.hasher.Verify(password, user.Password)
	if err != nil {
		s.logger.Error("stored password hash is unusable", slog.String("user_id", user.ID), logger.Err(err))
		s.opts.metrics.ObserveAuth("login", "error")
		return "", err
	}
	if !ok {
		s.opts.metrics.ObserveAuth("login", "invalid_credentials")
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		s.opts.metrics.ObserveAuth("login", "error")
		return "", err
	}
	s.opts.metrics.ObserveAuth("login", "success")
	return token, nil
}

// ValidateToken verifies a session token and returns the user ID it carries.
// Every failure matches ErrInvalidToken and, more specifically,
// ErrTokenExpired or ErrTokenInvalid.
func (s *AuthService) ValidateToken(tokenString string) (string, error) {
	userID, err := s.tokens.Verify(tokenString)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return userID, nil
}

func (s *AuthService) fallbackHash() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("keranjang-timing-equaliser")
		if err != nil {
			s.logger.Warn("failed to prepare fallback hash", logger.Err(err))
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}
