package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"sharenet-backend/internal/domain"
	"sharenet-backend/internal/logger"
	"sharenet-backend/internal/repository"
	"sharenet-backend/internal/security"
	"sharenet-backend/internal/session"
)

type authService struct {
	users    repository.UserRepository
	tokens   security.TokenManager
	sessions session.Store
}

func NewAuthService(users repository.UserRepository, tokens security.TokenManager, sessions session.Store) AuthService {
	return &authService{users: users, tokens: tokens, sessions: sessions}
}

func (s *authService) Register(ctx context.Context, name, email, password, location string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid email address", domain.ErrInvalidInput)
	}
	hash, err := security.HashPassword(password)
	if errors.Is(err, security.ErrWeakPassword) {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:         name,
		Email:        strings.ToLower(email),
		PasswordHash: hash,
		Location:     strings.TrimSpace(location),
		Role:         domain.UserRoleMember,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "User registered", "userID", user.ID)
	return user, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, domain.ErrNotFound) {
		return "", nil, fmt.Errorf("%w: invalid credentials", domain.ErrUnauthenticated)
	}
	if err != nil {
		return "", nil, err
	}
	if !security.CheckPassword(user.PasswordHash, password) {
		return "", nil, fmt.Errorf("%w: invalid credentials", domain.ErrUnauthenticated)
	}
	if user.IsBanned {
		return "", nil, fmt.Errorf("%w: account is banned", domain.ErrForbidden)
	}

	token, claims, err := s.tokens.GenerateAccessToken(user)
	if err != nil {
		return "", nil, fmt.Errorf("failed to issue token: %w", err)
	}
	if err := s.sessions.Track(ctx, user.ID, claims.ID, claims.ExpiresAt.Time); err != nil {
		logger.WarnContext(ctx, "Failed to track issued token", "userID", user.ID, "error", err)
	}
	return token, user, nil
}

func (s *authService) Logout(ctx context.Context, claims *security.UserClaims) error {
	if claims == nil || claims.ID == "" {
		return fmt.Errorf("%w: no token", domain.ErrUnauthenticated)
	}
	return s.sessions.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

func (s *authService) Me(ctx context.Context, userID int32) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}
