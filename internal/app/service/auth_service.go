package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"paperarchive/internal/app/session"
	"paperarchive/internal/common"
	"paperarchive/internal/common/security"
	"paperarchive/internal/domain/model"
	"paperarchive/internal/domain/repository"
	"paperarchive/internal/platform/supabase"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// IdentityProvider checks credentials and says who the caller is.
type IdentityProvider interface {
	Authenticate(ctx context.Context, email, password string) (*model.Identity, error)
}

type localIdentityProvider struct {
	users repository.UserRepository
}

// NewLocalIdentityProvider checks passwords against bcrypt hashes in the users table.
func NewLocalIdentityProvider(users repository.UserRepository) IdentityProvider {
	return &localIdentityProvider{users: users}
}

func (p *localIdentityProvider) Authenticate(ctx context.Context, email, password string) (*model.Identity, error) {
	user, err := p.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized // Generic message for security
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if !security.CheckPasswordHash(password, user.HashedPassword) {
		return nil, common.ErrUnauthorized
	}
	return &model.Identity{UserID: user.ID, Email: user.Email}, nil
}

type supabaseIdentityProvider struct {
	client *supabase.Client
}

// NewSupabaseIdentityProvider delegates credential checks to the hosted auth service.
func NewSupabaseIdentityProvider(client *supabase.Client) IdentityProvider {
	return &supabaseIdentityProvider{client: client}
}

func (p *supabaseIdentityProvider) Authenticate(ctx context.Context, email, password string) (*model.Identity, error) {
	resp, err := p.client.SignIn(ctx, email, password)
	if err != nil {
		var sErr *supabase.Error
		if errors.As(err, &sErr) {
			if sErr.StatusCode == http.StatusBadRequest || sErr.StatusCode == http.StatusUnauthorized {
				return nil, fmt.Errorf("%s: %w", sErr.Message, common.ErrUnauthorized)
			}
			return nil, fmt.Errorf("%s: %w", sErr.Message, common.ErrServiceUnavailable)
		}
		return nil, fmt.Errorf("auth provider unreachable: %v: %w", err, common.ErrServiceUnavailable)
	}
	return &model.Identity{UserID: resp.User.ID, Email: resp.User.Email}, nil
}

type AuthService struct {
	provider  IdentityProvider
	users     repository.UserRepository
	roles     repository.RoleRepository
	validator *common.Validator
	log       *zap.Logger
}

func NewAuthService(
	provider IdentityProvider,
	users repository.UserRepository,
	roles repository.RoleRepository,
	validator *common.Validator,
	log *zap.Logger,
) *AuthService {
	return &AuthService{provider: provider, users: users, roles: roles, validator: validator, log: log}
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Token   string          `json:"token"`
	Session session.Session `json:"session"`
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	identity, err := s.provider.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		s.log.Info("login rejected", zap.String("email", req.Email), zap.Error(err))
		return nil, err
	}

	role := model.RoleUser
	isAdmin, err := s.roles.HasRole(ctx, identity.UserID, model.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to load roles: %w", err)
	}
	if isAdmin {
		role = model.RoleAdmin
	}

	token, err := security.GenerateToken(identity.UserID, identity.Email, role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	s.log.Info("login", zap.String("user_id", identity.UserID), zap.String("role", role))
	return &AuthResponse{Token: token, Session: session.ForUser(identity.UserID, identity.Email, role)}, nil
}

// AddUser creates a local account, or resets its password when the email is
// already registered, and optionally grants the admin role.
func (s *AuthService) AddUser(ctx context.Context, email, password string, admin bool) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := s.validator.Struct(LoginRequest{Email: email, Password: password}); err != nil {
		return nil, err
	}

	hashed, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if err := s.users.UpdatePassword(ctx, user.ID, hashed); err != nil {
			return nil, fmt.Errorf("failed to update user: %w", err)
		}
	case errors.Is(err, common.ErrNotFound):
		user = &model.User{ID: uuid.NewString(), Email: email, HashedPassword: hashed}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
	default:
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if admin {
		if err := s.roles.Grant(ctx, user.ID, model.RoleAdmin); err != nil {
			return nil, fmt.Errorf("failed to grant admin role: %w", err)
		}
	}
	user.HashedPassword = ""
	return user, nil
}
