package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bytekstore/bytek/app/models"
	"github.com/bytekstore/bytek/app/repositories"
	"github.com/bytekstore/bytek/pkg/auth"
	"github.com/bytekstore/bytek/pkg/rbac"
)

// TokenTTL is how long an admin session lasts.
const TokenTTL = 12 * time.Hour

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotAdmin           = errors.New("this account has no back-office access")
	ErrEmailTaken         = errors.New("email already registered")
)

type LoginInput struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      models.User `json:"user"`
}

type AuthService struct {
	users *repositories.UserRepository
}

func NewAuthService(users *repositories.UserRepository) *AuthService {
	return &AuthService{users: users}
}

// Login checks an admin's password and issues a bearer token.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (LoginResult, error) {
	user, err := s.users.FindByEmail(ctx, in.Email)
	if errors.Is(err, repositories.ErrUserNotFound) {
		return LoginResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return LoginResult{}, err
	}
	if !auth.CheckPassword(user.Password, in.Password) {
		return LoginResult{}, ErrInvalidCredentials
	}
	if user.Role != rbac.RoleAdmin {
		return LoginResult{}, ErrNotAdmin
	}

	token, err := auth.GenerateToken(user.ID, user.Email, user.Role, TokenTTL)
	if err != nil {
		return LoginResult{}, fmt.Errorf("sign token: %w", err)
	}
	return LoginResult{Token: token, ExpiresAt: time.Now().Add(TokenTTL), User: user}, nil
}

// Me returns the account behind a token.
func (s *AuthService) Me(ctx context.Context, userID string) (models.User, error) {
	return s.users.FindByID(ctx, userID)
}

// CreateAdmin registers a back-office account.
func (s *AuthService) CreateAdmin(ctx context.Context, name, email, password string) (models.User, error) {
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return models.User{}, ErrEmailTaken
	} else if !errors.Is(err, repositories.ErrUserNotFound) {
		return models.User{}, err
	}
	if len(password) < 8 {
		return models.User{}, errors.New("password must be at least 8 characters")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return models.User{}, err
	}
	if strings.TrimSpace(name) == "" {
		name = "Admin"
	}
	user := models.User{Name: strings.TrimSpace(name), Email: email, Password: hash, Role: rbac.RoleAdmin}
	if err := s.users.Create(ctx, &user); err != nil {
		return models.User{}, fmt.Errorf("create admin: %w", err)
	}
	return user, nil
}
