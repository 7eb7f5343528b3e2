package users

import (
	"context"
	stdErrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mvalenz/bazario-backend/pkg/auth"
	"github.com/mvalenz/bazario-backend/pkg/config"
	"github.com/mvalenz/bazario-backend/pkg/db"
	"github.com/mvalenz/bazario-backend/pkg/db/models"
	"github.com/mvalenz/bazario-backend/pkg/enums"
	"github.com/mvalenz/bazario-backend/pkg/errors"
	"github.com/mvalenz/bazario-backend/pkg/security"
)

// AuthResult bundles the authenticated user with the token issued for it.
type AuthResult struct {
	User  *models.User
	Token string
}

// Service handles account registration, login and profile reads.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, input LoginInput) (*AuthResult, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type service struct {
	repo        Repository
	jwtConfig   config.JWTConfig
	passwordCfg config.PasswordConfig
}

// NewService wires the users service.
func NewService(repo Repository, jwtCfg config.JWTConfig, passwordCfg config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	return &service{repo: repo, jwtConfig: jwtCfg, passwordCfg: passwordCfg}, nil
}

// Register creates an account and signs the caller in. Admin accounts cannot
// be self-registered.
func (s *service) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	if !input.Role.IsValid() || input.Role == enums.UserRoleAdmin {
		return nil, errors.New(errors.CodeValidation, fmt.Sprintf("role %q cannot be registered", input.Role))
	}

	hash, err := security.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "hashing password")
	}

	user := &models.User{
		Name:         strings.TrimSpace(input.Name),
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		PasswordHash: hash,
		Role:         input.Role,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, errors.New(errors.CodeConflict, "email already registered")
		}
		return nil, errors.Wrap(errors.CodeInternal, err, "creating user")
	}

	return s.issueToken(user)
}

// Login verifies credentials. Unknown email and wrong password are reported
// identically.
func (s *service) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(errors.CodeUnauthorized, "invalid credentials")
		}
		return nil, errors.Wrap(errors.CodeInternal, err, "loading user")
	}

	ok, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "verifying password")
	}
	if !ok {
		return nil, errors.New(errors.CodeUnauthorized, "invalid credentials")
	}

	if err := s.repo.TouchLastLogin(ctx, user.ID, time.Now().UTC()); err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "updating last login")
	}

	return s.issueToken(user)
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if id == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "user id is required")
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(errors.CodeNotFound, "user not found")
		}
		return nil, errors.Wrap(errors.CodeInternal, err, "loading user")
	}
	return user, nil
}

func (s *service) issueToken(user *models.User) (*AuthResult, error) {
	token, err := auth.MintAccessToken(s.jwtConfig, time.Now(), auth.AccessTokenPayload{
		UserID: user.ID,
		Role:   user.Role,
	})
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "minting access token")
	}
	return &AuthResult{User: user, Token: token}, nil
}
