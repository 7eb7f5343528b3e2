package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/mvalenz/bazario-backend/api/responses"
	"github.com/mvalenz/bazario-backend/api/validators"
	usersvc "github.com/mvalenz/bazario-backend/internal/users"
	"github.com/mvalenz/bazario-backend/pkg/db/models"
	pkgerrors "github.com/mvalenz/bazario-backend/pkg/errors"
	"github.com/mvalenz/bazario-backend/pkg/logger"
)

// Register creates a new account and returns an access token for it.
func Register(svc usersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "users service unavailable"))
			return
		}

		var payload usersvc.RegisterInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Register(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newAuthResponse(result))
	}
}

// Login exchanges credentials for an access token.
func Login(svc usersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "users service unavailable"))
			return
		}

		var payload usersvc.LoginInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newAuthResponse(result))
	}
}

// Me returns the authenticated user's profile.
func Me(svc usersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "users service unavailable"))
			return
		}

		uid, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := svc.GetByID(r.Context(), uid)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newUserResponse(user))
	}
}

type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type userResponse struct {
	ID                 uuid.UUID  `json:"id"`
	Name               string     `json:"name"`
	Email              string     `json:"email"`
	Role               string     `json:"role"`
	WalletBalanceCents int64      `json:"wallet_balance_cents"`
	Verified           bool       `json:"verified"`
	LastLoginAt        *time.Time `json:"last_login_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

func newAuthResponse(result *usersvc.AuthResult) authResponse {
	if result == nil {
		return authResponse{}
	}
	return authResponse{
		Token: result.Token,
		User:  newUserResponse(result.User),
	}
}

func newUserResponse(user *models.User) userResponse {
	if user == nil {
		return userResponse{}
	}
	return userResponse{
		ID:                 user.ID,
		Name:               user.Name,
		Email:              user.Email,
		Role:               string(user.Role),
		WalletBalanceCents: user.WalletBalanceCents,
		Verified:           user.Verified,
		LastLoginAt:        user.LastLoginAt,
		CreatedAt:          user.CreatedAt,
	}
}
