package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/mvalenz/bazario-backend/api/responses"
	"github.com/mvalenz/bazario-backend/api/validators"
	walletsvc "github.com/mvalenz/bazario-backend/internal/wallet"
	"github.com/mvalenz/bazario-backend/pkg/db/models"
	pkgerrors "github.com/mvalenz/bazario-backend/pkg/errors"
	"github.com/mvalenz/bazario-backend/pkg/logger"
)

// WalletBalance returns the caller's current wallet balance.
func WalletBalance(svc walletsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wallet service unavailable"))
			return
		}

		uid, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		balance, err := svc.Balance(r.Context(), uid)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"balance_cents": balance})
	}
}

// RequestWithdrawal debits the wallet and files a pending payout request.
func RequestWithdrawal(svc walletsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wallet service unavailable"))
			return
		}

		uid, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload walletsvc.RequestWithdrawalInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		withdrawal, err := svc.RequestWithdrawal(r.Context(), uid, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newWithdrawalResponse(withdrawal))
	}
}

// ListWithdrawals returns the caller's withdrawal history, newest first.
func ListWithdrawals(svc walletsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wallet service unavailable"))
			return
		}

		uid, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		withdrawals, err := svc.ListWithdrawals(r.Context(), uid)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]withdrawalResponse, 0, len(withdrawals))
		for i := range withdrawals {
			items = append(items, newWithdrawalResponse(&withdrawals[i]))
		}
		responses.WriteSuccess(w, map[string]any{"items": items})
	}
}

// AdminProcessWithdrawal records the payout decision for a pending request.
func AdminProcessWithdrawal(svc walletsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wallet service unavailable"))
			return
		}

		withdrawalID, err := pathUUID(r, "withdrawalID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload walletsvc.ProcessWithdrawalInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		withdrawal, err := svc.ProcessWithdrawal(r.Context(), withdrawalID, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newWithdrawalResponse(withdrawal))
	}
}

type withdrawalResponse struct {
	ID              uuid.UUID                        `json:"id"`
	UserID          uuid.UUID                        `json:"user_id"`
	AmountCents     int64                            `json:"amount_cents"`
	Method          string                           `json:"method"`
	AccountDetails  *models.WithdrawalAccountDetails `json:"account_details,omitempty"`
	Status          string                           `json:"status"`
	ProcessedAt     *time.Time                       `json:"processed_at,omitempty"`
	FailureReason   *string                          `json:"failure_reason,omitempty"`
	ReferenceNumber *string                          `json:"reference_number,omitempty"`
	CreatedAt       time.Time                        `json:"created_at"`
}

func newWithdrawalResponse(withdrawal *models.Withdrawal) withdrawalResponse {
	if withdrawal == nil {
		return withdrawalResponse{}
	}
	return withdrawalResponse{
		ID:              withdrawal.ID,
		UserID:          withdrawal.UserID,
		AmountCents:     withdrawal.AmountCents,
		Method:          string(withdrawal.Method),
		AccountDetails:  withdrawal.AccountDetails,
		Status:          string(withdrawal.Status),
		ProcessedAt:     withdrawal.ProcessedAt,
		FailureReason:   withdrawal.FailureReason,
		ReferenceNumber: withdrawal.ReferenceNumber,
		CreatedAt:       withdrawal.CreatedAt,
	}
}
