package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mvalenz/bazario-backend/pkg/db/models"
	"github.com/mvalenz/bazario-backend/pkg/enums"
	"github.com/mvalenz/bazario-backend/pkg/errors"
	"github.com/mvalenz/bazario-backend/pkg/logger"
)

// Service delivers in-app notifications. Notify is best-effort: a failed
// insert is logged and swallowed so it can never fail the caller's flow.
type Service interface {
	Notify(ctx context.Context, userID uuid.UUID, kind enums.NotificationType, title, message string, data any)
	LowStock(ctx context.Context, product *models.Product)
	ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService wires the notifications service.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) Notify(ctx context.Context, userID uuid.UUID, kind enums.NotificationType, title, message string, data any) {
	if userID == uuid.Nil || !kind.IsValid() {
		s.logg.Warn(ctx, fmt.Sprintf("dropping notification with invalid target or type %q", kind))
		return
	}

	var payload json.RawMessage
	if data != nil {
		encoded, err := json.Marshal(data)
		if err != nil {
			s.logg.Error(ctx, "encoding notification payload", err)
		} else {
			payload = encoded
		}
	}

	notification := &models.Notification{
		UserID:  userID,
		Type:    kind,
		Title:   title,
		Message: message,
		Data:    payload,
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		s.logg.Error(ctx, "storing notification", err)
	}
}

// LowStock warns the vendor that a listing is close to selling out.
func (s *service) LowStock(ctx context.Context, product *models.Product) {
	if product == nil {
		return
	}
	s.Notify(ctx, product.VendorID, enums.NotificationTypeProduct,
		"Low stock",
		fmt.Sprintf("%q is down to %d units", product.Name, product.StockQuantity),
		map[string]any{"product_id": product.ID, "stock_quantity": product.StockQuantity},
	)
}

func (s *service) ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]models.Notification, error) {
	if userID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "user id is required")
	}
	items, err := s.repo.ListByUser(ctx, userID, unreadOnly)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "listing notifications")
	}
	return items, nil
}

func (s *service) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	if userID == uuid.Nil || notificationID == uuid.Nil {
		return errors.New(errors.CodeValidation, "user id and notification id are required")
	}
	affected, err := s.repo.MarkRead(ctx, userID, notificationID, time.Now().UTC())
	if err != nil {
		return errors.Wrap(errors.CodeInternal, err, "marking notification read")
	}
	if affected == 0 {
		return errors.New(errors.CodeNotFound, "notification not found or already read")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return errors.New(errors.CodeValidation, "user id is required")
	}
	if err := s.repo.MarkAllRead(ctx, userID, time.Now().UTC()); err != nil {
		return errors.Wrap(errors.CodeInternal, err, "marking notifications read")
	}
	return nil
}
