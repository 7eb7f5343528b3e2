package orders

import (
	"context"
	stdErrors "errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mvalenz/bazario-backend/internal/affiliates"
	"github.com/mvalenz/bazario-backend/internal/inventory"
	"github.com/mvalenz/bazario-backend/internal/ledger"
	"github.com/mvalenz/bazario-backend/internal/products"
	"github.com/mvalenz/bazario-backend/pkg/db/models"
	"github.com/mvalenz/bazario-backend/pkg/enums"
	"github.com/mvalenz/bazario-backend/pkg/errors"
	"github.com/mvalenz/bazario-backend/pkg/logger"
	"github.com/mvalenz/bazario-backend/pkg/metrics"
	"github.com/mvalenz/bazario-backend/pkg/payments"
)

// TxRunner executes a function inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Charger initiates payments; satisfied by payments.Registry.
type Charger interface {
	CreateCharge(ctx context.Context, provider enums.PaymentProvider, req payments.ChargeRequest) (*payments.ChargeResult, error)
}

// Notifier is the slice of the notifications domain orders use.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, kind enums.NotificationType, title, message string, data any)
}

// Service drives the order lifecycle: checkout, payment confirmation and the
// admin settlement transitions.
type Service interface {
	Create(ctx context.Context, customerID uuid.UUID, input CreateOrderInput) (*CreateOrderResult, error)
	ConfirmPayment(ctx context.Context, orderID uuid.UUID, providerRef *string) (*models.Order, error)
	MarkFailed(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	MarkRefunded(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	GetByID(ctx context.Context, orderID, requesterID uuid.UUID, requesterRole enums.UserRole) (*models.Order, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Order, error)
}

type service struct {
	repo       Repository
	tx         TxRunner
	ledger     ledger.Service
	inventory  inventory.Service
	affiliates affiliates.Service
	catalog    products.Service
	charger    Charger
	notifier   Notifier
	logg       *logger.Logger
	metrics    *metrics.PlatformMetrics
}

// Deps bundles the constructor dependencies for the orders service.
type Deps struct {
	Repo       Repository
	Tx         TxRunner
	Ledger     ledger.Service
	Inventory  inventory.Service
	Affiliates affiliates.Service
	Catalog    products.Service
	Charger    Charger
	Notifier   Notifier
	Logger     *logger.Logger
	Metrics    *metrics.PlatformMetrics
}

// NewService wires the orders service. Charger, Notifier and Metrics are
// optional; everything else is required.
func NewService(deps Deps) (Service, error) {
	switch {
	case deps.Repo == nil:
		return nil, fmt.Errorf("orders repository required")
	case deps.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case deps.Ledger == nil:
		return nil, fmt.Errorf("ledger service required")
	case deps.Inventory == nil:
		return nil, fmt.Errorf("inventory service required")
	case deps.Affiliates == nil:
		return nil, fmt.Errorf("affiliates service required")
	case deps.Catalog == nil:
		return nil, fmt.Errorf("products service required")
	case deps.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:       deps.Repo,
		tx:         deps.Tx,
		ledger:     deps.Ledger,
		inventory:  deps.Inventory,
		affiliates: deps.Affiliates,
		catalog:    deps.Catalog,
		charger:    deps.Charger,
		notifier:   deps.Notifier,
		logg:       deps.Logger,
		metrics:    deps.Metrics,
	}, nil
}

// Create runs the checkout pipeline: resolve listings and prices server-side,
// attribute the optional affiliate code, compute the settlement breakdown,
// reserve stock, then persist the order with snapshotted prices. The payment
// provider is called after the transaction commits; a provider failure leaves
// a pending order without a payment handle.
func (s *service) Create(ctx context.Context, customerID uuid.UUID, input CreateOrderInput) (*CreateOrderResult, error) {
	if customerID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "customer id is required")
	}
	if len(input.Items) == 0 {
		return nil, errors.New(errors.CodeValidation, "at least one item is required")
	}
	if !input.Provider.IsValid() {
		return nil, errors.New(errors.CodeValidation, fmt.Sprintf("invalid payment provider %q", input.Provider))
	}

	var (
		subtotalCents int64
		items         = make([]models.OrderItem, 0, len(input.Items))
		reservations  = make([]inventory.ReservationRequest, 0, len(input.Items))
	)
	for _, line := range input.Items {
		if line.Quantity <= 0 {
			return nil, errors.New(errors.CodeValidation, "item quantity must be positive")
		}
		product, err := s.catalog.FindForSale(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}
		subtotalCents += product.PriceCents * int64(line.Quantity)
		items = append(items, models.OrderItem{
			ProductID:      product.ID,
			Quantity:       line.Quantity,
			UnitPriceCents: product.PriceCents,
		})
		reservations = append(reservations, inventory.ReservationRequest{
			ProductID: product.ID,
			Qty:       line.Quantity,
		})
	}

	affiliateLink, affiliateRate, err := s.resolveAttribution(ctx, input.AffiliateCode)
	if err != nil {
		return nil, err
	}

	breakdown, err := s.ledger.ComputeBreakdown(subtotalCents, affiliateRate)
	if err != nil {
		return nil, err
	}

	if _, err := s.inventory.Reserve(ctx, reservations); err != nil {
		return nil, err
	}

	order := &models.Order{
		CustomerID:           customerID,
		SubtotalCents:        breakdown.SubtotalCents,
		VendorPayoutCents:    breakdown.VendorPayoutCents,
		AffiliatePayoutCents: breakdown.AffiliatePayoutCents,
		PlatformFeeCents:     breakdown.PlatformFeeCents,
		Status:               enums.OrderStatusPending,
		PaymentProvider:      input.Provider,
		Items:                items,
	}
	if affiliateLink != nil {
		order.AffiliateLinkID = &affiliateLink.ID
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Create(ctx, order)
	})
	if err != nil {
		s.releaseReservations(ctx, reservations)
		return nil, errors.Wrap(errors.CodeInternal, err, "persisting order")
	}

	result := &CreateOrderResult{Order: order}
	if s.charger != nil {
		charge, err := s.charger.CreateCharge(ctx, input.Provider, payments.ChargeRequest{
			OrderID:     order.ID,
			AmountCents: order.SubtotalCents,
		})
		if err != nil {
			// The order stays pending without a payment handle; confirmation
			// can still arrive through the webhook or manual flows.
			s.logg.Error(ctx, fmt.Sprintf("payment initiation failed for order %s", order.ID), err)
		} else {
			result.Payment = charge
		}
	}

	s.notify(ctx, customerID, enums.NotificationTypeOrder, "Order placed",
		fmt.Sprintf("Order %s is awaiting payment", order.ID), order.ID)
	return result, nil
}

// ConfirmPayment settles a pending order. Confirming an already-paid order
// returns the current state without side effects, so webhook replays cannot
// double-count conversions or sales.
func (s *service) ConfirmPayment(ctx context.Context, orderID uuid.UUID, providerRef *string) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "order id is required")
	}

	var (
		order          *models.Order
		alreadySettled bool
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		current, err := repo.FindByID(ctx, orderID)
		if err != nil {
			if stdErrors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New(errors.CodeNotFound, "order not found")
			}
			return errors.Wrap(errors.CodeInternal, err, "loading order")
		}
		if current.Status == enums.OrderStatusPaid {
			order = current
			alreadySettled = true
			return nil
		}
		if current.Status.IsTerminal() {
			return errors.New(errors.CodeStateConflict,
				fmt.Sprintf("order is %s and cannot be paid", current.Status))
		}

		current.Status = enums.OrderStatusPaid
		if providerRef != nil {
			current.PaymentRef = providerRef
		}
		if err := repo.Save(ctx, current); err != nil {
			return errors.Wrap(errors.CodeInternal, err, "saving order")
		}

		if current.AffiliateLinkID != nil {
			if err := s.affiliates.RecordConversion(ctx, tx, *current.AffiliateLinkID, current.ID); err != nil {
				return err
			}
		}
		for _, item := range current.Items {
			if err := s.catalog.RecordSale(ctx, tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		order = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !alreadySettled {
		s.metrics.IncOrderSettled(string(enums.OrderStatusPaid))
		s.notify(ctx, order.CustomerID, enums.NotificationTypePayment, "Payment confirmed",
			fmt.Sprintf("Order %s has been paid", order.ID), order.ID)
	}
	return order, nil
}

// MarkFailed moves a pending order to failed. Reserved stock is not restored
// automatically; that remains an operator action.
func (s *service) MarkFailed(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return s.transition(ctx, orderID, enums.OrderStatusFailed, func(status enums.OrderStatus) bool {
		return status == enums.OrderStatusPending
	})
}

// MarkRefunded moves a pending or paid order to refunded. Wallet and stock
// compensation are separate admin flows.
func (s *service) MarkRefunded(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return s.transition(ctx, orderID, enums.OrderStatusRefunded, func(status enums.OrderStatus) bool {
		return status == enums.OrderStatusPending || status == enums.OrderStatusPaid
	})
}

func (s *service) GetByID(ctx context.Context, orderID, requesterID uuid.UUID, requesterRole enums.UserRole) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "order id is required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(errors.CodeNotFound, "order not found")
		}
		return nil, errors.Wrap(errors.CodeInternal, err, "loading order")
	}
	if requesterRole != enums.UserRoleAdmin && order.CustomerID != requesterID {
		return nil, errors.New(errors.CodeForbidden, "order belongs to another customer")
	}
	return order, nil
}

func (s *service) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Order, error) {
	if customerID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "customer id is required")
	}
	list, err := s.repo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "listing orders")
	}
	return list, nil
}

// resolveAttribution maps an affiliate code to its link and commission rate.
// An unknown code does not fail checkout; the order proceeds unattributed.
func (s *service) resolveAttribution(ctx context.Context, code *string) (*models.AffiliateLink, *decimal.Decimal, error) {
	if code == nil || *code == "" {
		return nil, nil, nil
	}

	link, err := s.affiliates.ResolveCode(ctx, *code)
	if err != nil {
		if typed := errors.As(err); typed != nil && typed.Code() == errors.CodeNotFound {
			s.logg.Warn(ctx, fmt.Sprintf("unknown affiliate code %q, proceeding unattributed", *code))
			return nil, nil, nil
		}
		return nil, nil, err
	}

	product, err := s.catalog.FindProduct(ctx, link.ProductID)
	if err != nil {
		return nil, nil, err
	}
	rate := product.CommissionRate
	return link, &rate, nil
}

func (s *service) transition(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus, allowed func(enums.OrderStatus) bool) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "order id is required")
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		current, err := repo.FindByID(ctx, orderID)
		if err != nil {
			if stdErrors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New(errors.CodeNotFound, "order not found")
			}
			return errors.Wrap(errors.CodeInternal, err, "loading order")
		}
		if !allowed(current.Status) {
			return errors.New(errors.CodeStateConflict,
				fmt.Sprintf("order is %s and cannot become %s", current.Status, target))
		}

		current.Status = target
		if err := repo.Save(ctx, current); err != nil {
			return errors.Wrap(errors.CodeInternal, err, "saving order")
		}
		order = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncOrderSettled(string(target))
	s.notify(ctx, order.CustomerID, enums.NotificationTypeOrder, "Order "+string(target),
		fmt.Sprintf("Order %s is now %s", order.ID, target), order.ID)
	return order, nil
}

func (s *service) releaseReservations(ctx context.Context, reservations []inventory.ReservationRequest) {
	for _, res := range reservations {
		if err := s.inventory.Release(ctx, res.ProductID, res.Qty); err != nil {
			s.logg.Error(ctx, fmt.Sprintf("releasing %d units of %s after failed checkout", res.Qty, res.ProductID), err)
		}
	}
}

func (s *service) notify(ctx context.Context, userID uuid.UUID, kind enums.NotificationType, title, message string, orderID uuid.UUID) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, userID, kind, title, message, map[string]any{"order_id": orderID})
}
