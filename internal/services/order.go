package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/example/bloomdesk/internal/models"
	"github.com/example/bloomdesk/internal/store"
)

// maxTransitionAttempts bounds how often Transition re-reads an order whose
// status moved under it.
const maxTransitionAttempts = 3

// OrderNotifier is told about order events after they are committed.
type OrderNotifier interface {
	NotifyNewOrder(order models.Order) error
	NotifyDelivered(order models.Order, points decimal.Decimal) error
}

// CreateOrderInput is the order form.
type CreateOrderInput struct {
	CustomerName    string `json:"customer_name"`
	CustomerPhone   string `json:"customer_phone"`
	CustomerAddress string `json:"customer_address"`
	Product         string `json:"product"`
	Amount          int64  `json:"amount"`
	VoucherCode     string `json:"voucher_code"`
}

// UpdateOrderInput edits an order; nil fields are left alone. An empty
// VoucherCode removes the voucher.
type UpdateOrderInput struct {
	CustomerName    *string `json:"customer_name"`
	CustomerPhone   *string `json:"customer_phone"`
	CustomerAddress *string `json:"customer_address"`
	Product         *string `json:"product"`
	Amount          *int64  `json:"amount"`
	VoucherCode     *string `json:"voucher_code"`
}

// TransitionResult describes a status change.
type TransitionResult struct {
	Order         models.Order       `json:"order"`
	From          models.OrderStatus `json:"from"`
	PointsAccrued decimal.Decimal    `json:"points_accrued"`
}

// OrderService runs the order lifecycle.
type OrderService struct {
	store    store.Store
	ledger   *LoyaltyLedger
	vouchers *VoucherValidator
	calendar BusinessCalendar
	notifier OrderNotifier
	now      func() time.Time
}

// NewOrderService constructs an OrderService. notifier may be nil.
func NewOrderService(s store.Store, ledger *LoyaltyLedger, vouchers *VoucherValidator, calendar BusinessCalendar, notifier OrderNotifier) *OrderService {
	return &OrderService{
		store:    s,
		ledger:   ledger,
		vouchers: vouchers,
		calendar: calendar,
		notifier: notifier,
		now:      time.Now,
	}
}

// Create resolves or registers the customer by phone, settles the voucher if
// one is given, and stores the order as pending. Points are never posted here.
func (s *OrderService) Create(ctx context.Context, in CreateOrderInput) (*models.Order, error) {
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.CustomerPhone = strings.TrimSpace(in.CustomerPhone)
	in.Product = strings.TrimSpace(in.Product)
	if in.CustomerName == "" || in.CustomerPhone == "" || in.Product == "" {
		return nil, invalid("customer_name, customer_phone and product are required")
	}
	if in.Amount <= 0 {
		return nil, invalid("amount must be positive")
	}

	order := models.Order{
		CustomerName:    in.CustomerName,
		CustomerPhone:   in.CustomerPhone,
		CustomerAddress: strings.TrimSpace(in.CustomerAddress),
		Product:         in.Product,
		Amount:          in.Amount,
		Status:          models.OrderStatusPending,
		FinalAmount:     in.Amount,
	}

	if code := NormalizeVoucherCode(in.VoucherCode); code != "" {
		settlement, err := s.vouchers.Validate(ctx, code, in.Amount, nil)
		if err != nil {
			return nil, err
		}
		order.VoucherCode = &settlement.Code
		order.VoucherDiscount = settlement.Discount
		order.FinalAmount = settlement.FinalAmount
	}

	customerID, err := s.resolveCustomer(ctx, in.CustomerName, in.CustomerPhone)
	if err != nil {
		log.Warn().Err(err).Str("phone", in.CustomerPhone).Msg("order created without customer")
	}
	order.CustomerID = customerID

	if err := s.store.CreateOrder(ctx, &order); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrAlreadyUsed
		}
		return nil, wrapStore(err, "order")
	}

	log.Info().
		Str("order_id", order.ID.String()).
		Int64("amount", order.Amount).
		Int64("final_amount", order.FinalAmount).
		Msg("order created")

	if s.notifier != nil {
		go func(o models.Order) {
			if err := s.notifier.NotifyNewOrder(o); err != nil {
				log.Warn().Err(err).Str("order_id", o.ID.String()).Msg("new order notification failed")
			}
		}(order)
	}
	return &order, nil
}

func (s *OrderService) resolveCustomer(ctx context.Context, name, phone string) (*uuid.UUID, error) {
	existing, err := s.store.FindCustomerByPhone(ctx, phone)
	if err == nil {
		return &existing.ID, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	customer := models.Customer{Name: name, Phone: phone, Point: decimal.Zero}
	if err := s.store.CreateCustomer(ctx, &customer); err != nil {
		if !errors.Is(err, store.ErrDuplicate) {
			return nil, err
		}
		// Registered concurrently by another order.
		existing, err := s.store.FindCustomerByPhone(ctx, phone)
		if err != nil {
			return nil, err
		}
		return &existing.ID, nil
	}
	return &customer.ID, nil
}

// Get returns one order.
func (s *OrderService) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	o, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, wrapStore(err, "order")
	}
	return o, nil
}

// List returns orders matching f and the total before paging.
func (s *OrderService) List(ctx context.Context, f store.OrderFilter) ([]models.Order, int64, error) {
	orders, total, err := s.store.ListOrders(ctx, f)
	if err != nil {
		return nil, 0, wrapStore(err, "orders")
	}
	return orders, total, nil
}

// TodayPending lists pending orders created since the start of the current
// business day.
func (s *OrderService) TodayPending(ctx context.Context) ([]models.Order, error) {
	day := s.calendar.Day(s.now())
	orders, _, err := s.List(ctx, store.OrderFilter{
		Statuses: []models.OrderStatus{models.OrderStatusPending},
		From:     &day.From,
	})
	return orders, err
}

// Update edits an order. A voucher the order already holds stays bound even
// after it expires or is removed; only a newly supplied code is validated.
func (s *OrderService) Update(ctx context.Context, id uuid.UUID, in UpdateOrderInput) (*models.Order, error) {
	order, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, wrapStore(err, "order")
	}
	previousAmount := order.Amount

	if in.CustomerName != nil {
		if order.CustomerName = strings.TrimSpace(*in.CustomerName); order.CustomerName == "" {
			return nil, invalid("customer_name cannot be empty")
		}
	}
	if in.CustomerPhone != nil {
		if order.CustomerPhone = strings.TrimSpace(*in.CustomerPhone); order.CustomerPhone == "" {
			return nil, invalid("customer_phone cannot be empty")
		}
	}
	if in.CustomerAddress != nil {
		order.CustomerAddress = strings.TrimSpace(*in.CustomerAddress)
	}
	if in.Product != nil {
		if order.Product = strings.TrimSpace(*in.Product); order.Product == "" {
			return nil, invalid("product cannot be empty")
		}
	}
	if in.Amount != nil {
		if *in.Amount <= 0 {
			return nil, invalid("amount must be positive")
		}
		order.Amount = *in.Amount
	}

	bound := ""
	if order.VoucherCode != nil {
		bound = *order.VoucherCode
	}
	code := bound
	if in.VoucherCode != nil {
		code = NormalizeVoucherCode(*in.VoucherCode)
	}

	switch {
	case code == "":
		order.VoucherCode = nil
		order.VoucherDiscount = 0
		order.FinalAmount = order.Amount
	case code == bound:
		if order.Amount != previousAmount {
			voucher, err := s.store.FindVoucherByCode(ctx, code)
			if err != nil {
				return nil, wrapStore(err, "voucher "+code)
			}
			order.VoucherDiscount = ApplyPercent(order.Amount, voucher.Discount)
			order.FinalAmount = order.Amount - order.VoucherDiscount
		}
	default:
		settlement, err := s.vouchers.Validate(ctx, code, order.Amount, &order.ID)
		if err != nil {
			return nil, err
		}
		order.VoucherCode = &settlement.Code
		order.VoucherDiscount = settlement.Discount
		order.FinalAmount = settlement.FinalAmount
	}

	if err := s.store.UpdateOrder(ctx, order); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrAlreadyUsed
		}
		return nil, wrapStore(err, "order")
	}
	return order, nil
}

// Transition sets the order status. Points are accrued only on the
// pending -> delivered edge, and only by the call that performs that edge.
func (s *OrderService) Transition(ctx context.Context, id uuid.UUID, to models.OrderStatus) (*TransitionResult, error) {
	if !to.Valid() {
		return nil, invalid("unknown status %q", to)
	}

	var result TransitionResult
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		for attempt := 0; attempt < maxTransitionAttempts; attempt++ {
			order, err := tx.GetOrder(ctx, id)
			if err != nil {
				return err
			}
			result = TransitionResult{Order: *order, From: order.Status, PointsAccrued: decimal.Zero}
			if order.Status == to {
				return nil
			}

			won, err := tx.TransitionOrderStatus(ctx, id, order.Status, to)
			if err != nil {
				return err
			}
			if !won {
				continue
			}
			result.Order.Status = to

			if order.Status != models.OrderStatusPending || to != models.OrderStatusDelivered || order.CustomerID == nil {
				return nil
			}
			points, err := s.ledger.with(tx).ApplyAccrual(ctx, *order.CustomerID, order.Amount, &order.ID)
			if errors.Is(err, ErrNotFound) {
				log.Warn().Str("order_id", id.String()).Msg("customer gone, no points accrued")
				return nil
			}
			if err != nil {
				return err
			}
			result.PointsAccrued = points
			return nil
		}
		return fmt.Errorf("order %s is being changed, retry: %w", id, ErrConflict)
	})
	if err != nil {
		return nil, wrapStore(err, "order")
	}

	log.Info().
		Str("order_id", id.String()).
		Str("from", string(result.From)).
		Str("to", string(to)).
		Str("points_accrued", result.PointsAccrued.StringFixed(2)).
		Msg("order status changed")

	if s.notifier != nil && result.PointsAccrued.IsPositive() {
		go func(o models.Order, points decimal.Decimal) {
			if err := s.notifier.NotifyDelivered(o, points); err != nil {
				log.Warn().Err(err).Str("order_id", o.ID.String()).Msg("delivery notification failed")
			}
		}(result.Order, result.PointsAccrued)
	}
	return &result, nil
}

// Delete removes an order. Points already accrued for it stay on the
// customer's balance and its voucher code becomes free again.
func (s *OrderService) Delete(ctx context.Context, id uuid.UUID) error {
	return wrapStore(s.store.DeleteOrder(ctx, id), "order")
}
