// Package store is the persistence boundary for customers, orders, vouchers,
// point postings and operator accounts.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/example/bloomdesk/internal/models"
)

var (
	ErrNotFound           = errors.New("record not found")
	ErrDuplicate          = errors.New("duplicate record")
	ErrInsufficientPoints = errors.New("insufficient points")
)

// CustomerFilter narrows ListCustomers. Search matches the name
// case-insensitively or the phone as a substring.
type CustomerFilter struct {
	Search string
	Limit  int
	Offset int
}

// OrderFilter narrows ListOrders. Zero fields are ignored; From and To are
// inclusive bounds on created_at. Results are ordered newest first.
type OrderFilter struct {
	CustomerID  *uuid.UUID
	Phone       string
	VoucherCode string
	Statuses    []models.OrderStatus
	From        *time.Time
	To          *time.Time
	Limit       int
	Offset      int
}

// CustomerPatch holds the editable customer fields; nil means unchanged.
type CustomerPatch struct {
	Name  *string
	Phone *string
	Note  *string
}

// VoucherPatch holds the editable voucher fields; nil means unchanged.
type VoucherPatch struct {
	Discount  *int
	ExpiredAt *time.Time
	Status    *models.VoucherStatus
}

type Customers interface {
	CreateCustomer(ctx context.Context, c *models.Customer) error
	GetCustomer(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	FindCustomerByPhone(ctx context.Context, phone string) (*models.Customer, error)
	ListCustomers(ctx context.Context, f CustomerFilter) ([]models.Customer, int64, error)
	CountCustomers(ctx context.Context, from, to time.Time) (int64, error)
	UpdateCustomer(ctx context.Context, id uuid.UUID, patch CustomerPatch) error
	DeleteCustomer(ctx context.Context, id uuid.UUID) error

	// AddPoints increments the balance in a single write and returns the new
	// balance.
	AddPoints(ctx context.Context, id uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error)
	// DeductPoints decrements the balance only when it covers points, and
	// optionally replaces the note in the same write. It returns
	// ErrInsufficientPoints and leaves the row untouched otherwise.
	DeductPoints(ctx context.Context, id uuid.UUID, points decimal.Decimal, note *string) (decimal.Decimal, error)
}

type Orders interface {
	CreateOrder(ctx context.Context, o *models.Order) error
	GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListOrders(ctx context.Context, f OrderFilter) ([]models.Order, int64, error)
	UpdateOrder(ctx context.Context, o *models.Order) error
	DeleteOrder(ctx context.Context, id uuid.UUID) error

	// TransitionOrderStatus moves the order from one status to another only
	// if it is still in from. The boolean reports whether this call made the
	// change.
	TransitionOrderStatus(ctx context.Context, id uuid.UUID, from, to models.OrderStatus) (bool, error)
}

type Vouchers interface {
	CreateVoucher(ctx context.Context, v *models.Voucher) error
	GetVoucher(ctx context.Context, id uuid.UUID) (*models.Voucher, error)
	FindVoucherByCode(ctx context.Context, code string) (*models.Voucher, error)
	ListVouchers(ctx context.Context) ([]models.Voucher, error)
	UpdateVoucher(ctx context.Context, id uuid.UUID, patch VoucherPatch) error
	DeleteVoucher(ctx context.Context, id uuid.UUID) error
}

type PointTransactions interface {
	RecordPointTransaction(ctx context.Context, t *models.PointTransaction) error
	ListPointTransactions(ctx context.Context, customerID uuid.UUID) ([]models.PointTransaction, error)
}

type Admins interface {
	CreateAdmin(ctx context.Context, a *models.AdminUser) error
	FindAdminByUsername(ctx context.Context, username string) (*models.AdminUser, error)
}

// Store is the full record store. Transaction runs fn against a store whose
// writes commit together or not at all.
type Store interface {
	Customers
	Orders
	Vouchers
	PointTransactions
	Admins

	Transaction(ctx context.Context, fn func(tx Store) error) error
}
