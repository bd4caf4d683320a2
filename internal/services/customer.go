package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/example/bloomdesk/internal/models"
	"github.com/example/bloomdesk/internal/store"
)

const unknownCustomerName = "Unknown"

type CreateCustomerInput struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Note  string `json:"note"`
}

type UpdateCustomerInput struct {
	Name  *string `json:"name"`
	Phone *string `json:"phone"`
	Note  *string `json:"note"`
}

// CustomerService manages customer records.
type CustomerService struct {
	store store.Store
}

// NewCustomerService constructs a CustomerService.
func NewCustomerService(s store.Store) *CustomerService {
	return &CustomerService{store: s}
}

func (s *CustomerService) Create(ctx context.Context, in CreateCustomerInput) (*models.Customer, error) {
	name := strings.TrimSpace(in.Name)
	phone := strings.TrimSpace(in.Phone)
	if name == "" || phone == "" {
		return nil, invalid("name and phone are required")
	}

	c := models.Customer{Name: name, Phone: phone, Note: strings.TrimSpace(in.Note), Point: decimal.Zero}
	if err := s.store.CreateCustomer(ctx, &c); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, invalid("phone %s already exists", phone)
		}
		return nil, wrapStore(err, "customer")
	}
	return &c, nil
}

func (s *CustomerService) Get(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	c, err := s.store.GetCustomer(ctx, id)
	if err != nil {
		return nil, wrapStore(err, "customer")
	}
	return c, nil
}

func (s *CustomerService) List(ctx context.Context, f store.CustomerFilter) ([]models.Customer, int64, error) {
	f.Search = strings.TrimSpace(f.Search)
	items, total, err := s.store.ListCustomers(ctx, f)
	if err != nil {
		return nil, 0, wrapStore(err, "customers")
	}
	return items, total, nil
}

// Update edits name, phone or note. Orders keep their own snapshot.
func (s *CustomerService) Update(ctx context.Context, id uuid.UUID, in UpdateCustomerInput) (*models.Customer, error) {
	var patch store.CustomerPatch
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, invalid("name cannot be empty")
		}
		patch.Name = &name
	}
	if in.Phone != nil {
		phone := strings.TrimSpace(*in.Phone)
		if phone == "" {
			return nil, invalid("phone cannot be empty")
		}
		patch.Phone = &phone
	}
	patch.Note = in.Note

	if err := s.store.UpdateCustomer(ctx, id, patch); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, invalid("phone %s already exists", *patch.Phone)
		}
		return nil, wrapStore(err, "customer")
	}
	return s.Get(ctx, id)
}

// Delete removes the customer; their orders are left in place.
func (s *CustomerService) Delete(ctx context.Context, id uuid.UUID) error {
	return wrapStore(s.store.DeleteCustomer(ctx, id), "customer")
}

// Orders returns the customer's purchase history, newest first.
func (s *CustomerService) Orders(ctx context.Context, id uuid.UUID) ([]models.Order, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	orders, _, err := s.store.ListOrders(ctx, store.OrderFilter{CustomerID: &id})
	if err != nil {
		return nil, wrapStore(err, "orders")
	}
	return orders, nil
}

// SyncFromOrders registers a customer for every order phone that has none
// and returns how many were created.
func (s *CustomerService) SyncFromOrders(ctx context.Context) (int, error) {
	orders, _, err := s.store.ListOrders(ctx, store.OrderFilter{})
	if err != nil {
		return 0, wrapStore(err, "orders")
	}

	seen := map[string]bool{}
	created := 0
	// Oldest first so the earliest snapshot name wins.
	for i := len(orders) - 1; i >= 0; i-- {
		o := orders[i]
		phone := strings.TrimSpace(o.CustomerPhone)
		if phone == "" || seen[phone] {
			continue
		}
		seen[phone] = true

		if _, err := s.store.FindCustomerByPhone(ctx, phone); err == nil {
			continue
		} else if !errors.Is(err, store.ErrNotFound) {
			return created, wrapStore(err, "customer")
		}

		name := strings.TrimSpace(o.CustomerName)
		if name == "" {
			name = unknownCustomerName
		}
		c := models.Customer{Name: name, Phone: phone, Point: decimal.Zero}
		if err := s.store.CreateCustomer(ctx, &c); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				continue
			}
			return created, wrapStore(err, "customer")
		}
		created++
	}

	log.Info().Int("created", created).Msg("customers synced from orders")
	return created, nil
}
