package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/example/bloomdesk/internal/models"
)

type memState struct {
	mu        sync.Mutex
	seq       int64
	order     map[uuid.UUID]int64
	customers map[uuid.UUID]models.Customer
	orders    map[uuid.UUID]models.Order
	vouchers  map[uuid.UUID]models.Voucher
	admins    map[uuid.UUID]models.AdminUser
	points    []models.PointTransaction
}

func newMemState() *memState {
	return &memState{
		order:     map[uuid.UUID]int64{},
		customers: map[uuid.UUID]models.Customer{},
		orders:    map[uuid.UUID]models.Order{},
		vouchers:  map[uuid.UUID]models.Voucher{},
		admins:    map[uuid.UUID]models.AdminUser{},
	}
}

func (m *memState) clone() *memState {
	c := newMemState()
	c.seq = m.seq
	for k, v := range m.order {
		c.order[k] = v
	}
	for k, v := range m.customers {
		c.customers[k] = v
	}
	for k, v := range m.orders {
		c.orders[k] = cloneOrder(v)
	}
	for k, v := range m.vouchers {
		c.vouchers[k] = v
	}
	for k, v := range m.admins {
		c.admins[k] = v
	}
	c.points = append([]models.PointTransaction(nil), m.points...)
	return c
}

func (m *memState) restore(from *memState) {
	m.seq = from.seq
	m.order = from.order
	m.customers = from.customers
	m.orders = from.orders
	m.vouchers = from.vouchers
	m.admins = from.admins
	m.points = from.points
}

func cloneOrder(o models.Order) models.Order {
	if o.VoucherCode != nil {
		code := *o.VoucherCode
		o.VoucherCode = &code
	}
	if o.CustomerID != nil {
		id := *o.CustomerID
		o.CustomerID = &id
	}
	return o
}

// MemoryStore is an in-process Store. Every call is serialized on one mutex;
// Transaction holds it for the whole callback and restores a snapshot when the
// callback fails.
type MemoryStore struct {
	state *memState
	inTx  bool
	now   func() time.Time
}

// NewMemoryStore returns an empty store stamping records with time.Now.
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithClock(time.Now)
}

// NewMemoryStoreWithClock returns an empty store stamping records with now.
func NewMemoryStoreWithClock(now func() time.Time) *MemoryStore {
	return &MemoryStore{state: newMemState(), now: now}
}

func (s *MemoryStore) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.state.mu.Lock()
	return s.state.mu.Unlock
}

func (s *MemoryStore) stamp(b *models.BaseModel) {
	b.EnsureID()
	now := s.now()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
	s.state.seq++
	s.state.order[b.ID] = s.state.seq
}

func (s *MemoryStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	snapshot := s.state.clone()
	if err := fn(&MemoryStore{state: s.state, inTx: true, now: s.now}); err != nil {
		s.state.restore(snapshot)
		return err
	}
	return nil
}

// newestFirst sorts ids by creation time, newest first, falling back to
// insertion order.
func (s *MemoryStore) newestFirst(ids []uuid.UUID, created func(uuid.UUID) time.Time) {
	sort.SliceStable(ids, func(i, j int) bool {
		ci, cj := created(ids[i]), created(ids[j])
		if !ci.Equal(cj) {
			return ci.After(cj)
		}
		return s.state.order[ids[i]] > s.state.order[ids[j]]
	})
}

func page[T any](items []T, limit, offset int) []T {
	if limit <= 0 {
		return items
	}
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// Customers

func (s *MemoryStore) CreateCustomer(ctx context.Context, c *models.Customer) error {
	defer s.lock()()
	for _, existing := range s.state.customers {
		if existing.Phone == c.Phone {
			return ErrDuplicate
		}
	}
	s.stamp(&c.BaseModel)
	s.state.customers[c.ID] = *c
	return nil
}

func (s *MemoryStore) GetCustomer(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	defer s.lock()()
	c, ok := s.state.customers[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (s *MemoryStore) FindCustomerByPhone(ctx context.Context, phone string) (*models.Customer, error) {
	defer s.lock()()
	for _, c := range s.state.customers {
		if c.Phone == phone {
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListCustomers(ctx context.Context, f CustomerFilter) ([]models.Customer, int64, error) {
	defer s.lock()()
	search := strings.ToLower(f.Search)
	var ids []uuid.UUID
	for id, c := range s.state.customers {
		if search != "" && !strings.Contains(strings.ToLower(c.Name), search) && !strings.Contains(c.Phone, f.Search) {
			continue
		}
		ids = append(ids, id)
	}
	s.newestFirst(ids, func(id uuid.UUID) time.Time { return s.state.customers[id].CreatedAt })

	items := make([]models.Customer, 0, len(ids))
	for _, id := range ids {
		items = append(items, s.state.customers[id])
	}
	return page(items, f.Limit, f.Offset), int64(len(items)), nil
}

func (s *MemoryStore) CountCustomers(ctx context.Context, from, to time.Time) (int64, error) {
	defer s.lock()()
	var n int64
	for _, c := range s.state.customers {
		if !c.CreatedAt.Before(from) && !c.CreatedAt.After(to) {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) UpdateCustomer(ctx context.Context, id uuid.UUID, patch CustomerPatch) error {
	defer s.lock()()
	c, ok := s.state.customers[id]
	if !ok {
		return ErrNotFound
	}
	if patch.Phone != nil {
		for otherID, other := range s.state.customers {
			if otherID != id && other.Phone == *patch.Phone {
				return ErrDuplicate
			}
		}
		c.Phone = *patch.Phone
	}
	if patch.Name != nil {
		c.Name = *patch.Name
	}
	if patch.Note != nil {
		c.Note = *patch.Note
	}
	c.UpdatedAt = s.now()
	s.state.customers[id] = c
	return nil
}

func (s *MemoryStore) DeleteCustomer(ctx context.Context, id uuid.UUID) error {
	defer s.lock()()
	if _, ok := s.state.customers[id]; !ok {
		return ErrNotFound
	}
	delete(s.state.customers, id)
	return nil
}

func (s *MemoryStore) AddPoints(ctx context.Context, id uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	defer s.lock()()
	c, ok := s.state.customers[id]
	if !ok {
		return decimal.Zero, ErrNotFound
	}
	c.Point = c.Point.Add(delta)
	c.UpdatedAt = s.now()
	s.state.customers[id] = c
	return c.Point, nil
}

func (s *MemoryStore) DeductPoints(ctx context.Context, id uuid.UUID, points decimal.Decimal, note *string) (decimal.Decimal, error) {
	defer s.lock()()
	c, ok := s.state.customers[id]
	if !ok {
		return decimal.Zero, ErrNotFound
	}
	if c.Point.LessThan(points) {
		return decimal.Zero, ErrInsufficientPoints
	}
	c.Point = c.Point.Sub(points)
	if note != nil {
		c.Note = *note
	}
	c.UpdatedAt = s.now()
	s.state.customers[id] = c
	return c.Point, nil
}

// Orders

func (s *MemoryStore) voucherTaken(code *string, self uuid.UUID) bool {
	if code == nil {
		return false
	}
	for id, o := range s.state.orders {
		if id != self && o.VoucherCode != nil && *o.VoucherCode == *code {
			return true
		}
	}
	return false
}

func (s *MemoryStore) CreateOrder(ctx context.Context, o *models.Order) error {
	defer s.lock()()
	if s.voucherTaken(o.VoucherCode, uuid.Nil) {
		return ErrDuplicate
	}
	s.stamp(&o.BaseModel)
	s.state.orders[o.ID] = cloneOrder(*o)
	return nil
}

func (s *MemoryStore) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	defer s.lock()()
	o, ok := s.state.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	o = cloneOrder(o)
	return &o, nil
}

func (f OrderFilter) matches(o models.Order) bool {
	if f.CustomerID != nil && (o.CustomerID == nil || *o.CustomerID != *f.CustomerID) {
		return false
	}
	if f.Phone != "" && o.CustomerPhone != f.Phone {
		return false
	}
	if f.VoucherCode != "" && (o.VoucherCode == nil || *o.VoucherCode != f.VoucherCode) {
		return false
	}
	if len(f.Statuses) > 0 {
		found := false
		for _, st := range f.Statuses {
			if o.Status == st {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.From != nil && o.CreatedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && o.CreatedAt.After(*f.To) {
		return false
	}
	return true
}

func (s *MemoryStore) ListOrders(ctx context.Context, f OrderFilter) ([]models.Order, int64, error) {
	defer s.lock()()
	var ids []uuid.UUID
	for id, o := range s.state.orders {
		if f.matches(o) {
			ids = append(ids, id)
		}
	}
	s.newestFirst(ids, func(id uuid.UUID) time.Time { return s.state.orders[id].CreatedAt })

	items := make([]models.Order, 0, len(ids))
	for _, id := range ids {
		items = append(items, cloneOrder(s.state.orders[id]))
	}
	return page(items, f.Limit, f.Offset), int64(len(items)), nil
}

func (s *MemoryStore) UpdateOrder(ctx context.Context, o *models.Order) error {
	defer s.lock()()
	existing, ok := s.state.orders[o.ID]
	if !ok {
		return ErrNotFound
	}
	if s.voucherTaken(o.VoucherCode, o.ID) {
		return ErrDuplicate
	}
	existing.CustomerName = o.CustomerName
	existing.CustomerPhone = o.CustomerPhone
	existing.CustomerAddress = o.CustomerAddress
	existing.Product = o.Product
	existing.Amount = o.Amount
	existing.VoucherCode = o.VoucherCode
	existing.VoucherDiscount = o.VoucherDiscount
	existing.FinalAmount = o.FinalAmount
	existing.UpdatedAt = s.now()
	s.state.orders[o.ID] = cloneOrder(existing)
	return nil
}

func (s *MemoryStore) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	defer s.lock()()
	if _, ok := s.state.orders[id]; !ok {
		return ErrNotFound
	}
	delete(s.state.orders, id)
	return nil
}

func (s *MemoryStore) TransitionOrderStatus(ctx context.Context, id uuid.UUID, from, to models.OrderStatus) (bool, error) {
	defer s.lock()()
	o, ok := s.state.orders[id]
	if !ok {
		return false, ErrNotFound
	}
	if o.Status != from {
		return false, nil
	}
	o.Status = to
	o.UpdatedAt = s.now()
	s.state.orders[id] = o
	return true, nil
}

// Vouchers

func (s *MemoryStore) CreateVoucher(ctx context.Context, v *models.Voucher) error {
	defer s.lock()()
	for _, existing := range s.state.vouchers {
		if existing.Code == v.Code {
			return ErrDuplicate
		}
	}
	s.stamp(&v.BaseModel)
	s.state.vouchers[v.ID] = *v
	return nil
}

func (s *MemoryStore) GetVoucher(ctx context.Context, id uuid.UUID) (*models.Voucher, error) {
	defer s.lock()()
	v, ok := s.state.vouchers[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &v, nil
}

func (s *MemoryStore) FindVoucherByCode(ctx context.Context, code string) (*models.Voucher, error) {
	defer s.lock()()
	for _, v := range s.state.vouchers {
		if v.Code == code {
			return &v, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListVouchers(ctx context.Context) ([]models.Voucher, error) {
	defer s.lock()()
	ids := make([]uuid.UUID, 0, len(s.state.vouchers))
	for id := range s.state.vouchers {
		ids = append(ids, id)
	}
	s.newestFirst(ids, func(id uuid.UUID) time.Time { return s.state.vouchers[id].CreatedAt })

	items := make([]models.Voucher, 0, len(ids))
	for _, id := range ids {
		items = append(items, s.state.vouchers[id])
	}
	return items, nil
}

func (s *MemoryStore) UpdateVoucher(ctx context.Context, id uuid.UUID, patch VoucherPatch) error {
	defer s.lock()()
	v, ok := s.state.vouchers[id]
	if !ok {
		return ErrNotFound
	}
	if patch.Discount != nil {
		v.Discount = *patch.Discount
	}
	if patch.ExpiredAt != nil {
		v.ExpiredAt = *patch.ExpiredAt
	}
	if patch.Status != nil {
		v.Status = *patch.Status
	}
	v.UpdatedAt = s.now()
	s.state.vouchers[id] = v
	return nil
}

func (s *MemoryStore) DeleteVoucher(ctx context.Context, id uuid.UUID) error {
	defer s.lock()()
	if _, ok := s.state.vouchers[id]; !ok {
		return ErrNotFound
	}
	delete(s.state.vouchers, id)
	return nil
}

// Point postings

func (s *MemoryStore) RecordPointTransaction(ctx context.Context, t *models.PointTransaction) error {
	defer s.lock()()
	s.stamp(&t.BaseModel)
	s.state.points = append(s.state.points, *t)
	return nil
}

func (s *MemoryStore) ListPointTransactions(ctx context.Context, customerID uuid.UUID) ([]models.PointTransaction, error) {
	defer s.lock()()
	var items []models.PointTransaction
	for i := len(s.state.points) - 1; i >= 0; i-- {
		if s.state.points[i].CustomerID == customerID {
			items = append(items, s.state.points[i])
		}
	}
	return items, nil
}

// Admins

func (s *MemoryStore) CreateAdmin(ctx context.Context, a *models.AdminUser) error {
	defer s.lock()()
	for _, existing := range s.state.admins {
		if existing.Username == a.Username {
			return ErrDuplicate
		}
	}
	s.stamp(&a.BaseModel)
	s.state.admins[a.ID] = *a
	return nil
}

func (s *MemoryStore) FindAdminByUsername(ctx context.Context, username string) (*models.AdminUser, error) {
	defer s.lock()()
	for _, a := range s.state.admins {
		if a.Username == username {
			return &a, nil
		}
	}
	return nil, ErrNotFound
}
