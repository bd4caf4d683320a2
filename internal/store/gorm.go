package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/bloomdesk/internal/models"
)

// GormStore implements Store on top of a GORM connection. The connection must
// be opened with TranslateError enabled so unique violations surface as
// ErrDuplicate.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps db.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	return err
}

func (s *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

// Customers

func (s *GormStore) CreateCustomer(ctx context.Context, c *models.Customer) error {
	return translate(s.db.WithContext(ctx).Create(c).Error)
}

func (s *GormStore) GetCustomer(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	var c models.Customer
	if err := s.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (s *GormStore) FindCustomerByPhone(ctx context.Context, phone string) (*models.Customer, error) {
	var c models.Customer
	if err := s.db.WithContext(ctx).Where("phone = ?", phone).First(&c).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (s *GormStore) ListCustomers(ctx context.Context, f CustomerFilter) ([]models.Customer, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Customer{})
	if f.Search != "" {
		query = query.Where("name ILIKE ? OR phone LIKE ?", "%"+f.Search+"%", "%"+f.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if f.Limit > 0 {
		query = query.Limit(f.Limit).Offset(f.Offset)
	}

	var items []models.Customer
	if err := query.Order("created_at desc").Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *GormStore) CountCustomers(ctx context.Context, from, to time.Time) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).Model(&models.Customer{}).
		Where("created_at >= ? AND created_at <= ?", from, to).
		Count(&total).Error
	return total, err
}

func (s *GormStore) UpdateCustomer(ctx context.Context, id uuid.UUID, patch CustomerPatch) error {
	updates := map[string]any{}
	if patch.Name != nil {
		updates["name"] = *patch.Name
	}
	if patch.Phone != nil {
		updates["phone"] = *patch.Phone
	}
	if patch.Note != nil {
		updates["note"] = *patch.Note
	}
	if len(updates) == 0 {
		_, err := s.GetCustomer(ctx, id)
		return err
	}

	res := s.db.WithContext(ctx).Model(&models.Customer{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) DeleteCustomer(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Delete(&models.Customer{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) AddPoints(ctx context.Context, id uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	var c models.Customer
	res := s.db.WithContext(ctx).Model(&c).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "point"}}}).
		Where("id = ?", id).
		Update("point", gorm.Expr("point + ?", delta))
	if res.Error != nil {
		return decimal.Zero, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return decimal.Zero, ErrNotFound
	}
	return c.Point, nil
}

func (s *GormStore) DeductPoints(ctx context.Context, id uuid.UUID, points decimal.Decimal, note *string) (decimal.Decimal, error) {
	updates := map[string]any{"point": gorm.Expr("point - ?", points)}
	if note != nil {
		updates["note"] = *note
	}

	var c models.Customer
	res := s.db.WithContext(ctx).Model(&c).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "point"}}}).
		Where("id = ? AND point >= ?", id, points).
		Updates(updates)
	if res.Error != nil {
		return decimal.Zero, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := s.GetCustomer(ctx, id); err != nil {
			return decimal.Zero, err
		}
		return decimal.Zero, ErrInsufficientPoints
	}
	return c.Point, nil
}

// Orders

func (s *GormStore) CreateOrder(ctx context.Context, o *models.Order) error {
	return translate(s.db.WithContext(ctx).Create(o).Error)
}

func (s *GormStore) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var o models.Order
	if err := s.db.WithContext(ctx).First(&o, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

func (s *GormStore) ListOrders(ctx context.Context, f OrderFilter) ([]models.Order, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Order{})
	if f.CustomerID != nil {
		query = query.Where("customer_id = ?", *f.CustomerID)
	}
	if f.Phone != "" {
		query = query.Where("customer_phone = ?", f.Phone)
	}
	if f.VoucherCode != "" {
		query = query.Where("voucher_code = ?", f.VoucherCode)
	}
	if len(f.Statuses) > 0 {
		query = query.Where("status IN ?", f.Statuses)
	}
	if f.From != nil {
		query = query.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		query = query.Where("created_at <= ?", *f.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if f.Limit > 0 {
		query = query.Limit(f.Limit).Offset(f.Offset)
	}

	var orders []models.Order
	if err := query.Order("created_at desc").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (s *GormStore) UpdateOrder(ctx context.Context, o *models.Order) error {
	res := s.db.WithContext(ctx).Model(o).
		Select("customer_name", "customer_phone", "customer_address", "product",
			"amount", "voucher_code", "voucher_discount", "final_amount").
		Updates(o)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Delete(&models.Order{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) TransitionOrderStatus(ctx context.Context, id uuid.UUID, from, to models.OrderStatus) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := s.GetOrder(ctx, id); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

// Vouchers

func (s *GormStore) CreateVoucher(ctx context.Context, v *models.Voucher) error {
	return translate(s.db.WithContext(ctx).Create(v).Error)
}

func (s *GormStore) GetVoucher(ctx context.Context, id uuid.UUID) (*models.Voucher, error) {
	var v models.Voucher
	if err := s.db.WithContext(ctx).First(&v, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &v, nil
}

func (s *GormStore) FindVoucherByCode(ctx context.Context, code string) (*models.Voucher, error) {
	var v models.Voucher
	if err := s.db.WithContext(ctx).Where("code = ?", code).First(&v).Error; err != nil {
		return nil, translate(err)
	}
	return &v, nil
}

func (s *GormStore) ListVouchers(ctx context.Context) ([]models.Voucher, error) {
	var items []models.Voucher
	if err := s.db.WithContext(ctx).Order("created_at desc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *GormStore) UpdateVoucher(ctx context.Context, id uuid.UUID, patch VoucherPatch) error {
	updates := map[string]any{}
	if patch.Discount != nil {
		updates["discount"] = *patch.Discount
	}
	if patch.ExpiredAt != nil {
		updates["expired_at"] = *patch.ExpiredAt
	}
	if patch.Status != nil {
		updates["status"] = *patch.Status
	}
	if len(updates) == 0 {
		_, err := s.GetVoucher(ctx, id)
		return err
	}

	res := s.db.WithContext(ctx).Model(&models.Voucher{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) DeleteVoucher(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Delete(&models.Voucher{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Point postings

func (s *GormStore) RecordPointTransaction(ctx context.Context, t *models.PointTransaction) error {
	return translate(s.db.WithContext(ctx).Create(t).Error)
}

func (s *GormStore) ListPointTransactions(ctx context.Context, customerID uuid.UUID) ([]models.PointTransaction, error) {
	var items []models.PointTransaction
	if err := s.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("occurred_at desc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Admins

func (s *GormStore) CreateAdmin(ctx context.Context, a *models.AdminUser) error {
	return translate(s.db.WithContext(ctx).Create(a).Error)
}

func (s *GormStore) FindAdminByUsername(ctx context.Context, username string) (*models.AdminUser, error) {
	var a models.AdminUser
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&a).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}
