package services

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/example/bloomdesk/internal/models"
	"github.com/example/bloomdesk/internal/store"
)

const (
	voucherCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	voucherCodeLength   = 9
)

// NormalizeVoucherCode trims and upper-cases a code as typed by an operator.
func NormalizeVoucherCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Settlement is the outcome of applying a voucher to an order amount.
type Settlement struct {
	Code        string `json:"code"`
	Percent     int    `json:"percent"`
	Amount      int64  `json:"amount"`
	Discount    int64  `json:"discount"`
	FinalAmount int64  `json:"final_amount"`
}

// ApplyPercent returns round(amount * percent / 100), halves rounded up.
func ApplyPercent(amount int64, percent int) int64 {
	discount := decimal.NewFromInt(amount).
		Mul(decimal.NewFromInt(int64(percent))).
		Div(hundred).
		Round(0).
		IntPart()
	if discount > amount {
		return amount
	}
	if discount < 0 {
		return 0
	}
	return discount
}

// VoucherValidator checks whether a code may be applied to an order.
type VoucherValidator struct {
	store store.Store
	now   func() time.Time
}

// NewVoucherValidator constructs a VoucherValidator using the wall clock.
func NewVoucherValidator(s store.Store) *VoucherValidator {
	return &VoucherValidator{store: s, now: time.Now}
}

func (v *VoucherValidator) with(s store.Store) *VoucherValidator {
	return &VoucherValidator{store: s, now: v.now}
}

// Validate looks the code up, rejects expired or already bound vouchers and
// computes the discount. excludeOrderID lets an order keep its own voucher
// while it is being edited.
func (v *VoucherValidator) Validate(ctx context.Context, code string, amount int64, excludeOrderID *uuid.UUID) (Settlement, error) {
	code = NormalizeVoucherCode(code)
	if code == "" {
		return Settlement{}, invalid("voucher code is required")
	}
	if amount <= 0 {
		return Settlement{}, invalid("amount must be positive")
	}

	voucher, err := v.store.FindVoucherByCode(ctx, code)
	if err != nil {
		return Settlement{}, wrapStore(err, "voucher "+code)
	}

	if voucher.IsExpired(v.now()) {
		return Settlement{}, ErrExpired
	}

	bound, _, err := v.store.ListOrders(ctx, store.OrderFilter{
		VoucherCode: code,
		Statuses:    models.AllOrderStatuses,
	})
	if err != nil {
		return Settlement{}, wrapStore(err, "orders")
	}
	for _, o := range bound {
		if excludeOrderID == nil || o.ID != *excludeOrderID {
			return Settlement{}, ErrAlreadyUsed
		}
	}

	discount := ApplyPercent(amount, voucher.Discount)
	return Settlement{
		Code:        code,
		Percent:     voucher.Discount,
		Amount:      amount,
		Discount:    discount,
		FinalAmount: amount - discount,
	}, nil
}

// VoucherView is a voucher with lazy expiry applied.
type VoucherView struct {
	models.Voucher
	EffectiveStatus models.VoucherStatus `json:"effective_status"`
}

// CreateVoucherInput carries a new voucher. An empty Code asks for a
// generated one; ExpiredAt is a YYYY-MM-DD business date.
type CreateVoucherInput struct {
	Code      string `json:"code"`
	Discount  int    `json:"discount"`
	ExpiredAt string `json:"expired_at"`
}

// UpdateVoucherInput carries voucher edits; nil fields are left alone.
type UpdateVoucherInput struct {
	Discount  *int    `json:"discount"`
	ExpiredAt *string `json:"expired_at"`
	Status    *string `json:"status"`
}

// VoucherService manages the voucher catalogue.
type VoucherService struct {
	store    store.Store
	calendar BusinessCalendar
	now      func() time.Time
}

// NewVoucherService constructs a VoucherService.
func NewVoucherService(s store.Store, calendar BusinessCalendar) *VoucherService {
	return &VoucherService{store: s, calendar: calendar, now: time.Now}
}

// GenerateVoucherCode returns a random 9-character code over A-Z0-9.
func GenerateVoucherCode() (string, error) {
	limit := big.NewInt(int64(len(voucherCodeAlphabet)))
	var b strings.Builder
	for i := 0; i < voucherCodeLength; i++ {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		b.WriteByte(voucherCodeAlphabet[n.Int64()])
	}
	return b.String(), nil
}

func validPercent(p int) bool { return p >= 1 && p <= 100 }

func (s *VoucherService) view(v models.Voucher) VoucherView {
	return VoucherView{Voucher: v, EffectiveStatus: v.EffectiveStatus(s.now())}
}

// Create stores a new active voucher.
func (s *VoucherService) Create(ctx context.Context, in CreateVoucherInput) (*VoucherView, error) {
	if !validPercent(in.Discount) {
		return nil, invalid("discount must be between 1 and 100")
	}
	if strings.TrimSpace(in.ExpiredAt) == "" {
		return nil, invalid("expired_at is required")
	}
	expiredAt, err := s.calendar.EndOfDate(strings.TrimSpace(in.ExpiredAt))
	if err != nil {
		return nil, err
	}

	generated := in.Code == ""
	code := NormalizeVoucherCode(in.Code)
	for attempt := 0; attempt < 3; attempt++ {
		if generated {
			if code, err = GenerateVoucherCode(); err != nil {
				return nil, &StoreError{Err: err}
			}
		}

		v := models.Voucher{
			Code:      code,
			Discount:  in.Discount,
			ExpiredAt: expiredAt,
			Status:    models.VoucherStatusActive,
		}
		err = s.store.CreateVoucher(ctx, &v)
		if err == nil {
			out := s.view(v)
			return &out, nil
		}
		if !errors.Is(err, store.ErrDuplicate) {
			return nil, wrapStore(err, "voucher")
		}
		if !generated {
			return nil, invalid("voucher code %s already exists", code)
		}
	}
	return nil, invalid("could not generate a unique voucher code")
}

// List returns all vouchers, newest first.
func (s *VoucherService) List(ctx context.Context) ([]VoucherView, error) {
	items, err := s.store.ListVouchers(ctx)
	if err != nil {
		return nil, wrapStore(err, "vouchers")
	}
	out := make([]VoucherView, 0, len(items))
	for _, v := range items {
		out = append(out, s.view(v))
	}
	return out, nil
}

// Update edits the discount, expiry date or manual status of a voucher.
func (s *VoucherService) Update(ctx context.Context, id uuid.UUID, in UpdateVoucherInput) (*VoucherView, error) {
	var patch store.VoucherPatch
	if in.Discount != nil {
		if !validPercent(*in.Discount) {
			return nil, invalid("discount must be between 1 and 100")
		}
		patch.Discount = in.Discount
	}
	if in.ExpiredAt != nil {
		t, err := s.calendar.EndOfDate(strings.TrimSpace(*in.ExpiredAt))
		if err != nil {
			return nil, err
		}
		patch.ExpiredAt = &t
	}
	if in.Status != nil {
		status := models.VoucherStatus(*in.Status)
		if status != models.VoucherStatusActive && status != models.VoucherStatusExpired {
			return nil, invalid("status must be active or expired")
		}
		patch.Status = &status
	}

	if err := s.store.UpdateVoucher(ctx, id, patch); err != nil {
		return nil, wrapStore(err, "voucher")
	}
	v, err := s.store.GetVoucher(ctx, id)
	if err != nil {
		return nil, wrapStore(err, "voucher")
	}
	out := s.view(*v)
	return &out, nil
}

// Delete removes a voucher. Orders keep the code they were settled with.
func (s *VoucherService) Delete(ctx context.Context, id uuid.UUID) error {
	return wrapStore(s.store.DeleteVoucher(ctx, id), "voucher")
}
