package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/bloomdesk/internal/models"
	"github.com/example/bloomdesk/internal/store"
)

var testNow = time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)

func seedVoucher(t *testing.T, s store.Store, code string, discount int, expiredAt time.Time, status models.VoucherStatus) models.Voucher {
	t.Helper()
	v := models.Voucher{Code: code, Discount: discount, ExpiredAt: expiredAt, Status: status}
	require.NoError(t, s.CreateVoucher(context.Background(), &v))
	return v
}

func seedOrder(t *testing.T, s store.Store, o models.Order) models.Order {
	t.Helper()
	if o.Product == "" {
		o.Product = "Bouquet"
	}
	if o.Status == "" {
		o.Status = models.OrderStatusPending
	}
	if o.FinalAmount == 0 {
		o.FinalAmount = o.Amount
	}
	require.NoError(t, s.CreateOrder(context.Background(), &o))
	return o
}

func newTestValidator(s store.Store) *VoucherValidator {
	v := NewVoucherValidator(s)
	v.now = func() time.Time { return testNow }
	return v
}

func TestApplyPercent(t *testing.T) {
	assert.EqualValues(t, 50000, ApplyPercent(500000, 10))
	assert.EqualValues(t, 500000, ApplyPercent(500000, 100))
	// 0.5 rounds up.
	assert.EqualValues(t, 1, ApplyPercent(5, 10))
	assert.EqualValues(t, 0, ApplyPercent(4, 10))
	assert.EqualValues(t, 33334, ApplyPercent(333335, 10))
}

func TestVoucherValidator_Validate(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	v := newTestValidator(s)
	seedVoucher(t, s, "SALE10", 10, testNow.Add(24*time.Hour), models.VoucherStatusActive)

	settlement, err := v.Validate(ctx, " sale10 ", 500000, nil)
	require.NoError(t, err)
	assert.Equal(t, Settlement{
		Code:        "SALE10",
		Percent:     10,
		Amount:      500000,
		Discount:    50000,
		FinalAmount: 450000,
	}, settlement)
}

func TestVoucherValidator_Rejections(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	v := newTestValidator(s)

	seedVoucher(t, s, "OLD", 10, testNow.Add(-time.Minute), models.VoucherStatusActive)
	seedVoucher(t, s, "MANUAL", 10, testNow.Add(24*time.Hour), models.VoucherStatusExpired)
	seedVoucher(t, s, "TAKEN", 20, testNow.Add(24*time.Hour), models.VoucherStatusActive)

	taken := "TAKEN"
	seedOrder(t, s, models.Order{Amount: 100000, Status: models.OrderStatusCancelled, VoucherCode: &taken})

	t.Run("unknown code", func(t *testing.T) {
		_, err := v.Validate(ctx, "NOPE", 1000, nil)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("expiry in the past", func(t *testing.T) {
		_, err := v.Validate(ctx, "OLD", 1000, nil)
		assert.ErrorIs(t, err, ErrExpired)
	})

	t.Run("marked expired", func(t *testing.T) {
		_, err := v.Validate(ctx, "MANUAL", 1000, nil)
		assert.ErrorIs(t, err, ErrExpired)
	})

	t.Run("bound to a cancelled order still counts as used", func(t *testing.T) {
		_, err := v.Validate(ctx, "TAKEN", 1000, nil)
		assert.ErrorIs(t, err, ErrAlreadyUsed)
	})

	t.Run("missing input", func(t *testing.T) {
		var verr *ValidationError
		_, err := v.Validate(ctx, "  ", 1000, nil)
		assert.ErrorAs(t, err, &verr)

		_, err = v.Validate(ctx, "TAKEN", 0, nil)
		assert.ErrorAs(t, err, &verr)
	})
}

func TestVoucherValidator_ExcludeOwnOrder(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	v := newTestValidator(s)
	seedVoucher(t, s, "SALE10", 10, testNow.Add(24*time.Hour), models.VoucherStatusActive)

	code := "SALE10"
	owner := seedOrder(t, s, models.Order{Amount: 200000, VoucherCode: &code})

	first, err := v.Validate(ctx, code, 300000, &owner.ID)
	require.NoError(t, err)
	second, err := v.Validate(ctx, code, 300000, &owner.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.EqualValues(t, 30000, first.Discount)

	other := uuid.New()
	_, err = v.Validate(ctx, code, 300000, &other)
	assert.ErrorIs(t, err, ErrAlreadyUsed)
}

func TestVoucherService_Create(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	svc := NewVoucherService(s, FixedOffsetCalendar(7))
	svc.now = func() time.Time { return testNow }

	t.Run("explicit code", func(t *testing.T) {
		view, err := svc.Create(ctx, CreateVoucherInput{Code: "summer", Discount: 15, ExpiredAt: "2024-06-30"})
		require.NoError(t, err)
		assert.Equal(t, "SUMMER", view.Code)
		assert.Equal(t, models.VoucherStatusActive, view.EffectiveStatus)
		assert.Equal(t, "2024-06-30T23:59:59+07:00", view.ExpiredAt.Format(time.RFC3339))
	})

	t.Run("duplicate code", func(t *testing.T) {
		_, err := svc.Create(ctx, CreateVoucherInput{Code: "SUMMER", Discount: 15, ExpiredAt: "2024-06-30"})
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("generated code", func(t *testing.T) {
		view, err := svc.Create(ctx, CreateVoucherInput{Discount: 5, ExpiredAt: "2024-07-01"})
		require.NoError(t, err)
		assert.Len(t, view.Code, voucherCodeLength)
		assert.Regexp(t, `^[A-Z0-9]+$`, view.Code)
	})

	t.Run("invalid discount", func(t *testing.T) {
		var verr *ValidationError
		_, err := svc.Create(ctx, CreateVoucherInput{Code: "ZERO", Discount: 0, ExpiredAt: "2024-07-01"})
		assert.ErrorAs(t, err, &verr)
		_, err = svc.Create(ctx, CreateVoucherInput{Code: "HUGE", Discount: 101, ExpiredAt: "2024-07-01"})
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("past expiry shows as expired", func(t *testing.T) {
		view, err := svc.Create(ctx, CreateVoucherInput{Code: "GONE", Discount: 5, ExpiredAt: "2024-01-01"})
		require.NoError(t, err)
		assert.Equal(t, models.VoucherStatusExpired, view.EffectiveStatus)
	})
}

func TestVoucherService_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	svc := NewVoucherService(s, FixedOffsetCalendar(7))
	svc.now = func() time.Time { return testNow }

	v := seedVoucher(t, s, "FLASH", 10, testNow.Add(48*time.Hour), models.VoucherStatusActive)

	expired := string(models.VoucherStatusExpired)
	view, err := svc.Update(ctx, v.ID, UpdateVoucherInput{Status: &expired})
	require.NoError(t, err)
	assert.Equal(t, models.VoucherStatusExpired, view.EffectiveStatus)

	bogus := "paused"
	_, err = svc.Update(ctx, v.ID, UpdateVoucherInput{Status: &bogus})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = svc.Update(ctx, uuid.New(), UpdateVoucherInput{})
	assert.ErrorIs(t, err, ErrNotFound)
}
