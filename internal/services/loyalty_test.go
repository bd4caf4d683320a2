package services

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/bloomdesk/internal/models"
	"github.com/example/bloomdesk/internal/store"
)

func seedCustomer(t *testing.T, s store.Store, phone string, points string) models.Customer {
	t.Helper()
	c := models.Customer{Name: "Lan", Phone: phone, Point: decimal.RequireFromString(points)}
	require.NoError(t, s.CreateCustomer(context.Background(), &c))
	return c
}

func TestComputeAccrual(t *testing.T) {
	tests := []struct {
		amount int64
		want   string
	}{
		{amount: 0, want: "0.00"},
		{amount: -500, want: "0.00"},
		{amount: 1, want: "0.01"},
		{amount: 99, want: "0.99"},
		{amount: 100000, want: "1000.00"},
		{amount: 300000, want: "3000.00"},
		{amount: 123456, want: "1234.56"},
		{amount: 150001, want: "1500.01"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ComputeAccrual(tt.amount).StringFixed(2), "amount %d", tt.amount)
	}
}

func TestComputeAccrualIsMonotonic(t *testing.T) {
	prev := ComputeAccrual(0)
	for amount := int64(1); amount <= 5000; amount += 7 {
		got := ComputeAccrual(amount)
		assert.False(t, got.LessThan(prev), "accrual decreased at %d", amount)
		assert.True(t, got.Equal(got.Truncate(2)), "more than two decimals at %d", amount)
		prev = got
	}
}

func TestLoyaltyLedger_ApplyAccrualRecordsPosting(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	c := seedCustomer(t, s, "0901", "0")
	ledger := NewLoyaltyLedger(s)
	orderID := uuid.New()

	points, err := ledger.ApplyAccrual(ctx, c.ID, 250000, &orderID)
	require.NoError(t, err)
	assert.Equal(t, "2500.00", points.StringFixed(2))

	history, err := ledger.History(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.PointAccrual, history[0].Kind)
	assert.Equal(t, orderID, *history[0].OrderID)
	assert.Equal(t, "2500.00", history[0].BalanceAfter.StringFixed(2))
}

func TestLoyaltyLedger_ApplyAccrualUnknownCustomer(t *testing.T) {
	ledger := NewLoyaltyLedger(store.NewMemoryStore())

	_, err := ledger.ApplyAccrual(context.Background(), uuid.New(), 100000, nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoyaltyLedger_ConcurrentAccrualsLoseNothing(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	c := seedCustomer(t, s, "0902", "0")
	ledger := NewLoyaltyLedger(s)

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.ApplyAccrual(ctx, c.ID, 100000, nil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := s.GetCustomer(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "25000.00", got.Point.StringFixed(2))
}

func TestLoyaltyLedger_ApplyDeduction(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	c := seedCustomer(t, s, "0903", "1500")
	ledger := NewLoyaltyLedger(s)

	t.Run("reduces balance and replaces note", func(t *testing.T) {
		note := "gift wrap"
		balance, err := ledger.ApplyDeduction(ctx, c.ID, decimal.NewFromInt(500), &note)
		require.NoError(t, err)
		assert.Equal(t, "1000.00", balance.StringFixed(2))

		got, err := s.GetCustomer(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, "gift wrap", got.Note)
	})

	t.Run("insufficient points leave balance unchanged", func(t *testing.T) {
		_, err := ledger.ApplyDeduction(ctx, c.ID, decimal.NewFromInt(1001), nil)
		assert.ErrorIs(t, err, ErrInsufficientPoints)

		got, err := s.GetCustomer(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, "1000.00", got.Point.StringFixed(2))
	})

	t.Run("non-positive amounts are rejected", func(t *testing.T) {
		_, err := ledger.ApplyDeduction(ctx, c.ID, decimal.Zero, nil)
		assert.ErrorIs(t, err, ErrInvalidAmount)

		_, err = ledger.ApplyDeduction(ctx, c.ID, decimal.NewFromInt(-5), nil)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("unknown customer", func(t *testing.T) {
		_, err := ledger.ApplyDeduction(ctx, uuid.New(), decimal.NewFromInt(1), nil)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("exact balance empties the account", func(t *testing.T) {
		balance, err := ledger.ApplyDeduction(ctx, c.ID, decimal.NewFromInt(1000), nil)
		require.NoError(t, err)
		assert.True(t, balance.IsZero())
	})
}
