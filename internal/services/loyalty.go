package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/example/bloomdesk/internal/models"
	"github.com/example/bloomdesk/internal/store"
)

var (
	accrualStep    = decimal.NewFromInt(100000)
	accrualPerStep = decimal.NewFromInt(1000)
	hundred        = decimal.NewFromInt(100)
)

// ComputeAccrual returns the points earned for an order amount: 1000 points
// per 100,000 đồng, truncated to two decimal places.
func ComputeAccrual(amount int64) decimal.Decimal {
	if amount <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(amount).
		Div(accrualStep).
		Mul(accrualPerStep).
		Mul(hundred).
		Floor().
		Div(hundred)
}

// LoyaltyLedger posts point changes to customer balances.
type LoyaltyLedger struct {
	store store.Store
	now   func() time.Time
}

// NewLoyaltyLedger constructs a LoyaltyLedger.
func NewLoyaltyLedger(s store.Store) *LoyaltyLedger {
	return &LoyaltyLedger{store: s, now: time.Now}
}

// with returns a ledger bound to another store, typically a transaction.
func (l *LoyaltyLedger) with(s store.Store) *LoyaltyLedger {
	return &LoyaltyLedger{store: s, now: l.now}
}

// ApplyAccrual credits the customer with ComputeAccrual(amount) and returns
// the points posted.
func (l *LoyaltyLedger) ApplyAccrual(ctx context.Context, customerID uuid.UUID, amount int64, orderID *uuid.UUID) (decimal.Decimal, error) {
	points := ComputeAccrual(amount)
	if points.IsZero() {
		return decimal.Zero, nil
	}

	err := l.store.Transaction(ctx, func(tx store.Store) error {
		balance, err := tx.AddPoints(ctx, customerID, points)
		if err != nil {
			return err
		}
		return tx.RecordPointTransaction(ctx, &models.PointTransaction{
			CustomerID:   customerID,
			OrderID:      orderID,
			Kind:         models.PointAccrual,
			Points:       points,
			BalanceAfter: balance,
			OccurredAt:   l.now(),
		})
	})
	if err != nil {
		return decimal.Zero, wrapStore(err, "customer")
	}

	log.Info().
		Str("customer_id", customerID.String()).
		Str("points", points.StringFixed(2)).
		Msg("points accrued")
	return points, nil
}

// ApplyDeduction removes points from the customer's balance and, when note is
// non-nil, replaces the customer note in the same write. It returns the new
// balance.
func (l *LoyaltyLedger) ApplyDeduction(ctx context.Context, customerID uuid.UUID, points decimal.Decimal, note *string) (decimal.Decimal, error) {
	points = points.Round(2)
	if !points.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}

	var balance decimal.Decimal
	err := l.store.Transaction(ctx, func(tx store.Store) error {
		var err error
		balance, err = tx.DeductPoints(ctx, customerID, points, note)
		if err != nil {
			return err
		}
		posting := &models.PointTransaction{
			CustomerID:   customerID,
			Kind:         models.PointDeduction,
			Points:       points,
			BalanceAfter: balance,
			OccurredAt:   l.now(),
		}
		if note != nil {
			posting.Note = *note
		}
		return tx.RecordPointTransaction(ctx, posting)
	})
	if err != nil {
		return decimal.Zero, wrapStore(err, "customer")
	}

	log.Info().
		Str("customer_id", customerID.String()).
		Str("points", points.StringFixed(2)).
		Str("balance", balance.StringFixed(2)).
		Msg("points deducted")
	return balance, nil
}

// History lists the customer's postings, newest first.
func (l *LoyaltyLedger) History(ctx context.Context, customerID uuid.UUID) ([]models.PointTransaction, error) {
	if _, err := l.store.GetCustomer(ctx, customerID); err != nil {
		return nil, wrapStore(err, "customer")
	}
	items, err := l.store.ListPointTransactions(ctx, customerID)
	if err != nil {
		return nil, wrapStore(err, "point transactions")
	}
	return items, nil
}
