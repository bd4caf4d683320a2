package features

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/cucumber/godog"
	"github.com/shopspring/decimal"

	"github.com/example/bloomdesk/internal/models"
	"github.com/example/bloomdesk/internal/services"
	"github.com/example/bloomdesk/internal/store"
)

type settlementTestContext struct {
	store   *store.MemoryStore
	orders  *services.OrderService
	ledger  *services.LoyaltyLedger
	phones  map[string]string
	order   *models.Order
	lastErr error
	window  []models.Order
	ctx     context.Context
}

func (c *settlementTestContext) reset() {
	c.store = store.NewMemoryStore()
	c.ledger = services.NewLoyaltyLedger(c.store)
	c.orders = services.NewOrderService(
		c.store,
		c.ledger,
		services.NewVoucherValidator(c.store),
		services.FixedOffsetCalendar(7),
		nil,
	)
	c.phones = map[string]string{}
	c.order = nil
	c.lastErr = nil
	c.window = nil
	c.ctx = context.Background()
}

func (c *settlementTestContext) customer(name string) (*models.Customer, error) {
	phone, ok := c.phones[name]
	if !ok {
		return nil, fmt.Errorf("unknown customer %q", name)
	}
	return c.store.FindCustomerByPhone(c.ctx, phone)
}

func (c *settlementTestContext) aCustomerWithPhoneAndPoints(name, phone string, points int) error {
	c.phones[name] = phone
	return c.store.CreateCustomer(c.ctx, &models.Customer{
		Name:  name,
		Phone: phone,
		Point: decimal.NewFromInt(int64(points)),
	})
}

func (c *settlementTestContext) createVoucher(code string, percent int, expiredAt time.Time) error {
	return c.store.CreateVoucher(c.ctx, &models.Voucher{
		Code:      code,
		Discount:  percent,
		ExpiredAt: expiredAt,
		Status:    models.VoucherStatusActive,
	})
}

func (c *settlementTestContext) anActiveVoucher(code string, percent int) error {
	return c.createVoucher(code, percent, time.Now().Add(30*24*time.Hour))
}

func (c *settlementTestContext) anExpiredVoucher(code string, percent int) error {
	return c.createVoucher(code, percent, time.Now().Add(-24*time.Hour))
}

func (c *settlementTestContext) placeOrder(name, product string, amount int, voucher string) error {
	phone, ok := c.phones[name]
	if !ok {
		return fmt.Errorf("unknown customer %q", name)
	}
	c.order, c.lastErr = c.orders.Create(c.ctx, services.CreateOrderInput{
		CustomerName:  name,
		CustomerPhone: phone,
		Product:       product,
		Amount:        int64(amount),
		VoucherCode:   voucher,
	})
	return nil
}

func (c *settlementTestContext) ordersWithVoucher(name, product string, amount int, voucher string) error {
	return c.placeOrder(name, product, amount, voucher)
}

func (c *settlementTestContext) placesAnOrder(name, product string, amount int) error {
	if err := c.placeOrder(name, product, amount, ""); err != nil {
		return err
	}
	return c.lastErr
}

func (c *settlementTestContext) theOrderIsMarked(status string) error {
	if c.order == nil {
		return errors.New("no order placed")
	}
	_, err := c.orders.Transition(c.ctx, c.order.ID, models.OrderStatus(status))
	return err
}

func (c *settlementTestContext) theOrderDiscountAndFinalAmount(discount, final int) error {
	if c.lastErr != nil {
		return fmt.Errorf("order failed: %w", c.lastErr)
	}
	if c.order.VoucherDiscount != int64(discount) {
		return fmt.Errorf("expected discount %d, got %d", discount, c.order.VoucherDiscount)
	}
	if c.order.FinalAmount != int64(final) {
		return fmt.Errorf("expected final amount %d, got %d", final, c.order.FinalAmount)
	}
	return nil
}

func (c *settlementTestContext) theOrderIsRejectedBecauseTheVoucherIs(reason string) error {
	var want error
	switch reason {
	case "already used":
		want = services.ErrAlreadyUsed
	case "expired":
		want = services.ErrExpired
	case "unknown":
		want = services.ErrNotFound
	default:
		return fmt.Errorf("unknown rejection %q", reason)
	}
	if !errors.Is(c.lastErr, want) {
		return fmt.Errorf("expected %v, got %v", want, c.lastErr)
	}
	return nil
}

func (c *settlementTestContext) hasPoints(name, points string) error {
	customer, err := c.customer(name)
	if err != nil {
		return err
	}
	if got := customer.Point.StringFixed(2); got != points {
		return fmt.Errorf("expected %s points, got %s", points, got)
	}
	return nil
}

func (c *settlementTestContext) pointsAreDeductedFrom(points, name string) error {
	customer, err := c.customer(name)
	if err != nil {
		return err
	}
	amount, err := decimal.NewFromString(points)
	if err != nil {
		return err
	}
	_, c.lastErr = c.ledger.ApplyDeduction(c.ctx, customer.ID, amount, nil)
	return nil
}

func (c *settlementTestContext) theDeductionFailsWithInsufficientPoints() error {
	if !errors.Is(c.lastErr, services.ErrInsufficientPoints) {
		return fmt.Errorf("expected insufficient points, got %v", c.lastErr)
	}
	return nil
}

func (c *settlementTestContext) ordersInTheWindow(table *godog.Table) error {
	for i, row := range table.Rows {
		if i == 0 {
			continue
		}
		amount, err := strconv.ParseInt(row.Cells[1].Value, 10, 64)
		if err != nil {
			return err
		}
		c.window = append(c.window, models.Order{
			CustomerName:  row.Cells[0].Value,
			CustomerPhone: row.Cells[0].Value,
			Amount:        amount,
			Status:        models.OrderStatus(row.Cells[2].Value),
		})
	}
	return nil
}

func (c *settlementTestContext) theReportShows(total, done, cancelled, delivering int, avg string) error {
	stats := services.Aggregate(c.window)
	if stats.Total != int64(total) {
		return fmt.Errorf("expected total %d, got %d", total, stats.Total)
	}
	if stats.Done != done || stats.Cancelled != cancelled || stats.Delivering != delivering {
		return fmt.Errorf("expected %d/%d/%d, got %d/%d/%d",
			done, cancelled, delivering, stats.Done, stats.Cancelled, stats.Delivering)
	}
	if got := stats.AvgOrder.StringFixed(2); got != avg {
		return fmt.Errorf("expected average %s, got %s", avg, got)
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &settlementTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^a customer "([^"]*)" with phone "([^"]*)" and (\d+) points$`, tc.aCustomerWithPhoneAndPoints)
	ctx.Step(`^an active voucher "([^"]*)" with (\d+) percent discount$`, tc.anActiveVoucher)
	ctx.Step(`^an expired voucher "([^"]*)" with (\d+) percent discount$`, tc.anExpiredVoucher)
	ctx.Step(`^orders in the window:$`, tc.ordersInTheWindow)

	// When steps
	ctx.Step(`^"([^"]*)" orders "([^"]*)" for (\d+) with voucher "([^"]*)"$`, tc.ordersWithVoucher)
	ctx.Step(`^"([^"]*)" orders "([^"]*)" for (\d+)$`, tc.placesAnOrder)
	ctx.Step(`^the order is marked "([^"]*)"$`, tc.theOrderIsMarked)
	ctx.Step(`^([\d.]+) points are deducted from "([^"]*)"$`, tc.pointsAreDeductedFrom)

	// Then steps
	ctx.Step(`^the order discount is (\d+) and the final amount is (\d+)$`, tc.theOrderDiscountAndFinalAmount)
	ctx.Step(`^the order is rejected because the voucher is "([^"]*)"$`, tc.theOrderIsRejectedBecauseTheVoucherIs)
	ctx.Step(`^"([^"]*)" has ([\d.]+) points$`, tc.hasPoints)
	ctx.Step(`^the deduction fails with insufficient points$`, tc.theDeductionFailsWithInsufficientPoints)
	ctx.Step(`^the report shows total (\d+), done (\d+), cancelled (\d+), delivering (\d+) and average ([\d.]+)$`, tc.theReportShows)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"settlement.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
