package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/bloomdesk/internal/models"
	"github.com/example/bloomdesk/internal/store"
)

// Stats summarizes a window of orders.
type Stats struct {
	Total       int64           `json:"total"`
	Done        int             `json:"done"`
	Cancelled   int             `json:"cancelled"`
	Delivering  int             `json:"delivering"`
	TopCustomer *string         `json:"top_customer"`
	MaxTotal    int64           `json:"max_total"`
	MaxCount    int             `json:"max_count"`
	AvgOrder    decimal.Decimal `json:"avg_order"`
}

type customerSpend struct {
	name  string
	total int64
	count int
}

func spendKey(o models.Order) string {
	if o.CustomerID != nil {
		return o.CustomerID.String()
	}
	return "phone:" + o.CustomerPhone
}

// Aggregate computes revenue and status counts over orders. The top customer
// is the first one, in order of appearance, whose spend is strictly greater
// than every earlier one; a later customer with an equal total does not
// displace it.
func Aggregate(orders []models.Order) Stats {
	stats := Stats{AvgOrder: decimal.Zero}

	spend := map[string]*customerSpend{}
	var keys []string
	for _, o := range orders {
		stats.Total += o.Amount
		switch o.Status {
		case models.OrderStatusDelivered:
			stats.Done++
		case models.OrderStatusCancelled:
			stats.Cancelled++
		case models.OrderStatusPending:
			stats.Delivering++
		}

		key := spendKey(o)
		cs, ok := spend[key]
		if !ok {
			cs = &customerSpend{name: o.CustomerName}
			spend[key] = cs
			keys = append(keys, key)
		}
		cs.total += o.Amount
		cs.count++
	}

	for _, key := range keys {
		cs := spend[key]
		if cs.total > stats.MaxTotal {
			name := cs.name
			stats.TopCustomer = &name
			stats.MaxTotal = cs.total
			stats.MaxCount = cs.count
		}
	}

	if len(orders) > 0 {
		stats.AvgOrder = decimal.NewFromInt(stats.Total).
			Div(decimal.NewFromInt(int64(len(orders)))).
			Round(2)
	}
	return stats
}

// YearRevenue is delivered revenue for one calendar year.
type YearRevenue struct {
	Year  int   `json:"year"`
	Total int64 `json:"total"`
}

// DayOverview counts activity on one business day.
type DayOverview struct {
	Date         string `json:"date"`
	NewCustomers int64  `json:"new_customers"`
	Orders       int    `json:"orders"`
	Done         int    `json:"done"`
	Cancelled    int    `json:"cancelled"`
}

// ReportService fetches order windows and summarizes them.
type ReportService struct {
	store    store.Store
	calendar BusinessCalendar
	now      func() time.Time
}

// NewReportService constructs a ReportService.
func NewReportService(s store.Store, calendar BusinessCalendar) *ReportService {
	return &ReportService{store: s, calendar: calendar, now: time.Now}
}

// Calendar exposes the business calendar used for windows.
func (s *ReportService) Calendar() BusinessCalendar { return s.calendar }

func (s *ReportService) window(ctx context.Context, r DateRange, statuses ...models.OrderStatus) ([]models.Order, error) {
	orders, _, err := s.store.ListOrders(ctx, store.OrderFilter{
		From:     &r.From,
		To:       &r.To,
		Statuses: statuses,
	})
	if err != nil {
		return nil, wrapStore(err, "orders")
	}
	return orders, nil
}

func revenue(orders []models.Order) int64 {
	var total int64
	for _, o := range orders {
		total += o.Amount
	}
	return total
}

// Stats aggregates every order created inside r.
func (s *ReportService) Stats(ctx context.Context, r DateRange) (Stats, error) {
	orders, err := s.window(ctx, r)
	if err != nil {
		return Stats{}, err
	}
	return Aggregate(orders), nil
}

// MonthlyRevenue sums delivered orders created in the given month.
func (s *ReportService) MonthlyRevenue(ctx context.Context, year int, month time.Month) (int64, error) {
	if month < time.January || month > time.December {
		return 0, invalid("month must be between 1 and 12")
	}
	start := time.Date(year, month, 1, 0, 0, 0, 0, s.calendar.Location())
	r := DateRange{From: start, To: start.AddDate(0, 1, 0).Add(-time.Nanosecond)}

	orders, err := s.window(ctx, r, models.OrderStatusDelivered)
	if err != nil {
		return 0, err
	}
	return revenue(orders), nil
}

// YearlyBreakup returns delivered revenue for the five years centred on year.
func (s *ReportService) YearlyBreakup(ctx context.Context, year int) ([]YearRevenue, error) {
	out := make([]YearRevenue, 0, 5)
	for y := year - 2; y <= year+2; y++ {
		r := s.calendar.Year(time.Date(y, time.June, 1, 0, 0, 0, 0, s.calendar.Location()))
		orders, err := s.window(ctx, r, models.OrderStatusDelivered)
		if err != nil {
			return nil, err
		}
		out = append(out, YearRevenue{Year: y, Total: revenue(orders)})
	}
	return out, nil
}

// SalesOverview returns per-day activity for the last days business days,
// oldest first, ending today.
func (s *ReportService) SalesOverview(ctx context.Context, days int) ([]DayOverview, error) {
	if days <= 0 || days > 366 {
		return nil, invalid("days must be between 1 and 366")
	}

	today := s.now().In(s.calendar.Location())
	out := make([]DayOverview, 0, days)
	for i := days - 1; i >= 0; i-- {
		r := s.calendar.Day(today.AddDate(0, 0, -i))

		orders, err := s.window(ctx, r)
		if err != nil {
			return nil, err
		}
		customers, err := s.store.CountCustomers(ctx, r.From, r.To)
		if err != nil {
			return nil, wrapStore(err, "customers")
		}

		day := DayOverview{
			Date:         r.From.Format(dateLayout),
			NewCustomers: customers,
			Orders:       len(orders),
		}
		for _, o := range orders {
			switch o.Status {
			case models.OrderStatusDelivered:
				day.Done++
			case models.OrderStatusCancelled:
				day.Cancelled++
			}
		}
		out = append(out, day)
	}
	return out, nil
}
