package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/example/bloomdesk/internal/services"
)

// ReportHandler serves the dashboard reports.
type ReportHandler struct {
	reports *services.ReportService
	now     func() time.Time
}

// NewReportHandler constructs ReportHandler.
func NewReportHandler(reports *services.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports, now: time.Now}
}

func (h *ReportHandler) dateParam(c *fiber.Ctx, key string, fallback time.Time) (time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, nil
	}
	return h.reports.Calendar().ParseDate(raw)
}

// Stats aggregates orders for a day, month, year or date range.
func (h *ReportHandler) Stats(c *fiber.Ctx) error {
	today := h.now().In(h.reports.Calendar().Location())

	date, err := h.dateParam(c, "date", today)
	if err != nil {
		return err
	}
	to, err := h.dateParam(c, "to", date)
	if err != nil {
		return err
	}

	window, err := h.reports.Calendar().Window(c.Query("type", "day"), date, to)
	if err != nil {
		return err
	}

	stats, err := h.reports.Stats(c.UserContext(), window)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"from":  window.From,
			"to":    window.To,
			"stats": stats,
		},
	})
}

// MonthlyRevenue returns delivered revenue for ?year=&month=, defaulting to
// the current month.
func (h *ReportHandler) MonthlyRevenue(c *fiber.Ctx) error {
	today := h.now().In(h.reports.Calendar().Location())
	year := c.QueryInt("year", today.Year())
	month := time.Month(c.QueryInt("month", int(today.Month())))

	total, err := h.reports.MonthlyRevenue(c.UserContext(), year, month)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"year": year, "month": int(month), "total": total},
	})
}

// YearlyBreakup returns delivered revenue for the years around ?year=.
func (h *ReportHandler) YearlyBreakup(c *fiber.Ctx) error {
	year := c.QueryInt("year", h.now().In(h.reports.Calendar().Location()).Year())

	items, err := h.reports.YearlyBreakup(c.UserContext(), year)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": items})
}

// SalesOverview returns per-day activity for the last ?days= days.
func (h *ReportHandler) SalesOverview(c *fiber.Ctx) error {
	items, err := h.reports.SalesOverview(c.UserContext(), c.QueryInt("days", 7))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": items})
}
