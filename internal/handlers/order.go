package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/bloomdesk/internal/models"
	"github.com/example/bloomdesk/internal/services"
	"github.com/example/bloomdesk/internal/store"
	"github.com/example/bloomdesk/internal/utils"
)

// OrderHandler manages order endpoints.
type OrderHandler struct {
	orders   *services.OrderService
	calendar services.BusinessCalendar
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(orders *services.OrderService, calendar services.BusinessCalendar) *OrderHandler {
	return &OrderHandler{orders: orders, calendar: calendar}
}

// CreateOrder takes a new pending order.
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	var req services.CreateOrderInput
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	order, err := h.orders.Create(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": order})
}

// ListOrders returns orders filtered by status, date, customer or phone.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	filter := store.OrderFilter{
		Phone:  strings.TrimSpace(c.Query("phone")),
		Limit:  pg.Limit,
		Offset: pg.Offset,
	}

	if status := c.Query("status"); status != "" {
		for _, s := range strings.Split(status, ",") {
			st := models.OrderStatus(strings.TrimSpace(s))
			if !st.Valid() {
				return fiber.NewError(fiber.StatusBadRequest, "invalid status")
			}
			filter.Statuses = append(filter.Statuses, st)
		}
	}

	if raw := c.Query("customer_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid customer_id")
		}
		filter.CustomerID = &id
	}

	if raw := c.Query("from"); raw != "" {
		from, err := h.calendar.ParseDate(raw)
		if err != nil {
			return err
		}
		filter.From = &from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := h.calendar.EndOfDate(raw)
		if err != nil {
			return err
		}
		filter.To = &to
	}

	orders, total, err := h.orders.List(c.UserContext(), filter)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       orders,
		"pagination": pg.Meta(total),
	})
}

// TodayOrders returns today's pending orders.
func (h *OrderHandler) TodayOrders(c *fiber.Ctx) error {
	orders, err := h.orders.TodayPending(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": orders})
}

// GetOrder returns one order.
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	order, err := h.orders.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": order})
}

// UpdateOrder edits an order's details and voucher.
func (h *OrderHandler) UpdateOrder(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req services.UpdateOrderInput
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	order, err := h.orders.Update(c.UserContext(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": order})
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateOrderStatus moves an order to another status.
func (h *OrderHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req updateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.orders.Transition(c.UserContext(), id, models.OrderStatus(strings.TrimSpace(req.Status)))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": result})
}

// DeleteOrder removes an order.
func (h *OrderHandler) DeleteOrder(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.orders.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true})
}
