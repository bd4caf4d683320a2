package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/example/bloomdesk/internal/services"
	"github.com/example/bloomdesk/internal/store"
	"github.com/example/bloomdesk/internal/utils"
)

// CustomerHandler manages customer and loyalty endpoints.
type CustomerHandler struct {
	customers *services.CustomerService
	ledger    *services.LoyaltyLedger
}

// NewCustomerHandler constructs CustomerHandler.
func NewCustomerHandler(customers *services.CustomerService, ledger *services.LoyaltyLedger) *CustomerHandler {
	return &CustomerHandler{customers: customers, ledger: ledger}
}

// ListCustomers returns customers with pagination and search.
func (h *CustomerHandler) ListCustomers(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	items, total, err := h.customers.List(c.UserContext(), store.CustomerFilter{
		Search: c.Query("search"),
		Limit:  pg.Limit,
		Offset: pg.Offset,
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       items,
		"pagination": pg.Meta(total),
	})
}

// CreateCustomer registers a customer by phone.
func (h *CustomerHandler) CreateCustomer(c *fiber.Ctx) error {
	var req services.CreateCustomerInput
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	customer, err := h.customers.Create(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": customer})
}

// GetCustomer returns one customer.
func (h *CustomerHandler) GetCustomer(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	customer, err := h.customers.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": customer})
}

// UpdateCustomer edits name, phone or note.
func (h *CustomerHandler) UpdateCustomer(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req services.UpdateCustomerInput
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	customer, err := h.customers.Update(c.UserContext(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": customer})
}

// DeleteCustomer removes a customer.
func (h *CustomerHandler) DeleteCustomer(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.customers.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true})
}

// ListCustomerOrders returns the customer's orders, newest first.
func (h *CustomerHandler) ListCustomerOrders(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	orders, err := h.customers.Orders(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": orders})
}

// ListPointTransactions returns the customer's balance and point history.
func (h *CustomerHandler) ListPointTransactions(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	customer, err := h.customers.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	history, err := h.ledger.History(c.UserContext(), id)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"balance":      customer.Point,
			"transactions": history,
		},
	})
}

type deductPointsRequest struct {
	Points decimal.Decimal `json:"points"`
	Note   *string         `json:"note"`
}

// DeductPoints redeems points from the customer's balance.
func (h *CustomerHandler) DeductPoints(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req deductPointsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	balance, err := h.ledger.ApplyDeduction(c.UserContext(), id, req.Points, req.Note)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"customer_id": id, "balance": balance},
	})
}

// SyncCustomers registers customers for order phones that have none.
func (h *CustomerHandler) SyncCustomers(c *fiber.Ctx) error {
	created, err := h.customers.SyncFromOrders(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": fiber.Map{"created": created}})
}
