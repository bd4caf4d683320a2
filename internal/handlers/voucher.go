package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/bloomdesk/internal/services"
)

// VoucherHandler manages voucher endpoints.
type VoucherHandler struct {
	vouchers  *services.VoucherService
	validator *services.VoucherValidator
}

// NewVoucherHandler constructs VoucherHandler.
func NewVoucherHandler(vouchers *services.VoucherService, validator *services.VoucherValidator) *VoucherHandler {
	return &VoucherHandler{vouchers: vouchers, validator: validator}
}

// ListVouchers returns every voucher with its effective status.
func (h *VoucherHandler) ListVouchers(c *fiber.Ctx) error {
	items, err := h.vouchers.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": items})
}

// CreateVoucher issues a voucher, generating a code when none is given.
func (h *VoucherHandler) CreateVoucher(c *fiber.Ctx) error {
	var req services.CreateVoucherInput
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	voucher, err := h.vouchers.Create(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": voucher})
}

// UpdateVoucher edits discount, expiry or status.
func (h *VoucherHandler) UpdateVoucher(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req services.UpdateVoucherInput
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	voucher, err := h.vouchers.Update(c.UserContext(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": voucher})
}

// DeleteVoucher removes a voucher.
func (h *VoucherHandler) DeleteVoucher(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.vouchers.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true})
}

type validateVoucherRequest struct {
	Code    string     `json:"code"`
	Amount  int64      `json:"amount"`
	OrderID *uuid.UUID `json:"order_id"`
}

// ValidateVoucher previews the discount a code would give on an amount.
func (h *VoucherHandler) ValidateVoucher(c *fiber.Ctx) error {
	var req validateVoucherRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	settlement, err := h.validator.Validate(c.UserContext(), req.Code, req.Amount, req.OrderID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": settlement})
}
