package models

import "github.com/google/uuid"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Valid reports whether s is one of the known order statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// AllOrderStatuses lists every status an order can hold.
var AllOrderStatuses = []OrderStatus{OrderStatusPending, OrderStatusDelivered, OrderStatusCancelled}

// Order keeps a snapshot of the customer at creation time; later customer
// edits do not touch it.
type Order struct {
	BaseModel
	CustomerID      *uuid.UUID  `gorm:"type:uuid;index" json:"customer_id"`
	CustomerName    string      `gorm:"size:140" json:"customer_name"`
	CustomerPhone   string      `gorm:"size:32;index" json:"customer_phone"`
	CustomerAddress string      `gorm:"size:255" json:"customer_address"`
	Product         string      `gorm:"type:text;not null" json:"product"`
	Amount          int64       `gorm:"not null;check:chk_orders_amount,amount > 0" json:"amount"`
	Status          OrderStatus `gorm:"type:varchar(20);index;not null;default:'pending'" json:"status"`
	VoucherCode     *string     `gorm:"size:32;uniqueIndex" json:"voucher_code"`
	VoucherDiscount int64       `gorm:"not null;default:0" json:"voucher_discount"`
	FinalAmount     int64       `gorm:"not null" json:"final_amount"`
}
