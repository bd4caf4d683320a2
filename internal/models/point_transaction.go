package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PointTransactionKind string

const (
	PointAccrual   PointTransactionKind = "accrual"
	PointDeduction PointTransactionKind = "deduction"
)

// PointTransaction records a single posting against a customer's balance.
type PointTransaction struct {
	BaseModel
	CustomerID   uuid.UUID            `gorm:"type:uuid;index;not null" json:"customer_id"`
	OrderID      *uuid.UUID           `gorm:"type:uuid;index" json:"order_id"`
	Kind         PointTransactionKind `gorm:"type:varchar(20);not null" json:"kind"`
	Points       decimal.Decimal      `gorm:"type:numeric(14,2);not null" json:"points"`
	BalanceAfter decimal.Decimal      `gorm:"type:numeric(14,2);not null" json:"balance_after"`
	Note         string               `gorm:"type:text" json:"note"`
	OccurredAt   time.Time            `json:"occurred_at"`
}
