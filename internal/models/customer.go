package models

import "github.com/shopspring/decimal"

// Customer is a shop client identified by phone number.
type Customer struct {
	BaseModel
	Name  string          `gorm:"size:140;not null" json:"name"`
	Phone string          `gorm:"size:32;uniqueIndex;not null" json:"phone"`
	Note  string          `gorm:"type:text" json:"note"`
	Point decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0;check:chk_customers_point,point >= 0" json:"point"`
}
