package models

import "time"

type VoucherStatus string

const (
	VoucherStatusActive  VoucherStatus = "active"
	VoucherStatusExpired VoucherStatus = "expired"
)

// Voucher is a single-use percentage discount code.
type Voucher struct {
	BaseModel
	Code      string        `gorm:"size:32;uniqueIndex;not null" json:"code"`
	Discount  int           `gorm:"not null;check:chk_vouchers_discount,discount BETWEEN 1 AND 100" json:"discount"`
	ExpiredAt time.Time     `gorm:"not null" json:"expired_at"`
	Status    VoucherStatus `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
}

// IsExpired reports whether the voucher is unusable at now, either because it
// was marked expired or because its expiry has passed.
func (v *Voucher) IsExpired(now time.Time) bool {
	return v.Status == VoucherStatusExpired || v.ExpiredAt.Before(now)
}

// EffectiveStatus is the status shown to operators, with lazy expiry applied.
func (v *Voucher) EffectiveStatus(now time.Time) VoucherStatus {
	if v.IsExpired(now) {
		return VoucherStatusExpired
	}
	return VoucherStatusActive
}
