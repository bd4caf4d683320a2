package models

// AdminUser is a dashboard operator account.
type AdminUser struct {
	BaseModel
	Username     string `gorm:"size:64;uniqueIndex;not null" json:"username"`
	PasswordHash string `gorm:"not null" json:"-"`
}
