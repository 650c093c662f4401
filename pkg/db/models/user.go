package models

import (
	"time"

	"github.com/nileshbarai/distrokhata-backend/pkg/enums"
)

// User is any authenticated actor. Distributors are users with the
// distributor role; their business details live on the same row.
type User struct {
	ID           int64          `gorm:"column:id;primaryKey;autoIncrement"`
	TenantID     *int64         `gorm:"column:tenant_id;index"`
	Role         enums.UserRole `gorm:"column:role;size:50;not null;index"`
	FirstName    string         `gorm:"column:first_name;size:100;not null"`
	LastName     string         `gorm:"column:last_name;size:100"`
	PhoneNo      string         `gorm:"column:phone_no;size:20;index"`
	BusinessName *string        `gorm:"column:business_name;size:255"`
	IsActive     bool           `gorm:"column:is_active;not null;default:true"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides the default GORM pluralization.
func (User) TableName() string {
	return "users"
}

// FullName joins first and last name for display surfaces.
func (u User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
