package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the minimal reviewer identity record. Accounts are minted lazily
// during import when a review references an email with no existing user;
// such accounts get a random credential and Imported=true.
type User struct {
	ID           uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID     string          `json:"tenantId" gorm:"not null;index:idx_users_tenant_email,unique"`
	Name         string          `json:"name" gorm:"not null"`
	Email        string          `json:"email" gorm:"not null;index:idx_users_tenant_email,unique"`
	PasswordHash string          `json:"-" gorm:"not null"`
	Imported     bool            `json:"imported" gorm:"not null;default:false"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
	DeletedAt    *gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`
}

// TableName returns the table name for the User model
func (User) TableName() string {
	return "users"
}
