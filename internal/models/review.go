package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReviewStatus represents the moderation status of a review
type ReviewStatus string

const (
	ReviewStatusPending  ReviewStatus = "PENDING"
	ReviewStatusApproved ReviewStatus = "APPROVED"
	ReviewStatusRejected ReviewStatus = "REJECTED"
)

// Review represents a customer review attached to a catalog entity.
// TargetType carries the entity kind so one table serves all four catalogs.
type Review struct {
	ID         uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID   string          `json:"tenantId" gorm:"not null;index;index:idx_reviews_tenant_target"`
	TargetID   uuid.UUID       `json:"targetId" gorm:"type:uuid;not null;index:idx_reviews_tenant_target"`
	TargetType EntityKind      `json:"targetType" gorm:"not null;index:idx_reviews_tenant_target"`
	UserID     uuid.UUID       `json:"userId" gorm:"type:uuid;not null;index"`
	UserName   string          `json:"userName" gorm:"not null"`
	Rating     int             `json:"rating" gorm:"not null"`
	Comment    string          `json:"comment" gorm:"not null"`
	Status     ReviewStatus    `json:"status" gorm:"not null;default:'PENDING';index"`
	Imported   bool            `json:"imported" gorm:"not null;default:false"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
	DeletedAt  *gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`
}

// TableName returns the table name for the Review model
func (Review) TableName() string {
	return "reviews"
}

// CreateReviewRequest represents a request to create a new review
type CreateReviewRequest struct {
	TargetID   string `json:"targetId" binding:"required"`
	TargetType string `json:"targetType" binding:"required"`
	Rating     int    `json:"rating" binding:"required,min=1,max=5"`
	Comment    string `json:"comment" binding:"required"`
}

// UpdateReviewStatusRequest represents a moderation status change
type UpdateReviewStatusRequest struct {
	Status ReviewStatus `json:"status" binding:"required"`
	Notes  *string      `json:"notes,omitempty"`
}

// ReviewsSummary aggregates review counts for dashboards
type ReviewsSummary struct {
	TotalReviews  int                  `json:"totalReviews"`
	ImportedCount int                  `json:"importedCount"`
	ByStatus      map[ReviewStatus]int `json:"byStatus"`
	ByTargetType  map[EntityKind]int   `json:"byTargetType"`
}
