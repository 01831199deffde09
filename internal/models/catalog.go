package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EntityKind identifies which catalog table a record (or review) belongs to.
type EntityKind string

const (
	EntityKindArticle       EntityKind = "article"
	EntityKindProduct       EntityKind = "product"
	EntityKindActivity      EntityKind = "activity"
	EntityKindTravelProgram EntityKind = "travel_program"
)

// EntityKinds lists every importable catalog kind.
func EntityKinds() []EntityKind {
	return []EntityKind{EntityKindArticle, EntityKindProduct, EntityKindActivity, EntityKindTravelProgram}
}

// ParseEntityKind validates a kind path parameter ("article", "product", ...).
func ParseEntityKind(s string) (EntityKind, error) {
	for _, k := range EntityKinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown catalog kind %q", s)
}

// Article represents a CMS/blog article in the catalog.
// RefID is the partner-provided stable identifier; Title is the natural key
// used to re-identify the article when no RefID is present.
type Article struct {
	ID          uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID    string          `json:"tenantId" gorm:"not null;index:idx_articles_tenant_id;index:idx_articles_tenant_ref,unique"`
	RefID       *string         `json:"refId,omitempty" gorm:"index:idx_articles_tenant_ref,unique"`
	Title       string          `json:"title" gorm:"not null;index"`
	Content     *string         `json:"content,omitempty"`
	Category    *string         `json:"category,omitempty" gorm:"index"`
	Image       *string         `json:"image,omitempty"`
	Tags        *JSONArray      `json:"tags,omitempty" gorm:"type:jsonb"`
	IsPublished *bool           `json:"isPublished,omitempty" gorm:"default:true"`
	Rating      float64         `json:"rating" gorm:"not null;default:0"`
	ReviewCount int             `json:"reviewCount" gorm:"not null;default:0"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	DeletedAt   *gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`
}

// Product represents a shop product in the catalog.
type Product struct {
	ID           uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID     string          `json:"tenantId" gorm:"not null;index:idx_products_tenant_id;index:idx_products_tenant_ref,unique"`
	RefID        *string         `json:"refId,omitempty" gorm:"index:idx_products_tenant_ref,unique"`
	Name         string          `json:"name" gorm:"not null;index"`
	Description  *string         `json:"description,omitempty"`
	Brand        *string         `json:"brand,omitempty" gorm:"index"`
	Category     *string         `json:"category,omitempty" gorm:"index"`
	Price        *float64        `json:"price,omitempty"`
	CountInStock *int            `json:"countInStock,omitempty"`
	Image        *string         `json:"image,omitempty"`
	Tags         *JSONArray      `json:"tags,omitempty" gorm:"type:jsonb"`
	IsActive     *bool           `json:"isActive,omitempty" gorm:"default:true"`
	Rating       float64         `json:"rating" gorm:"not null;default:0"`
	ReviewCount  int             `json:"reviewCount" gorm:"not null;default:0"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
	DeletedAt    *gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`
}

// Activity represents a bookable activity (tours, excursions).
type Activity struct {
	ID          uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID    string          `json:"tenantId" gorm:"not null;index:idx_activities_tenant_id;index:idx_activities_tenant_ref,unique"`
	RefID       *string         `json:"refId,omitempty" gorm:"index:idx_activities_tenant_ref,unique"`
	Name        string          `json:"name" gorm:"not null;index"`
	Description *string         `json:"description,omitempty"`
	Location    *string         `json:"location,omitempty" gorm:"index"`
	Duration    *string         `json:"duration,omitempty"`
	Price       *float64        `json:"price,omitempty"`
	Image       *string         `json:"image,omitempty"`
	Tags        *JSONArray      `json:"tags,omitempty" gorm:"type:jsonb"`
	IsActive    *bool           `json:"isActive,omitempty" gorm:"default:true"`
	Rating      float64         `json:"rating" gorm:"not null;default:0"`
	ReviewCount int             `json:"reviewCount" gorm:"not null;default:0"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	DeletedAt   *gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`
}

// TravelProgram represents a multi-day travel package.
type TravelProgram struct {
	ID           uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID     string          `json:"tenantId" gorm:"not null;index:idx_travel_programs_tenant_id;index:idx_travel_programs_tenant_ref,unique"`
	RefID        *string         `json:"refId,omitempty" gorm:"index:idx_travel_programs_tenant_ref,unique"`
	Title        string          `json:"title" gorm:"not null;index"`
	Description  *string         `json:"description,omitempty"`
	DurationDays *int            `json:"durationDays,omitempty"`
	Price        *float64        `json:"price,omitempty"`
	Destinations *JSONArray      `json:"destinations,omitempty" gorm:"type:jsonb"`
	Image        *string         `json:"image,omitempty"`
	IsActive     *bool           `json:"isActive,omitempty" gorm:"default:true"`
	Rating       float64         `json:"rating" gorm:"not null;default:0"`
	ReviewCount  int             `json:"reviewCount" gorm:"not null;default:0"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
	DeletedAt    *gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`
}

// TableName returns the table name for the Article model
func (Article) TableName() string {
	return "articles"
}

// TableName returns the table name for the Product model
func (Product) TableName() string {
	return "products"
}

// TableName returns the table name for the Activity model
func (Activity) TableName() string {
	return "activities"
}

// TableName returns the table name for the TravelProgram model
func (TravelProgram) TableName() string {
	return "travel_programs"
}
