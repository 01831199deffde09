package importer

import (
	"context"
	"time"

	"github.com/google/uuid"

	"catalog-service/internal/models"
)

// EntityRef is the slim projection of a stored catalog entity the engine
// needs for identity resolution: enough to re-key it and to break natural-key
// ties deterministically.
type EntityRef struct {
	ID         uuid.UUID
	RefID      *string
	NaturalKey string
	CreatedAt  time.Time
}

// UserRef is the slim projection of a reviewer identity.
type UserRef struct {
	ID    uuid.UUID
	Email string
	Name  string
}

// EntityStore is the catalog storage surface the engine drives, one instance
// per kind. Lookups are bulk and read-only; writes are an update per matched
// group plus one bulk insert for everything new.
type EntityStore interface {
	FindByRefIDs(ctx context.Context, tenantID string, refIDs []string) ([]EntityRef, error)
	FindByNaturalKeys(ctx context.Context, tenantID string, keys []string) ([]EntityRef, error)
	Update(ctx context.Context, tenantID string, id uuid.UUID, updates map[string]interface{}) error
	BulkCreate(ctx context.Context, tenantID string, payloads []map[string]interface{}) ([]EntityRef, error)
	UpdateRatingStats(ctx context.Context, tenantID string, id uuid.UUID, rating float64, reviewCount int) error
}

// ReviewStore persists reviews and reads back the ratings that feed the
// per-entity aggregate recompute.
type ReviewStore interface {
	Create(ctx context.Context, tenantID string, review *models.Review) error
	ApprovedRatings(ctx context.Context, tenantID string, targetType models.EntityKind, targetID uuid.UUID) ([]int, error)
}

// UserStore resolves and lazily mints reviewer identities by email.
type UserStore interface {
	FindByEmails(ctx context.Context, tenantID string, emails []string) ([]UserRef, error)
	CreateReviewer(ctx context.Context, tenantID, name, email string) (UserRef, error)
}
