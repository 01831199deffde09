package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Tesseract-Nexus/go-shared/cache"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"catalog-service/internal/importer"
)

// Cache TTL constants
const (
	EntityCacheTTL     = 5 * time.Minute // Single entity cache
	EntityListCacheTTL = 2 * time.Minute // Entity list cache (shorter due to frequent changes)
)

// CatalogRepository is the storage layer for one catalog kind. The kind spec
// supplies the table and natural key column, so the same repository code
// serves articles, products, activities and travel programs.
type CatalogRepository struct {
	db    *gorm.DB
	spec  importer.KindSpec
	redis *redis.Client
	cache *cache.CacheLayer
}

// Compile-time check: the repository is the engine's entity store.
var _ importer.EntityStore = (*CatalogRepository)(nil)

func NewCatalogRepository(db *gorm.DB, redisClient *redis.Client, spec importer.KindSpec) *CatalogRepository {
	repo := &CatalogRepository{
		db:    db,
		spec:  spec,
		redis: redisClient,
	}

	// Initialize CacheLayer with the existing Redis client
	if redisClient != nil {
		cacheConfig := cache.CacheConfig{
			L1Enabled:  true,
			L1MaxItems: 5000,
			L1TTL:      30 * time.Second,
			DefaultTTL: EntityCacheTTL,
			KeyPrefix:  fmt.Sprintf("catalog:%s:", spec.Table),
		}
		repo.cache = cache.NewCacheLayerFromClient(redisClient, cacheConfig)
	}

	return repo
}

// Spec returns the kind spec this repository was built for.
func (r *CatalogRepository) Spec() importer.KindSpec {
	return r.spec
}

// entityRow is the scan target for identity lookups; the natural key column
// is aliased into NaturalKey regardless of kind.
type entityRow struct {
	ID         uuid.UUID
	RefID      *string
	NaturalKey string
	CreatedAt  time.Time
}

func (r *CatalogRepository) refSelect() string {
	return fmt.Sprintf("id, ref_id, %s AS natural_key, created_at", r.spec.NaturalKeyColumn)
}

func toEntityRefs(rows []entityRow) []importer.EntityRef {
	refs := make([]importer.EntityRef, 0, len(rows))
	for _, row := range rows {
		refs = append(refs, importer.EntityRef{
			ID:         row.ID,
			RefID:      row.RefID,
			NaturalKey: row.NaturalKey,
			CreatedAt:  row.CreatedAt,
		})
	}
	return refs
}

// FindByRefIDs looks up entities by their stable reference ids in one query.
func (r *CatalogRepository) FindByRefIDs(ctx context.Context, tenantID string, refIDs []string) ([]importer.EntityRef, error) {
	if len(refIDs) == 0 {
		return nil, nil
	}
	var rows []entityRow
	err := r.db.WithContext(ctx).Table(r.spec.Table).
		Select(r.refSelect()).
		Where("tenant_id = ? AND ref_id IN ? AND deleted_at IS NULL", tenantID, refIDs).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toEntityRefs(rows), nil
}

// FindByNaturalKeys looks up entities by name/title in one query. The result
// is ordered oldest-first so callers keeping the last match per key get the
// most recently created entity.
func (r *CatalogRepository) FindByNaturalKeys(ctx context.Context, tenantID string, keys []string) ([]importer.EntityRef, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	var rows []entityRow
	err := r.db.WithContext(ctx).Table(r.spec.Table).
		Select(r.refSelect()).
		Where(fmt.Sprintf("tenant_id = ? AND %s IN ? AND deleted_at IS NULL", r.spec.NaturalKeyColumn), tenantID, keys).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toEntityRefs(rows), nil
}

// Update applies a partial column update to one entity.
func (r *CatalogRepository) Update(ctx context.Context, tenantID string, id uuid.UUID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()
	err := r.db.WithContext(ctx).Table(r.spec.Table).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Updates(updates).Error
	if err == nil {
		r.invalidateEntityCaches(ctx, tenantID, id)
	}
	return err
}

// BulkCreate inserts every staged entity in a transaction. Reference id
// generation lives here, not in the engine: kinds that carry refIds get one
// minted when the payload has none.
// SECURITY: All entities are assigned the provided tenantID regardless of payload data.
func (r *CatalogRepository) BulkCreate(ctx context.Context, tenantID string, payloads []map[string]interface{}) ([]importer.EntityRef, error) {
	refs := make([]importer.EntityRef, 0, len(payloads))
	now := time.Now()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, payload := range payloads {
			id := uuid.New()
			payload["id"] = id
			payload["tenant_id"] = tenantID
			payload["created_at"] = now
			payload["updated_at"] = now

			if r.spec.AssignRefID && payload["ref_id"] == nil {
				payload["ref_id"] = r.generateRefID(id)
			}

			if err := tx.Table(r.spec.Table).Create(payload).Error; err != nil {
				return err
			}

			ref := importer.EntityRef{ID: id, CreatedAt: now}
			if refID, ok := payload["ref_id"].(string); ok {
				ref.RefID = &refID
			}
			if natural, ok := payload[r.spec.NaturalKeyColumn].(string); ok {
				ref.NaturalKey = natural
			}
			refs = append(refs, ref)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.invalidateListCaches(ctx, tenantID)
	return refs, nil
}

// UpdateRatingStats persists the recomputed aggregate rating and review count.
func (r *CatalogRepository) UpdateRatingStats(ctx context.Context, tenantID string, id uuid.UUID, rating float64, reviewCount int) error {
	err := r.db.WithContext(ctx).Table(r.spec.Table).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Updates(map[string]interface{}{
			"rating":       rating,
			"review_count": reviewCount,
			"updated_at":   time.Now(),
		}).Error
	if err == nil {
		r.invalidateEntityCaches(ctx, tenantID, id)
	}
	return err
}

// generateRefID mints a stable reference id for a newly imported entity.
// The uuid suffix keeps it unique without another round trip.
func (r *CatalogRepository) generateRefID(id uuid.UUID) string {
	return fmt.Sprintf("%s-%s", r.spec.RefIDPrefix, id.String()[:8])
}

// FindPage retrieves one page of entities ordered newest-first. dest must be
// a pointer to a slice of the kind's model.
func (r *CatalogRepository) FindPage(ctx context.Context, tenantID string, page, limit int, dest interface{}) (int64, error) {
	var total int64
	query := r.db.WithContext(ctx).Table(r.spec.Table).
		Where("tenant_id = ? AND deleted_at IS NULL", tenantID)

	if err := query.Count(&total).Error; err != nil {
		return 0, err
	}

	offset := (page - 1) * limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(dest).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// GetByID retrieves a single entity with caching. dest must be a pointer to
// the kind's model.
func (r *CatalogRepository) GetByID(ctx context.Context, tenantID string, id uuid.UUID, dest interface{}) error {
	cacheKey := fmt.Sprintf("entity:%s:%s", tenantID, id.String())

	// Try to get from cache first
	if r.redis != nil {
		val, err := r.redis.Get(ctx, cacheKey).Result()
		if err == nil {
			if err := json.Unmarshal([]byte(val), dest); err == nil {
				return nil
			}
		}
	}

	err := r.db.WithContext(ctx).Table(r.spec.Table).
		Where("tenant_id = ? AND id = ? AND deleted_at IS NULL", tenantID, id).
		First(dest).Error
	if err != nil {
		return err
	}

	// Cache the result
	if r.redis != nil {
		if data, err := json.Marshal(dest); err == nil {
			r.redis.Set(ctx, cacheKey, data, EntityCacheTTL)
		}
	}

	return nil
}

// invalidateEntityCaches invalidates all caches related to one entity.
func (r *CatalogRepository) invalidateEntityCaches(ctx context.Context, tenantID string, id uuid.UUID) {
	if r.redis != nil {
		_ = r.redis.Del(ctx, fmt.Sprintf("entity:%s:%s", tenantID, id.String())).Err()
	}
	r.invalidateListCaches(ctx, tenantID)
}

// invalidateListCaches invalidates all list caches for a tenant.
func (r *CatalogRepository) invalidateListCaches(ctx context.Context, tenantID string) {
	if r.cache == nil {
		return
	}
	_ = r.cache.DeletePattern(ctx, fmt.Sprintf("list:%s:*", tenantID))
}
