package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"catalog-service/internal/importer"
	"catalog-service/internal/models"
)

// ReviewsRepository handles review storage across all catalog kinds. Reviews
// reference their entity through target_id/target_type, so one table serves
// every kind.
type ReviewsRepository struct {
	db *gorm.DB
}

var _ importer.ReviewStore = (*ReviewsRepository)(nil)

func NewReviewsRepository(db *gorm.DB) *ReviewsRepository {
	return &ReviewsRepository{db: db}
}

// Create persists a single review under the tenant.
func (r *ReviewsRepository) Create(ctx context.Context, tenantID string, review *models.Review) error {
	review.TenantID = tenantID
	return r.db.WithContext(ctx).Create(review).Error
}

// ApprovedRatings returns the rating values of every approved review for one
// entity. The engine averages these when recomputing entity rating stats.
func (r *ReviewsRepository) ApprovedRatings(ctx context.Context, tenantID string, targetType models.EntityKind, targetID uuid.UUID) ([]int, error) {
	var ratings []int
	err := r.db.WithContext(ctx).Model(&models.Review{}).
		Where("tenant_id = ? AND target_type = ? AND target_id = ? AND status = ?",
			tenantID, targetType, targetID, models.ReviewStatusApproved).
		Pluck("rating", &ratings).Error
	if err != nil {
		return nil, err
	}
	return ratings, nil
}

// GetByTarget retrieves reviews for one entity, newest first. An empty status
// returns reviews in every status.
func (r *ReviewsRepository) GetByTarget(ctx context.Context, tenantID string, targetType models.EntityKind, targetID uuid.UUID, status models.ReviewStatus, page, limit int) ([]models.Review, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Review{}).
		Where("tenant_id = ? AND target_type = ? AND target_id = ?", tenantID, targetType, targetID)

	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reviews []models.Review
	offset := (page - 1) * limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&reviews).Error; err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

// GetByID retrieves a single review.
func (r *ReviewsRepository) GetByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.Review, error) {
	var review models.Review
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&review).Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// UpdateStatus moderates a review. Returns the updated review so callers can
// recompute the entity's rating stats from the new state.
func (r *ReviewsRepository) UpdateStatus(ctx context.Context, tenantID string, id uuid.UUID, status models.ReviewStatus) (*models.Review, error) {
	review, err := r.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	err = r.db.WithContext(ctx).Model(review).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		}).Error
	if err != nil {
		return nil, err
	}
	review.Status = status
	return review, nil
}

// GetSummary computes tenant-wide review counts for dashboards.
func (r *ReviewsRepository) GetSummary(ctx context.Context, tenantID string) (*models.ReviewsSummary, error) {
	summary := &models.ReviewsSummary{
		ByStatus:     map[models.ReviewStatus]int{},
		ByTargetType: map[models.EntityKind]int{},
	}

	type statusCount struct {
		Status models.ReviewStatus
		Count  int
	}
	var byStatus []statusCount
	err := r.db.WithContext(ctx).Model(&models.Review{}).
		Select("status, COUNT(*) as count").
		Where("tenant_id = ?", tenantID).
		Group("status").
		Find(&byStatus).Error
	if err != nil {
		return nil, err
	}
	for _, row := range byStatus {
		summary.ByStatus[row.Status] = row.Count
		summary.TotalReviews += row.Count
	}

	type targetCount struct {
		TargetType models.EntityKind
		Count      int
	}
	var byTarget []targetCount
	err = r.db.WithContext(ctx).Model(&models.Review{}).
		Select("target_type, COUNT(*) as count").
		Where("tenant_id = ?", tenantID).
		Group("target_type").
		Find(&byTarget).Error
	if err != nil {
		return nil, err
	}
	for _, row := range byTarget {
		summary.ByTargetType[row.TargetType] = row.Count
	}

	var imported int64
	err = r.db.WithContext(ctx).Model(&models.Review{}).
		Where("tenant_id = ? AND imported = ?", tenantID, true).
		Count(&imported).Error
	if err != nil {
		return nil, err
	}
	summary.ImportedCount = int(imported)

	return summary, nil
}
