package importer

import (
	"context"

	"github.com/google/uuid"
)

// recalculateRatings recomputes the aggregate rating and review count for
// every entity touched in the batch, exactly once per entity regardless of
// how many reviews it received. The recompute is global per entity: it reads
// all currently approved reviews, not just the ones this batch added. A
// failure for one entity is logged and does not abort the others.
func (e *Engine) recalculateRatings(ctx context.Context, tenantID string, entities map[IdentityKey]EntityRef, result *runResult) {
	kind := e.adapter.Spec().Kind

	seen := make(map[uuid.UUID]bool, len(entities))
	for _, entity := range entities {
		if seen[entity.ID] {
			continue
		}
		seen[entity.ID] = true

		ratings, err := e.reviews.ApprovedRatings(ctx, tenantID, kind, entity.ID)
		if err != nil {
			e.logger.WithError(err).WithField("entityId", entity.ID).Warn("Failed to load ratings for recompute")
			result.addError(0, "", "RATING_RECOMPUTE_FAILED", err.Error())
			continue
		}

		var rating float64
		if len(ratings) > 0 {
			sum := 0
			for _, r := range ratings {
				sum += r
			}
			rating = float64(sum) / float64(len(ratings))
		}

		if err := e.entities.UpdateRatingStats(ctx, tenantID, entity.ID, rating, len(ratings)); err != nil {
			e.logger.WithError(err).WithField("entityId", entity.ID).Warn("Failed to persist rating stats")
			result.addError(0, "", "RATING_RECOMPUTE_FAILED", err.Error())
		}
	}
}
