package importer

import (
	"context"
	"fmt"
	"strconv"

	"catalog-service/internal/models"
)

// attachReviews creates one review row per embedded review record. Partner
// review data is noisy, so every failure here is isolated: it is logged,
// tallied, and processing continues with the next review. Imported reviews
// are created approved so they immediately feed the rating recompute.
func (e *Engine) attachReviews(ctx context.Context, tenantID string, groups []Group, entities map[IdentityKey]EntityRef, reviewers map[string]UserRef, result *runResult) {
	kind := e.adapter.Spec().Kind

	for _, group := range groups {
		entity, ok := entities[group.Key]
		if !ok {
			// Should never happen: reconciliation either persisted the group
			// or aborted the batch.
			for _, review := range group.Reviews {
				result.reviewsFailed++
				result.addError(review.Row, "", "ENTITY_NOT_RESOLVED",
					fmt.Sprintf("no persisted entity for %q", group.Key.Value))
			}
			continue
		}

		for _, review := range group.Reviews {
			reviewer, ok := reviewers[review.Email]
			if !ok {
				result.reviewsFailed++
				result.addError(review.Row, ColReviewUserEmail, "REVIEWER_UNAVAILABLE",
					"reviewer identity could not be created for "+review.Email)
				continue
			}

			rating, err := strconv.Atoi(review.Rating)
			if err != nil || rating < 1 || rating > 5 {
				result.reviewsFailed++
				result.addError(review.Row, ColReviewRating, "INVALID_RATING",
					fmt.Sprintf("rating %q must be an integer between 1 and 5", review.Rating))
				continue
			}

			name := review.Name
			if name == "" {
				name = reviewer.Name
			}

			record := &models.Review{
				TargetID:   entity.ID,
				TargetType: kind,
				UserID:     reviewer.ID,
				UserName:   name,
				Rating:     rating,
				Comment:    review.Comment,
				Status:     models.ReviewStatusApproved,
				Imported:   true,
			}
			if err := e.reviews.Create(ctx, tenantID, record); err != nil {
				e.logger.WithError(err).WithField("row", review.Row).Warn("Failed to create review")
				result.reviewsFailed++
				result.addError(review.Row, "", "REVIEW_CREATE_FAILED", err.Error())
				continue
			}
			result.reviewsCreated++
		}
	}
}
