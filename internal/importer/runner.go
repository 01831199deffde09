package importer

import (
	"context"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"

	"catalog-service/internal/models"
)

// Engine reconciles one decoded import batch against the catalog for a single
// entity kind. The same pipeline serves all four kinds; everything
// kind-specific lives behind the adapter.
//
// Pipeline order is strict: group rows, resolve identities in bulk, reconcile
// entities (updates then one bulk insert), resolve reviewer identities,
// attach reviews with per-row isolation, then recompute rating aggregates
// once per touched entity.
type Engine struct {
	adapter  EntityAdapter
	entities EntityStore
	reviews  ReviewStore
	users    UserStore
	logger   *logrus.Entry
}

// NewEngine builds an import engine for one catalog kind.
func NewEngine(adapter EntityAdapter, entities EntityStore, reviews ReviewStore, users UserStore, logger *logrus.Logger) *Engine {
	return &Engine{
		adapter:  adapter,
		entities: entities,
		reviews:  reviews,
		users:    users,
		logger: logger.WithFields(logrus.Fields{
			"component": "importer",
			"kind":      string(adapter.Spec().Kind),
		}),
	}
}

// runResult accumulates the batch outcome while the pipeline runs.
type runResult struct {
	created        int
	updated        int
	skippedRows    int
	reviewsCreated int
	reviewsFailed  int
	errors         []models.ImportRowError
}

func (r *runResult) addError(row int, column, code, message string) {
	r.errors = append(r.errors, models.ImportRowError{
		Row:     row,
		Column:  column,
		Code:    code,
		Message: message,
	})
}

func (r *runResult) toImportResult(totalRows int, fatal bool) *models.ImportResult {
	return &models.ImportResult{
		Success:        !fatal,
		TotalRows:      totalRows,
		CreatedCount:   r.created,
		UpdatedCount:   r.updated,
		SkippedRows:    r.skippedRows,
		ReviewsCreated: r.reviewsCreated,
		ReviewsFailed:  r.reviewsFailed,
		Errors:         r.errors,
	}
}

// Run processes one batch to completion. artifactPath, when non-empty, is the
// temporary upload file backing the batch; it is removed on every exit path,
// success or fatal abort. A returned error means an entity write failed and
// the batch aborted; writes applied before the abort point stay applied and
// the partial result reflects them.
func (e *Engine) Run(ctx context.Context, tenantID string, rows []Row, artifactPath string) (*models.ImportResult, error) {
	defer e.removeArtifact(artifactPath)

	result := &runResult{}

	groups, skipped := GroupRows(rows, e.adapter.Spec().NaturalKeyColumn)
	result.skippedRows = len(skipped)
	for _, s := range skipped {
		result.addError(s.Row, "", "ROW_UNIDENTIFIABLE", s.Reason)
	}

	existing, err := resolveIdentities(ctx, tenantID, groups, e.entities)
	if err != nil {
		e.logger.WithError(err).Error("Identity resolution failed")
		return result.toImportResult(len(rows), true), err
	}

	entities, err := e.reconcileEntities(ctx, tenantID, groups, existing, result)
	if err != nil {
		e.logger.WithError(err).Error("Entity reconciliation failed, aborting batch")
		return result.toImportResult(len(rows), true), err
	}

	reviewers, err := e.resolveReviewers(ctx, tenantID, groups, result)
	if err != nil {
		e.logger.WithError(err).Error("Reviewer lookup failed, aborting batch")
		return result.toImportResult(len(rows), true), err
	}

	e.attachReviews(ctx, tenantID, groups, entities, reviewers, result)
	e.recalculateRatings(ctx, tenantID, entities, result)

	e.logger.WithFields(logrus.Fields{
		"created":        result.created,
		"updated":        result.updated,
		"skippedRows":    result.skippedRows,
		"reviewsCreated": result.reviewsCreated,
		"reviewsFailed":  result.reviewsFailed,
	}).Info("Import batch completed")

	return result.toImportResult(len(rows), false), nil
}

// Validate performs the dry-run half of an import: grouping and per-row
// validation with no store access and no writes.
func (e *Engine) Validate(rows []Row) *models.ImportResult {
	result := &runResult{}

	groups, skipped := GroupRows(rows, e.adapter.Spec().NaturalKeyColumn)
	result.skippedRows = len(skipped)
	for _, s := range skipped {
		result.addError(s.Row, "", "ROW_UNIDENTIFIABLE", s.Reason)
	}

	for _, group := range groups {
		for _, review := range group.Reviews {
			if rating, err := strconv.Atoi(review.Rating); err != nil || rating < 1 || rating > 5 {
				result.reviewsFailed++
				result.addError(review.Row, ColReviewRating, "INVALID_RATING",
					"rating "+strconv.Quote(review.Rating)+" must be an integer between 1 and 5")
			}
		}
	}

	out := result.toImportResult(len(rows), false)
	out.Success = len(out.Errors) == 0
	return out
}

// removeArtifact deletes the temporary upload file backing a batch.
func (e *Engine) removeArtifact(artifactPath string) {
	if artifactPath == "" {
		return
	}
	if err := os.Remove(artifactPath); err != nil && !os.IsNotExist(err) {
		e.logger.WithError(err).WithField("path", artifactPath).Error("Failed to remove upload artifact")
	}
}
