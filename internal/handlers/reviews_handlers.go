package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"catalog-service/internal/events"
	"catalog-service/internal/importer"
	"catalog-service/internal/models"
	"catalog-service/internal/repository"
)

type ReviewsHandler struct {
	reviews   *repository.ReviewsRepository
	catalogs  map[models.EntityKind]*repository.CatalogRepository
	publisher *events.Publisher
	logger    *logrus.Logger
}

func NewReviewsHandler(db *gorm.DB, redisClient *redis.Client, reviews *repository.ReviewsRepository, publisher *events.Publisher, logger *logrus.Logger) *ReviewsHandler {
	catalogs := make(map[models.EntityKind]*repository.CatalogRepository, len(models.EntityKinds()))
	for _, kind := range models.EntityKinds() {
		catalogs[kind] = repository.NewCatalogRepository(db, redisClient, importer.AdapterFor(kind).Spec())
	}
	return &ReviewsHandler{
		reviews:   reviews,
		catalogs:  catalogs,
		publisher: publisher,
		logger:    logger,
	}
}

// CreateReview creates a review for a catalog entity
// POST /api/v1/reviews
func (h *ReviewsHandler) CreateReview(c *gin.Context) {
	tenantID, _ := c.Get("tenant_id")
	userID, _ := c.Get("user_id")
	userName, _ := c.Get("user_name")

	var req models.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_ERROR",
				Message: err.Error(),
			},
		})
		return
	}

	targetType, err := models.ParseEntityKind(req.TargetType)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_KIND",
				Message: err.Error(),
				Field:   "targetType",
			},
		})
		return
	}

	targetID, err := uuid.Parse(req.TargetID)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_ID",
				Message: "Invalid target ID format",
				Field:   "targetId",
			},
		})
		return
	}

	// Target must exist before a review can attach to it
	if err := h.catalogs[targetType].GetByID(c.Request.Context(), tenantID.(string), targetID, newEntity(targetType)); err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "TARGET_NOT_FOUND",
				Message: "The reviewed entity does not exist",
			},
		})
		return
	}

	reviewerID, err := uuid.Parse(userID.(string))
	if err != nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "UNAUTHORIZED",
				Message: "Missing user identity",
			},
		})
		return
	}

	reviewerName := "Anonymous"
	if userName != nil && userName.(string) != "" {
		reviewerName = userName.(string)
	}

	review := &models.Review{
		TargetID:   targetID,
		TargetType: targetType,
		UserID:     reviewerID,
		UserName:   reviewerName,
		Rating:     req.Rating,
		Comment:    req.Comment,
		Status:     models.ReviewStatusPending,
	}

	if err := h.reviews.Create(c.Request.Context(), tenantID.(string), review); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "CREATE_FAILED",
				Message: "Failed to create review",
			},
		})
		return
	}

	if h.publisher != nil {
		h.publisher.PublishReviewCreated(c.Request.Context(), tenantID.(string), review, "")
	}

	c.JSON(http.StatusCreated, models.SuccessResponse{
		Success: true,
		Data:    review,
	})
}

// GetEntityReviews lists reviews attached to one catalog entity
// GET /api/v1/catalog/:kind/:id/reviews
func (h *ReviewsHandler) GetEntityReviews(c *gin.Context) {
	kind, ok := parseKindParam(c)
	if !ok {
		return
	}
	tenantID, _ := c.Get("tenant_id")

	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_ID",
				Message: "Invalid entity ID format",
			},
		})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	status := models.ReviewStatus(c.Query("status"))

	reviews, total, err := h.reviews.GetByTarget(c.Request.Context(), tenantID.(string), kind, targetID, status, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FETCH_FAILED",
				Message: "Failed to retrieve reviews",
			},
		})
		return
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	c.JSON(http.StatusOK, models.ListResponse{
		Success: true,
		Data:    reviews,
		Pagination: &models.PaginationInfo{
			Page:        page,
			Limit:       limit,
			Total:       total,
			TotalPages:  totalPages,
			HasNext:     page < totalPages,
			HasPrevious: page > 1,
		},
	})
}

// UpdateReviewStatus moderates a review and recomputes the target's rating
// PUT /api/v1/reviews/:id/status
func (h *ReviewsHandler) UpdateReviewStatus(c *gin.Context) {
	tenantID, _ := c.Get("tenant_id")
	userEmail, _ := c.Get("user_email")

	reviewID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_ID",
				Message: "Invalid review ID format",
			},
		})
		return
	}

	var req models.UpdateReviewStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_ERROR",
				Message: err.Error(),
			},
		})
		return
	}

	switch req.Status {
	case models.ReviewStatusApproved, models.ReviewStatusRejected, models.ReviewStatusPending:
	default:
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_STATUS",
				Message: "Status must be PENDING, APPROVED or REJECTED",
				Field:   "status",
			},
		})
		return
	}

	review, err := h.reviews.UpdateStatus(c.Request.Context(), tenantID.(string), reviewID, req.Status)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "NOT_FOUND",
				Message: "Review not found",
			},
		})
		return
	}

	// Approval state changed, so the target's aggregate rating is stale
	h.recomputeTargetRating(c, tenantID.(string), review)

	if h.publisher != nil {
		moderatedBy := ""
		if userEmail != nil {
			moderatedBy = userEmail.(string)
		}
		h.publisher.PublishReviewModerated(c.Request.Context(), tenantID.(string), review, moderatedBy)
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    review,
	})
}

func (h *ReviewsHandler) recomputeTargetRating(c *gin.Context, tenantID string, review *models.Review) {
	ctx := c.Request.Context()

	ratings, err := h.reviews.ApprovedRatings(ctx, tenantID, review.TargetType, review.TargetID)
	if err != nil {
		h.logger.WithError(err).WithField("targetId", review.TargetID).Error("Failed to load approved ratings")
		return
	}

	rating := 0.0
	if len(ratings) > 0 {
		sum := 0
		for _, r := range ratings {
			sum += r
		}
		rating = float64(sum) / float64(len(ratings))
	}

	if err := h.catalogs[review.TargetType].UpdateRatingStats(ctx, tenantID, review.TargetID, rating, len(ratings)); err != nil {
		h.logger.WithError(err).WithField("targetId", review.TargetID).Error("Failed to update rating stats")
	}
}

// GetReviewsSummary returns tenant-wide review counts
// GET /api/v1/reviews/summary
func (h *ReviewsHandler) GetReviewsSummary(c *gin.Context) {
	tenantID, _ := c.Get("tenant_id")

	summary, err := h.reviews.GetSummary(c.Request.Context(), tenantID.(string))
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FETCH_FAILED",
				Message: "Failed to compute reviews summary",
			},
		})
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    summary,
	})
}
