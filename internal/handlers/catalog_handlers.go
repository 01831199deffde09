package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"catalog-service/internal/importer"
	"catalog-service/internal/models"
	"catalog-service/internal/repository"
)

// CatalogHandler serves read access to the four catalog kinds through one
// set of routes parametrized by :kind.
type CatalogHandler struct {
	catalogs map[models.EntityKind]*repository.CatalogRepository
}

func NewCatalogHandler(db *gorm.DB, redisClient *redis.Client) *CatalogHandler {
	catalogs := make(map[models.EntityKind]*repository.CatalogRepository, len(models.EntityKinds()))
	for _, kind := range models.EntityKinds() {
		catalogs[kind] = repository.NewCatalogRepository(db, redisClient, importer.AdapterFor(kind).Spec())
	}
	return &CatalogHandler{catalogs: catalogs}
}

// newEntitySlice returns a pointer to an empty slice of the kind's model
func newEntitySlice(kind models.EntityKind) interface{} {
	switch kind {
	case models.EntityKindArticle:
		return &[]models.Article{}
	case models.EntityKindProduct:
		return &[]models.Product{}
	case models.EntityKindActivity:
		return &[]models.Activity{}
	case models.EntityKindTravelProgram:
		return &[]models.TravelProgram{}
	}
	return nil
}

// newEntity returns a pointer to an empty model of the kind
func newEntity(kind models.EntityKind) interface{} {
	switch kind {
	case models.EntityKindArticle:
		return &models.Article{}
	case models.EntityKindProduct:
		return &models.Product{}
	case models.EntityKindActivity:
		return &models.Activity{}
	case models.EntityKindTravelProgram:
		return &models.TravelProgram{}
	}
	return nil
}

// ListEntities retrieves one page of a catalog kind
// GET /api/v1/catalog/:kind
func (h *CatalogHandler) ListEntities(c *gin.Context) {
	kind, ok := parseKindParam(c)
	if !ok {
		return
	}
	tenantID, _ := c.Get("tenant_id")

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	dest := newEntitySlice(kind)
	total, err := h.catalogs[kind].FindPage(c.Request.Context(), tenantID.(string), page, limit, dest)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FETCH_FAILED",
				Message: "Failed to retrieve " + string(kind) + " entries",
			},
		})
		return
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	pagination := &models.PaginationInfo{
		Page:        page,
		Limit:       limit,
		Total:       total,
		TotalPages:  totalPages,
		HasNext:     page < totalPages,
		HasPrevious: page > 1,
	}

	c.JSON(http.StatusOK, models.ListResponse{
		Success:    true,
		Data:       dest,
		Pagination: pagination,
	})
}

// GetEntity retrieves a single catalog entity by ID
// GET /api/v1/catalog/:kind/:id
func (h *CatalogHandler) GetEntity(c *gin.Context) {
	kind, ok := parseKindParam(c)
	if !ok {
		return
	}
	tenantID, _ := c.Get("tenant_id")

	id, err := uuid.Parse(c.Param("id"))
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

	dest := newEntity(kind)
	if err := h.catalogs[kind].GetByID(c.Request.Context(), tenantID.(string), id, dest); err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "NOT_FOUND",
				Message: "Entity not found",
			},
		})
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    dest,
	})
}
