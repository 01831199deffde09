package importer

import (
	"context"
	"errors"
	"io"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"catalog-service/internal/models"
)

// MockEntityStore is a mock implementation of EntityStore
type MockEntityStore struct {
	mock.Mock
}

var _ EntityStore = (*MockEntityStore)(nil)

func (m *MockEntityStore) FindByRefIDs(ctx context.Context, tenantID string, refIDs []string) ([]EntityRef, error) {
	args := m.Called(ctx, tenantID, refIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]EntityRef), args.Error(1)
}

func (m *MockEntityStore) FindByNaturalKeys(ctx context.Context, tenantID string, keys []string) ([]EntityRef, error) {
	args := m.Called(ctx, tenantID, keys)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]EntityRef), args.Error(1)
}

func (m *MockEntityStore) Update(ctx context.Context, tenantID string, id uuid.UUID, updates map[string]interface{}) error {
	args := m.Called(ctx, tenantID, id, updates)
	return args.Error(0)
}

func (m *MockEntityStore) BulkCreate(ctx context.Context, tenantID string, payloads []map[string]interface{}) ([]EntityRef, error) {
	args := m.Called(ctx, tenantID, payloads)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]EntityRef), args.Error(1)
}

func (m *MockEntityStore) UpdateRatingStats(ctx context.Context, tenantID string, id uuid.UUID, rating float64, reviewCount int) error {
	args := m.Called(ctx, tenantID, id, rating, reviewCount)
	return args.Error(0)
}

// MockReviewStore is a mock implementation of ReviewStore
type MockReviewStore struct {
	mock.Mock
}

var _ ReviewStore = (*MockReviewStore)(nil)

func (m *MockReviewStore) Create(ctx context.Context, tenantID string, review *models.Review) error {
	args := m.Called(ctx, tenantID, review)
	return args.Error(0)
}

func (m *MockReviewStore) ApprovedRatings(ctx context.Context, tenantID string, targetType models.EntityKind, targetID uuid.UUID) ([]int, error) {
	args := m.Called(ctx, tenantID, targetType, targetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int), args.Error(1)
}

// MockUserStore is a mock implementation of UserStore
type MockUserStore struct {
	mock.Mock
}

var _ UserStore = (*MockUserStore)(nil)

func (m *MockUserStore) FindByEmails(ctx context.Context, tenantID string, emails []string) ([]UserRef, error) {
	args := m.Called(ctx, tenantID, emails)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]UserRef), args.Error(1)
}

func (m *MockUserStore) CreateReviewer(ctx context.Context, tenantID, name, email string) (UserRef, error) {
	args := m.Called(ctx, tenantID, name, email)
	return args.Get(0).(UserRef), args.Error(1)
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestEngine(kind models.EntityKind, entities *MockEntityStore, reviews *MockReviewStore, users *MockUserStore) *Engine {
	return NewEngine(AdapterFor(kind), entities, reviews, users, testLogger())
}

const testTenant = "tenant-123"

// ===========================================
// End-to-end batch tests
// ===========================================

func TestRun_CreatesActivityWithReviewsAndRating(t *testing.T) {
	ctx := context.Background()
	activityID := uuid.New()
	omar := UserRef{ID: uuid.New(), Email: "omar@example.com", Name: "Omar"}
	sara := UserRef{ID: uuid.New(), Email: "sara@example.com", Name: "Sara"}

	rows := []Row{
		row(2, map[string]string{
			"name": "Desert Tour", "price": "100", "location": "Agafay",
			"reviewname": "Omar", "reviewrating": "5",
			"reviewcomment": "Amazing", "reviewuseremail": "omar@example.com",
		}),
		row(3, map[string]string{
			"name":       "Desert Tour",
			"reviewname": "Sara", "reviewrating": "3",
			"reviewcomment": "It was ok", "reviewuseremail": "sara@example.com",
		}),
	}

	entities := new(MockEntityStore)
	reviews := new(MockReviewStore)
	users := new(MockUserStore)

	entities.On("FindByNaturalKeys", ctx, testTenant, []string{"Desert Tour"}).
		Return([]EntityRef{}, nil)
	entities.On("BulkCreate", ctx, testTenant, mock.Anything).
		Return([]EntityRef{{ID: activityID, NaturalKey: "Desert Tour", CreatedAt: time.Now()}}, nil)

	users.On("FindByEmails", ctx, testTenant, []string{"omar@example.com", "sara@example.com"}).
		Return([]UserRef{}, nil)
	users.On("CreateReviewer", ctx, testTenant, "Omar", "omar@example.com").Return(omar, nil)
	users.On("CreateReviewer", ctx, testTenant, "Sara", "sara@example.com").Return(sara, nil)

	reviews.On("Create", ctx, testTenant, mock.AnythingOfType("*models.Review")).Return(nil)
	reviews.On("ApprovedRatings", ctx, testTenant, models.EntityKindActivity, activityID).
		Return([]int{5, 3}, nil)

	entities.On("UpdateRatingStats", ctx, testTenant, activityID, 4.0, 2).Return(nil)

	engine := newTestEngine(models.EntityKindActivity, entities, reviews, users)
	result, err := engine.Run(ctx, testTenant, rows, "")

	assert.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 2, result.TotalRows)
	assert.Equal(t, 1, result.CreatedCount)
	assert.Equal(t, 0, result.UpdatedCount)
	assert.Equal(t, 0, result.SkippedRows)
	assert.Equal(t, 2, result.ReviewsCreated)
	assert.Equal(t, 0, result.ReviewsFailed)
	entities.AssertExpectations(t)
	reviews.AssertExpectations(t)
	users.AssertExpectations(t)
	entities.AssertNotCalled(t, "FindByRefIDs", mock.Anything, mock.Anything, mock.Anything)
}

func TestRun_UpdatesExistingEntityByRefID(t *testing.T) {
	ctx := context.Background()
	productID := uuid.New()
	refID := "PRD-0042"

	rows := []Row{
		row(2, map[string]string{"refid": refID, "name": "Argan Oil 100ml", "price": "21.50"}),
	}

	entities := new(MockEntityStore)
	reviews := new(MockReviewStore)
	users := new(MockUserStore)

	entities.On("FindByRefIDs", ctx, testTenant, []string{refID}).
		Return([]EntityRef{{ID: productID, RefID: &refID, NaturalKey: "Argan Oil 100ml"}}, nil)
	entities.On("Update", ctx, testTenant, productID, mock.MatchedBy(func(updates map[string]interface{}) bool {
		return updates["price"] == 21.50 && updates["name"] == "Argan Oil 100ml"
	})).Return(nil)
	reviews.On("ApprovedRatings", ctx, testTenant, models.EntityKindProduct, productID).
		Return([]int{}, nil)
	entities.On("UpdateRatingStats", ctx, testTenant, productID, 0.0, 0).Return(nil)

	engine := newTestEngine(models.EntityKindProduct, entities, reviews, users)
	result, err := engine.Run(ctx, testTenant, rows, "")

	assert.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 0, result.CreatedCount)
	assert.Equal(t, 1, result.UpdatedCount)
	entities.AssertNotCalled(t, "BulkCreate", mock.Anything, mock.Anything, mock.Anything)
	entities.AssertExpectations(t)
}

func TestRun_NaturalKeyFallbackMatchesExisting(t *testing.T) {
	ctx := context.Background()
	articleID := uuid.New()

	rows := []Row{
		row(2, map[string]string{"title": "Top 10 Riads in the Medina", "category": "Guides"}),
	}

	entities := new(MockEntityStore)
	reviews := new(MockReviewStore)
	users := new(MockUserStore)

	entities.On("FindByNaturalKeys", ctx, testTenant, []string{"Top 10 Riads in the Medina"}).
		Return([]EntityRef{{ID: articleID, NaturalKey: "Top 10 Riads in the Medina"}}, nil)
	entities.On("Update", ctx, testTenant, articleID, mock.Anything).Return(nil)
	reviews.On("ApprovedRatings", ctx, testTenant, models.EntityKindArticle, articleID).
		Return([]int{}, nil)
	entities.On("UpdateRatingStats", ctx, testTenant, articleID, 0.0, 0).Return(nil)

	engine := newTestEngine(models.EntityKindArticle, entities, reviews, users)
	result, err := engine.Run(ctx, testTenant, rows, "")

	assert.NoError(t, err)
	assert.Equal(t, 1, result.UpdatedCount)
	entities.AssertExpectations(t)
}

func TestRun_NaturalKeyCollisionResolvesToNewestEntity(t *testing.T) {
	ctx := context.Background()
	older := EntityRef{ID: uuid.New(), NaturalKey: "Desert Tour", CreatedAt: time.Now().Add(-time.Hour)}
	newer := EntityRef{ID: uuid.New(), NaturalKey: "Desert Tour", CreatedAt: time.Now()}

	rows := []Row{
		row(2, map[string]string{"name": "Desert Tour", "price": "120"}),
	}

	entities := new(MockEntityStore)
	reviews := new(MockReviewStore)
	users := new(MockUserStore)

	entities.On("FindByNaturalKeys", ctx, testTenant, []string{"Desert Tour"}).
		Return([]EntityRef{older, newer}, nil)
	entities.On("Update", ctx, testTenant, newer.ID, mock.Anything).Return(nil)
	reviews.On("ApprovedRatings", ctx, testTenant, models.EntityKindActivity, newer.ID).
		Return([]int{}, nil)
	entities.On("UpdateRatingStats", ctx, testTenant, newer.ID, 0.0, 0).Return(nil)

	engine := newTestEngine(models.EntityKindActivity, entities, reviews, users)
	_, err := engine.Run(ctx, testTenant, rows, "")

	assert.NoError(t, err)
	entities.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, older.ID, mock.Anything)
	entities.AssertExpectations(t)
}

// ===========================================
// Failure semantics
// ===========================================

func TestRun_EntityWriteFailureAbortsBatch(t *testing.T) {
	ctx := context.Background()
	productID := uuid.New()
	refID := "PRD-1"

	rows := []Row{
		row(2, map[string]string{"refid": refID, "name": "Argan Oil 100ml"}),
	}

	entities := new(MockEntityStore)
	reviews := new(MockReviewStore)
	users := new(MockUserStore)

	entities.On("FindByRefIDs", ctx, testTenant, []string{refID}).
		Return([]EntityRef{{ID: productID, RefID: &refID}}, nil)
	entities.On("Update", ctx, testTenant, productID, mock.Anything).
		Return(errors.New("connection reset"))

	engine := newTestEngine(models.EntityKindProduct, entities, reviews, users)
	result, err := engine.Run(ctx, testTenant, rows, "")

	assert.Error(t, err)
	assert.False(t, result.Success)
	reviews.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	entities.AssertNotCalled(t, "UpdateRatingStats", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRun_ReviewFailuresAreIsolatedPerRow(t *testing.T) {
	ctx := context.Background()
	activityID := uuid.New()
	omar := UserRef{ID: uuid.New(), Email: "omar@example.com", Name: "Omar"}
	sara := UserRef{ID: uuid.New(), Email: "sara@example.com", Name: "Sara"}

	rows := []Row{
		row(2, map[string]string{
			"name": "Desert Tour", "reviewrating": "5",
			"reviewcomment": "Amazing", "reviewuseremail": "omar@example.com",
		}),
		row(3, map[string]string{
			"name": "Desert Tour", "reviewrating": "3",
			"reviewcomment": "It was ok", "reviewuseremail": "sara@example.com",
		}),
	}

	entities := new(MockEntityStore)
	reviews := new(MockReviewStore)
	users := new(MockUserStore)

	entities.On("FindByNaturalKeys", ctx, testTenant, []string{"Desert Tour"}).
		Return([]EntityRef{}, nil)
	entities.On("BulkCreate", ctx, testTenant, mock.Anything).
		Return([]EntityRef{{ID: activityID, NaturalKey: "Desert Tour"}}, nil)
	users.On("FindByEmails", ctx, testTenant, mock.Anything).
		Return([]UserRef{omar, sara}, nil)

	reviews.On("Create", ctx, testTenant, mock.MatchedBy(func(r *models.Review) bool {
		return r.UserID == omar.ID
	})).Return(errors.New("insert failed"))
	reviews.On("Create", ctx, testTenant, mock.MatchedBy(func(r *models.Review) bool {
		return r.UserID == sara.ID
	})).Return(nil)

	reviews.On("ApprovedRatings", ctx, testTenant, models.EntityKindActivity, activityID).
		Return([]int{3}, nil)
	entities.On("UpdateRatingStats", ctx, testTenant, activityID, 3.0, 1).Return(nil)

	engine := newTestEngine(models.EntityKindActivity, entities, reviews, users)
	result, err := engine.Run(ctx, testTenant, rows, "")

	assert.NoError(t, err, "review failures never abort the batch")
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.ReviewsCreated)
	assert.Equal(t, 1, result.ReviewsFailed)
	assert.Len(t, result.Errors, 1)
	assert.Equal(t, "REVIEW_CREATE_FAILED", result.Errors[0].Code)
	reviews.AssertExpectations(t)
}

func TestRun_InvalidRatingFailsOnlyThatReview(t *testing.T) {
	ctx := context.Background()
	activityID := uuid.New()
	omar := UserRef{ID: uuid.New(), Email: "omar@example.com", Name: "Omar"}

	rows := []Row{
		row(2, map[string]string{
			"name": "Desert Tour", "reviewrating": "11",
			"reviewcomment": "Too enthusiastic", "reviewuseremail": "omar@example.com",
		}),
	}

	entities := new(MockEntityStore)
	reviews := new(MockReviewStore)
	users := new(MockUserStore)

	entities.On("FindByNaturalKeys", ctx, testTenant, []string{"Desert Tour"}).
		Return([]EntityRef{}, nil)
	entities.On("BulkCreate", ctx, testTenant, mock.Anything).
		Return([]EntityRef{{ID: activityID, NaturalKey: "Desert Tour"}}, nil)
	users.On("FindByEmails", ctx, testTenant, mock.Anything).
		Return([]UserRef{omar}, nil)
	reviews.On("ApprovedRatings", ctx, testTenant, models.EntityKindActivity, activityID).
		Return([]int{}, nil)
	entities.On("UpdateRatingStats", ctx, testTenant, activityID, 0.0, 0).Return(nil)

	engine := newTestEngine(models.EntityKindActivity, entities, reviews, users)
	result, err := engine.Run(ctx, testTenant, rows, "")

	assert.NoError(t, err)
	assert.Equal(t, 0, result.ReviewsCreated)
	assert.Equal(t, 1, result.ReviewsFailed)
	assert.Equal(t, "INVALID_RATING", result.Errors[0].Code)
	reviews.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestRun_ReviewerCreateFailureFailsDependentReviews(t *testing.T) {
	ctx := context.Background()
	activityID := uuid.New()

	rows := []Row{
		row(2, map[string]string{
			"name": "Desert Tour", "reviewrating": "4",
			"reviewcomment": "Nice", "reviewuseremail": "ghost@example.com",
		}),
	}

	entities := new(MockEntityStore)
	reviews := new(MockReviewStore)
	users := new(MockUserStore)

	entities.On("FindByNaturalKeys", ctx, testTenant, []string{"Desert Tour"}).
		Return([]EntityRef{}, nil)
	entities.On("BulkCreate", ctx, testTenant, mock.Anything).
		Return([]EntityRef{{ID: activityID, NaturalKey: "Desert Tour"}}, nil)
	users.On("FindByEmails", ctx, testTenant, mock.Anything).
		Return([]UserRef{}, nil)
	users.On("CreateReviewer", ctx, testTenant, defaultReviewerName, "ghost@example.com").
		Return(UserRef{}, errors.New("unique violation"))
	reviews.On("ApprovedRatings", ctx, testTenant, models.EntityKindActivity, activityID).
		Return([]int{}, nil)
	entities.On("UpdateRatingStats", ctx, testTenant, activityID, 0.0, 0).Return(nil)

	engine := newTestEngine(models.EntityKindActivity, entities, reviews, users)
	result, err := engine.Run(ctx, testTenant, rows, "")

	assert.NoError(t, err)
	assert.Equal(t, 1, result.ReviewsFailed)
	reviews.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

// ===========================================
// Reviewer identity reuse
// ===========================================

func TestRun_ExistingReviewerIsReusedNotRecreated(t *testing.T) {
	ctx := context.Background()
	activityID := uuid.New()
	omar := UserRef{ID: uuid.New(), Email: "omar@example.com", Name: "Omar"}

	rows := []Row{
		row(2, map[string]string{
			"name": "Desert Tour", "reviewrating": "5",
			"reviewcomment": "Amazing", "reviewuseremail": "OMAR@example.com",
		}),
	}

	entities := new(MockEntityStore)
	reviews := new(MockReviewStore)
	users := new(MockUserStore)

	entities.On("FindByNaturalKeys", ctx, testTenant, []string{"Desert Tour"}).
		Return([]EntityRef{}, nil)
	entities.On("BulkCreate", ctx, testTenant, mock.Anything).
		Return([]EntityRef{{ID: activityID, NaturalKey: "Desert Tour"}}, nil)
	users.On("FindByEmails", ctx, testTenant, []string{"omar@example.com"}).
		Return([]UserRef{omar}, nil)
	reviews.On("Create", ctx, testTenant, mock.MatchedBy(func(r *models.Review) bool {
		return r.UserID == omar.ID && r.Status == models.ReviewStatusApproved && r.Imported
	})).Return(nil)
	reviews.On("ApprovedRatings", ctx, testTenant, models.EntityKindActivity, activityID).
		Return([]int{5}, nil)
	entities.On("UpdateRatingStats", ctx, testTenant, activityID, 5.0, 1).Return(nil)

	engine := newTestEngine(models.EntityKindActivity, entities, reviews, users)
	result, err := engine.Run(ctx, testTenant, rows, "")

	assert.NoError(t, err)
	assert.Equal(t, 1, result.ReviewsCreated)
	users.AssertNotCalled(t, "CreateReviewer", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// ===========================================
// Skipped rows and validation
// ===========================================

func TestRun_UnidentifiableRowsAreReportedNotDropped(t *testing.T) {
	ctx := context.Background()

	rows := []Row{
		row(2, map[string]string{"price": "100"}),
	}

	entities := new(MockEntityStore)
	reviews := new(MockReviewStore)
	users := new(MockUserStore)

	engine := newTestEngine(models.EntityKindActivity, entities, reviews, users)
	result, err := engine.Run(ctx, testTenant, rows, "")

	assert.NoError(t, err)
	assert.Equal(t, 1, result.SkippedRows)
	assert.Equal(t, "ROW_UNIDENTIFIABLE", result.Errors[0].Code)
	entities.AssertNotCalled(t, "BulkCreate", mock.Anything, mock.Anything, mock.Anything)
}

func TestValidate_ReportsBadRatingsWithoutStoreAccess(t *testing.T) {
	rows := []Row{
		row(2, map[string]string{
			"name": "Desert Tour", "reviewrating": "abc",
			"reviewcomment": "Nice", "reviewuseremail": "omar@example.com",
		}),
		row(3, map[string]string{"price": "100"}),
	}

	entities := new(MockEntityStore)
	reviews := new(MockReviewStore)
	users := new(MockUserStore)

	engine := newTestEngine(models.EntityKindActivity, entities, reviews, users)
	result := engine.Validate(rows)

	assert.False(t, result.Success)
	assert.Equal(t, 1, result.SkippedRows)
	assert.Equal(t, 1, result.ReviewsFailed)
	entities.AssertExpectations(t)
	reviews.AssertExpectations(t)
	users.AssertExpectations(t)
}

// ===========================================
// Artifact cleanup
// ===========================================

func writeTestArtifact(t *testing.T) string {
	t.Helper()
	tmp, err := os.CreateTemp(t.TempDir(), "import-*.csv")
	assert.NoError(t, err)
	tmp.WriteString("name\nDesert Tour\n")
	tmp.Close()
	return tmp.Name()
}

func TestRun_RemovesArtifactOnSuccess(t *testing.T) {
	ctx := context.Background()
	path := writeTestArtifact(t)

	entities := new(MockEntityStore)
	reviews := new(MockReviewStore)
	users := new(MockUserStore)

	engine := newTestEngine(models.EntityKindActivity, entities, reviews, users)
	_, err := engine.Run(ctx, testTenant, nil, path)

	assert.NoError(t, err)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "artifact must be removed after a successful run")
}

func TestRun_RemovesArtifactOnFatalError(t *testing.T) {
	ctx := context.Background()
	path := writeTestArtifact(t)

	rows := []Row{
		row(2, map[string]string{"name": "Desert Tour"}),
	}

	entities := new(MockEntityStore)
	reviews := new(MockReviewStore)
	users := new(MockUserStore)

	entities.On("FindByNaturalKeys", ctx, testTenant, mock.Anything).
		Return(nil, errors.New("db down"))

	engine := newTestEngine(models.EntityKindActivity, entities, reviews, users)
	_, err := engine.Run(ctx, testTenant, rows, path)

	assert.Error(t, err)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "artifact must be removed even when the batch aborts")
}

// ===========================================
// Rating recompute
// ===========================================

func TestRun_RecalculatesRatingOncePerEntity(t *testing.T) {
	ctx := context.Background()
	activityID := uuid.New()
	refID := "ACT-1"

	// Two groups (one keyed by refId, one by name) resolve to the same
	// stored entity; the rating recompute must still run exactly once.
	rows := []Row{
		row(2, map[string]string{"refid": refID, "name": "Desert Tour"}),
		row(3, map[string]string{"name": "Desert Tour"}),
	}

	entities := new(MockEntityStore)
	reviews := new(MockReviewStore)
	users := new(MockUserStore)

	shared := EntityRef{ID: activityID, RefID: &refID, NaturalKey: "Desert Tour"}
	entities.On("FindByRefIDs", ctx, testTenant, []string{refID}).
		Return([]EntityRef{shared}, nil)
	entities.On("FindByNaturalKeys", ctx, testTenant, []string{"Desert Tour"}).
		Return([]EntityRef{shared}, nil)
	entities.On("Update", ctx, testTenant, activityID, mock.Anything).Return(nil)
	reviews.On("ApprovedRatings", ctx, testTenant, models.EntityKindActivity, activityID).
		Return([]int{4, 4, 5}, nil).Once()
	entities.On("UpdateRatingStats", ctx, testTenant, activityID, mock.MatchedBy(func(r float64) bool {
		return r > 4.32 && r < 4.34
	}), 3).Return(nil).Once()

	engine := newTestEngine(models.EntityKindActivity, entities, reviews, users)
	result, err := engine.Run(ctx, testTenant, rows, "")

	assert.NoError(t, err)
	assert.Equal(t, 2, result.UpdatedCount)
	reviews.AssertExpectations(t)
	entities.AssertExpectations(t)
}
