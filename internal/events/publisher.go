package events

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Tesseract-Nexus/go-shared/events"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"catalog-service/internal/models"
)

// Publisher wraps the shared events publisher for catalog and review events
type Publisher struct {
	publisher *events.Publisher
	logger    *logrus.Entry
}

// NewPublisher creates a new catalog events publisher
func NewPublisher(logger *logrus.Logger) (*Publisher, error) {
	natsURL := os.Getenv("NATS_URL")
	if natsURL == "" {
		natsURL = "nats://nats.nats.svc.cluster.local:4222"
	}

	config := events.DefaultPublisherConfig(natsURL)
	config.Name = "catalog-service"

	publisher, err := events.NewPublisher(config, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create events publisher: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := publisher.EnsureStream(ctx, events.StreamProducts, []string{"product.>"}); err != nil {
		logger.WithError(err).Warn("Failed to ensure products stream (may already exist)")
	}
	if err := publisher.EnsureStream(ctx, events.StreamReviews, []string{"review.>"}); err != nil {
		logger.WithError(err).Warn("Failed to ensure REVIEW_EVENTS stream")
	}

	return &Publisher{
		publisher: publisher,
		logger:    logger.WithField("component", "events.publisher"),
	}, nil
}

// IsConnected returns true if connected to NATS
func (p *Publisher) IsConnected() bool {
	return p.publisher.IsConnected()
}

// Close closes the publisher connection
func (p *Publisher) Close() {
	if p.publisher != nil {
		p.publisher.Close()
	}
}

// PublishImportCompleted publishes a catalog import completion event
func (p *Publisher) PublishImportCompleted(ctx context.Context, tenantID string, kind models.EntityKind, result *models.ImportResult) error {
	event := events.NewProductEvent("product.imported", tenantID)
	event.SourceID = uuid.New().String()
	event.ChangeType = "imported"
	event.NewValue = map[string]interface{}{
		"kind":           string(kind),
		"totalRows":      result.TotalRows,
		"created":        result.CreatedCount,
		"updated":        result.UpdatedCount,
		"skippedRows":    result.SkippedRows,
		"reviewsCreated": result.ReviewsCreated,
		"reviewsFailed":  result.ReviewsFailed,
	}

	// Publish asynchronously to not block the main flow
	go func() {
		pubCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := p.publisher.PublishProduct(pubCtx, event); err != nil {
			p.logger.WithFields(logrus.Fields{
				"eventType": event.EventType,
				"kind":      kind,
				"tenantID":  tenantID,
			}).WithError(err).Error("Failed to publish import event")
		}
	}()

	return nil
}

// PublishReviewCreated publishes a review created event
func (p *Publisher) PublishReviewCreated(ctx context.Context, tenantID string, review *models.Review, targetName string) error {
	event := events.NewReviewEvent(events.ReviewCreated, tenantID)
	event.ReviewID = review.ID.String()
	event.ProductID = review.TargetID.String()
	event.ProductName = targetName
	event.CustomerID = review.UserID.String()
	event.CustomerName = review.UserName
	event.Rating = review.Rating
	event.Content = review.Comment
	event.Status = string(review.Status)

	return p.publishReview(event)
}

// PublishReviewModerated publishes a review approved or rejected event
func (p *Publisher) PublishReviewModerated(ctx context.Context, tenantID string, review *models.Review, moderatedBy string) error {
	eventType := events.ReviewApproved
	if review.Status == models.ReviewStatusRejected {
		eventType = events.ReviewRejected
	}

	event := events.NewReviewEvent(eventType, tenantID)
	event.ReviewID = review.ID.String()
	event.ProductID = review.TargetID.String()
	event.CustomerName = review.UserName
	event.Rating = review.Rating
	event.ModeratedBy = moderatedBy
	event.Status = string(review.Status)

	return p.publishReview(event)
}

func (p *Publisher) publishReview(event *events.ReviewEvent) error {
	go func() {
		pubCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := p.publisher.PublishReview(pubCtx, event); err != nil {
			p.logger.WithFields(logrus.Fields{
				"eventType": event.EventType,
				"reviewID":  event.ReviewID,
				"tenantID":  event.TenantID,
			}).WithError(err).Error("Failed to publish review event")
		}
	}()

	return nil
}
