package repository

import (
	"context"
	"fmt"
	"time"

	"bondoutfit/internal/data/entity"
	"bondoutfit/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *entity.Notification) error
	Exists(ctx context.Context, visitID uuid.UUID, typ entity.NotificationType, audience entity.NotificationAudience) (bool, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status entity.NotificationStatus, sendErr *string, sentAt *time.Time) error
}

type notificationRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewNotificationRepository(db database.Querier, log *zap.Logger) NotificationRepository {
	return &notificationRepository{
		db:  db,
		log: log.With(zap.String("repository", "notification")),
	}
}

func (r *notificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	query := `
		INSERT INTO notifications (id, visit_id, user_id, type, audience, channel, recipient,
		                           subject, body, status, error, sent_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.Exec(ctx, query,
		n.ID,
		n.VisitID,
		n.UserID,
		n.Type,
		n.Audience,
		n.Channel,
		n.Recipient,
		n.Subject,
		n.Body,
		n.Status,
		n.Error,
		n.SentAt,
		n.CreatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create notification",
			zap.Error(err),
			zap.String("type", string(n.Type)),
			zap.String("recipient", n.Recipient),
		)
		return fmt.Errorf("create notification %s: %w", n.Type, err)
	}

	return nil
}

// Exists reports whether a notification of this type was already recorded
// for the visit and audience, whatever its delivery status.
func (r *notificationRepository) Exists(ctx context.Context, visitID uuid.UUID, typ entity.NotificationType, audience entity.NotificationAudience) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM notifications
			WHERE visit_id = $1 AND type = $2 AND audience = $3
		)
	`

	var ok bool
	if err := r.db.QueryRow(ctx, query, visitID, typ, audience).Scan(&ok); err != nil {
		r.log.Error("Failed to check notification",
			zap.Error(err),
			zap.String("visit_id", visitID.String()),
			zap.String("type", string(typ)),
		)
		return false, fmt.Errorf("check notification %s for visit %s: %w", typ, visitID.String(), err)
	}

	return ok, nil
}

func (r *notificationRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.NotificationStatus, sendErr *string, sentAt *time.Time) error {
	query := `UPDATE notifications SET status = $2, error = $3, sent_at = $4 WHERE id = $1`

	if _, err := r.db.Exec(ctx, query, id, status, sendErr, sentAt); err != nil {
		r.log.Error("Failed to update notification status",
			zap.Error(err),
			zap.String("notification_id", id.String()),
		)
		return fmt.Errorf("update notification %s: %w", id.String(), err)
	}

	return nil
}
