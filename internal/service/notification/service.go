package notification

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/movermatch/marketplace-api/internal/model"
	"github.com/movermatch/marketplace-api/internal/repository"
	"github.com/movermatch/marketplace-api/pkg/logger"
)

// Service owns the in-app notification surface: engine components create
// records through Notify, recipients query and mutate them through the
// remaining methods.
type Service struct {
	repo   repository.NotificationRepository
	logger *logger.Logger
}

func NewService(repo repository.NotificationRepository, logger *logger.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Notify persists a notification best-effort: a storage failure is logged
// and swallowed so it can never block an engine transition.
func (s *Service) Notify(ctx context.Context, n *model.Notification) {
	if err := s.repo.Create(ctx, n); err != nil {
		s.logger.Error(err, "failed to create notification",
			"recipient_id", n.RecipientID.String(), "type", string(n.Type))
	}
}

func (s *Service) List(ctx context.Context, recipientID uuid.UUID, unreadOnly bool, limit int) ([]*model.Notification, error) {
	notifications, err := s.repo.ListByRecipient(ctx, &model.NotificationFilters{
		RecipientID: recipientID,
		UnreadOnly:  unreadOnly,
		Limit:       limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

func (s *Service) MarkRead(ctx context.Context, id, recipientID uuid.UUID) error {
	if err := s.repo.MarkRead(ctx, id, recipientID); err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

func (s *Service) MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	count, err := s.repo.MarkAllRead(ctx, recipientID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return count, nil
}

func (s *Service) UnreadCount(ctx context.Context, recipientID uuid.UUID) (int, error) {
	count, err := s.repo.UnreadCount(ctx, recipientID)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

func (s *Service) Delete(ctx context.Context, id, recipientID uuid.UUID) error {
	if err := s.repo.Delete(ctx, id, recipientID); err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	return nil
}
