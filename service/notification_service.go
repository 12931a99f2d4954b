package service

import (
	"github.com/docflow/review-service/metrics"
	"github.com/docflow/review-service/models"
	"github.com/docflow/review-service/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type NotificationService interface {
	// Dispatch fans a message out to a recipient set: one row per recipient,
	// deduplicated by id. Sender may be nil for system messages. Delivery is
	// fire-and-forget per recipient; a failed insert is logged and skipped.
	Dispatch(recipients []*models.User, sender *models.User, kind models.NotificationKind, message string, file *models.FileRecord)

	Inbox(recipientID uuid.UUID, limit, offset int) ([]*models.Notification, error)
	UnreadCount(recipientID uuid.UUID) (int64, error)
	MarkRead(recipientID, id uuid.UUID) error
	MarkAllRead(recipientID uuid.UUID) error
	Dismiss(recipientID, id uuid.UUID) error
}

type NotificationServiceImpl struct {
	repo   repository.NotificationRepository
	logger *logrus.Logger
}

func NewNotificationService(repo repository.NotificationRepository, logger *logrus.Logger) NotificationService {
	return &NotificationServiceImpl{repo: repo, logger: logger}
}

func (s *NotificationServiceImpl) Dispatch(recipients []*models.User, sender *models.User, kind models.NotificationKind, message string, file *models.FileRecord) {
	var senderID *uuid.UUID
	if sender != nil {
		id := sender.ID
		senderID = &id
	}
	var fileID *uuid.UUID
	if file != nil {
		id := file.ID
		fileID = &id
	}

	seen := make(map[uuid.UUID]bool, len(recipients))
	for _, recipient := range recipients {
		if recipient == nil || seen[recipient.ID] {
			continue
		}
		seen[recipient.ID] = true

		n := &models.Notification{
			RecipientID: recipient.ID,
			SenderID:    senderID,
			Kind:        kind,
			Message:     message,
			FileID:      fileID,
		}
		if err := s.repo.Create(n); err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"recipient": recipient.ID,
				"kind":      kind,
			}).Warn("notification create failed, continuing fan-out")
			continue
		}
		metrics.NotificationsTotal.WithLabelValues(string(kind)).Inc()
	}
}

func (s *NotificationServiceImpl) Inbox(recipientID uuid.UUID, limit, offset int) ([]*models.Notification, error) {
	return s.repo.ListByRecipient(recipientID, limit, offset)
}

func (s *NotificationServiceImpl) UnreadCount(recipientID uuid.UUID) (int64, error) {
	return s.repo.CountUnread(recipientID)
}

func (s *NotificationServiceImpl) MarkRead(recipientID, id uuid.UUID) error {
	return s.repo.MarkRead(id, recipientID)
}

func (s *NotificationServiceImpl) MarkAllRead(recipientID uuid.UUID) error {
	return s.repo.MarkAllRead(recipientID)
}

func (s *NotificationServiceImpl) Dismiss(recipientID, id uuid.UUID) error {
	return s.repo.DeleteForRecipient(id, recipientID)
}
