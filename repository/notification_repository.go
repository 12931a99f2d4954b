package repository

import (
	"github.com/docflow/review-service/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationRepository interface {
	BaseRepository[models.Notification]
	ListByRecipient(recipientID uuid.UUID, limit, offset int) ([]*models.Notification, error)
	CountUnread(recipientID uuid.UUID) (int64, error)
	MarkRead(id, recipientID uuid.UUID) error
	MarkAllRead(recipientID uuid.UUID) error
	DeleteForRecipient(id, recipientID uuid.UUID) error
	DeleteByFile(fileID uuid.UUID) error
}

type NotificationRepositoryImpl struct {
	*BaseRepositoryImpl[models.Notification]
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &NotificationRepositoryImpl{
		BaseRepositoryImpl: NewBaseRepository[models.Notification](db),
	}
}

func (r *NotificationRepositoryImpl) ListByRecipient(recipientID uuid.UUID, limit, offset int) ([]*models.Notification, error) {
	var notifications []*models.Notification
	err := r.db.Preload("Sender").Preload("File").
		Where("recipient_id = ?", recipientID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&notifications).Error
	return notifications, err
}

func (r *NotificationRepositoryImpl) CountUnread(recipientID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND read = ?", recipientID, false).
		Count(&count).Error
	return count, err
}

func (r *NotificationRepositoryImpl) MarkRead(id, recipientID uuid.UUID) error {
	return r.db.Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		Update("read", true).Error
}

func (r *NotificationRepositoryImpl) MarkAllRead(recipientID uuid.UUID) error {
	return r.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND read = ?", recipientID, false).
		Update("read", true).Error
}

// DeleteForRecipient scopes the delete to the recipient so one user cannot
// dismiss another user's notification.
func (r *NotificationRepositoryImpl) DeleteForRecipient(id, recipientID uuid.UUID) error {
	return r.db.Where("id = ? AND recipient_id = ?", id, recipientID).
		Delete(&models.Notification{}).Error
}

func (r *NotificationRepositoryImpl) DeleteByFile(fileID uuid.UUID) error {
	return r.db.Where("file_id = ?", fileID).Delete(&models.Notification{}).Error
}
