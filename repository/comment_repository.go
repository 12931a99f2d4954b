package repository

import (
	"github.com/docflow/review-service/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CommentRepository interface {
	BaseRepository[models.Comment]
	ListByFile(fileID uuid.UUID) ([]*models.Comment, error)
	DeleteByFile(fileID uuid.UUID) error
}

type CommentRepositoryImpl struct {
	*BaseRepositoryImpl[models.Comment]
}

func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &CommentRepositoryImpl{
		BaseRepositoryImpl: NewBaseRepository[models.Comment](db),
	}
}

func (r *CommentRepositoryImpl) ListByFile(fileID uuid.UUID) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := r.db.Preload("User").
		Where("file_id = ?", fileID).
		Order("created_at ASC").
		Find(&comments).Error
	return comments, err
}

func (r *CommentRepositoryImpl) DeleteByFile(fileID uuid.UUID) error {
	return r.db.Where("file_id = ?", fileID).Delete(&models.Comment{}).Error
}
