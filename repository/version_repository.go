package repository

import (
	"github.com/docflow/review-service/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VersionRepository interface {
	BaseRepository[models.FileVersion]
	ListByFile(fileID uuid.UUID) ([]*models.FileVersion, error)
	CountByFile(fileID uuid.UUID) (int64, error)
	DeleteByFile(fileID uuid.UUID) error
}

type VersionRepositoryImpl struct {
	*BaseRepositoryImpl[models.FileVersion]
}

func NewVersionRepository(db *gorm.DB) VersionRepository {
	return &VersionRepositoryImpl{
		BaseRepositoryImpl: NewBaseRepository[models.FileVersion](db),
	}
}

// ListByFile returns the full ledger for a record, newest entry first.
func (r *VersionRepositoryImpl) ListByFile(fileID uuid.UUID) ([]*models.FileVersion, error) {
	var versions []*models.FileVersion
	err := r.db.Preload("CreatedBy").
		Where("file_id = ?", fileID).
		Order("created_at DESC").
		Find(&versions).Error
	return versions, err
}

func (r *VersionRepositoryImpl) CountByFile(fileID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.Model(&models.FileVersion{}).Where("file_id = ?", fileID).Count(&count).Error
	return count, err
}

func (r *VersionRepositoryImpl) DeleteByFile(fileID uuid.UUID) error {
	return r.db.Where("file_id = ?", fileID).Delete(&models.FileVersion{}).Error
}
