package repository

import (
	"github.com/docflow/review-service/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FileRepository interface {
	BaseRepository[models.FileRecord]
	GetWithRelations(id uuid.UUID) (*models.FileRecord, error)
	GetByOwner(ownerID uuid.UUID, limit, offset int) ([]*models.FileRecord, error)
	UpdateOptimistic(record *models.FileRecord) error
	UpdateConverted(id uuid.UUID, key, name string, size int64) error
}

type FileRepositoryImpl struct {
	*BaseRepositoryImpl[models.FileRecord]
}

func NewFileRepository(db *gorm.DB) FileRepository {
	return &FileRepositoryImpl{
		BaseRepositoryImpl: NewBaseRepository[models.FileRecord](db),
	}
}

func (r *FileRepositoryImpl) GetWithRelations(id uuid.UUID) (*models.FileRecord, error) {
	var record models.FileRecord
	err := r.db.Preload("Owner").Preload("Reviewer").First(&record, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *FileRepositoryImpl) GetByOwner(ownerID uuid.UUID, limit, offset int) ([]*models.FileRecord, error) {
	var records []*models.FileRecord
	err := r.db.Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&records).Error
	return records, err
}

// UpdateOptimistic persists the record's mutable fields with a compare-and-swap
// on lock_version. A lost race surfaces as ErrConflict and leaves the caller's
// in-memory lock version untouched so the operation can be retried from a
// fresh read.
func (r *FileRepositoryImpl) UpdateOptimistic(record *models.FileRecord) error {
	prev := record.LockVersion
	res := r.db.Model(&models.FileRecord{}).
		Where("id = ? AND lock_version = ?", record.ID, prev).
		Updates(map[string]interface{}{
			"filename":       record.Filename,
			"file_type":      record.FileType,
			"content_type":   record.ContentType,
			"size_bytes":     record.SizeBytes,
			"object_key":     record.ObjectKey,
			"converted_key":  record.ConvertedKey,
			"converted_name": record.ConvertedName,
			"converted_size": record.ConvertedSize,
			"status":         record.Status,
			"version":        record.Version,
			"reviewer_id":    record.ReviewerID,
			"reviewed_at":    record.ReviewedAt,
			"metadata":       record.Metadata,
			"lock_version":   prev + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	record.LockVersion = prev + 1
	return nil
}

func (r *FileRepositoryImpl) UpdateConverted(id uuid.UUID, key, name string, size int64) error {
	return r.db.Model(&models.FileRecord{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"converted_key":  key,
			"converted_name": name,
			"converted_size": size,
		}).Error
}
