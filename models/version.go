package models

import "github.com/google/uuid"

// FileVersion is one immutable entry of a record's version ledger. Entries
// are only ever created (one per version-producing action) and cascade away
// with the owning record.
type FileVersion struct {
	Base
	FileID       uuid.UUID   `gorm:"type:uuid;not null;index" json:"file_id"`
	File         *FileRecord `gorm:"foreignKey:FileID;constraint:OnDelete:CASCADE" json:"-"`
	VersionLabel string      `gorm:"type:varchar(10);not null" json:"version_label"`
	ChangeKind   ChangeKind  `gorm:"type:varchar(10);not null" json:"change_kind"`
	Comment      string      `gorm:"type:text" json:"comment"`
	CreatedByID  *uuid.UUID  `gorm:"type:uuid" json:"created_by_id,omitempty"`
	CreatedBy    *User       `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
}

func (FileVersion) TableName() string {
	return "file_versions"
}
