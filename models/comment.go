package models

import "github.com/google/uuid"

// Comment on a file record. UserID is nullable so comments survive their
// author's removal, anonymized.
type Comment struct {
	Base
	FileID uuid.UUID   `gorm:"type:uuid;not null;index" json:"file_id"`
	File   *FileRecord `gorm:"foreignKey:FileID;constraint:OnDelete:CASCADE" json:"-"`
	UserID *uuid.UUID  `gorm:"type:uuid" json:"user_id,omitempty"`
	User   *User       `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Text   string      `gorm:"type:text;not null" json:"text"`
}

func (Comment) TableName() string {
	return "comments"
}
