package models

import "github.com/google/uuid"

type NotificationKind string

const (
	NotifyFileSubmitted NotificationKind = "file_submitted"
	NotifyFileApproved  NotificationKind = "file_approved"
	NotifyFileRejected  NotificationKind = "file_rejected"
	NotifyGeneral       NotificationKind = "general"
)

// Notification belongs to exactly one recipient; fan-out creates one row per
// recipient, never a shared row. Sender is nullable for system-originated
// messages. Related-file rows cascade away with the file record (deliberate:
// a notification about a deleted record has nothing left to point at).
type Notification struct {
	Base
	RecipientID uuid.UUID        `gorm:"type:uuid;not null;index" json:"recipient_id"`
	Recipient   *User            `gorm:"foreignKey:RecipientID" json:"-"`
	SenderID    *uuid.UUID       `gorm:"type:uuid" json:"sender_id,omitempty"`
	Sender      *User            `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Kind        NotificationKind `gorm:"type:varchar(40);not null" json:"kind"`
	Message     string           `gorm:"type:text" json:"message"`
	FileID      *uuid.UUID       `gorm:"type:uuid;index" json:"file_id,omitempty"`
	File        *FileRecord      `gorm:"foreignKey:FileID;constraint:OnDelete:CASCADE" json:"file,omitempty"`
	Read        bool             `gorm:"default:false" json:"read"`
}

func (Notification) TableName() string {
	return "notifications"
}
