package models

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type FileStatus string

const (
	StatusPending  FileStatus = "pending"
	StatusInReview FileStatus = "in_review"
	StatusApproved FileStatus = "approved"
	StatusRejected FileStatus = "rejected"
)

type ChangeKind string

const (
	ChangeMinor ChangeKind = "minor" // +0.1
	ChangeMajor ChangeKind = "major" // +1.0
)

var ErrInvalidChangeKind = errors.New("invalid change kind")

// ReviewAction maps onto the target status it produces. Any action is
// permitted from any state; re-applying an action re-fires its effects.
type ReviewAction string

const (
	ActionStart   ReviewAction = "start"
	ActionApprove ReviewAction = "approve"
	ActionReject  ReviewAction = "reject"
)

func (a ReviewAction) TargetStatus() (FileStatus, bool) {
	switch a {
	case ActionStart:
		return StatusInReview, true
	case ActionApprove:
		return StatusApproved, true
	case ActionReject:
		return StatusRejected, true
	default:
		return "", false
	}
}

// FileRecord is the versioned, owned document under review. ObjectKey and
// ConvertedKey are derived from the record id, never from the filename, so
// identically named uploads cannot overwrite each other's artifacts.
type FileRecord struct {
	Base
	Filename      string         `gorm:"not null" json:"filename"`
	FileType      string         `json:"file_type"`
	ContentType   string         `json:"content_type"`
	SizeBytes     int64          `json:"size_bytes"`
	ObjectKey     string         `gorm:"not null" json:"-"`
	ConvertedKey  string         `json:"-"`
	ConvertedName string         `json:"converted_name,omitempty"`
	ConvertedSize int64          `json:"converted_size,omitempty"`
	Status        FileStatus     `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	Version       float64        `gorm:"type:numeric(5,1);default:1.0" json:"version"`
	LockVersion   int64          `gorm:"not null;default:0" json:"-"`
	OwnerID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"owner_id"`
	Owner         *User          `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	ReviewerID    *uuid.UUID     `gorm:"type:uuid" json:"reviewer_id,omitempty"`
	Reviewer      *User          `gorm:"foreignKey:ReviewerID" json:"reviewer,omitempty"`
	ReviewedAt    *time.Time     `json:"reviewed_at,omitempty"`
	Metadata      datatypes.JSON `gorm:"type:jsonb" json:"metadata,omitempty"`
}

func (FileRecord) TableName() string {
	return "file_records"
}

// BumpVersion advances the version according to the change kind and returns
// the new label. An unknown kind is rejected before any mutation. The version
// is quantized to exactly one fractional digit and never decreases.
func (f *FileRecord) BumpVersion(kind ChangeKind) (string, error) {
	var step float64
	switch kind {
	case ChangeMinor:
		step = 0.1
	case ChangeMajor:
		step = 1.0
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidChangeKind, kind)
	}
	f.Version = math.Round((f.Version+step)*10) / 10
	return f.VersionLabel(), nil
}

func (f *FileRecord) VersionLabel() string {
	return fmt.Sprintf("%.1f", f.Version)
}

// ResetReview drops the record back to pending and clears the reviewer
// stamp. Every content mutation goes through this, whatever the prior state.
func (f *FileRecord) ResetReview() {
	f.Status = StatusPending
	f.ReviewerID = nil
	f.Reviewer = nil
	f.ReviewedAt = nil
}
