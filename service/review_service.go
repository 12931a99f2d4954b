package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/docflow/review-service/events"
	"github.com/docflow/review-service/models"
	"github.com/docflow/review-service/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ReviewService is the review state machine. The action→state mapping is
// permissive: any action is accepted from any state and re-fires its side
// effects, which mirrors how the workflow has always behaved.
type ReviewService interface {
	Transition(ctx context.Context, actor *models.Actor, fileID uuid.UUID, action models.ReviewAction) (*models.FileRecord, error)
}

type ReviewServiceImpl struct {
	files    repository.FileRepository
	users    repository.UserRepository
	notifier NotificationService
	events   *events.Publisher
	logger   *logrus.Logger
}

func NewReviewService(
	files repository.FileRepository,
	users repository.UserRepository,
	notifier NotificationService,
	publisher *events.Publisher,
	logger *logrus.Logger,
) ReviewService {
	return &ReviewServiceImpl{
		files:    files,
		users:    users,
		notifier: notifier,
		events:   publisher,
		logger:   logger,
	}
}

func (s *ReviewServiceImpl) Transition(ctx context.Context, actor *models.Actor, fileID uuid.UUID, action models.ReviewAction) (*models.FileRecord, error) {
	if !actor.Caps.CanReview {
		return nil, ErrForbidden
	}
	target, ok := action.TargetStatus()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}

	record, err := s.files.GetWithRelations(fileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	now := time.Now()
	reviewerID := actor.User.ID
	record.Status = target
	record.ReviewerID = &reviewerID
	record.Reviewer = actor.User
	record.ReviewedAt = &now

	if err := s.files.UpdateOptimistic(record); err != nil {
		return nil, err
	}

	switch action {
	case models.ActionApprove:
		s.notifyApproved(record, actor.User)
	case models.ActionReject:
		s.notifyRejected(record, actor.User)
	case models.ActionStart:
		// review started quietly; nobody is notified
	}

	s.events.Publish(ctx, events.Event{
		Kind:    "review." + string(action),
		FileID:  record.ID.String(),
		Actor:   actor.User.Username,
		Status:  string(record.Status),
		Version: record.VersionLabel(),
	})

	s.logger.WithFields(logrus.Fields{
		"file":     record.ID,
		"action":   action,
		"status":   record.Status,
		"reviewer": actor.User.Username,
	}).Info("review transition applied")

	return record, nil
}

// notifyApproved broadcasts to every active user; Dispatch deduplicates, so
// the reviewer and the owner each get exactly one row.
func (s *ReviewServiceImpl) notifyApproved(record *models.FileRecord, reviewer *models.User) {
	recipients, err := s.users.ListActive()
	if err != nil {
		s.logger.WithError(err).Warn("approval broadcast skipped: cannot list active users")
		return
	}
	msg := fmt.Sprintf("%s approved %q v%s", reviewer.Name(), record.Filename, record.VersionLabel())
	s.notifier.Dispatch(recipients, reviewer, models.NotifyFileApproved, msg, record)
}

func (s *ReviewServiceImpl) notifyRejected(record *models.FileRecord, reviewer *models.User) {
	if record.Owner == nil {
		s.logger.WithField("file", record.ID).Warn("rejection notice skipped: record has no owner")
		return
	}
	msg := fmt.Sprintf("%s rejected %q v%s", reviewer.Name(), record.Filename, record.VersionLabel())
	s.notifier.Dispatch([]*models.User{record.Owner}, reviewer, models.NotifyFileRejected, msg, record)
}
