package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/docflow/review-service/converter"
	"github.com/docflow/review-service/events"
	"github.com/docflow/review-service/metrics"
	"github.com/docflow/review-service/models"
	"github.com/docflow/review-service/repository"
	"github.com/docflow/review-service/storage"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type DownloadVariant string

const (
	DownloadOriginal  DownloadVariant = "original"
	DownloadConverted DownloadVariant = "converted"
)

type FileService interface {
	Upload(ctx context.Context, actor *models.Actor, filename string, content []byte, contentType string) (*models.FileRecord, error)

	// EditContent replaces the original bytes in place (inline edit) and
	// ReplaceContent swaps in a new upload, possibly under a new filename.
	// Both bump the version, append a ledger entry, and reset the review.
	EditContent(ctx context.Context, actor *models.Actor, id uuid.UUID, content []byte, kind models.ChangeKind, comment string) (*models.FileRecord, error)
	ReplaceContent(ctx context.Context, actor *models.Actor, id uuid.UUID, filename string, content []byte, contentType string, kind models.ChangeKind, comment string) (*models.FileRecord, error)

	// Convert runs the external converter against the record's original
	// artifact. The record's converted fields change only after a verified
	// non-empty PDF exists; every failure leaves them untouched.
	Convert(ctx context.Context, id uuid.UUID) (*models.FileRecord, error)

	Get(id uuid.UUID) (*models.FileRecord, error)
	List(limit, offset int) ([]*models.FileRecord, error)
	History(id uuid.UUID) ([]*models.FileVersion, error)
	Download(ctx context.Context, actor *models.Actor, id uuid.UUID, variant DownloadVariant) (string, io.ReadCloser, error)

	AddComment(actor *models.Actor, id uuid.UUID, text string) (*models.Comment, error)
	Comments(id uuid.UUID) ([]*models.Comment, error)

	Delete(ctx context.Context, actor *models.Actor, id uuid.UUID) error
}

type FileServiceImpl struct {
	files    repository.FileRepository
	versions repository.VersionRepository
	comments repository.CommentRepository
	notes    repository.NotificationRepository
	users    repository.UserRepository
	store    storage.ObjectStore
	invoker  *converter.Invoker
	notifier NotificationService
	events   *events.Publisher
	workDir  string
	logger   *logrus.Logger
}

func NewFileService(
	files repository.FileRepository,
	versions repository.VersionRepository,
	comments repository.CommentRepository,
	notes repository.NotificationRepository,
	users repository.UserRepository,
	store storage.ObjectStore,
	invoker *converter.Invoker,
	notifier NotificationService,
	publisher *events.Publisher,
	workDir string,
	logger *logrus.Logger,
) FileService {
	return &FileServiceImpl{
		files:    files,
		versions: versions,
		comments: comments,
		notes:    notes,
		users:    users,
		store:    store,
		invoker:  invoker,
		notifier: notifier,
		events:   publisher,
		workDir:  workDir,
		logger:   logger,
	}
}

// Artifact keys are derived from the record id, never the filename, so two
// records with identically named originals cannot overwrite each other.
func originalKey(id uuid.UUID, filename string) string {
	return "uploads/" + id.String() + strings.ToLower(filepath.Ext(filename))
}

func convertedKey(id uuid.UUID) string {
	return "converted/" + id.String() + ".pdf"
}

func (s *FileServiceImpl) Upload(ctx context.Context, actor *models.Actor, filename string, content []byte, contentType string) (*models.FileRecord, error) {
	if !actor.Caps.CanUpload {
		return nil, ErrForbidden
	}
	if contentType == "" {
		contentType = contentTypeFor(detectFileType(filename))
	}

	meta, _ := json.Marshal(map[string]interface{}{
		"uploaded_by":  actor.User.Username,
		"content_type": contentType,
	})

	record := &models.FileRecord{
		Base:        models.Base{ID: uuid.New()},
		Filename:    filepath.Base(filename),
		FileType:    detectFileType(filename),
		ContentType: contentType,
		SizeBytes:   int64(len(content)),
		Status:      models.StatusPending,
		Version:     1.0,
		OwnerID:     actor.User.ID,
		Owner:       actor.User,
		Metadata:    meta,
	}
	record.ObjectKey = originalKey(record.ID, record.Filename)

	if err := s.store.Put(ctx, record.ObjectKey, bytes.NewReader(content), int64(len(content)), contentType); err != nil {
		return nil, fmt.Errorf("failed to store original artifact: %w", err)
	}
	if err := s.files.Create(record); err != nil {
		s.removeObject(ctx, record.ObjectKey)
		return nil, fmt.Errorf("failed to save file record: %w", err)
	}

	s.appendLedger(record, models.ChangeMajor, "Initial upload", actor.User)
	s.notifyReviewers(record, actor.User)
	s.events.Publish(ctx, events.Event{
		Kind:    "file.uploaded",
		FileID:  record.ID.String(),
		Actor:   actor.User.Username,
		Status:  string(record.Status),
		Version: record.VersionLabel(),
	})

	return record, nil
}

func (s *FileServiceImpl) EditContent(ctx context.Context, actor *models.Actor, id uuid.UUID, content []byte, kind models.ChangeKind, comment string) (*models.FileRecord, error) {
	record, err := s.authorizeOwner(actor, id)
	if err != nil {
		return nil, err
	}
	return s.mutateContent(ctx, actor, record, record.Filename, content, record.ContentType, kind, comment)
}

func (s *FileServiceImpl) ReplaceContent(ctx context.Context, actor *models.Actor, id uuid.UUID, filename string, content []byte, contentType string, kind models.ChangeKind, comment string) (*models.FileRecord, error) {
	record, err := s.authorizeOwner(actor, id)
	if err != nil {
		return nil, err
	}
	if contentType == "" {
		contentType = contentTypeFor(detectFileType(filename))
	}
	return s.mutateContent(ctx, actor, record, filepath.Base(filename), content, contentType, kind, comment)
}

// mutateContent is the shared path for inline edits and replacements: bump
// the version (rejecting an unknown change kind before anything mutates),
// swap the stored bytes, reset the review, and append one ledger entry.
func (s *FileServiceImpl) mutateContent(ctx context.Context, actor *models.Actor, record *models.FileRecord, filename string, content []byte, contentType string, kind models.ChangeKind, comment string) (*models.FileRecord, error) {
	label, err := record.BumpVersion(kind)
	if err != nil {
		return nil, err
	}

	oldKey := record.ObjectKey
	newKey := originalKey(record.ID, filename)
	if err := s.store.Put(ctx, newKey, bytes.NewReader(content), int64(len(content)), contentType); err != nil {
		return nil, fmt.Errorf("failed to store new content: %w", err)
	}

	record.Filename = filename
	record.FileType = detectFileType(filename)
	record.ContentType = contentType
	record.SizeBytes = int64(len(content))
	record.ObjectKey = newKey
	record.ResetReview()

	// The stale original is deleted only after the CAS commits: a lost race
	// must leave the record's current ObjectKey downloadable.
	if err := s.files.UpdateOptimistic(record); err != nil {
		if newKey != oldKey {
			s.removeObject(ctx, newKey)
		}
		return nil, err
	}
	if newKey != oldKey {
		s.removeObject(ctx, oldKey)
	}

	s.appendLedger(record, kind, comment, actor.User)
	if comment != "" {
		authorID := actor.User.ID
		c := &models.Comment{FileID: record.ID, UserID: &authorID, Text: comment}
		if err := s.comments.Create(c); err != nil {
			s.logger.WithError(err).WithField("file", record.ID).Warn("change comment not recorded")
		}
	}

	s.notifyReviewers(record, actor.User)
	s.events.Publish(ctx, events.Event{
		Kind:    "file.updated",
		FileID:  record.ID.String(),
		Actor:   actor.User.Username,
		Status:  string(record.Status),
		Version: label,
	})

	return record, nil
}

func (s *FileServiceImpl) Convert(ctx context.Context, id uuid.UUID) (*models.FileRecord, error) {
	record, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	inputPath, err := s.fetchOriginal(ctx, record)
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(filepath.Dir(inputPath))

	start := time.Now()
	artifact, err := s.invoker.Convert(ctx, inputPath)
	metrics.ConversionDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		outcome := string(converter.KindOf(err))
		if outcome == "" {
			outcome = "error"
		}
		metrics.ConversionsTotal.WithLabelValues(outcome).Inc()
		return nil, err
	}
	metrics.ConversionsTotal.WithLabelValues("success").Inc()

	// Replace any prior converted artifact. The stale delete is best effort:
	// the new upload proceeds even if it fails.
	key := convertedKey(record.ID)
	if record.ConvertedKey != "" && record.ConvertedKey != key {
		s.removeObject(ctx, record.ConvertedKey)
	}
	if err := s.store.Put(ctx, key, bytes.NewReader(artifact.Data), artifact.Size, "application/pdf"); err != nil {
		return nil, fmt.Errorf("failed to store converted artifact: %w", err)
	}

	displayName := strings.TrimSuffix(record.Filename, filepath.Ext(record.Filename)) + ".pdf"
	if err := s.files.UpdateConverted(record.ID, key, displayName, artifact.Size); err != nil {
		return nil, err
	}

	record.ConvertedKey = key
	record.ConvertedName = displayName
	record.ConvertedSize = artifact.Size
	return record, nil
}

// fetchOriginal stages the record's original bytes into the scratch work
// directory under the original filename, which the converter needs to derive
// its output path.
func (s *FileServiceImpl) fetchOriginal(ctx context.Context, record *models.FileRecord) (string, error) {
	rc, err := s.store.Get(ctx, record.ObjectKey)
	if err != nil {
		return "", fmt.Errorf("failed to fetch original artifact: %w", err)
	}
	defer rc.Close()

	dir := filepath.Join(s.workDir, record.ID.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create work dir: %w", err)
	}
	path := filepath.Join(dir, record.Filename)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, rc); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

func (s *FileServiceImpl) Get(id uuid.UUID) (*models.FileRecord, error) {
	record, err := s.files.GetWithRelations(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return record, nil
}

func (s *FileServiceImpl) List(limit, offset int) ([]*models.FileRecord, error) {
	return s.files.List(limit, offset)
}

func (s *FileServiceImpl) History(id uuid.UUID) ([]*models.FileVersion, error) {
	return s.versions.ListByFile(id)
}

func (s *FileServiceImpl) Download(ctx context.Context, actor *models.Actor, id uuid.UUID, variant DownloadVariant) (string, io.ReadCloser, error) {
	record, err := s.Get(id)
	if err != nil {
		return "", nil, err
	}
	if record.OwnerID != actor.User.ID && !actor.Caps.CanReview && !actor.Caps.CanAudit {
		return "", nil, ErrForbidden
	}

	key, name := record.ObjectKey, record.Filename
	if variant == DownloadConverted {
		if record.ConvertedKey == "" {
			return "", nil, ErrNotFound
		}
		key, name = record.ConvertedKey, record.ConvertedName
	}
	rc, err := s.store.Get(ctx, key)
	if err != nil {
		return "", nil, err
	}
	return name, rc, nil
}

func (s *FileServiceImpl) AddComment(actor *models.Actor, id uuid.UUID, text string) (*models.Comment, error) {
	record, err := s.authorizeOwner(actor, id)
	if err != nil {
		return nil, err
	}
	authorID := actor.User.ID
	c := &models.Comment{FileID: record.ID, UserID: &authorID, Text: text}
	if err := s.comments.Create(c); err != nil {
		return nil, err
	}
	c.User = actor.User
	return c, nil
}

func (s *FileServiceImpl) Comments(id uuid.UUID) ([]*models.Comment, error) {
	return s.comments.ListByFile(id)
}

// Delete removes the record, both stored artifacts, and every dependent row
// (ledger entries, comments, related notifications). Artifact removal is best
// effort and never blocks the record deletion.
func (s *FileServiceImpl) Delete(ctx context.Context, actor *models.Actor, id uuid.UUID) error {
	record, err := s.Get(id)
	if err != nil {
		return err
	}
	if record.OwnerID != actor.User.ID && !actor.Caps.CanReview {
		return ErrForbidden
	}

	s.removeObject(ctx, record.ObjectKey)
	if record.ConvertedKey != "" {
		s.removeObject(ctx, record.ConvertedKey)
	}

	if err := s.versions.DeleteByFile(id); err != nil {
		return err
	}
	if err := s.comments.DeleteByFile(id); err != nil {
		return err
	}
	if err := s.notes.DeleteByFile(id); err != nil {
		return err
	}
	if err := s.files.Delete(id); err != nil {
		return err
	}

	s.events.Publish(ctx, events.Event{
		Kind:   "file.deleted",
		FileID: id.String(),
		Actor:  actor.User.Username,
	})
	return nil
}

func (s *FileServiceImpl) authorizeOwner(actor *models.Actor, id uuid.UUID) (*models.FileRecord, error) {
	record, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if record.OwnerID != actor.User.ID {
		return nil, ErrForbidden
	}
	return record, nil
}

func (s *FileServiceImpl) appendLedger(record *models.FileRecord, kind models.ChangeKind, comment string, author *models.User) {
	authorID := author.ID
	entry := &models.FileVersion{
		FileID:       record.ID,
		VersionLabel: record.VersionLabel(),
		ChangeKind:   kind,
		Comment:      comment,
		CreatedByID:  &authorID,
	}
	if err := s.versions.Create(entry); err != nil {
		s.logger.WithError(err).WithField("file", record.ID).Error("version ledger append failed")
	}
}

func (s *FileServiceImpl) notifyReviewers(record *models.FileRecord, sender *models.User) {
	reviewers, err := s.users.ListActiveByRole(models.RoleSuperReviewer)
	if err != nil {
		s.logger.WithError(err).Warn("submission notice skipped: cannot list reviewers")
		return
	}
	msg := fmt.Sprintf("%s submitted %q v%s for review", sender.Name(), record.Filename, record.VersionLabel())
	s.notifier.Dispatch(reviewers, sender, models.NotifyFileSubmitted, msg, record)
}

// removeObject is the non-fatal cleanup path: a failure is logged with the
// swallowed condition, never propagated.
func (s *FileServiceImpl) removeObject(ctx context.Context, key string) {
	if err := s.store.Remove(ctx, key); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("stale artifact not removed")
	}
}

func detectFileType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "pdf"
	case ".doc", ".docx", ".odt", ".rtf":
		return "document"
	case ".xls", ".xlsx", ".ods", ".csv":
		return "spreadsheet"
	case ".ppt", ".pptx", ".odp":
		return "presentation"
	case ".txt", ".md":
		return "text"
	default:
		return "other"
	}
}

func contentTypeFor(fileType string) string {
	switch fileType {
	case "pdf":
		return "application/pdf"
	case "document":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case "spreadsheet":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case "presentation":
		return "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	case "text":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}
