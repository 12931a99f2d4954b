package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/docflow/review-service/converter"
	"github.com/docflow/review-service/models"
	"github.com/docflow/review-service/repository"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// memStore is an in-memory ObjectStore standing in for MinIO.
type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}}
}

func (s *memStore) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return nil
}

func (s *memStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, os.ErrNotExist
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *memStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[key]; !ok {
		return os.ErrNotExist
	}
	delete(s.objects, key)
	return nil
}

func (s *memStore) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok
}

func (s *memStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

type env struct {
	db       *gorm.DB
	workDir  string
	store    *memStore
	files    repository.FileRepository
	versions repository.VersionRepository
	comments repository.CommentRepository
	notes    repository.NotificationRepository
	users    repository.UserRepository
	notifier NotificationService
	fileSvc  FileService
	reviews  ReviewService
}

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.FileRecord{},
		&models.FileVersion{},
		&models.Comment{},
		&models.Notification{},
	))
	return db
}

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// converterScript writes an executable stub used in place of soffice.
// Argument layout: --headless --convert-to pdf <input> --outdir <outdir>.
func converterScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "soffice-stub")
	script := "#!/bin/sh\ninput=\"$4\"\noutdir=\"$6\"\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func newEnv(t *testing.T) *env {
	binary := converterScript(t, `base=$(basename "$input"); base="${base%.*}"
printf '%%PDF-1.4 converted' > "$outdir/$base.pdf"`)
	return newEnvWithConverter(t, binary, 5*time.Second)
}

func newEnvWithConverter(t *testing.T, binary string, timeout time.Duration) *env {
	t.Helper()
	db := testDB(t)
	log := testLogger()
	store := newMemStore()

	e := &env{
		db:       db,
		workDir:  t.TempDir(),
		store:    store,
		files:    repository.NewFileRepository(db),
		versions: repository.NewVersionRepository(db),
		comments: repository.NewCommentRepository(db),
		notes:    repository.NewNotificationRepository(db),
		users:    repository.NewUserRepository(db),
	}
	e.notifier = NewNotificationService(e.notes, log)
	invoker := converter.New(binary, filepath.Join(t.TempDir(), "out"), timeout, log)
	e.fileSvc = NewFileService(
		e.files, e.versions, e.comments, e.notes, e.users,
		store, invoker, e.notifier, nil, e.workDir, log,
	)
	e.reviews = NewReviewService(e.files, e.users, e.notifier, nil, log)
	return e
}

func (e *env) createUser(t *testing.T, username, role string, active bool) *models.User {
	t.Helper()
	u := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "x",
		Role:     role,
		Active:   active,
	}
	require.NoError(t, e.users.Create(u))
	return u
}

func (e *env) countNotifications(t *testing.T, recipientID interface{}) int64 {
	t.Helper()
	var count int64
	q := e.db.Model(&models.Notification{})
	if recipientID != nil {
		q = q.Where("recipient_id = ?", recipientID)
	}
	require.NoError(t, q.Count(&count).Error)
	return count
}
