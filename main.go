package main

import (
	"strings"

	"github.com/docflow/review-service/config"
	"github.com/docflow/review-service/converter"
	"github.com/docflow/review-service/database"
	"github.com/docflow/review-service/events"
	"github.com/docflow/review-service/handler"
	"github.com/docflow/review-service/metrics"
	"github.com/docflow/review-service/middleware"
	"github.com/docflow/review-service/models"
	"github.com/docflow/review-service/repository"
	"github.com/docflow/review-service/router"
	"github.com/docflow/review-service/service"
	"github.com/docflow/review-service/storage"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.FileRecord{},
		&models.FileVersion{},
		&models.Comment{},
		&models.Notification{},
	)
}

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	metrics.StartMetricsServer(cfg.Server.MetricsPort, func(err error) {
		logger.WithError(err).Error("metrics server stopped")
	})
	logger.Infof("Prometheus metrics server started on :%s", cfg.Server.MetricsPort)

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Fatalf("connect database: %v", err)
	}
	if err := autoMigrate(db); err != nil {
		logger.Fatalf("auto migrate: %v", err)
	}

	store, err := storage.NewMinioStore(&cfg.MinIO)
	if err != nil {
		logger.Fatalf("init object store: %v", err)
	}

	var brokers []string
	if cfg.Kafka.Brokers != "" {
		brokers = strings.Split(cfg.Kafka.Brokers, ",")
	}
	publisher := events.NewPublisher(brokers, cfg.Kafka.Topic, logger)
	defer publisher.Close()

	fileRepo := repository.NewFileRepository(db)
	versionRepo := repository.NewVersionRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	userRepo := repository.NewUserRepository(db)

	invoker := converter.New(cfg.Converter.Binary, cfg.Converter.OutputDir, cfg.Converter.Timeout(), logger)

	notificationService := service.NewNotificationService(notificationRepo, logger)
	fileService := service.NewFileService(
		fileRepo, versionRepo, commentRepo, notificationRepo, userRepo,
		store, invoker, notificationService, publisher, cfg.Converter.WorkDir, logger,
	)
	reviewService := service.NewReviewService(fileRepo, userRepo, notificationService, publisher, logger)
	authService := service.NewAuthService(userRepo)

	r := router.Setup(
		handler.NewAuthHandler(authService),
		handler.NewFileHandler(fileService),
		handler.NewReviewHandler(reviewService),
		handler.NewNotificationHandler(notificationService),
		handler.NewUserHandler(userRepo),
		middleware.NewAuthenticator(userRepo),
	)

	logger.Infof("review service listening on :%s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}
