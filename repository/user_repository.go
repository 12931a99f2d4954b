package repository

import (
	"github.com/docflow/review-service/models"
	"gorm.io/gorm"
)

type UserRepository interface {
	BaseRepository[models.User]
	GetByUsername(username string) (*models.User, error)
	GetByUsernameOrEmail(usernameOrEmail string) (*models.User, error)
	ListActive() ([]*models.User, error)
	ListActiveByRole(role string) ([]*models.User, error)
}

type UserRepositoryImpl struct {
	*BaseRepositoryImpl[models.User]
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &UserRepositoryImpl{
		BaseRepositoryImpl: NewBaseRepository[models.User](db),
	}
}

func (r *UserRepositoryImpl) GetByUsername(username string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepositoryImpl) GetByUsernameOrEmail(usernameOrEmail string) (*models.User, error) {
	var user models.User
	err := r.db.Where("username = ? OR email = ?", usernameOrEmail, usernameOrEmail).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepositoryImpl) ListActive() ([]*models.User, error) {
	var users []*models.User
	err := r.db.Where("active = ?", true).Order("username").Find(&users).Error
	return users, err
}

func (r *UserRepositoryImpl) ListActiveByRole(role string) ([]*models.User, error) {
	var users []*models.User
	err := r.db.Where("active = ? AND role = ?", true, role).Order("username").Find(&users).Error
	return users, err
}
