package service

import (
	"errors"
	"os"
	"strconv"

	"github.com/docflow/review-service/models"
	"github.com/docflow/review-service/repository"
	"github.com/docflow/review-service/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUserExists         = errors.New("username or email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type AuthService interface {
	Register(username, email, displayName, password, role string) (*models.User, error)
	Login(usernameOrEmail, password string) (string, *models.User, error)
}

type AuthServiceImpl struct {
	users              repository.UserRepository
	tokenExpireMinutes int
}

func NewAuthService(users repository.UserRepository) AuthService {
	minutes := 60
	if v := os.Getenv("JWT_EXPIRE_MINUTES"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			minutes = parsed
		}
	}
	return &AuthServiceImpl{users: users, tokenExpireMinutes: minutes}
}

func (s *AuthServiceImpl) Register(username, email, displayName, password, role string) (*models.User, error) {
	switch role {
	case models.RoleSuperReviewer, models.RoleAuditor, models.RoleViewer:
	case "":
		role = models.RoleViewer
	default:
		return nil, errors.New("unknown role: " + role)
	}

	if _, err := s.users.GetByUsernameOrEmail(username); err == nil {
		return nil, ErrUserExists
	}
	if _, err := s.users.GetByUsernameOrEmail(email); err == nil {
		return nil, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Username:    username,
		Email:       email,
		DisplayName: displayName,
		Password:    string(hash),
		Role:        role,
		Active:      true,
	}
	if err := s.users.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthServiceImpl) Login(usernameOrEmail, password string) (string, *models.User, error) {
	user, err := s.users.GetByUsernameOrEmail(usernameOrEmail)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if !user.Active {
		return "", nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}
	token, err := utils.GenerateToken(user.ID.String(), s.tokenExpireMinutes)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}
