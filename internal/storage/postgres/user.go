package postgres

import (
	"fmt"
	"time"

	"github.com/VitaminP8/alumni-forum/internal/auth"
	"github.com/VitaminP8/alumni-forum/internal/model"
	"github.com/VitaminP8/alumni-forum/internal/storage"
	"github.com/VitaminP8/alumni-forum/models"

	"golang.org/x/crypto/bcrypt"
)

type UserPostgresStorage struct {
	jwtSecret string
	tokenTTL  time.Duration
}

func NewUserPostgresStorage(jwtSecret string, tokenTTL time.Duration) *UserPostgresStorage {
	return &UserPostgresStorage{jwtSecret: jwtSecret, tokenTTL: tokenTTL}
}

func (s *UserPostgresStorage) RegisterUser(username, email, password string) (*model.User, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", storage.ErrInvalidCredentials)
	}

	// проверка - существует ли такой пользователь
	var existUser models.User
	err := DB.Where("username = ?", username).First(&existUser).Error
	if err == nil {
		return nil, fmt.Errorf("user %s: %w", username, storage.ErrUserExists)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username: username,
		Email:    email,
		Password: string(hashedPassword),
	}

	err = DB.Create(user).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &model.User{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
	}, nil
}

func (s *UserPostgresStorage) LoginUser(username, password string) (string, error) {
	var user models.User
	err := DB.Where("username = ?", username).First(&user).Error
	if err != nil {
		return "", fmt.Errorf("user %s: %w", username, storage.ErrInvalidCredentials)
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password))
	if err != nil {
		return "", fmt.Errorf("user %s: %w", username, storage.ErrInvalidCredentials)
	}

	return auth.IssueToken(s.jwtSecret, user.ID, user.Username, s.tokenTTL)
}
