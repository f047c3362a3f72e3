package memory

import (
	"fmt"
	"sync"
	"time"

	"github.com/VitaminP8/alumni-forum/internal/auth"
	"github.com/VitaminP8/alumni-forum/internal/model"
	"github.com/VitaminP8/alumni-forum/internal/storage"

	"golang.org/x/crypto/bcrypt"
)

type UserMemoryStorage struct {
	mu        sync.Mutex
	users     map[string]*model.User
	passwords map[string]string
	nextID    uint
	jwtSecret string
	tokenTTL  time.Duration
}

func NewUserMemoryStorage(jwtSecret string, tokenTTL time.Duration) *UserMemoryStorage {
	return &UserMemoryStorage{
		users:     make(map[string]*model.User),
		passwords: make(map[string]string),
		nextID:    1,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
	}
}

func (s *UserMemoryStorage) RegisterUser(username, email, password string) (*model.User, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", storage.ErrInvalidCredentials)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[username]; exists {
		return nil, fmt.Errorf("user %s: %w", username, storage.ErrUserExists)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:       s.nextID,
		Username: username,
		Email:    email,
	}
	s.nextID++

	s.users[username] = user
	s.passwords[username] = string(hashedPassword)

	result := *user
	return &result, nil
}

func (s *UserMemoryStorage) LoginUser(username, password string) (string, error) {
	s.mu.Lock()
	user, exists := s.users[username]
	hashedPassword := s.passwords[username]
	s.mu.Unlock()

	if !exists {
		return "", fmt.Errorf("user %s: %w", username, storage.ErrInvalidCredentials)
	}

	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	if err != nil {
		return "", fmt.Errorf("user %s: %w", username, storage.ErrInvalidCredentials)
	}

	return auth.IssueToken(s.jwtSecret, user.ID, user.Username, s.tokenTTL)
}
