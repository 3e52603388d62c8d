package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"kidsearch/internal/auth/models"
	"kidsearch/pkg/platform/sentinel"
)

// InMemory is a map-backed user store for tests and local development.
type InMemory struct {
	mu     sync.RWMutex
	users  map[int64]*models.User
	nextID int64
}

func NewInMemory() *InMemory {
	return &InMemory{users: make(map[int64]*models.User)}
}

func (s *InMemory) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == user.Email {
			return fmt.Errorf("create user: %w", sentinel.ErrConflict)
		}
	}

	s.nextID++
	user.ID = s.nextID
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	stored := *user
	s.users[user.ID] = &stored
	return nil
}

func (s *InMemory) UserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("find user: %w", sentinel.ErrNotFound)
}

func (s *InMemory) UserByID(_ context.Context, id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("find user: %w", sentinel.ErrNotFound)
	}
	copied := *user
	return &copied, nil
}
