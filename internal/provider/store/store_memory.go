package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"kidsearch/internal/provider/models"
	"kidsearch/pkg/platform/sentinel"
)

// InMemory is a map-backed provider store for tests and local development.
type InMemory struct {
	mu           sync.RWMutex
	owners       map[int64]*models.Owner
	institutions map[int64]*models.Institution
	nextID       int64
}

func NewInMemory() *InMemory {
	return &InMemory{
		owners:       make(map[int64]*models.Owner),
		institutions: make(map[int64]*models.Institution),
	}
}

func (s *InMemory) nextIdentifier() int64 {
	s.nextID++
	return s.nextID
}

func (s *InMemory) CreateOwner(_ context.Context, owner *models.Owner) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.owners {
		if existing.UserID == owner.UserID {
			return fmt.Errorf("create owner: %w", sentinel.ErrConflict)
		}
	}

	owner.ID = s.nextIdentifier()
	if owner.CreatedAt.IsZero() {
		owner.CreatedAt = time.Now()
	}
	stored := *owner
	s.owners[owner.ID] = &stored
	return nil
}

func (s *InMemory) OwnerByUserID(_ context.Context, userID int64) (*models.Owner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, owner := range s.owners {
		if owner.UserID == userID {
			copied := *owner
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("find owner: %w", sentinel.ErrNotFound)
}

func (s *InMemory) CreateInstitution(_ context.Context, institution *models.Institution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	institution.ID = s.nextIdentifier()
	if institution.CreatedAt.IsZero() {
		institution.CreatedAt = time.Now()
	}
	stored := *institution
	s.institutions[institution.ID] = &stored
	return nil
}

func (s *InMemory) InstitutionByID(_ context.Context, id int64) (*models.Institution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inst, ok := s.institutions[id]
	if !ok {
		return nil, fmt.Errorf("find institution: %w", sentinel.ErrNotFound)
	}
	copied := *inst
	return &copied, nil
}

func (s *InMemory) InstitutionsByOwner(_ context.Context, ownerID int64) ([]*models.Institution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var institutions []*models.Institution
	for _, inst := range s.institutions {
		if inst.OwnerID == ownerID {
			copied := *inst
			institutions = append(institutions, &copied)
		}
	}
	sort.Slice(institutions, func(i, j int) bool { return institutions[i].ID < institutions[j].ID })
	return institutions, nil
}
