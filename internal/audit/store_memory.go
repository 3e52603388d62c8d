package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// InMemory is a slice-backed outbox for tests and local development.
type InMemory struct {
	mu     sync.Mutex
	events []*Event
	nextID int64
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (s *InMemory) Append(_ context.Context, eventType string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode audit payload: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.events = append(s.events, &Event{
		ID:        s.nextID,
		EventType: eventType,
		Payload:   body,
		CreatedAt: time.Now(),
	})
	return nil
}

func (s *InMemory) Unpublished(_ context.Context, limit int) ([]*Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*Event
	for _, e := range s.events {
		if e.PublishedAt == nil {
			copied := *e
			out = append(out, &copied)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (s *InMemory) MarkPublished(_ context.Context, ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for _, e := range s.events {
		for _, id := range ids {
			if e.ID == id {
				e.PublishedAt = &now
			}
		}
	}
	return nil
}

// Events returns every appended event, for assertions in tests.
func (s *InMemory) Events() []*Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Event, 0, len(s.events))
	for _, e := range s.events {
		copied := *e
		out = append(out, &copied)
	}
	return out
}
