package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
)

type OutboxMemorySuite struct {
	suite.Suite
	store *InMemory
}

func TestOutboxMemorySuite(t *testing.T) {
	suite.Run(t, new(OutboxMemorySuite))
}

func (s *OutboxMemorySuite) SetupTest() {
	s.store = NewInMemory()
}

func (s *OutboxMemorySuite) TestAppendAndPoll() {
	ctx := context.Background()

	s.Require().NoError(s.store.Append(ctx, "user.registered", map[string]any{"user_id": 1}))
	s.Require().NoError(s.store.Append(ctx, "institution.registered", map[string]any{"institution_id": 7}))

	events, err := s.store.Unpublished(ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal("user.registered", events[0].EventType)
	s.JSONEq(`{"user_id":1}`, string(events[0].Payload))
}

func (s *OutboxMemorySuite) TestMarkPublished() {
	ctx := context.Background()

	s.Require().NoError(s.store.Append(ctx, "user.registered", map[string]any{"user_id": 1}))
	s.Require().NoError(s.store.Append(ctx, "user.registered", map[string]any{"user_id": 2}))

	events, err := s.store.Unpublished(ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(events, 2)

	s.Require().NoError(s.store.MarkPublished(ctx, []int64{events[0].ID}))

	remaining, err := s.store.Unpublished(ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(remaining, 1)
	s.Equal(events[1].ID, remaining[0].ID)
}

func (s *OutboxMemorySuite) TestPollLimit() {
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		s.Require().NoError(s.store.Append(ctx, "user.registered", map[string]any{"user_id": i}))
	}

	events, err := s.store.Unpublished(ctx, 3)
	s.Require().NoError(err)
	s.Len(events, 3)
}
