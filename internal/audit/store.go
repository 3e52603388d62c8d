package audit

import "context"

// Store is the outbox persistence layer. Append observes a staged
// transaction from the context; the polling side runs outside any
// transaction.
type Store interface {
	Append(ctx context.Context, eventType string, payload any) error
	Unpublished(ctx context.Context, limit int) ([]*Event, error)
	MarkPublished(ctx context.Context, ids []int64) error
}
