// Package audit records domain events in a transactional outbox and ships
// them to Kafka in the background. Appends join the caller's transaction, so
// an event is only recorded if the request that produced it commits.
package audit

import (
	"encoding/json"
	"time"
)

// Event is a single outbox row. Payload is the JSON-encoded event body.
type Event struct {
	ID          int64
	EventType   string
	Payload     json.RawMessage
	CreatedAt   time.Time
	PublishedAt *time.Time
}
