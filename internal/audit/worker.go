package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

const pollBatchSize = 100

// Worker drains the outbox into Kafka. Rows stay unpublished until the
// broker acknowledges them, so a crash between poll and produce replays
// events rather than losing them.
type Worker struct {
	store    Store
	client   *kgo.Client
	topic    string
	interval time.Duration
	logger   *slog.Logger
}

func NewWorker(store Store, client *kgo.Client, topic string, interval time.Duration, logger *slog.Logger) *Worker {
	return &Worker{
		store:    store,
		client:   client,
		topic:    topic,
		interval: interval,
		logger:   logger,
	}
}

func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.drain(ctx); err != nil {
				w.logger.ErrorContext(ctx, "audit outbox drain failed", "error", err.Error())
			}
		}
	}
}

func (w *Worker) drain(ctx context.Context) error {
	events, err := w.store.Unpublished(ctx, pollBatchSize)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}

	// Completion order is not submission order, so map records back to
	// their outbox rows by pointer.
	eventByRecord := make(map[*kgo.Record]int64, len(events))
	records := make([]*kgo.Record, 0, len(events))
	for _, e := range events {
		rec := &kgo.Record{
			Topic: w.topic,
			Key:   []byte(e.EventType),
			Value: e.Payload,
		}
		eventByRecord[rec] = e.ID
		records = append(records, rec)
	}

	results := w.client.ProduceSync(ctx, records...)

	published := make([]int64, 0, len(events))
	for _, res := range results {
		if res.Err != nil {
			w.logger.WarnContext(ctx, "failed to publish audit event",
				"event_id", eventByRecord[res.Record],
				"error", res.Err.Error(),
			)
			continue
		}
		published = append(published, eventByRecord[res.Record])
	}

	if err := w.store.MarkPublished(ctx, published); err != nil {
		return err
	}
	if len(published) > 0 {
		w.logger.DebugContext(ctx, "published audit events", "count", len(published))
	}
	return nil
}
