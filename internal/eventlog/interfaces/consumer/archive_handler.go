// Package consumer wraps the event log's append side in a kafka-go message
// handler, grounded on internal/risk/interfaces/consumer's ProjectionHandler
// shape from the reference project.
package consumer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/rnrl/tradecore/internal/eventlog/application"
)

// ArchiveHandler is the single handler every archived topic's consumer
// shares: it derives a stable event id from topic+partition+offset (business
// producers don't mint a log-specific id per message), then retries the
// append through application.RetryHandler so a run of failures dead-letters
// instead of blocking the partition forever.
type ArchiveHandler struct {
	commands    *application.CommandService
	sink        *application.DeadLetterSink
	maxAttempts int
	logger      *slog.Logger
}

func NewArchiveHandler(commands *application.CommandService, sink *application.DeadLetterSink, maxAttempts int, logger *slog.Logger) *ArchiveHandler {
	return &ArchiveHandler{commands: commands, sink: sink, maxAttempts: maxAttempts, logger: logger}
}

// Handle is wired directly as the kafka.Consumer's message handler.
func (h *ArchiveHandler) Handle(ctx context.Context, msg kafka.Message) error {
	eventID := fmt.Sprintf("%s-%d-%d", msg.Topic, msg.Partition, msg.Offset)
	aggregateKey := string(msg.Key)
	retrying := application.RetryHandler(h.sink, "eventlog-archiver", h.maxAttempts, func(ctx context.Context, eventID string, payload []byte) error {
		return h.commands.Append(ctx, eventID, msg.Topic, aggregateKey, msg.Time, payload)
	})
	if err := retrying(ctx, eventID, msg.Value); err != nil {
		h.logger.ErrorContext(ctx, "event archive dead-lettered", "topic", msg.Topic, "eventId", eventID, "error", err)
		return err
	}
	return nil
}
