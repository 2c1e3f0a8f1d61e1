// Package application implements the event log's three operations: append
// (by subscribing to the business topics every bounded context already
// writes through the shared outbox, rather than each context double-writing
// to the log directly), read with schema migration, and subscribe with
// dead-letter handling for consumers that exhaust their retry budget.
package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rnrl/tradecore/internal/eventlog/domain"
)

// QueryService answers `read(aggregateType, aggregateId, since?)` and
// forward-migrates any payload older than the version the caller declares it
// understands.
type QueryService struct {
	repo       domain.Reader
	migrators  map[string]map[int]domain.Migrator // eventType -> fromVersion -> migrator
	currentVer map[string]int                     // eventType -> latest known version
}

func NewQueryService(repo domain.Reader) *QueryService {
	return &QueryService{
		repo:       repo,
		migrators:  map[string]map[int]domain.Migrator{},
		currentVer: map[string]int{},
	}
}

// RegisterMigrator registers an upgrade step fromVersion -> fromVersion+1 for
// eventType. Readers then always observe the latest schema regardless of
// which version was originally written.
func (s *QueryService) RegisterMigrator(eventType string, fromVersion int, toVersion int, m domain.Migrator) {
	if s.migrators[eventType] == nil {
		s.migrators[eventType] = map[int]domain.Migrator{}
	}
	s.migrators[eventType][fromVersion] = m
	if toVersion > s.currentVer[eventType] {
		s.currentVer[eventType] = toVersion
	}
}

// Read returns an aggregate's events in append order, each payload upgraded
// to the latest registered schema version for its event type.
func (s *QueryService) Read(ctx context.Context, aggregateType, aggregateID string, since time.Time) ([]*domain.Event, error) {
	events, err := s.repo.Read(ctx, aggregateType, aggregateID, since)
	if err != nil {
		return nil, err
	}
	for _, ev := range events {
		if err := s.migrateInPlace(ev); err != nil {
			return nil, fmt.Errorf("migrating event %s: %w", ev.EventID, err)
		}
	}
	return events, nil
}

func (s *QueryService) migrateInPlace(ev *domain.Event) error {
	target := s.currentVer[ev.EventType]
	for ev.Version < target {
		step, ok := s.migrators[ev.EventType][ev.Version]
		if !ok {
			return fmt.Errorf("no migrator registered for %s from v%d", ev.EventType, ev.Version)
		}
		upgraded, err := step(ev.Payload)
		if err != nil {
			return err
		}
		ev.Payload = upgraded
		ev.Version++
	}
	return nil
}

// DeadLetterSink writes dead-letter rows; RetryHandler, which wraps the kafka
// consumer's handler, calls it so a handler that exhausts its retry budget
// records the failure instead of dropping the event silently.
type DeadLetterSink struct {
	repo domain.Repository
}

func NewDeadLetterSink(repo domain.Repository) *DeadLetterSink {
	return &DeadLetterSink{repo: repo}
}

func (s *DeadLetterSink) Record(ctx context.Context, eventID, consumerGroup string, attempts int, cause error) error {
	return s.repo.RecordDeadLetter(ctx, &domain.DeadLetter{
		EventID:       eventID,
		ConsumerGroup: consumerGroup,
		Error:         cause.Error(),
		Attempts:      attempts,
		CreatedAt:     time.Now(),
	})
}

// RetryHandler wraps a kafka message handler with a bounded retry budget and
// dead-letters the event once the budget is exhausted, so no event is
// silently dropped even when a consumer-side failure persists.
func RetryHandler(sink *DeadLetterSink, consumerGroup string, maxAttempts int, handle func(ctx context.Context, eventID string, payload []byte) error) func(ctx context.Context, eventID string, payload []byte) error {
	return func(ctx context.Context, eventID string, payload []byte) error {
		var lastErr error
		for attempt := 1; attempt <= maxAttempts; attempt++ {
			if err := handle(ctx, eventID, payload); err != nil {
				lastErr = err
				time.Sleep(backoff(attempt))
				continue
			}
			return nil
		}
		return sink.Record(ctx, eventID, consumerGroup, maxAttempts, lastErr)
	}
}

func backoff(attempt int) time.Duration {
	d := 25 * time.Millisecond
	for i := 1; i < attempt; i++ {
		d *= 2
	}
	if d > 2*time.Second {
		return 2 * time.Second
	}
	return d
}

// ArchivedTopics is every business event topic the log subscribes to and
// archives; the composition root spins one consumer per topic, mirroring
// cmd/risk/main.go's per-topic projection consumer loop.
var ArchivedTopics = []string{
	"requirement.created.v1", "requirement.published.v1", "requirement.cancelled.v1", "requirement.fulfilled.v1",
	"availability.created.v1", "availability.published.v1", "availability.cancelled.v1", "availability.sold.v1",
	"match.found.v1", "match.rejected.v1", "match.allocation_failed.v1",
	"matchtoken.disclosure_changed.v1",
	"negotiation.started.v1", "negotiation.offer_made.v1", "negotiation.message_sent.v1",
	"negotiation.accepted.v1", "negotiation.rejected.v1", "negotiation.expired.v1",
	"trade.created.v1", "trade.draft_ready.v1", "trade.signed.v1", "trade.activated.v1", "trade.milestone_recorded.v1", "trade.amendment_recorded.v1",
	"risk.evaluated.v1",
}

// aggregateTypeFromTopic derives the aggregate type from a topic's
// dot-separated prefix, e.g. "requirement.created.v1" -> "requirement".
func aggregateTypeFromTopic(topic string) string {
	if idx := strings.Index(topic, "."); idx >= 0 {
		return topic[:idx]
	}
	return topic
}

// CommandService is the log's append side: it has no writer of its own,
// since every bounded context already durably publishes through the shared
// outbox, so appending here means consuming that same stream and archiving
// it, scrubbing PII out of the payload before it is written.
type CommandService struct {
	repo domain.Repository
}

func NewCommandService(repo domain.Repository) *CommandService {
	return &CommandService{repo: repo}
}

// Append records one consumed business event, keyed by the Kafka message's
// partition key (already the aggregate id on every PublishInTx call).
func (s *CommandService) Append(ctx context.Context, eventID, topic, aggregateKey string, occurredAt time.Time, payload []byte) error {
	return s.repo.Append(ctx, &domain.Event{
		EventID:       eventID,
		EventType:     topic,
		Version:       1,
		AggregateType: aggregateTypeFromTopic(topic),
		AggregateID:   aggregateKey,
		OccurredAt:    occurredAt,
		Payload:       ScrubPII(payload),
	})
}
