// Package domain models the append-only event log: every business state
// change across the platform appends here with a correlation id, strongly
// ordered per aggregate.
package domain

import (
	"context"
	"time"
)

// Event is the append-only record, mirroring the wire envelope every
// consumer publishes its state changes in.
type Event struct {
	ID            uint64 `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	EventID       string `gorm:"column:event_id;type:varchar(64);uniqueIndex;not null" json:"eventId"`
	EventType     string `gorm:"column:event_type;type:varchar(100);index;not null" json:"eventType"`
	Version       int    `gorm:"column:version;not null" json:"version"`
	AggregateType string `gorm:"column:aggregate_type;type:varchar(50);index:idx_aggregate,priority:1;not null" json:"aggregateType"`
	AggregateID   string `gorm:"column:aggregate_id;type:varchar(64);index:idx_aggregate,priority:2;not null" json:"aggregateId"`
	ActorID       string `gorm:"column:actor_id;type:varchar(64)" json:"actorId"`
	OccurredAt    time.Time `gorm:"column:occurred_at;index:idx_aggregate,priority:3;not null" json:"occurredAt"`
	CorrelationID string `gorm:"column:correlation_id;type:varchar(64);index" json:"correlationId"`
	// Payload is a scrubbed, schema-versioned JSON blob; PII is removed
	// before write.
	Payload []byte `gorm:"column:payload;type:json" json:"payload"`
}

// DeadLetter records an event-consumer failure that exhausted its retry
// budget. Shaped like the outbox's own message model so ops tooling that
// already knows how to triage stuck outbox rows transfers directly.
type DeadLetter struct {
	ID            uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	EventID       string    `gorm:"column:event_id;type:varchar(64);index;not null" json:"eventId"`
	ConsumerGroup string    `gorm:"column:consumer_group;type:varchar(100);index;not null" json:"consumerGroup"`
	Error         string    `gorm:"column:error;type:text" json:"error"`
	Attempts      int       `gorm:"column:attempts;not null" json:"attempts"`
	CreatedAt     time.Time `gorm:"column:created_at;not null" json:"createdAt"`
}

// Migrator upgrades an older-version payload to the version the reader
// declares it needs, so a reader never has to understand every version ever
// written.
type Migrator func(payload []byte) ([]byte, error)

// Repository is the append/read contract. Appends are per-aggregate ordered;
// global ordering across aggregates is explicitly not guaranteed.
type Repository interface {
	Append(ctx context.Context, ev *Event) error
	Read(ctx context.Context, aggregateType, aggregateID string, since time.Time) ([]*Event, error)
	RecordDeadLetter(ctx context.Context, dl *DeadLetter) error
}

// Reader is the minimal read-side contract consumed by HTTP admin endpoints
// and by migrators needing historical context.
type Reader interface {
	Read(ctx context.Context, aggregateType, aggregateID string, since time.Time) ([]*Event, error)
}
