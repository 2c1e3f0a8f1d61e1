// Package mysql persists the append-only event log, grounded on
// internal/referencedata/infrastructure/persistence/mysql/reference_repository.go's
// getDB/WithTx split (events are appended inside the caller's own
// transaction via contextx, never in a transaction of their own).
package mysql

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/rnrl/tradecore/internal/eventlog/domain"
	"github.com/wyfcoding/pkg/contextx"
)

type eventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) domain.Repository {
	return &eventRepository{db: db}
}

func (r *eventRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok {
		return tx
	}
	return r.db
}

func (r *eventRepository) Append(ctx context.Context, ev *domain.Event) error {
	return r.getDB(ctx).WithContext(ctx).Create(ev).Error
}

func (r *eventRepository) Read(ctx context.Context, aggregateType, aggregateID string, since time.Time) ([]*domain.Event, error) {
	var events []*domain.Event
	q := r.getDB(ctx).WithContext(ctx).
		Where("aggregate_type = ? AND aggregate_id = ?", aggregateType, aggregateID)
	if !since.IsZero() {
		q = q.Where("occurred_at >= ?", since)
	}
	err := q.Order("occurred_at ASC, id ASC").Find(&events).Error
	return events, err
}

func (r *eventRepository) RecordDeadLetter(ctx context.Context, dl *domain.DeadLetter) error {
	return r.getDB(ctx).WithContext(ctx).Create(dl).Error
}
