package infrastructure_test

import (
	"context"
	"testing"
	"time"

	"github.com/rnrl/tradecore/internal/matching/application"
	"github.com/rnrl/tradecore/internal/matching/domain"
	"github.com/rnrl/tradecore/internal/matching/infrastructure"
)

type nilReqLookup struct{}

func (nilReqLookup) Get(ctx context.Context, id string) (*domain.RequirementSide, error) {
	return &domain.RequirementSide{RequirementID: id}, nil
}
func (nilReqLookup) ListMatchableByCommodity(ctx context.Context, commodityID string) ([]domain.RequirementSide, error) {
	return nil, nil
}

type nilAvailLookup struct{}

func (nilAvailLookup) Get(ctx context.Context, id string) (*domain.AvailabilitySide, error) {
	return &domain.AvailabilitySide{AvailabilityID: id}, nil
}
func (nilAvailLookup) ListMatchableByCommodity(ctx context.Context, commodityID string) ([]domain.AvailabilitySide, error) {
	return nil, nil
}
func (nilAvailLookup) Reserve(ctx context.Context, availabilityID, buyerPartnerID string, quantity float64, holdHours int) (string, error) {
	return "", nil
}

func TestTriggerAdapter_PublishHighRunsSynchronously(t *testing.T) {
	commands := application.NewCommandService(
		nilReqLookup{}, nilAvailLookup{},
		nil, application.TokenIssuer{}, application.Fanout{}, nil,
		nil, nil, application.Config{MaxRadiusKM: 100},
	)
	queue := domain.NewPriorityQueue(2, nil)
	adapter := infrastructure.NewTriggerAdapter(commands, queue)

	if err := adapter.RequirementPort().PublishHigh(context.Background(), "REQ-1"); err != nil {
		t.Fatalf("expected synchronous PublishHigh to succeed, got %v", err)
	}
	if err := adapter.AvailabilityPort().PublishHigh(context.Background(), "AVL-1"); err != nil {
		t.Fatalf("expected synchronous PublishHigh to succeed, got %v", err)
	}
}

func TestTriggerAdapter_PublishAsyncEnqueuesAtMediumPriority(t *testing.T) {
	commands := application.NewCommandService(
		nilReqLookup{}, nilAvailLookup{},
		nil, application.TokenIssuer{}, application.Fanout{}, nil,
		nil, nil, application.Config{MaxRadiusKM: 100},
	)
	queue := domain.NewPriorityQueue(2, nil)
	adapter := infrastructure.NewTriggerAdapter(commands, queue)

	if err := adapter.RequirementPort().PublishAsync(context.Background(), "REQ-2"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	task, err := queue.Dequeue(ctx)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if task.SubjectType != "requirement" || task.SubjectID != "REQ-2" || task.Priority != domain.PriorityMedium {
		t.Fatalf("expected requirement task REQ-2 at MEDIUM priority, got %+v", task)
	}
}
