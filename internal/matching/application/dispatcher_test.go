package application_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rnrl/tradecore/internal/matching/application"
	"github.com/rnrl/tradecore/internal/matching/domain"
)

// countingReqLookup/countingAvailLookup satisfy RequirementLookup/
// AvailabilityLookup with an empty matchable pool, so MatchRequirement/
// MatchAvailability settle immediately with no candidates — enough to
// exercise Dispatcher's draining loop without standing up the full scoring
// pipeline. Each Get call increments a counter so the test can observe that
// the dispatcher actually reached the command service for each task.
type countingReqLookup struct{ gets int32 }

func (l *countingReqLookup) Get(ctx context.Context, id string) (*domain.RequirementSide, error) {
	atomic.AddInt32(&l.gets, 1)
	return &domain.RequirementSide{RequirementID: id, CommodityID: "WHEAT"}, nil
}
func (l *countingReqLookup) ListMatchableByCommodity(ctx context.Context, commodityID string) ([]domain.RequirementSide, error) {
	return nil, nil
}

type countingAvailLookup struct{ gets int32 }

func (l *countingAvailLookup) Get(ctx context.Context, id string) (*domain.AvailabilitySide, error) {
	atomic.AddInt32(&l.gets, 1)
	return &domain.AvailabilitySide{AvailabilityID: id, CommodityID: "WHEAT"}, nil
}
func (l *countingAvailLookup) ListMatchableByCommodity(ctx context.Context, commodityID string) ([]domain.AvailabilitySide, error) {
	return nil, nil
}
func (l *countingAvailLookup) Reserve(ctx context.Context, availabilityID, buyerPartnerID string, quantity float64, holdHours int) (string, error) {
	return "RES-1", nil
}

func TestDispatcher_DrainsBothRequirementAndAvailabilityTasks(t *testing.T) {
	reqLookup := &countingReqLookup{}
	availLookup := &countingAvailLookup{}
	commands := application.NewCommandService(
		reqLookup, availLookup,
		nil, application.TokenIssuer{}, application.Fanout{}, nil,
		nil, nil, application.Config{MaxRadiusKM: 100},
	)
	queue := domain.NewPriorityQueue(4, nil)
	dispatcher := application.NewDispatcher(queue, commands)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	dispatcher.Run(ctx, 2)

	if err := queue.Enqueue(ctx, domain.Task{SubjectType: "requirement", SubjectID: "REQ-1", Priority: domain.PriorityHigh}); err != nil {
		t.Fatalf("enqueue requirement task: %v", err)
	}
	if err := queue.Enqueue(ctx, domain.Task{SubjectType: "availability", SubjectID: "AVL-1", Priority: domain.PriorityHigh}); err != nil {
		t.Fatalf("enqueue availability task: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if atomic.LoadInt32(&reqLookup.gets) == 1 && atomic.LoadInt32(&availLookup.gets) == 1 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("dispatcher did not drain both queued tasks in time (reqGets=%d availGets=%d)", reqLookup.gets, availLookup.gets)
}
