package domain_test

import (
	"context"
	"testing"
	"time"

	"github.com/rnrl/tradecore/internal/matching/domain"
)

func TestPriorityQueue_DequeuesHighBeforeLowerPriority(t *testing.T) {
	q := domain.NewPriorityQueue(4, nil)
	ctx := context.Background()

	if err := q.Enqueue(ctx, domain.Task{SubjectType: "requirement", SubjectID: "low-1", Priority: domain.PriorityLow}); err != nil {
		t.Fatalf("enqueue low: %v", err)
	}
	if err := q.Enqueue(ctx, domain.Task{SubjectType: "requirement", SubjectID: "high-1", Priority: domain.PriorityHigh}); err != nil {
		t.Fatalf("enqueue high: %v", err)
	}

	got, err := q.Dequeue(ctx)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if got.SubjectID != "high-1" {
		t.Fatalf("expected HIGH task dequeued first, got %q", got.SubjectID)
	}
}

func TestPriorityQueue_MediumDegradesToLowWhenFull(t *testing.T) {
	dropped := []domain.Task{}
	q := domain.NewPriorityQueue(1, func(t domain.Task) { dropped = append(dropped, t) })
	ctx := context.Background()

	if err := q.Enqueue(ctx, domain.Task{SubjectID: "med-1", Priority: domain.PriorityMedium}); err != nil {
		t.Fatalf("enqueue first medium: %v", err)
	}
	// The medium lane is now full; a second MEDIUM task degrades to LOW.
	if err := q.Enqueue(ctx, domain.Task{SubjectID: "med-2", Priority: domain.PriorityMedium}); err != nil {
		t.Fatalf("enqueue degraded medium: %v", err)
	}

	first, err := q.Dequeue(ctx)
	if err != nil {
		t.Fatalf("dequeue first: %v", err)
	}
	if first.SubjectID != "med-1" {
		t.Fatalf("expected med-1 (still MEDIUM) dequeued first, got %q", first.SubjectID)
	}
	second, err := q.Dequeue(ctx)
	if err != nil {
		t.Fatalf("dequeue second: %v", err)
	}
	if second.SubjectID != "med-2" || second.Priority != domain.PriorityLow {
		t.Fatalf("expected med-2 degraded to LOW, got %+v", second)
	}
	if len(dropped) != 0 {
		t.Fatalf("expected no drops for a degrade, got %+v", dropped)
	}
}

func TestPriorityQueue_LowDropsAndInvokesOnDropWhenFull(t *testing.T) {
	var dropped domain.Task
	dropCount := 0
	q := domain.NewPriorityQueue(1, func(t domain.Task) { dropped = t; dropCount++ })
	ctx := context.Background()

	if err := q.Enqueue(ctx, domain.Task{SubjectID: "low-1", Priority: domain.PriorityLow}); err != nil {
		t.Fatalf("enqueue first low: %v", err)
	}
	err := q.Enqueue(ctx, domain.Task{SubjectID: "low-2", Priority: domain.PriorityLow})
	if err != domain.ErrQueueFull {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
	if dropCount != 1 || dropped.SubjectID != "low-2" {
		t.Fatalf("expected onDrop called once for low-2, got count=%d task=%+v", dropCount, dropped)
	}
}

func TestPriorityQueue_HighBlocksUntilContextCancelled(t *testing.T) {
	q := domain.NewPriorityQueue(1, nil)
	ctx := context.Background()
	if err := q.Enqueue(ctx, domain.Task{SubjectID: "high-1", Priority: domain.PriorityHigh}); err != nil {
		t.Fatalf("fill high lane: %v", err)
	}

	cctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := q.Enqueue(cctx, domain.Task{SubjectID: "high-2", Priority: domain.PriorityHigh})
	if err == nil {
		t.Fatalf("expected blocking HIGH enqueue to fail once ctx is cancelled")
	}
}
