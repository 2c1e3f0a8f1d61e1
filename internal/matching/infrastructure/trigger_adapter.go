package infrastructure

import (
	"context"

	availapp "github.com/rnrl/tradecore/internal/availability/application"
	matchapp "github.com/rnrl/tradecore/internal/matching/application"
	matchdomain "github.com/rnrl/tradecore/internal/matching/domain"
	reqapp "github.com/rnrl/tradecore/internal/requirement/application"
)

// TriggerAdapter satisfies both internal/requirement/application.MatchingTrigger
// and internal/availability/application.MatchingTrigger: PublishHigh runs the
// match synchronously in-request, PublishAsync enqueues onto the shared
// PriorityQueue for Dispatcher to drain at MEDIUM priority as a fallback.
type TriggerAdapter struct {
	commands *matchapp.CommandService
	queue    *matchdomain.PriorityQueue
}

func NewTriggerAdapter(commands *matchapp.CommandService, queue *matchdomain.PriorityQueue) *TriggerAdapter {
	return &TriggerAdapter{commands: commands, queue: queue}
}

func (a *TriggerAdapter) RequirementPort() reqapp.MatchingTrigger {
	return reqapp.MatchingTrigger{
		PublishHigh:  func(ctx context.Context, requirementID string) error { return a.commands.MatchRequirement(ctx, requirementID) },
		PublishAsync: func(ctx context.Context, requirementID string) error {
			return a.queue.Enqueue(ctx, matchdomain.Task{SubjectType: "requirement", SubjectID: requirementID, Priority: matchdomain.PriorityMedium})
		},
	}
}

func (a *TriggerAdapter) AvailabilityPort() availapp.MatchingTrigger {
	return availapp.MatchingTrigger{
		PublishHigh:  func(ctx context.Context, availabilityID string) error { return a.commands.MatchAvailability(ctx, availabilityID) },
		PublishAsync: func(ctx context.Context, availabilityID string) error {
			return a.queue.Enqueue(ctx, matchdomain.Task{SubjectType: "availability", SubjectID: availabilityID, Priority: matchdomain.PriorityMedium})
		},
	}
}
