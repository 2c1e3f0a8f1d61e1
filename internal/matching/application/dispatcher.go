package application

import (
	"context"

	"github.com/rnrl/tradecore/internal/matching/domain"
	"github.com/wyfcoding/pkg/logging"
)

// Dispatcher drains the PriorityQueue and drives CommandService from it;
// PublishAsync (requirement/availability's MatchingTrigger) simply enqueues,
// this loop is the consumer. Mirrors cmd/marketdata/main.go's Kafka consumer
// worker-pool shape (consumer.Start(ctx, n, fn)) but over an in-process
// channel rather than a broker, since matching only needs a bounded
// in-memory priority queue, not a durable topic.
type Dispatcher struct {
	queue    *domain.PriorityQueue
	commands *CommandService
}

func NewDispatcher(queue *domain.PriorityQueue, commands *CommandService) *Dispatcher {
	return &Dispatcher{queue: queue, commands: commands}
}

// Run starts workerCount goroutines draining the queue until ctx is done.
func (d *Dispatcher) Run(ctx context.Context, workerCount int) {
	for i := 0; i < workerCount; i++ {
		go d.worker(ctx)
	}
}

func (d *Dispatcher) worker(ctx context.Context) {
	for {
		task, err := d.queue.Dequeue(ctx)
		if err != nil {
			return
		}
		var runErr error
		switch task.SubjectType {
		case "requirement":
			runErr = d.commands.MatchRequirement(ctx, task.SubjectID)
		case "availability":
			runErr = d.commands.MatchAvailability(ctx, task.SubjectID)
		}
		if runErr != nil {
			logging.Warn(ctx, "queued matching task failed", "subjectType", task.SubjectType, "subjectId", task.SubjectID, "error", runErr)
		}
	}
}
