package notifications

import (
	"context"

	"github.com/google/uuid"

	"github.com/nexus-society/backend/internal/models"
	"github.com/nexus-society/backend/pkg/queue"
)

// QueueNotifier enqueues registration decision emails onto the Redis job
// queue for the background worker.
type QueueNotifier struct {
	jobs *queue.Queue
}

// NewQueueNotifier creates a queue-backed notifier.
func NewQueueNotifier(jobs *queue.Queue) *QueueNotifier {
	return &QueueNotifier{jobs: jobs}
}

// RegistrationDecided enqueues a decision email job.
func (n *QueueNotifier) RegistrationDecided(ctx context.Context, registrationID uuid.UUID, status models.RegistrationStatus) error {
	return n.jobs.EnqueueDecisionEmail(ctx, queue.DecisionEmailPayload{
		RegistrationID: registrationID,
		Status:         string(status),
	})
}
