package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nexus-society/backend/internal/auth"
	"github.com/nexus-society/backend/internal/models"
	"github.com/nexus-society/backend/internal/notifications"
	"github.com/nexus-society/backend/internal/registrations"
	"github.com/nexus-society/backend/pkg/mailer"
	"github.com/nexus-society/backend/pkg/queue"
)

// Processor executes background jobs: registration decision emails and
// attendee cache rebuilds.
type Processor struct {
	regRepo   *registrations.Repository
	userRepo  *auth.Repository
	eventRepo EventGetter
	emailLog  *notifications.Repository
	mail      *mailer.Mailer
	queue     *queue.Queue
	logger    *zap.Logger
}

// EventGetter loads event display fields for email bodies.
type EventGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
}

// NewProcessor creates a background job processor.
func NewProcessor(regRepo *registrations.Repository, userRepo *auth.Repository, eventRepo EventGetter,
	emailLog *notifications.Repository, mail *mailer.Mailer, q *queue.Queue, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		regRepo:   regRepo,
		userRepo:  userRepo,
		eventRepo: eventRepo,
		emailLog:  emailLog,
		mail:      mail,
		queue:     q,
		logger:    logger,
	}
}

// Process executes one job.
func (p *Processor) Process(ctx context.Context, job *queue.Job) error {
	switch job.Type {
	case queue.JobTypeDecisionEmail:
		var payload queue.DecisionEmailPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return fmt.Errorf("unmarshal payload: %w", err)
		}
		return p.sendDecisionEmail(ctx, payload)
	case queue.JobTypeCacheRebuild:
		var payload queue.CacheRebuildPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return fmt.Errorf("unmarshal payload: %w", err)
		}
		return p.rebuildCache(ctx, payload)
	default:
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

func (p *Processor) sendDecisionEmail(ctx context.Context, payload queue.DecisionEmailPayload) error {
	reg, err := p.regRepo.GetByID(ctx, payload.RegistrationID)
	if err != nil {
		// Registration may have been withdrawn since the decision; nothing to send.
		p.logger.Info("registration gone, skipping email", zap.String("registration_id", payload.RegistrationID.String()))
		return nil
	}
	user, err := p.userRepo.GetByID(ctx, reg.UserID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	ev, err := p.eventRepo.GetByID(ctx, reg.EventID)
	if err != nil {
		return fmt.Errorf("load event: %w", err)
	}

	subject, body := decisionEmail(user.FullName, ev, models.RegistrationStatus(payload.Status), reg.Notes)

	log := &models.EmailLog{
		RegistrationID: reg.ID,
		Recipient:      user.Email,
		Subject:        subject,
		Status:         "sent",
	}
	if err := p.mail.Send(user.Email, subject, body); err != nil {
		log.Status = "failed"
		log.Error = err.Error()
		if lerr := p.emailLog.Create(ctx, log); lerr != nil {
			p.logger.Warn("record email log failed", zap.Error(lerr))
		}
		return fmt.Errorf("send email: %w", err)
	}
	now := time.Now()
	log.SentAt = &now
	if err := p.emailLog.Create(ctx, log); err != nil {
		p.logger.Warn("record email log failed", zap.Error(err))
	}
	p.logger.Info("decision email sent",
		zap.String("registration_id", reg.ID.String()),
		zap.String("recipient", user.Email),
	)
	return nil
}

func (p *Processor) rebuildCache(ctx context.Context, payload queue.CacheRebuildPayload) error {
	if err := p.regRepo.RebuildAttendees(ctx, payload.EventID); err != nil {
		return fmt.Errorf("rebuild attendees: %w", err)
	}
	p.logger.Info("attendee cache rebuilt", zap.String("event_id", payload.EventID.String()))
	return nil
}

func decisionEmail(name string, ev *models.Event, status models.RegistrationStatus, notes string) (subject, body string) {
	when := ev.Date.Format("Monday, 2 January 2006")
	if status == models.RegistrationApproved {
		subject = "Registration approved: " + ev.Title
		body = fmt.Sprintf("Hi %s,\n\nYour registration for %q on %s at %s has been approved. See you there!\n",
			name, ev.Title, when, ev.Venue)
	} else {
		subject = "Registration update: " + ev.Title
		body = fmt.Sprintf("Hi %s,\n\nUnfortunately your registration for %q on %s was not approved.\n",
			name, ev.Title, when)
	}
	if notes != "" {
		body += "\nReviewer notes: " + notes + "\n"
	}
	return subject, body
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *Processor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			time.Sleep(queue.RetryBackoff)
			continue
		}
	}
}
