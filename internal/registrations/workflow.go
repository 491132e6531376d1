package registrations

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nexus-society/backend/internal/models"
)

// Store is the persistence surface the workflow engine requires. The ledger
// is the source of truth for registrations; the event row carries only a
// rebuildable cache of approved attendee IDs.
type Store interface {
	// InEventTx runs fn inside a transaction that serializes all workflow
	// operations touching the given event. Two concurrent calls for the same
	// event never interleave between their read and write steps.
	InEventTx(ctx context.Context, eventID uuid.UUID, fn func(tx EventTx) error) error

	GetByID(ctx context.Context, id uuid.UUID) (*models.Registration, error)
	GetEvent(ctx context.Context, eventID uuid.UUID) (*models.Event, error)
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.RegistrationDetail, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.RegistrationDetail, error)
}

// EventTx exposes the ledger and attendee-cache mutations available inside an
// event-scoped transaction.
type EventTx interface {
	// Event returns the locked event row, or ErrNotFound.
	Event(ctx context.Context) (*models.Event, error)
	// Find returns the registration for (user, event), or ErrNotFound.
	Find(ctx context.Context, userID uuid.UUID) (*models.Registration, error)
	// Get returns a registration by ID scoped to the event, or ErrNotFound.
	Get(ctx context.Context, id uuid.UUID) (*models.Registration, error)
	// CountByStatus counts registrations for the event in the given status.
	CountByStatus(ctx context.Context, status models.RegistrationStatus) (int, error)
	// Insert creates a pending registration. Returns ErrConflict when one
	// already exists for the pair (backed by a storage-level unique constraint).
	Insert(ctx context.Context, userID uuid.UUID) (*models.Registration, error)
	// SetStatus resolves a pending registration and stamps review metadata.
	// Returns ErrInvalidTransition when the current status is not pending.
	SetStatus(ctx context.Context, id uuid.UUID, status models.RegistrationStatus, reviewer uuid.UUID, notes string) (*models.Registration, error)
	// Delete removes a registration from the ledger.
	Delete(ctx context.Context, id uuid.UUID) error
	// AddAttendee upserts a user into the event's approved attendee cache.
	AddAttendee(ctx context.Context, userID uuid.UUID) error
	// RemoveAttendee removes a user from the event's approved attendee cache.
	RemoveAttendee(ctx context.Context, userID uuid.UUID) error
}

// Notifier enqueues a decision notification for a reviewed registration.
// Failures are logged, never surfaced to the caller.
type Notifier interface {
	RegistrationDecided(ctx context.Context, registrationID uuid.UUID, status models.RegistrationStatus) error
}

// Engine applies the registration workflow state machine: a registration is
// created pending and transitions exactly once to approved or rejected.
// Capacity is checked both at request time and again at approval time; the
// approval-time check is the binding one, since pending requests may
// outnumber capacity.
type Engine struct {
	store    Store
	notifier Notifier
	logger   *zap.Logger
}

// NewEngine creates a workflow engine. notifier may be nil.
func NewEngine(store Store, notifier Notifier, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{store: store, notifier: notifier, logger: logger}
}

// Request creates a pending registration for the user on the event.
// Fails with ErrNotFound, ErrEventNotOpen, ErrConflict or ErrEventFull.
// A previously rejected registration blocks resubmission.
func (e *Engine) Request(ctx context.Context, userID, eventID uuid.UUID) (*models.Registration, error) {
	var reg *models.Registration
	err := e.store.InEventTx(ctx, eventID, func(tx EventTx) error {
		ev, err := tx.Event(ctx)
		if err != nil {
			return err
		}
		if ev.Status != models.EventUpcoming {
			return ErrEventNotOpen
		}
		if _, err := tx.Find(ctx, userID); err == nil {
			return ErrConflict
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}
		approved, err := tx.CountByStatus(ctx, models.RegistrationApproved)
		if err != nil {
			return err
		}
		if approved >= ev.Capacity {
			return ErrEventFull
		}
		reg, err = tx.Insert(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	e.logger.Info("registration requested",
		zap.String("registration_id", reg.ID.String()),
		zap.String("event_id", eventID.String()),
		zap.String("user_id", userID.String()),
	)
	return reg, nil
}

// Withdraw deletes the user's registration for the event. When the
// registration had been approved, the user is also removed from the event's
// attendee cache so the two representations stay consistent.
func (e *Engine) Withdraw(ctx context.Context, userID, eventID uuid.UUID) error {
	err := e.store.InEventTx(ctx, eventID, func(tx EventTx) error {
		reg, err := tx.Find(ctx, userID)
		if err != nil {
			return err
		}
		if err := tx.Delete(ctx, reg.ID); err != nil {
			return err
		}
		if reg.Status == models.RegistrationApproved {
			return tx.RemoveAttendee(ctx, userID)
		}
		return nil
	})
	if err != nil {
		return err
	}
	e.logger.Info("registration withdrawn",
		zap.String("event_id", eventID.String()),
		zap.String("user_id", userID.String()),
	)
	return nil
}

// Approve resolves a pending registration to approved, re-checking capacity
// under the event lock, and upserts the user into the attendee cache.
func (e *Engine) Approve(ctx context.Context, id, reviewerID uuid.UUID, notes string) (*models.Registration, error) {
	reg, err := e.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	var out *models.Registration
	err = e.store.InEventTx(ctx, reg.EventID, func(tx EventTx) error {
		cur, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}
		if cur.Status != models.RegistrationPending {
			return ErrInvalidTransition
		}
		ev, err := tx.Event(ctx)
		if err != nil {
			return err
		}
		approved, err := tx.CountByStatus(ctx, models.RegistrationApproved)
		if err != nil {
			return err
		}
		if approved >= ev.Capacity {
			return ErrEventFull
		}
		out, err = tx.SetStatus(ctx, id, models.RegistrationApproved, reviewerID, notes)
		if err != nil {
			return err
		}
		return tx.AddAttendee(ctx, cur.UserID)
	})
	if err != nil {
		return nil, err
	}
	e.notifyDecision(ctx, out)
	return out, nil
}

// Reject resolves a pending registration to rejected and stamps review
// metadata. The attendee cache is untouched.
func (e *Engine) Reject(ctx context.Context, id, reviewerID uuid.UUID, notes string) (*models.Registration, error) {
	reg, err := e.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	var out *models.Registration
	err = e.store.InEventTx(ctx, reg.EventID, func(tx EventTx) error {
		cur, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}
		if cur.Status != models.RegistrationPending {
			return ErrInvalidTransition
		}
		out, err = tx.SetStatus(ctx, id, models.RegistrationRejected, reviewerID, notes)
		return err
	})
	if err != nil {
		return nil, err
	}
	e.notifyDecision(ctx, out)
	return out, nil
}

// ListByEvent returns the event's registrations ordered by request time,
// newest first. Fails with ErrNotFound when the event is absent.
func (e *Engine) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.RegistrationDetail, error) {
	if _, err := e.store.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	return e.store.ListByEvent(ctx, eventID)
}

// ListByUser returns the user's registrations ordered by request time,
// newest first.
func (e *Engine) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.RegistrationDetail, error) {
	return e.store.ListByUser(ctx, userID)
}

func (e *Engine) notifyDecision(ctx context.Context, reg *models.Registration) {
	e.logger.Info("registration reviewed",
		zap.String("registration_id", reg.ID.String()),
		zap.String("status", string(reg.Status)),
	)
	if e.notifier == nil {
		return
	}
	if err := e.notifier.RegistrationDecided(ctx, reg.ID, reg.Status); err != nil {
		e.logger.Warn("enqueue decision notification failed",
			zap.Error(err),
			zap.String("registration_id", reg.ID.String()),
		)
	}
}
