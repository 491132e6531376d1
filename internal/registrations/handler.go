package registrations

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nexus-society/backend/internal/middleware"
	"github.com/nexus-society/backend/internal/models"
	"github.com/nexus-society/backend/pkg/queue"
	"github.com/nexus-society/backend/pkg/response"
)

// ReviewRequest is the body for PUT /registrations/:id/approve and /reject.
type ReviewRequest struct {
	Notes string `json:"notes" binding:"max=500"`
}

// Handler handles registration workflow HTTP endpoints.
type Handler struct {
	engine *Engine
	jobs   *queue.Queue
	logger *zap.Logger
}

// NewHandler creates a registrations handler. jobs may be nil when the cache
// rebuild endpoint is not exposed.
func NewHandler(engine *Engine, jobs *queue.Queue, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{engine: engine, jobs: jobs, logger: logger}
}

// Register handles POST /events/:id/register.
func (h *Handler) Register(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	reg, err := h.engine.Request(c.Request.Context(), userID, eventID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.OK(c, reg)
}

// Withdraw handles DELETE /events/:id/register.
func (h *Handler) Withdraw(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	if err := h.engine.Withdraw(c.Request.Context(), userID, eventID); err != nil {
		h.respondError(c, err)
		return
	}
	response.OK(c, gin.H{"withdrawn": true})
}

// ListMine handles GET /users/me/registrations.
func (h *Handler) ListMine(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	list, err := h.engine.ListByUser(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.OK(c, gin.H{"count": len(list), "registrations": list})
}

// ListByEvent handles GET /events/:id/registrations (admin).
func (h *Handler) ListByEvent(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	list, err := h.engine.ListByEvent(c.Request.Context(), eventID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.OK(c, gin.H{"event_id": eventID, "count": len(list), "registrations": list})
}

// Approve handles PUT /registrations/:id/approve (admin).
func (h *Handler) Approve(c *gin.Context) {
	h.review(c, h.engine.Approve)
}

// Reject handles PUT /registrations/:id/reject (admin).
func (h *Handler) Reject(c *gin.Context) {
	h.review(c, h.engine.Reject)
}

// RebuildAttendees handles POST /events/:id/attendees/rebuild (admin).
// Schedules a recompute of the denormalized attendee cache from the ledger;
// the background worker performs the repair.
func (h *Handler) RebuildAttendees(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	if _, err := h.engine.store.GetEvent(c.Request.Context(), eventID); err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.jobs.EnqueueCacheRebuild(c.Request.Context(), queue.CacheRebuildPayload{EventID: eventID}); err != nil {
		h.logger.Error("enqueue cache rebuild failed", zap.Error(err), zap.String("event_id", eventID.String()))
		response.Internal(c, "failed to schedule rebuild")
		return
	}
	response.OK(c, gin.H{"event_id": eventID, "scheduled": true})
}

func (h *Handler) review(c *gin.Context, decide func(ctx context.Context, id, reviewer uuid.UUID, notes string) (*models.Registration, error)) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid registration id")
		return
	}
	reviewerID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	var req ReviewRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "invalid request: "+err.Error())
			return
		}
	}

	reg, err := decide(c.Request.Context(), id, reviewerID, req.Notes)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.OK(c, reg)
}

// respondError maps workflow errors to stable HTTP statuses and machine codes.
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		response.NotFoundCode(c, "not_found", err.Error())
	case errors.Is(err, ErrConflict):
		response.BadRequestCode(c, "conflict", err.Error())
	case errors.Is(err, ErrEventFull):
		response.BadRequestCode(c, "event_full", err.Error())
	case errors.Is(err, ErrEventNotOpen):
		response.BadRequestCode(c, "event_not_open", err.Error())
	case errors.Is(err, ErrInvalidTransition):
		response.BadRequestCode(c, "invalid_transition", err.Error())
	default:
		h.logger.Error("registration workflow failed", zap.Error(err))
		response.Internal(c, "registration operation failed")
	}
}
