// Package admin serves the dashboard counters and operational views.
package admin

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nexus-society/backend/internal/auth"
	"github.com/nexus-society/backend/internal/blogs"
	"github.com/nexus-society/backend/internal/events"
	"github.com/nexus-society/backend/internal/feedback"
	"github.com/nexus-society/backend/internal/notifications"
	"github.com/nexus-society/backend/internal/registrations"
	"github.com/nexus-society/backend/pkg/response"
)

// Handler aggregates counts from every feature repository.
type Handler struct {
	users    *auth.Repository
	events   *events.Repository
	regs     *registrations.Repository
	blogs    *blogs.Repository
	feedback *feedback.Repository
	emails   *notifications.Repository
	logger   *zap.Logger
}

// NewHandler creates the admin handler.
func NewHandler(users *auth.Repository, eventRepo *events.Repository, regs *registrations.Repository,
	blogRepo *blogs.Repository, fbRepo *feedback.Repository, emails *notifications.Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		users:    users,
		events:   eventRepo,
		regs:     regs,
		blogs:    blogRepo,
		feedback: fbRepo,
		emails:   emails,
		logger:   logger,
	}
}

// Stats returns the dashboard summary: member count, events by status,
// registrations by status, published blog count, pending feedback.
func (h *Handler) Stats(c *gin.Context) {
	ctx := c.Request.Context()

	userCount, err := h.users.Count(ctx)
	if err != nil {
		h.logger.Error("count users", zap.Error(err))
		response.Internal(c, "failed to load stats")
		return
	}
	eventCounts, err := h.events.CountByStatus(ctx)
	if err != nil {
		h.logger.Error("count events", zap.Error(err))
		response.Internal(c, "failed to load stats")
		return
	}
	regCounts, err := h.regs.CountsByStatus(ctx)
	if err != nil {
		h.logger.Error("count registrations", zap.Error(err))
		response.Internal(c, "failed to load stats")
		return
	}
	blogCount, err := h.blogs.Count(ctx)
	if err != nil {
		h.logger.Error("count blogs", zap.Error(err))
		response.Internal(c, "failed to load stats")
		return
	}
	pendingFeedback, err := h.feedback.CountPending(ctx)
	if err != nil {
		h.logger.Error("count feedback", zap.Error(err))
		response.Internal(c, "failed to load stats")
		return
	}

	response.OK(c, gin.H{
		"users":            userCount,
		"events":           eventCounts,
		"registrations":    regCounts,
		"blogs":            blogCount,
		"pending_feedback": pendingFeedback,
	})
}

// Emails lists recent registration decision emails (audit trail).
func (h *Handler) Emails(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	list, err := h.emails.ListRecent(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("list email logs", zap.Error(err))
		response.Internal(c, "failed to list email logs")
		return
	}
	response.OK(c, list)
}
