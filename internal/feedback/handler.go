package feedback

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nexus-society/backend/internal/middleware"
	"github.com/nexus-society/backend/internal/models"
	"github.com/nexus-society/backend/pkg/response"
)

// SubmitRequest is the body for POST /feedback.
type SubmitRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Subject string `json:"subject" binding:"required"`
	Message string `json:"message" binding:"required,max=1000"`
}

// StatusRequest is the body for PUT /feedback/:id/status.
type StatusRequest struct {
	Status     string `json:"status" binding:"required"`
	AdminNotes string `json:"admin_notes"`
}

// Handler handles feedback HTTP endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates a feedback handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, logger: logger}
}

// Submit handles POST /feedback. Public; attributes the message to the
// logged-in user when a valid token was sent.
func (h *Handler) Submit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	f := &models.Feedback{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
	}
	if v, ok := c.Get(middleware.ContextUserID); ok {
		if userID, ok := v.(uuid.UUID); ok {
			f.UserID = &userID
		}
	}
	if err := h.repo.Create(c.Request.Context(), f); err != nil {
		h.logger.Error("create feedback failed", zap.Error(err))
		response.Internal(c, "failed to submit feedback")
		return
	}
	response.Created(c, f)
}

// ListMine handles GET /feedback/my (member).
func (h *Handler) ListMine(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	list, err := h.repo.ListByUser(c.Request.Context(), userID)
	if err != nil {
		response.Internal(c, "failed to list feedback")
		return
	}
	response.OK(c, gin.H{"count": len(list), "feedback": list})
}

// List handles GET /feedback (admin). ?status= filter.
func (h *Handler) List(c *gin.Context) {
	status := c.Query("status")
	if status != "" && !models.FeedbackStatus(status).Valid() {
		response.BadRequest(c, "invalid status filter")
		return
	}
	list, err := h.repo.List(c.Request.Context(), status)
	if err != nil {
		response.Internal(c, "failed to list feedback")
		return
	}
	response.OK(c, gin.H{"count": len(list), "feedback": list})
}

// GetByID handles GET /feedback/:id (admin).
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid feedback id")
		return
	}
	f, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "feedback not found")
			return
		}
		response.Internal(c, "failed to load feedback")
		return
	}
	response.OK(c, f)
}

// UpdateStatus handles PUT /feedback/:id/status (admin).
func (h *Handler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid feedback id")
		return
	}
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	status := models.FeedbackStatus(req.Status)
	if !status.Valid() {
		response.BadRequest(c, "status must be pending, read, or replied")
		return
	}
	f, err := h.repo.UpdateStatus(c.Request.Context(), id, status, req.AdminNotes)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "feedback not found")
			return
		}
		response.Internal(c, "failed to update feedback")
		return
	}
	response.OK(c, f)
}

// Delete handles DELETE /feedback/:id (admin).
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid feedback id")
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "feedback not found")
			return
		}
		response.Internal(c, "failed to delete feedback")
		return
	}
	response.OK(c, gin.H{"deleted": true})
}
