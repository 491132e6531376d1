package events

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nexus-society/backend/internal/middleware"
	"github.com/nexus-society/backend/internal/models"
	"github.com/nexus-society/backend/pkg/response"
)

// CreateRequest is the body for POST /events.
type CreateRequest struct {
	Title       string    `json:"title" binding:"required,max=100"`
	Description string    `json:"description" binding:"required"`
	Date        time.Time `json:"date" binding:"required"`
	Time        string    `json:"time"`
	Venue       string    `json:"venue"`
	Capacity    int       `json:"capacity" binding:"required,min=1"`
	ImageURL    string    `json:"image_url"`
	Category    string    `json:"category"`
}

// UpdateRequest is the body for PATCH /events/:id. All fields optional.
type UpdateRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Date        *time.Time `json:"date"`
	Time        *string    `json:"time"`
	Venue       *string    `json:"venue"`
	Capacity    *int       `json:"capacity"`
	ImageURL    *string    `json:"image_url"`
	Category    *string    `json:"category"`
	Status      *string    `json:"status"`
}

// Handler handles event HTTP endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates an events handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, logger: logger}
}

// List handles GET /events. Public; supports ?status= and ?category= filters.
func (h *Handler) List(c *gin.Context) {
	status := c.Query("status")
	if status != "" && !models.EventStatus(status).Valid() {
		response.BadRequest(c, "invalid status filter")
		return
	}
	category := c.Query("category")
	if category != "" && !models.EventCategory(category).Valid() {
		response.BadRequest(c, "invalid category filter")
		return
	}
	list, err := h.repo.List(c.Request.Context(), status, category)
	if err != nil {
		h.logger.Error("list events failed", zap.Error(err))
		response.Internal(c, "failed to list events")
		return
	}
	response.OK(c, gin.H{"count": len(list), "events": list})
}

// GetByID handles GET /events/:id. Public.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	ev, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "event not found")
			return
		}
		response.Internal(c, "failed to load event")
		return
	}
	response.OK(c, ev)
}

// Create handles POST /events (admin).
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	category := models.CategoryWorkshop
	if req.Category != "" {
		category = models.EventCategory(req.Category)
		if !category.Valid() {
			response.BadRequest(c, "invalid category")
			return
		}
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	ev := &models.Event{
		Title:       req.Title,
		Description: req.Description,
		Date:        req.Date,
		Time:        orDefault(req.Time, "TBA"),
		Venue:       orDefault(req.Venue, "TBA"),
		Capacity:    req.Capacity,
		ImageURL:    req.ImageURL,
		Category:    category,
		Status:      models.EventUpcoming,
		CreatedBy:   &userID,
	}
	if err := h.repo.Create(c.Request.Context(), ev); err != nil {
		h.logger.Error("create event failed", zap.Error(err))
		response.Internal(c, "failed to create event")
		return
	}
	response.Created(c, ev)
}

// Update handles PATCH /events/:id (admin). Status transitions are
// administrator-driven; any valid status may be set.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	p := UpdateParams{
		Title:       req.Title,
		Description: req.Description,
		Date:        req.Date,
		Time:        req.Time,
		Venue:       req.Venue,
		Capacity:    req.Capacity,
		ImageURL:    req.ImageURL,
	}
	if req.Capacity != nil && *req.Capacity < 1 {
		response.BadRequest(c, "capacity must be at least 1")
		return
	}
	if req.Category != nil {
		cat := models.EventCategory(*req.Category)
		if !cat.Valid() {
			response.BadRequest(c, "invalid category")
			return
		}
		p.Category = &cat
	}
	if req.Status != nil {
		st := models.EventStatus(*req.Status)
		if !st.Valid() {
			response.BadRequest(c, "invalid status")
			return
		}
		p.Status = &st
	}
	ev, err := h.repo.Update(c.Request.Context(), id, p)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "event not found")
			return
		}
		h.logger.Error("update event failed", zap.Error(err), zap.String("event_id", id.String()))
		response.Internal(c, "failed to update event")
		return
	}
	response.OK(c, ev)
}

// Delete handles DELETE /events/:id (admin). Cascades the registration ledger.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "event not found")
			return
		}
		h.logger.Error("delete event failed", zap.Error(err), zap.String("event_id", id.String()))
		response.Internal(c, "failed to delete event")
		return
	}
	response.OK(c, gin.H{"deleted": true})
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
