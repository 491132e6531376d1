package gallery

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nexus-society/backend/internal/middleware"
	"github.com/nexus-society/backend/internal/models"
	"github.com/nexus-society/backend/pkg/response"
	"github.com/nexus-society/backend/pkg/storage"
)

// UpdateRequest is the body for PUT /gallery/:id.
type UpdateRequest struct {
	Title       string `json:"title" binding:"required,max=100"`
	Description string `json:"description" binding:"required,max=200"`
	Category    string `json:"category" binding:"required"`
}

// Handler handles gallery HTTP endpoints.
type Handler struct {
	repo   *Repository
	s3     *storage.S3
	logger *zap.Logger
}

// NewHandler creates a gallery handler. s3 may be nil when object storage is
// not configured; uploads are rejected in that case.
func NewHandler(repo *Repository, s3 *storage.S3, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, s3: s3, logger: logger}
}

// List handles GET /gallery. Public; ?category= filter.
func (h *Handler) List(c *gin.Context) {
	category := c.Query("category")
	if category != "" && !models.GalleryCategory(category).Valid() {
		response.BadRequest(c, "invalid category filter")
		return
	}
	list, err := h.repo.List(c.Request.Context(), category)
	if err != nil {
		h.logger.Error("list gallery failed", zap.Error(err))
		response.Internal(c, "failed to list gallery")
		return
	}
	response.OK(c, gin.H{"count": len(list), "images": list})
}

// GetByID handles GET /gallery/:id. Public.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid image id")
		return
	}
	g, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "image not found")
			return
		}
		response.Internal(c, "failed to load image")
		return
	}
	response.OK(c, g)
}

// Upload handles POST /gallery/upload (admin). Multipart form: file, title,
// description, category. The image goes to S3 and the record to the database.
func (h *Handler) Upload(c *gin.Context) {
	if h.s3 == nil {
		response.Internal(c, "object storage not configured")
		return
	}
	title := c.PostForm("title")
	description := c.PostForm("description")
	category := models.GalleryCategory(c.PostForm("category"))
	if title == "" || description == "" {
		response.BadRequest(c, "title and description are required")
		return
	}
	if !category.Valid() {
		response.BadRequest(c, "category must be Hackathons, Workshops, Events, or Team")
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "missing file (form field: file)")
		return
	}
	if file.Size > storage.MaxImageFileSize {
		response.BadRequest(c, "file size exceeds 10MB limit")
		return
	}
	if !storage.ValidateImageFileType(file.Header.Get("Content-Type"), file.Filename) {
		response.BadRequest(c, "invalid file type: only jpg, png, webp, gif allowed")
		return
	}

	contentType := storage.ContentTypeForFilename(file.Filename)
	if ct := file.Header.Get("Content-Type"); ct != "" {
		if _, ok := storage.AllowedImageTypes[ct]; ok {
			contentType = ct
		}
	}

	imageID := uuid.New()
	key := storage.GalleryKey(imageID.String(), file.Filename)
	rc, err := file.Open()
	if err != nil {
		h.logger.Error("open uploaded file failed", zap.Error(err))
		response.Internal(c, "failed to read file")
		return
	}
	defer rc.Close()

	url, err := h.s3.Upload(c.Request.Context(), key, contentType, rc, file.Size, true)
	if err != nil {
		h.logger.Error("S3 upload failed", zap.Error(err), zap.String("key", key))
		response.Internal(c, "failed to upload file to storage")
		return
	}

	g := &models.GalleryImage{
		Title:       title,
		Description: description,
		ImageURL:    url,
		ImageKey:    key,
		Category:    category,
		UploadedBy:  c.MustGet(middleware.ContextUserID).(uuid.UUID),
	}
	if err := h.repo.Create(c.Request.Context(), g); err != nil {
		h.logger.Error("create gallery record failed", zap.Error(err))
		// Best effort: drop the orphaned object.
		if derr := h.s3.DeleteObject(c.Request.Context(), key); derr != nil {
			h.logger.Warn("cleanup orphaned object failed", zap.Error(derr), zap.String("key", key))
		}
		response.Internal(c, "failed to save image")
		return
	}
	response.Created(c, g)
}

// Update handles PUT /gallery/:id (admin). Metadata only; re-upload to
// replace the image.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid image id")
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	category := models.GalleryCategory(req.Category)
	if !category.Valid() {
		response.BadRequest(c, "category must be Hackathons, Workshops, Events, or Team")
		return
	}
	g, err := h.repo.UpdateMeta(c.Request.Context(), id, req.Title, req.Description, category)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "image not found")
			return
		}
		response.Internal(c, "failed to update image")
		return
	}
	response.OK(c, g)
}

// Delete handles DELETE /gallery/:id (admin). Removes the S3 object too.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid image id")
		return
	}
	g, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "image not found")
			return
		}
		response.Internal(c, "failed to load image")
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		response.Internal(c, "failed to delete image")
		return
	}
	if h.s3 != nil && g.ImageKey != "" {
		if err := h.s3.DeleteObject(c.Request.Context(), g.ImageKey); err != nil {
			h.logger.Warn("delete S3 object failed", zap.Error(err), zap.String("key", g.ImageKey))
		}
	}
	response.OK(c, gin.H{"deleted": true})
}
