package blogs

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

// CreateRequest is the body for POST /blogs.
type CreateRequest struct {
	Title      string `json:"title" binding:"required,max=150"`
	Excerpt    string `json:"excerpt" binding:"required,max=300"`
	Content    string `json:"content" binding:"required"`
	AuthorName string `json:"author_name" binding:"required"`
	AuthorRole string `json:"author_role" binding:"required"`
	ImageURL   string `json:"image_url"`
	ImageKey   string `json:"image_key"`
	Tag        string `json:"tag" binding:"required"`
	Featured   bool   `json:"featured"`
	ReadTime   string `json:"read_time"`
}

// UploadURLRequest is the body for POST /blogs/generate-upload-url.
type UploadURLRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type"`
}

// Handler handles blog HTTP endpoints.
type Handler struct {
	repo   *Repository
	s3     *storage.S3
	logger *zap.Logger
}

// NewHandler creates a blogs handler. s3 may be nil when object storage is
// not configured; cover image upload URLs are rejected in that case.
func NewHandler(repo *Repository, s3 *storage.S3, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, s3: s3, logger: logger}
}

// GenerateUploadURL handles POST /blogs/generate-upload-url (admin). Returns
// a pre-signed PUT URL for a cover image; the client uploads directly to S3
// and sends the resulting key and public URL in the blog create/update body.
func (h *Handler) GenerateUploadURL(c *gin.Context) {
	if h.s3 == nil {
		response.Internal(c, "object storage not configured")
		return
	}
	var req UploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if !storage.ValidateImageFileType(req.ContentType, req.Filename) {
		response.BadRequest(c, "invalid file type: only jpg, png, webp, gif allowed")
		return
	}
	contentType := req.ContentType
	if contentType == "" {
		contentType = storage.ContentTypeForFilename(req.Filename)
	}
	key := storage.BlogKey(uuid.NewString(), req.Filename)
	url, err := h.s3.GeneratePresignedUploadURL(c.Request.Context(), key, contentType, h.s3.PresignExpire())
	if err != nil {
		h.logger.Error("presign upload url failed", zap.Error(err), zap.String("key", key))
		response.Internal(c, "failed to generate upload url")
		return
	}
	response.OK(c, gin.H{
		"upload_url":   url,
		"key":          key,
		"public_url":   h.s3.PublicObjectURL(key),
		"content_type": contentType,
		"expires_in":   int(h.s3.PresignExpire().Seconds()),
	})
}

// List handles GET /blogs. Public; published posts only, ?tag= and
// ?featured=true filters.
func (h *Handler) List(c *gin.Context) {
	tag := c.Query("tag")
	if tag != "" && !models.BlogTag(tag).Valid() {
		response.BadRequest(c, "invalid tag filter")
		return
	}
	list, err := h.repo.ListPublished(c.Request.Context(), tag, c.Query("featured") == "true")
	if err != nil {
		h.logger.Error("list blogs failed", zap.Error(err))
		response.Internal(c, "failed to list blogs")
		return
	}
	response.OK(c, gin.H{"count": len(list), "blogs": list})
}

// ListAll handles GET /blogs/admin/all (admin). Includes drafts.
func (h *Handler) ListAll(c *gin.Context) {
	list, err := h.repo.ListAll(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to list blogs")
		return
	}
	response.OK(c, gin.H{"count": len(list), "blogs": list})
}

// GetByID handles GET /blogs/:id. Public; bumps the view counter for
// published posts.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid blog id")
		return
	}
	b, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "blog not found")
			return
		}
		response.Internal(c, "failed to load blog")
		return
	}
	if !b.Published {
		response.NotFound(c, "blog not found")
		return
	}
	if err := h.repo.IncrementViews(c.Request.Context(), id); err != nil {
		h.logger.Warn("increment views failed", zap.Error(err), zap.String("blog_id", id.String()))
	} else {
		b.Views++
	}
	response.OK(c, b)
}

// Create handles POST /blogs (admin).
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	tag := models.BlogTag(req.Tag)
	if !tag.Valid() {
		response.BadRequest(c, "tag must be Tech Trends, Tutorials, Career Advice, or Community")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	b := &models.Blog{
		Title:      req.Title,
		Excerpt:    req.Excerpt,
		Content:    req.Content,
		AuthorName: req.AuthorName,
		AuthorRole: req.AuthorRole,
		ImageURL:   req.ImageURL,
		ImageKey:   req.ImageKey,
		Tag:        tag,
		Featured:   req.Featured,
		ReadTime:   orDefault(req.ReadTime, "5 min read"),
		CreatedBy:  userID,
	}
	if err := h.repo.Create(c.Request.Context(), b); err != nil {
		h.logger.Error("create blog failed", zap.Error(err))
		response.Internal(c, "failed to create blog")
		return
	}
	response.Created(c, b)
}

// Update handles PUT /blogs/:id (admin).
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid blog id")
		return
	}
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	tag := models.BlogTag(req.Tag)
	if !tag.Valid() {
		response.BadRequest(c, "tag must be Tech Trends, Tutorials, Career Advice, or Community")
		return
	}
	b := &models.Blog{
		ID:         id,
		Title:      req.Title,
		Excerpt:    req.Excerpt,
		Content:    req.Content,
		AuthorName: req.AuthorName,
		AuthorRole: req.AuthorRole,
		ImageURL:   req.ImageURL,
		ImageKey:   req.ImageKey,
		Tag:        tag,
		Featured:   req.Featured,
		ReadTime:   orDefault(req.ReadTime, "5 min read"),
	}
	out, err := h.repo.Update(c.Request.Context(), b)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "blog not found")
			return
		}
		response.Internal(c, "failed to update blog")
		return
	}
	response.OK(c, out)
}

// TogglePublish handles PUT /blogs/:id/publish (admin).
func (h *Handler) TogglePublish(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid blog id")
		return
	}
	out, err := h.repo.TogglePublish(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "blog not found")
			return
		}
		response.Internal(c, "failed to toggle publish")
		return
	}
	response.OK(c, out)
}

// Delete handles DELETE /blogs/:id (admin).
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid blog id")
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "blog not found")
			return
		}
		response.Internal(c, "failed to delete blog")
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
