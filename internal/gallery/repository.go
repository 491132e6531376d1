package gallery

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nexus-society/backend/internal/models"
)

// ErrNotFound means the gallery image does not exist.
var ErrNotFound = errors.New("image not found")

// Repository handles gallery persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a gallery repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const columns = `id, title, description, image_url, image_key, category, uploaded_by, created_at`

func scan(row pgx.Row) (*models.GalleryImage, error) {
	var g models.GalleryImage
	err := row.Scan(&g.ID, &g.Title, &g.Description, &g.ImageURL, &g.ImageKey, &g.Category, &g.UploadedBy, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &g, nil
}

// Create inserts a gallery image record.
func (r *Repository) Create(ctx context.Context, g *models.GalleryImage) error {
	const q = `INSERT INTO gallery (title, description, image_url, image_key, category, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q, g.Title, g.Description, g.ImageURL, g.ImageKey, string(g.Category), g.UploadedBy).
		Scan(&g.ID, &g.CreatedAt)
}

// GetByID returns a gallery image by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.GalleryImage, error) {
	return scan(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM gallery WHERE id = $1`, id))
}

// List returns gallery images, newest first, optionally filtered by category.
func (r *Repository) List(ctx context.Context, category string) ([]models.GalleryImage, error) {
	q := `SELECT ` + columns + ` FROM gallery`
	var args []interface{}
	if category != "" {
		q += ` WHERE category = $1`
		args = append(args, category)
	}
	q += ` ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.GalleryImage
	for rows.Next() {
		g, err := scan(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *g)
	}
	return list, rows.Err()
}

// UpdateMeta updates title, description and category.
func (r *Repository) UpdateMeta(ctx context.Context, id uuid.UUID, title, description string, category models.GalleryCategory) (*models.GalleryImage, error) {
	const q = `UPDATE gallery SET title = $2, description = $3, category = $4 WHERE id = $1 RETURNING ` + columns
	return scan(r.pool.QueryRow(ctx, q, id, title, description, string(category)))
}

// Delete removes a gallery image record.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM gallery WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
