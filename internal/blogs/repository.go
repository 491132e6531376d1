package blogs

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nexus-society/backend/internal/models"
)

// ErrNotFound means the blog post does not exist.
var ErrNotFound = errors.New("blog not found")

// Repository handles blog post persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a blogs repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const columns = `id, title, excerpt, content, author_name, author_role, COALESCE(image_url, ''), COALESCE(image_key, ''),
	tag, featured, published, views, read_time, created_by, published_at, created_at, updated_at`

func scan(row pgx.Row) (*models.Blog, error) {
	var b models.Blog
	err := row.Scan(&b.ID, &b.Title, &b.Excerpt, &b.Content, &b.AuthorName, &b.AuthorRole, &b.ImageURL, &b.ImageKey,
		&b.Tag, &b.Featured, &b.Published, &b.Views, &b.ReadTime, &b.CreatedBy, &b.PublishedAt, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

// Create inserts a new blog post (unpublished).
func (r *Repository) Create(ctx context.Context, b *models.Blog) error {
	const q = `INSERT INTO blogs (title, excerpt, content, author_name, author_role, image_url, image_key, tag, featured, read_time, created_by)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), $8, $9, $10, $11)
		RETURNING id, published, views, published_at, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, b.Title, b.Excerpt, b.Content, b.AuthorName, b.AuthorRole, b.ImageURL, b.ImageKey,
		string(b.Tag), b.Featured, b.ReadTime, b.CreatedBy).
		Scan(&b.ID, &b.Published, &b.Views, &b.PublishedAt, &b.CreatedAt, &b.UpdatedAt)
}

// GetByID returns a blog post by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Blog, error) {
	return scan(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM blogs WHERE id = $1`, id))
}

// ListPublished returns published posts, newest first, optionally filtered by
// tag and featured flag.
func (r *Repository) ListPublished(ctx context.Context, tag string, featured bool) ([]models.Blog, error) {
	q := `SELECT ` + columns + ` FROM blogs WHERE published = TRUE`
	var args []interface{}
	if tag != "" {
		q += ` AND tag = $1`
		args = append(args, tag)
	}
	if featured {
		q += ` AND featured = TRUE`
	}
	q += ` ORDER BY published_at DESC`
	return r.list(ctx, q, args...)
}

// ListAll returns every post including drafts, newest first (admin).
func (r *Repository) ListAll(ctx context.Context) ([]models.Blog, error) {
	return r.list(ctx, `SELECT `+columns+` FROM blogs ORDER BY created_at DESC`)
}

func (r *Repository) list(ctx context.Context, q string, args ...interface{}) ([]models.Blog, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Blog
	for rows.Next() {
		b, err := scan(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *b)
	}
	return list, rows.Err()
}

// IncrementViews bumps the view counter for a published post.
func (r *Repository) IncrementViews(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE blogs SET views = views + 1 WHERE id = $1`, id)
	return err
}

// Update replaces the editable fields of a post.
func (r *Repository) Update(ctx context.Context, b *models.Blog) (*models.Blog, error) {
	const q = `UPDATE blogs SET title = $2, excerpt = $3, content = $4, author_name = $5, author_role = $6,
			image_url = NULLIF($7, ''), image_key = NULLIF($8, ''), tag = $9, featured = $10, read_time = $11, updated_at = NOW()
		WHERE id = $1 RETURNING ` + columns
	return scan(r.pool.QueryRow(ctx, q, b.ID, b.Title, b.Excerpt, b.Content, b.AuthorName, b.AuthorRole,
		b.ImageURL, b.ImageKey, string(b.Tag), b.Featured, b.ReadTime))
}

// TogglePublish flips the published flag, stamping published_at on first publish.
func (r *Repository) TogglePublish(ctx context.Context, id uuid.UUID) (*models.Blog, error) {
	const q = `UPDATE blogs SET published = NOT published,
			published_at = CASE WHEN NOT published THEN NOW() ELSE published_at END,
			updated_at = NOW()
		WHERE id = $1 RETURNING ` + columns
	return scan(r.pool.QueryRow(ctx, q, id))
}

// Delete removes a blog post.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM blogs WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the total number of posts, for the dashboard.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM blogs`).Scan(&n)
	return n, err
}
