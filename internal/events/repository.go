package events

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nexus-society/backend/internal/models"
)

// ErrNotFound means the event does not exist.
var ErrNotFound = errors.New("event not found")

// Repository handles event persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an events repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const columns = `id, title, description, date, COALESCE(time, 'TBA'), COALESCE(venue, 'TBA'),
	capacity, COALESCE(image_url, ''), category, status, attendees, created_by, created_at, updated_at`

func scan(row pgx.Row) (*models.Event, error) {
	var ev models.Event
	err := row.Scan(&ev.ID, &ev.Title, &ev.Description, &ev.Date, &ev.Time, &ev.Venue,
		&ev.Capacity, &ev.ImageURL, &ev.Category, &ev.Status, &ev.Attendees, &ev.CreatedBy, &ev.CreatedAt, &ev.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ev, nil
}

// Create inserts a new event.
func (r *Repository) Create(ctx context.Context, ev *models.Event) error {
	const q = `INSERT INTO events (title, description, date, time, venue, capacity, image_url, category, status, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, $9, $10)
		RETURNING id, attendees, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, ev.Title, ev.Description, ev.Date, ev.Time, ev.Venue,
		ev.Capacity, ev.ImageURL, string(ev.Category), string(ev.Status), ev.CreatedBy).
		Scan(&ev.ID, &ev.Attendees, &ev.CreatedAt, &ev.UpdatedAt)
}

// GetByID returns an event by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	return scan(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM events WHERE id = $1`, id))
}

// List returns events ordered by date ascending, optionally filtered by
// status or category.
func (r *Repository) List(ctx context.Context, status, category string) ([]models.Event, error) {
	q := `SELECT ` + columns + ` FROM events`
	var args []interface{}
	var cond string
	if status != "" {
		cond = ` WHERE status = $1`
		args = append(args, status)
	}
	if category != "" {
		if cond == "" {
			cond = ` WHERE category = $1`
		} else {
			cond += ` AND category = $2`
		}
		args = append(args, category)
	}
	rows, err := r.pool.Query(ctx, q+cond+` ORDER BY date ASC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Event
	for rows.Next() {
		ev, err := scan(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *ev)
	}
	return list, rows.Err()
}

// UpdateParams holds optional event fields for partial update.
type UpdateParams struct {
	Title       *string
	Description *string
	Date        *time.Time
	Time        *string
	Venue       *string
	Capacity    *int
	ImageURL    *string
	Category    *models.EventCategory
	Status      *models.EventStatus
}

// Update applies the non-nil fields and returns the updated event.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, p UpdateParams) (*models.Event, error) {
	const q = `UPDATE events SET
			title = COALESCE($2, title),
			description = COALESCE($3, description),
			date = COALESCE($4, date),
			time = COALESCE($5, time),
			venue = COALESCE($6, venue),
			capacity = COALESCE($7, capacity),
			image_url = COALESCE($8, image_url),
			category = COALESCE($9, category),
			status = COALESCE($10, status),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + columns
	var cat, st *string
	if p.Category != nil {
		s := string(*p.Category)
		cat = &s
	}
	if p.Status != nil {
		s := string(*p.Status)
		st = &s
	}
	return scan(r.pool.QueryRow(ctx, q, id, p.Title, p.Description, p.Date, p.Time, p.Venue, p.Capacity, p.ImageURL, cat, st))
}

// Delete removes an event. The registrations foreign key cascades, so the
// ledger rows go with it; the DELETE takes the event row lock first, which
// waits out any in-flight workflow transaction on the event.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CountByStatus returns the number of events per status, for the dashboard.
func (r *Repository) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM events GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]int)
	for rows.Next() {
		var st string
		var n int
		if err := rows.Scan(&st, &n); err != nil {
			return nil, err
		}
		out[st] = n
	}
	return out, rows.Err()
}
