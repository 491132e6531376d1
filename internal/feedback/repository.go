package feedback

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nexus-society/backend/internal/models"
)

// ErrNotFound means the feedback message does not exist.
var ErrNotFound = errors.New("feedback not found")

// Repository handles feedback persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a feedback repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const columns = `id, name, email, subject, message, user_id, status, admin_notes, created_at, updated_at`

func scan(row pgx.Row) (*models.Feedback, error) {
	var f models.Feedback
	err := row.Scan(&f.ID, &f.Name, &f.Email, &f.Subject, &f.Message, &f.UserID, &f.Status, &f.AdminNotes, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &f, nil
}

// Create inserts a feedback message in pending status.
func (r *Repository) Create(ctx context.Context, f *models.Feedback) error {
	const q = `INSERT INTO feedback (name, email, subject, message, user_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, status, admin_notes, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, f.Name, f.Email, f.Subject, f.Message, f.UserID).
		Scan(&f.ID, &f.Status, &f.AdminNotes, &f.CreatedAt, &f.UpdatedAt)
}

// GetByID returns a feedback message by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Feedback, error) {
	return scan(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM feedback WHERE id = $1`, id))
}

// List returns feedback messages, newest first, optionally filtered by status.
func (r *Repository) List(ctx context.Context, status string) ([]models.Feedback, error) {
	q := `SELECT ` + columns + ` FROM feedback`
	var args []interface{}
	if status != "" {
		q += ` WHERE status = $1`
		args = append(args, status)
	}
	q += ` ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Feedback
	for rows.Next() {
		f, err := scan(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *f)
	}
	return list, rows.Err()
}

// ListByUser returns the feedback submitted by a logged-in user.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Feedback, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+columns+` FROM feedback WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Feedback
	for rows.Next() {
		f, err := scan(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *f)
	}
	return list, rows.Err()
}

// UpdateStatus sets the triage status and admin notes.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.FeedbackStatus, adminNotes string) (*models.Feedback, error) {
	const q = `UPDATE feedback SET status = $2, admin_notes = $3, updated_at = NOW() WHERE id = $1 RETURNING ` + columns
	return scan(r.pool.QueryRow(ctx, q, id, string(status), adminNotes))
}

// Delete removes a feedback message.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM feedback WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CountPending returns the number of pending messages, for the dashboard.
func (r *Repository) CountPending(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM feedback WHERE status = 'pending'`).Scan(&n)
	return n, err
}
