package registrations

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nexus-society/backend/internal/models"
)

const uniqueViolation = "23505"

// Repository is the PostgreSQL-backed registration ledger. It implements
// Store; event-scoped atomicity comes from a row lock on the event record,
// and the (user_id, event_id) unique index closes the duplicate-request race
// at the storage level.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a registrations repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const regColumns = `id, user_id, event_id, status, registered_at, reviewed_at, reviewed_by, COALESCE(notes, '')`

func scanRegistration(row pgx.Row) (*models.Registration, error) {
	var reg models.Registration
	err := row.Scan(&reg.ID, &reg.UserID, &reg.EventID, &reg.Status, &reg.RegisteredAt, &reg.ReviewedAt, &reg.ReviewedBy, &reg.Notes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &reg, nil
}

// InEventTx runs fn in a transaction holding an exclusive lock on the event
// row. All workflow operations for one event serialize on that lock, which
// also blocks them against an in-flight event deletion.
func (r *Repository) InEventTx(ctx context.Context, eventID uuid.UUID, fn func(tx EventTx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var locked uuid.UUID
	err = tx.QueryRow(ctx, `SELECT id FROM events WHERE id = $1 FOR UPDATE`, eventID).Scan(&locked)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	if err := fn(&eventTx{tx: tx, eventID: eventID}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// GetByID returns a registration by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Registration, error) {
	return scanRegistration(r.pool.QueryRow(ctx,
		`SELECT `+regColumns+` FROM registrations WHERE id = $1`, id))
}

// GetEvent returns an event by ID without locking it.
func (r *Repository) GetEvent(ctx context.Context, eventID uuid.UUID) (*models.Event, error) {
	return scanEvent(r.pool.QueryRow(ctx, eventQuery, eventID))
}

// ListByEvent returns the event's registrations joined with member display
// fields, newest first.
func (r *Repository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.RegistrationDetail, error) {
	const q = `SELECT r.id, r.user_id, r.event_id, r.status, r.registered_at, r.reviewed_at, r.reviewed_by, COALESCE(r.notes, ''),
			u.full_name, u.email
		FROM registrations r
		JOIN users u ON u.id = r.user_id
		WHERE r.event_id = $1
		ORDER BY r.registered_at DESC`
	rows, err := r.pool.Query(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.RegistrationDetail
	for rows.Next() {
		var d models.RegistrationDetail
		if err := rows.Scan(&d.ID, &d.UserID, &d.EventID, &d.Status, &d.RegisteredAt, &d.ReviewedAt, &d.ReviewedBy, &d.Notes,
			&d.UserName, &d.UserEmail); err != nil {
			return nil, err
		}
		list = append(list, d)
	}
	return list, rows.Err()
}

// ListByUser returns the user's registrations joined with event display
// fields, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.RegistrationDetail, error) {
	const q = `SELECT r.id, r.user_id, r.event_id, r.status, r.registered_at, r.reviewed_at, r.reviewed_by, COALESCE(r.notes, ''),
			e.title, e.date
		FROM registrations r
		JOIN events e ON e.id = r.event_id
		WHERE r.user_id = $1
		ORDER BY r.registered_at DESC`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.RegistrationDetail
	for rows.Next() {
		var d models.RegistrationDetail
		if err := rows.Scan(&d.ID, &d.UserID, &d.EventID, &d.Status, &d.RegisteredAt, &d.ReviewedAt, &d.ReviewedBy, &d.Notes,
			&d.EventTitle, &d.EventDate); err != nil {
			return nil, err
		}
		list = append(list, d)
	}
	return list, rows.Err()
}

// RebuildAttendees recomputes the event's approved attendee cache from the
// ledger. Repair procedure; the single UPDATE takes the event row lock and
// therefore serializes with workflow transactions.
func (r *Repository) RebuildAttendees(ctx context.Context, eventID uuid.UUID) error {
	const q = `UPDATE events SET attendees = COALESCE(
			(SELECT array_agg(user_id ORDER BY registered_at) FROM registrations WHERE event_id = $1 AND status = 'approved'),
			'{}'), updated_at = NOW()
		WHERE id = $1`
	tag, err := r.pool.Exec(ctx, q, eventID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CountsByStatus returns ledger-wide totals per status for the admin
// dashboard.
func (r *Repository) CountsByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM registrations GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

const eventQuery = `SELECT id, title, description, date, COALESCE(time, 'TBA'), COALESCE(venue, 'TBA'),
		capacity, COALESCE(image_url, ''), category, status, attendees, created_by, created_at, updated_at
	FROM events WHERE id = $1`

func scanEvent(row pgx.Row) (*models.Event, error) {
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

// eventTx implements EventTx over a pgx transaction holding the event lock.
type eventTx struct {
	tx      pgx.Tx
	eventID uuid.UUID
}

func (t *eventTx) Event(ctx context.Context) (*models.Event, error) {
	return scanEvent(t.tx.QueryRow(ctx, eventQuery, t.eventID))
}

func (t *eventTx) Find(ctx context.Context, userID uuid.UUID) (*models.Registration, error) {
	return scanRegistration(t.tx.QueryRow(ctx,
		`SELECT `+regColumns+` FROM registrations WHERE user_id = $1 AND event_id = $2`, userID, t.eventID))
}

func (t *eventTx) Get(ctx context.Context, id uuid.UUID) (*models.Registration, error) {
	return scanRegistration(t.tx.QueryRow(ctx,
		`SELECT `+regColumns+` FROM registrations WHERE id = $1 AND event_id = $2`, id, t.eventID))
}

func (t *eventTx) CountByStatus(ctx context.Context, status models.RegistrationStatus) (int, error) {
	var n int
	err := t.tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM registrations WHERE event_id = $1 AND status = $2`, t.eventID, string(status)).Scan(&n)
	return n, err
}

func (t *eventTx) Insert(ctx context.Context, userID uuid.UUID) (*models.Registration, error) {
	reg, err := scanRegistration(t.tx.QueryRow(ctx,
		`INSERT INTO registrations (user_id, event_id) VALUES ($1, $2) RETURNING `+regColumns, userID, t.eventID))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrConflict
		}
		return nil, err
	}
	return reg, nil
}

func (t *eventTx) SetStatus(ctx context.Context, id uuid.UUID, status models.RegistrationStatus, reviewer uuid.UUID, notes string) (*models.Registration, error) {
	reg, err := scanRegistration(t.tx.QueryRow(ctx,
		`UPDATE registrations SET status = $2, reviewed_at = NOW(), reviewed_by = $3, notes = NULLIF($4, '')
		WHERE id = $1 AND status = 'pending' RETURNING `+regColumns,
		id, string(status), reviewer, notes))
	if errors.Is(err, ErrNotFound) {
		// Row exists but is no longer pending, or vanished; callers check
		// the pending state first, so treat both as a transition failure.
		return nil, ErrInvalidTransition
	}
	return reg, err
}

func (t *eventTx) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM registrations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *eventTx) AddAttendee(ctx context.Context, userID uuid.UUID) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE events SET attendees = array_append(attendees, $2), updated_at = NOW()
		WHERE id = $1 AND NOT ($2 = ANY(attendees))`, t.eventID, userID)
	return err
}

func (t *eventTx) RemoveAttendee(ctx context.Context, userID uuid.UUID) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE events SET attendees = array_remove(attendees, $2), updated_at = NOW() WHERE id = $1`, t.eventID, userID)
	return err
}
