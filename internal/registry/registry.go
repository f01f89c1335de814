// Package registry is the client for the hosted registered_events
// relation. The schema enforces UNIQUE (user_id, event_id), so a second
// insert for the same pair surfaces as ErrAlreadyRegistered instead of a
// duplicate row.
package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/eventexplorer/eventexplorer-go/internal/model"
	"github.com/google/uuid"
)

var (
	// ErrNoneRegistered is the documented "no row found" case. Callers
	// treat it as an empty result, not a failure.
	ErrNoneRegistered = errors.New("no registration found")

	// ErrAlreadyRegistered is returned when the (user, event) pair is
	// already registered.
	ErrAlreadyRegistered = errors.New("already registered for this event")
)

// BackendError wraps any hosted-store failure other than the documented
// no-row case.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("hosted store: %s: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// Repository handles persistence against the registered_events relation.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Insert creates one registration row for the user. Exactly one insert
// is attempted; the caller decides whether to retry after failure. The
// row ID is assigned here and registered_at by the database.
func (r *Repository) Insert(ctx context.Context, userID string, reg *model.RegisteredEvent) error {
	reg.ID = uuid.New().String()

	query := `INSERT INTO registered_events
		(id, user_id, event_id, event_title, event_description, event_image)
		VALUES (?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		reg.ID, userID, reg.EventID, reg.EventTitle, reg.EventDescription, reg.EventImage,
	)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrAlreadyRegistered
		}
		return &BackendError{Op: "insert registration", Err: err}
	}
	return nil
}

// ListByUser retrieves all registrations for a user, most recent first.
func (r *Repository) ListByUser(ctx context.Context, userID string) ([]model.RegisteredEvent, error) {
	query := `SELECT id, event_id, event_title, event_description, event_image, registered_at
		FROM registered_events WHERE user_id = ? ORDER BY registered_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, &BackendError{Op: "list registrations", Err: err}
	}
	defer rows.Close()

	var regs []model.RegisteredEvent
	for rows.Next() {
		var reg model.RegisteredEvent
		if err := rows.Scan(
			&reg.ID, &reg.EventID, &reg.EventTitle,
			&reg.EventDescription, &reg.EventImage, &reg.RegisteredAt,
		); err != nil {
			return nil, &BackendError{Op: "scan registration", Err: err}
		}
		regs = append(regs, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, &BackendError{Op: "list registrations", Err: err}
	}
	return regs, nil
}

// FindByUserAndEvent retrieves the registration for a (user, event)
// pair, or ErrNoneRegistered when no row exists. Pre-existing duplicate
// rows from before the unique key degrade to the newest one.
func (r *Repository) FindByUserAndEvent(ctx context.Context, userID, eventID string) (*model.RegisteredEvent, error) {
	query := `SELECT id, event_id, event_title, event_description, event_image, registered_at
		FROM registered_events WHERE user_id = ? AND event_id = ?
		ORDER BY registered_at DESC LIMIT 1`

	reg := &model.RegisteredEvent{}
	err := r.db.QueryRowContext(ctx, query, userID, eventID).Scan(
		&reg.ID, &reg.EventID, &reg.EventTitle,
		&reg.EventDescription, &reg.EventImage, &reg.RegisteredAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoneRegistered
		}
		return nil, &BackendError{Op: "find registration", Err: err}
	}
	return reg, nil
}

// isDuplicateEntryError checks if a MySQL error is a duplicate entry error (code 1062).
func isDuplicateEntryError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "Duplicate entry")
}
