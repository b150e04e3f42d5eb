package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/feat/internal/models"
	"github.com/desertthunder/feat/internal/shared"
)

// SessionRepository implements [models.Repository] for [models.Session] persistence.
//
// Sessions are soft-deleted; [SessionRepository.Purge] removes the row and its uploads.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new [SessionRepository] with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = "id, sequence, status, created_at, updated_at, deleted_at"

// Create inserts a new session, generating an ID when none is set.
func (r *SessionRepository) Create(session *models.Session) error {
	sequence, err := NextSequence(r.db, "sessions")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	if session.ID() == "" {
		session.SetID(shared.GenerateID())
	}
	session.SetSequence(sequence)

	if err := session.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO sessions (id, sequence, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query, session.ID(), sequence, string(session.Status()), session.CreatedAt(), session.UpdatedAt())
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	return nil
}

// Get retrieves a session by ID, excluding soft-deleted sessions
func (r *SessionRepository) Get(id string) (*models.Session, error) {
	query := "SELECT " + sessionColumns + " FROM sessions WHERE id = ? AND deleted_at IS NULL"

	session, err := scanSession(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	return session, nil
}

// Update persists the session's status and bumps updated_at.
func (r *SessionRepository) Update(session *models.Session) error {
	if err := session.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	session.SetUpdatedAt(now)

	result, err := r.db.Exec(`
		UPDATE sessions SET status = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL
	`, string(session.Status()), now, session.ID())
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	return expectOne(result, fmt.Errorf("%w: %s", shared.ErrSessionNotFound, session.ID()))
}

// Delete soft-deletes a session by ID
func (r *SessionRepository) Delete(id string) error {
	result, err := r.db.Exec(`
		UPDATE sessions SET deleted_at = ?, status = ? WHERE id = ? AND deleted_at IS NULL
	`, time.Now(), string(models.StatusStopped), id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return expectOne(result, fmt.Errorf("%w: %s", shared.ErrSessionNotFound, id))
}

// Purge removes a session row, deleted or not, along with its uploads.
func (r *SessionRepository) Purge(id string) error {
	result, err := r.db.Exec("DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to purge session: %w", err)
	}

	return expectOne(result, fmt.Errorf("%w: %s", shared.ErrSessionNotFound, id))
}

// List returns live sessions ordered by sequence.
//
// Supported criteria: "status" ([models.Status] or string), "include_deleted" (bool).
func (r *SessionRepository) List(criteria map[string]any) ([]*models.Session, error) {
	var (
		where []string
		args  []any
	)

	if deleted, _ := criteria["include_deleted"].(bool); !deleted {
		where = append(where, "deleted_at IS NULL")
	}

	switch status := criteria["status"].(type) {
	case models.Status:
		where = append(where, "status = ?")
		args = append(args, string(status))
	case string:
		where = append(where, "status = ?")
		args = append(args, status)
	}

	query := "SELECT " + sessionColumns + " FROM sessions"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY sequence"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, session)
	}

	return sessions, rows.Err()
}

// TryStart atomically moves a stopped session to running.
//
// Returns [shared.ErrToolRunning] if the session is already running.
func (r *SessionRepository) TryStart(id string) error {
	result, err := r.db.Exec(`
		UPDATE sessions SET status = ?, updated_at = ? WHERE id = ? AND status = ? AND deleted_at IS NULL
	`, string(models.StatusRunning), time.Now(), id, string(models.StatusStopped))
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 1 {
		return nil
	}

	if _, err := r.Get(id); err != nil {
		return err
	}
	return shared.ErrToolRunning
}

// SetStatus writes the status of a live session.
func (r *SessionRepository) SetStatus(id string, status models.Status) error {
	if !status.Valid() {
		return fmt.Errorf("%w: status %q", shared.ErrInvalidArgument, status)
	}

	result, err := r.db.Exec(`
		UPDATE sessions SET status = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL
	`, string(status), time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to set session status: %w", err)
	}

	return expectOne(result, fmt.Errorf("%w: %s", shared.ErrSessionNotFound, id))
}

// ResetRunning marks every running session stopped, returning how many were changed.
//
// Used at startup: no tool process survives a restart.
func (r *SessionRepository) ResetRunning() (int64, error) {
	result, err := r.db.Exec(`
		UPDATE sessions SET status = ?, updated_at = ? WHERE status = ?
	`, string(models.StatusStopped), time.Now(), string(models.StatusRunning))
	if err != nil {
		return 0, fmt.Errorf("failed to reset sessions: %w", err)
	}
	return result.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*models.Session, error) {
	var (
		id        string
		sequence  int
		status    string
		createdAt time.Time
		updatedAt time.Time
		deletedAt sql.NullTime
	)

	if err := row.Scan(&id, &sequence, &status, &createdAt, &updatedAt, &deletedAt); err != nil {
		return nil, err
	}

	session := models.NewSession(sequence)
	session.SetID(id)
	session.SetStatus(models.Status(status))
	session.SetCreatedAt(createdAt)
	session.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		session.SetDeletedAt(&deletedAt.Time)
	}

	return session, nil
}
