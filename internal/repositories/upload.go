package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/feat/internal/models"
	"github.com/desertthunder/feat/internal/shared"
)

// UploadRepository implements [models.Repository] for [models.Upload] records.
type UploadRepository struct {
	db *sql.DB
}

// NewUploadRepository creates a new [UploadRepository] with the given database connection
func NewUploadRepository(db *sql.DB) *UploadRepository {
	return &UploadRepository{db: db}
}

const uploadColumns = "id, sequence, session_id, category, filename, size, created_at, updated_at"

// Create inserts a new upload with generated ID and sequence
func (r *UploadRepository) Create(upload *models.Upload) error {
	sequence, err := NextSequence(r.db, "uploads")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	upload.SetID(shared.GenerateID())
	upload.SetSequence(sequence)

	if err := upload.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO uploads (id, sequence, session_id, category, filename, size, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		upload.ID(),
		sequence,
		upload.SessionID(),
		upload.Category(),
		upload.Filename(),
		upload.Size(),
		upload.CreatedAt(),
		upload.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert upload: %w", err)
	}

	return nil
}

// Get retrieves an upload by ID
func (r *UploadRepository) Get(id string) (*models.Upload, error) {
	upload, err := scanUpload(r.db.QueryRow("SELECT "+uploadColumns+" FROM uploads WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("upload not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query upload: %w", err)
	}
	return upload, nil
}

// Update rewrites an upload's size and touches updated_at; re-uploading a category replaces the file.
func (r *UploadRepository) Update(upload *models.Upload) error {
	if err := upload.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	upload.SetUpdatedAt(now)

	result, err := r.db.Exec("UPDATE uploads SET size = ?, updated_at = ? WHERE id = ?", upload.Size(), now, upload.ID())
	if err != nil {
		return fmt.Errorf("failed to update upload: %w", err)
	}

	return expectOne(result, fmt.Errorf("upload not found: %s", upload.ID()))
}

// Delete removes an upload record by ID
func (r *UploadRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM uploads WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete upload: %w", err)
	}

	return expectOne(result, fmt.Errorf("upload not found: %s", id))
}

// List returns uploads ordered by sequence. Supported criteria: "session_id", "category".
func (r *UploadRepository) List(criteria map[string]any) ([]*models.Upload, error) {
	query := "SELECT " + uploadColumns + " FROM uploads WHERE 1 = 1"
	var args []any

	if sessionID, ok := criteria["session_id"].(string); ok {
		query += " AND session_id = ?"
		args = append(args, sessionID)
	}
	if category, ok := criteria["category"].(string); ok {
		query += " AND category = ?"
		args = append(args, category)
	}
	query += " ORDER BY sequence"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list uploads: %w", err)
	}
	defer rows.Close()

	var uploads []*models.Upload
	for rows.Next() {
		upload, err := scanUpload(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan upload: %w", err)
		}
		uploads = append(uploads, upload)
	}

	return uploads, rows.Err()
}

// ListBySession returns the uploads of one session.
func (r *UploadRepository) ListBySession(sessionID string) ([]*models.Upload, error) {
	return r.List(map[string]any{"session_id": sessionID})
}

// Record stores an upload, updating the existing row when the session already has a file in that category.
func (r *UploadRepository) Record(sessionID, category, filename string, size int64) (*models.Upload, error) {
	existing, err := r.List(map[string]any{"session_id": sessionID, "category": category})
	if err != nil {
		return nil, err
	}

	if len(existing) > 0 {
		upload := models.NewUpload(existing[0].Sequence(), sessionID, category, filename, size)
		upload.SetID(existing[0].ID())
		upload.SetCreatedAt(existing[0].CreatedAt())
		if err := r.Update(upload); err != nil {
			return nil, err
		}
		return upload, nil
	}

	upload := models.NewUpload(0, sessionID, category, filename, size)
	if err := r.Create(upload); err != nil {
		return nil, err
	}
	return upload, nil
}

func scanUpload(row scanner) (*models.Upload, error) {
	var (
		id, sessionID, category, filename string
		sequence                          int
		size                              int64
		createdAt, updatedAt              time.Time
	)

	if err := row.Scan(&id, &sequence, &sessionID, &category, &filename, &size, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	upload := models.NewUpload(sequence, sessionID, category, filename, size)
	upload.SetID(id)
	upload.SetCreatedAt(createdAt)
	upload.SetUpdatedAt(updatedAt)
	return upload, nil
}
