package repositories

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/desertthunder/feat/internal/models"
	"github.com/desertthunder/feat/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func createSession(t *testing.T, repo *SessionRepository) *models.Session {
	t.Helper()
	session := models.NewSession(0)
	if err := repo.Create(session); err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	return session
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)

	for want := 1; want <= 3; want++ {
		got, err := NextSequence(db, "sessions")
		if err != nil {
			t.Fatalf("NextSequence() error = %v", err)
		}
		if got != want {
			t.Errorf("NextSequence() = %d, want %d", got, want)
		}
	}

	if _, err := NextSequence(db, "missing"); err == nil {
		t.Error("expected error for unknown table")
	}
}

func TestSessionRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		session := createSession(t, repo)

		if !shared.ValidID(session.ID()) {
			t.Errorf("expected generated uuid, got %q", session.ID())
		}
		if session.Sequence() != 1 {
			t.Errorf("expected sequence 1, got %d", session.Sequence())
		}
	})

	t.Run("Create keeps explicit ID", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		session := models.NewSession(0)
		session.SetID("fixed-id")

		if err := repo.Create(session); err != nil {
			t.Fatalf("failed to create session: %v", err)
		}
		if _, err := repo.Get("fixed-id"); err != nil {
			t.Errorf("expected to find session by explicit ID: %v", err)
		}
	})

	t.Run("Get", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		session := createSession(t, repo)

		retrieved, err := repo.Get(session.ID())
		if err != nil {
			t.Fatalf("failed to get session: %v", err)
		}
		if retrieved.Status() != models.StatusStopped {
			t.Errorf("expected stopped, got %s", retrieved.Status())
		}

		if _, err := repo.Get("nope"); !errors.Is(err, shared.ErrSessionNotFound) {
			t.Errorf("expected ErrSessionNotFound, got %v", err)
		}
	})

	t.Run("Update", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		session := createSession(t, repo)

		session.SetStatus(models.StatusRunning)
		if err := repo.Update(session); err != nil {
			t.Fatalf("failed to update session: %v", err)
		}

		retrieved, _ := repo.Get(session.ID())
		if !retrieved.Running() {
			t.Error("expected running after update")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		session := createSession(t, repo)

		if err := repo.Delete(session.ID()); err != nil {
			t.Fatalf("failed to delete session: %v", err)
		}
		if _, err := repo.Get(session.ID()); err == nil {
			t.Error("expected error when getting deleted session")
		}
		if err := repo.Delete(session.ID()); !errors.Is(err, shared.ErrSessionNotFound) {
			t.Errorf("second delete should report not found, got %v", err)
		}

		all, err := repo.List(map[string]any{"include_deleted": true})
		if err != nil {
			t.Fatalf("failed to list sessions: %v", err)
		}
		if len(all) != 1 || all[0].DeletedAt() == nil {
			t.Error("soft-deleted session should be listed with include_deleted")
		}
	})

	t.Run("Purge", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewSessionRepository(db)
		uploads := NewUploadRepository(db)
		session := createSession(t, repo)

		if _, err := uploads.Record(session.ID(), "evictions", "evictions.csv", 12); err != nil {
			t.Fatalf("failed to record upload: %v", err)
		}

		if err := repo.Purge(session.ID()); err != nil {
			t.Fatalf("failed to purge session: %v", err)
		}

		remaining, err := uploads.ListBySession(session.ID())
		if err != nil {
			t.Fatalf("failed to list uploads: %v", err)
		}
		if len(remaining) != 0 {
			t.Errorf("expected uploads to cascade, got %d", len(remaining))
		}
	})

	t.Run("List", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		a := createSession(t, repo)
		createSession(t, repo)

		if err := repo.SetStatus(a.ID(), models.StatusRunning); err != nil {
			t.Fatalf("failed to set status: %v", err)
		}

		all, err := repo.List(nil)
		if err != nil {
			t.Fatalf("failed to list sessions: %v", err)
		}
		if len(all) != 2 {
			t.Errorf("expected 2 sessions, got %d", len(all))
		}

		running, err := repo.List(map[string]any{"status": models.StatusRunning})
		if err != nil {
			t.Fatalf("failed to list running sessions: %v", err)
		}
		if len(running) != 1 || running[0].ID() != a.ID() {
			t.Errorf("expected only %s running, got %v", a.ID(), running)
		}

		stopped, _ := repo.List(map[string]any{"status": "stopped"})
		if len(stopped) != 1 {
			t.Errorf("expected 1 stopped session, got %d", len(stopped))
		}
	})

	t.Run("TryStart", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		session := createSession(t, repo)

		if err := repo.TryStart(session.ID()); err != nil {
			t.Fatalf("first start should succeed: %v", err)
		}
		if err := repo.TryStart(session.ID()); !errors.Is(err, shared.ErrToolRunning) {
			t.Errorf("second start should report ErrToolRunning, got %v", err)
		}
		if err := repo.TryStart("missing"); !errors.Is(err, shared.ErrSessionNotFound) {
			t.Errorf("unknown session should report ErrSessionNotFound, got %v", err)
		}
	})

	t.Run("SetStatus rejects unknown status", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		session := createSession(t, repo)

		if err := repo.SetStatus(session.ID(), "exploded"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("ResetRunning", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		a := createSession(t, repo)
		b := createSession(t, repo)
		repo.SetStatus(a.ID(), models.StatusRunning)
		repo.SetStatus(b.ID(), models.StatusRunning)

		n, err := repo.ResetRunning()
		if err != nil {
			t.Fatalf("ResetRunning() error = %v", err)
		}
		if n != 2 {
			t.Errorf("expected 2 sessions reset, got %d", n)
		}

		running, _ := repo.List(map[string]any{"status": models.StatusRunning})
		if len(running) != 0 {
			t.Errorf("expected no running sessions, got %d", len(running))
		}
	})
}

func TestUploadRepository(t *testing.T) {
	t.Run("Record creates then updates", func(t *testing.T) {
		db := setupTestDB(t)
		sessions := NewSessionRepository(db)
		repo := NewUploadRepository(db)
		session := createSession(t, sessions)

		first, err := repo.Record(session.ID(), "evictions", "evictions.csv", 10)
		if err != nil {
			t.Fatalf("failed to record upload: %v", err)
		}

		second, err := repo.Record(session.ID(), "evictions", "evictions.csv", 25)
		if err != nil {
			t.Fatalf("failed to record re-upload: %v", err)
		}

		if first.ID() != second.ID() {
			t.Error("re-upload of a category should reuse the record")
		}

		retrieved, err := repo.Get(first.ID())
		if err != nil {
			t.Fatalf("failed to get upload: %v", err)
		}
		if retrieved.Size() != 25 {
			t.Errorf("expected size 25, got %d", retrieved.Size())
		}

		if _, err := repo.Record(session.ID(), "tax_lien_foreclosures", "tax_lien_foreclosures.csv", 5); err != nil {
			t.Fatalf("failed to record second category: %v", err)
		}

		all, err := repo.ListBySession(session.ID())
		if err != nil {
			t.Fatalf("failed to list uploads: %v", err)
		}
		if len(all) != 2 {
			t.Errorf("expected 2 uploads, got %d", len(all))
		}
	})

	t.Run("Create rejects unknown session", func(t *testing.T) {
		repo := NewUploadRepository(setupTestDB(t))
		upload := models.NewUpload(0, "ghost", "evictions", "evictions.csv", 1)

		if err := repo.Create(upload); err == nil {
			t.Error("expected foreign key failure for unknown session")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db := setupTestDB(t)
		session := createSession(t, NewSessionRepository(db))
		repo := NewUploadRepository(db)

		upload, err := repo.Record(session.ID(), "evictions", "evictions.csv", 1)
		if err != nil {
			t.Fatalf("failed to record upload: %v", err)
		}
		if err := repo.Delete(upload.ID()); err != nil {
			t.Fatalf("failed to delete upload: %v", err)
		}
		if _, err := repo.Get(upload.ID()); err == nil {
			t.Error("expected error getting deleted upload")
		}
		if err := repo.Delete(upload.ID()); err == nil {
			t.Error("expected error deleting twice")
		}
	})
}
