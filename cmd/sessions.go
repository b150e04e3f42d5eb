package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/feat/internal/models"
	"github.com/desertthunder/feat/internal/repositories"
	"github.com/desertthunder/feat/internal/shared"
	"github.com/desertthunder/feat/internal/ui"
	"github.com/desertthunder/feat/internal/upload"
	"github.com/urfave/cli/v3"
)

type sessionJSON struct {
	ID        string     `json:"id"`
	Sequence  int        `json:"sequence"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	Uploads   []string   `json:"uploads"`
}

// SessionsList prints stored sessions as a table or JSON.
func (r *Runner) SessionsList(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	criteria := map[string]any{}
	if cmd.Bool("all") {
		criteria["include_deleted"] = true
	}
	if cmd.Bool("running") {
		criteria["status"] = models.StatusRunning
	}

	sessions, err := repositories.NewSessionRepository(db).List(criteria)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		uploads := repositories.NewUploadRepository(db)
		out := make([]sessionJSON, 0, len(sessions))
		for _, s := range sessions {
			records, err := uploads.ListBySession(s.ID())
			if err != nil {
				return err
			}
			names := make([]string, 0, len(records))
			for _, u := range records {
				names = append(names, u.Filename())
			}
			out = append(out, sessionJSON{
				ID:        s.ID(),
				Sequence:  s.Sequence(),
				Status:    string(s.Status()),
				CreatedAt: s.CreatedAt(),
				UpdatedAt: s.UpdatedAt(),
				DeletedAt: s.DeletedAt(),
				Uploads:   names,
			})
		}
		return r.writeJSON(out, true)
	}

	if len(sessions) == 0 {
		return r.writePlain("%s\n", ui.Summary(0, "session"))
	}
	return r.writePlain("%s\n%s\n", ui.SessionTable(sessions, time.Now()), ui.Summary(len(sessions), "session"))
}

// SessionsPurge hard-deletes a session, its upload records and its workspace.
func (r *Runner) SessionsPurge(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: session id", shared.ErrMissingArgument)
	}

	if !shared.ValidID(id) {
		return fmt.Errorf("%w: %q is not a session id", shared.ErrInvalidArgument, id)
	}

	db, err := r.openDatabase(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	ws, err := upload.NewWorkspace(r.config.Upload.Dir, id)
	if err != nil {
		return err
	}

	if err := repositories.NewSessionRepository(db).Purge(id); err != nil {
		return err
	}
	if err := ws.Remove(); err != nil {
		return err
	}

	r.logger.Info("session purged", "id", id)
	return r.writePlain("%s purged %s\n", ui.Styles.Success("✓"), id)
}

func (r *Runner) openDatabase(cmd *cli.Command) (*sql.DB, error) {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return shared.OpenDatabase(config.Database)
}
