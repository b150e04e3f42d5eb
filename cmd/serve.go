package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/feat/internal/events"
	"github.com/desertthunder/feat/internal/repositories"
	"github.com/desertthunder/feat/internal/server"
	"github.com/desertthunder/feat/internal/shared"
	"github.com/desertthunder/feat/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Serve runs the web service until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	if host := cmd.String("host"); host != "" {
		config.Server.Host = host
	}
	if port := cmd.Int("port"); port != 0 {
		config.Server.Port = int(port)
	}
	if err := config.Validate(); err != nil {
		return err
	}

	db, err := shared.OpenDatabase(config.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	sessions := repositories.NewSessionRepository(db)
	if n, err := sessions.ResetRunning(); err != nil {
		return fmt.Errorf("failed to reset sessions: %w", err)
	} else if n > 0 {
		r.logger.Warn("reset sessions left running by a previous process", "count", n)
	}

	if err := os.MkdirAll(config.Upload.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create upload dir: %w", err)
	}

	hub := events.NewHub(events.DefaultBuffer)
	runner := tasks.NewToolRunner(tasks.ToolRunnerOpts{
		Command: config.Tool.Command,
		Chart:   config.Tool.Chart,
		Timeout: config.Tool.Timeout(),
		Store:   sessions,
		Events:  hub,
		Logger:  r.logger,
	})

	app := server.NewApp(server.AppOpts{
		Config:   config,
		Sessions: sessions,
		Uploads:  repositories.NewUploadRepository(db),
		Hub:      hub,
		Runner:   runner,
		Logger:   r.logger,
	})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return app.ListenAndServe(ctx)
}
