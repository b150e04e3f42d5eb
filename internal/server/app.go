package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/feat/internal/encoding"
	"github.com/desertthunder/feat/internal/events"
	"github.com/desertthunder/feat/internal/formatter"
	"github.com/desertthunder/feat/internal/models"
	"github.com/desertthunder/feat/internal/shared"
	"github.com/desertthunder/feat/internal/tasks"
	"github.com/desertthunder/feat/internal/upload"
	"github.com/desertthunder/feat/internal/web"
	"github.com/dustin/go-humanize"
)

// SessionCookie holds the session id issued by the index page.
const SessionCookie = "feat_session"

// DefaultKeepAlive is the interval between comment frames on idle event streams.
const DefaultKeepAlive = 15 * time.Second

// multipartOverhead is allowed on top of the file limit for form boundaries and headers.
const multipartOverhead = 1 << 20

// SessionStore persists the sessions the page issues.
type SessionStore interface {
	Create(session *models.Session) error
	Get(id string) (*models.Session, error)
}

// UploadStore records which categories a session has uploaded.
type UploadStore interface {
	Record(sessionID, category, filename string, size int64) (*models.Upload, error)
}

// Runner runs and cancels the analysis tool.
type Runner interface {
	Run(ctx context.Context, session string, ws *upload.Workspace) (*tasks.RunResult, error)
	Cancel(session string) bool
}

// AppOpts contains configuration for [NewApp].
type AppOpts struct {
	Config    *shared.Config
	Sessions  SessionStore
	Uploads   UploadStore
	Hub       *events.Hub
	Runner    Runner
	Logger    *log.Logger
	KeepAlive time.Duration // zero means DefaultKeepAlive
}

// App serves the session page and its endpoints.
type App struct {
	config    *shared.Config
	sessions  SessionStore
	uploads   UploadStore
	hub       *events.Hub
	runner    Runner
	logger    *log.Logger
	keepAlive time.Duration
	router    *BasicRouter
}

// NewApp creates an [App] and registers its routes.
func NewApp(opts AppOpts) *App {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Hub == nil {
		opts.Hub = events.NewHub(events.DefaultBuffer)
	}
	if opts.KeepAlive <= 0 {
		opts.KeepAlive = DefaultKeepAlive
	}

	a := &App{
		config:    opts.Config,
		sessions:  opts.Sessions,
		uploads:   opts.Uploads,
		hub:       opts.Hub,
		runner:    opts.Runner,
		logger:    shared.WithLogger(opts.Logger, "component", "server"),
		keepAlive: opts.KeepAlive,
		router:    NewBasicRouter(),
	}
	a.routes()
	return a
}

func (a *App) routes() {
	a.router.Use(Recover(a.logger), Logging(a.logger))

	limited := RateLimit(NewLimiter(a.config.Upload))

	a.router.Handle(http.MethodGet, "/", http.HandlerFunc(a.handleIndex))
	a.router.Handle(http.MethodPost, "/", limited(http.HandlerFunc(a.handleUpload)))
	a.router.Handle(http.MethodPost, "/run", http.HandlerFunc(a.handleRun))
	a.router.Handle(http.MethodPost, "/killdata", http.HandlerFunc(a.handleKill))
	a.router.Handle(http.MethodGet, "/events", http.HandlerFunc(a.handleEvents))
	a.router.Handle(http.MethodGet, "/sendFile", http.HandlerFunc(a.handleSendFile))
	a.router.Handle(http.MethodPost, "/encode", http.HandlerFunc(a.handleEncode))
	a.router.Handle(http.MethodPost, "/csv", http.HandlerFunc(a.handleCSV))
}

// ServeHTTP implements [http.Handler].
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

// ListenAndServe serves on the configured address until ctx is done, then shuts down gracefully.
func (a *App) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.config.Server.Addr(),
		Handler:           a,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		a.logger.Info("listening", "addr", srv.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}

// workspace resolves the caller's session cookie to its workspace.
func (a *App) workspace(r *http.Request) (string, *upload.Workspace, error) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil || !shared.ValidID(cookie.Value) {
		return "", nil, shared.ErrInvalidSession
	}
	if _, err := a.sessions.Get(cookie.Value); err != nil {
		return "", nil, err
	}

	ws, err := upload.NewWorkspace(a.config.Upload.Dir, cookie.Value)
	if err != nil {
		return "", nil, err
	}
	return cookie.Value, ws, nil
}

func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	session := models.NewSession(0)
	if err := a.sessions.Create(session); err != nil {
		a.fail(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    session.ID(),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	data := web.NewIndexData(session.ID(), humanize.IBytes(uint64(a.config.Upload.MaxBytes)))
	if err := web.RenderIndex(w, data); err != nil {
		a.logger.Error("failed to render index", "error", err)
	}
}

func (a *App) handleUpload(w http.ResponseWriter, r *http.Request) {
	session, ws, err := a.workspace(r)
	if err != nil {
		a.fail(w, err)
		return
	}

	limit := a.config.Upload.MaxBytes
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			err = fmt.Errorf("%w: limit is %s", shared.ErrFileTooLarge, humanize.IBytes(uint64(limit)))
			a.hub.Publish(session, events.Error("File Too Large", err.Error()))
			a.fail(w, err)
			return
		}
		a.hub.Publish(session, events.Error("File Missing", "No file is selected. Please select a file using the 'Browse'."))
		a.fail(w, fmt.Errorf("%w: %v", shared.ErrMissingInput, err))
		return
	}
	defer file.Close()

	saved, err := ws.Save(header.Filename, file, limit)
	switch {
	case errors.Is(err, shared.ErrWrongFileName), errors.Is(err, shared.ErrFileNotAllowed):
		a.hub.Publish(session, events.Error("Wrong File", upload.WrongFileNameMessage))
		a.fail(w, err)
		return
	case errors.Is(err, shared.ErrFileTooLarge):
		a.hub.Publish(session, events.Error("File Too Large", err.Error()))
		a.fail(w, err)
		return
	case err != nil:
		a.fail(w, err)
		return
	}

	if _, err := a.uploads.Record(session, string(saved.Category), saved.Name, saved.Size); err != nil {
		a.fail(w, err)
		return
	}

	a.logger.Info("upload saved", "session", session, "category", saved.Category, "size", humanize.Bytes(uint64(saved.Size)))
	a.hub.Publish(session, events.Info(events.UploadComplete, saved.Name))
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) handleRun(w http.ResponseWriter, r *http.Request) {
	session, ws, err := a.workspace(r)
	if err != nil {
		a.fail(w, err)
		return
	}

	go func() {
		result, err := a.runner.Run(context.Background(), session, ws)
		if err != nil {
			a.logger.Warn("run ended with error", "session", session, "error", err)
			return
		}
		a.logger.Info("run complete", "session", session, "lines", result.Lines, "duration", result.Duration)
	}()

	w.WriteHeader(http.StatusAccepted)
}

func (a *App) handleKill(w http.ResponseWriter, r *http.Request) {
	session, ws, err := a.workspace(r)
	if err != nil {
		a.fail(w, err)
		return
	}

	if a.runner.Cancel(session) {
		a.logger.Info("cancelled running tool", "session", session)
	}
	if err := ws.Remove(); err != nil {
		a.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) handleEvents(w http.ResponseWriter, r *http.Request) {
	session, _, err := a.workspace(r)
	if err != nil {
		a.fail(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	stream, cancel := a.hub.Subscribe(session)
	defer cancel()

	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	ticker := time.NewTicker(a.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case ev, ok := <-stream:
			if !ok {
				return
			}
			if err := events.WriteSSE(w, ev); err != nil {
				a.logger.Debug("event stream closed", "session", session, "error", err)
				return
			}
			flusher.Flush()
		}
	}
}

func (a *App) handleSendFile(w http.ResponseWriter, r *http.Request) {
	_, ws, err := a.workspace(r)
	if err != nil {
		a.fail(w, err)
		return
	}

	f, err := os.Open(ws.ResultsZip())
	if errors.Is(err, os.ErrNotExist) {
		a.fail(w, shared.ErrResultsNotFound)
		return
	}
	if err != nil {
		a.fail(w, err)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		a.fail(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", "attachment; filename=output_data;")
	http.ServeContent(w, r, "results.zip", info.ModTime(), f)
}

func (a *App) handleEncode(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, a.config.Upload.MaxBytes)
	query := r.URL.Query()

	if query.Get("datauri") == "1" || query.Get("datauri") == "true" {
		data, err := io.ReadAll(body)
		if err != nil {
			a.fail(w, bodyError(err, a.config.Upload.MaxBytes))
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		io.WriteString(w, encoding.DataURI(query.Get("mime"), data))
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	enc := encoding.NewEncoder(w)
	if _, err := io.Copy(enc, body); err != nil {
		a.logger.Warn("encode stream failed", "error", err)
		return
	}
	if err := enc.Close(); err != nil {
		a.logger.Warn("encode stream failed", "error", err)
	}
}

func (a *App) handleCSV(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, a.config.Upload.MaxBytes))
	if err != nil {
		a.fail(w, bodyError(err, a.config.Upload.MaxBytes))
		return
	}

	out, err := formatter.ConvertJSONToCSV(data, r.URL.Query()["header"])
	if err != nil {
		a.fail(w, err)
		return
	}

	name := upload.SecureFileName(r.URL.Query().Get("filename"))
	if name == "" {
		name = "export.csv"
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Write(out)
}

func bodyError(err error, limit int64) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return fmt.Errorf("%w: limit is %s", shared.ErrFileTooLarge, humanize.IBytes(uint64(limit)))
	}
	return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
}

// fail writes err with the status its kind maps to.
func (a *App) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		a.logger.Error("request failed", "error", err)
		http.Error(w, "Internal server error", status)
		return
	}
	http.Error(w, err.Error(), status)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrInvalidSession), errors.Is(err, shared.ErrSessionNotFound):
		return http.StatusUnauthorized
	case errors.Is(err, shared.ErrWrongFileName),
		errors.Is(err, shared.ErrFileNotAllowed),
		errors.Is(err, shared.ErrMissingInput),
		errors.Is(err, shared.ErrInvalidInput),
		errors.Is(err, shared.ErrMissingArgument):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, shared.ErrResultsNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, shared.ErrToolRunning):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
