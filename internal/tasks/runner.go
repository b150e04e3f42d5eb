package tasks

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/feat/internal/encoding"
	"github.com/desertthunder/feat/internal/events"
	"github.com/desertthunder/feat/internal/models"
	"github.com/desertthunder/feat/internal/shared"
	"github.com/desertthunder/feat/internal/upload"
	"github.com/dustin/go-humanize"
)

// DefaultChart is the image the analysis tool writes into output_data.
const DefaultChart = "housing_loss_timeseries.png"

const maxLineBytes = 1024 * 1024

// SessionStore tracks whether a session's tool is running.
type SessionStore interface {
	TryStart(id string) error
	SetStatus(id string, status models.Status) error
}

// RunResult summarizes one tool run.
type RunResult struct {
	Lines    int           // stdout lines forwarded
	Chart    string        // path of the chart image, empty if none
	Archive  string        // path of results.zip
	Duration time.Duration // wall time of the tool process
}

// ToolRunnerOpts contains configuration for [NewToolRunner].
type ToolRunnerOpts struct {
	Command []string      // executable and leading arguments; the input dir is appended
	Chart   string        // chart file name inside output_data, default [DefaultChart]
	Timeout time.Duration // zero means no limit
	Store   SessionStore
	Events  events.Publisher
	Logger  *log.Logger
}

// ToolRunner executes the analysis tool for sessions, one run per session at a time.
type ToolRunner struct {
	command []string
	chart   string
	timeout time.Duration
	store   SessionStore
	events  events.Publisher
	logger  *log.Logger

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

// NewToolRunner creates a [ToolRunner]. Store and Events are required.
func NewToolRunner(opts ToolRunnerOpts) *ToolRunner {
	if opts.Chart == "" {
		opts.Chart = DefaultChart
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &ToolRunner{
		command: opts.Command,
		chart:   opts.Chart,
		timeout: opts.Timeout,
		store:   opts.Store,
		events:  opts.Events,
		logger:  shared.WithLogger(opts.Logger, "component", "tool"),
		cancels: make(map[string]context.CancelFunc),
	}
}

// Run executes the tool over ws for session and publishes progress to the session's event stream.
//
// Returns [shared.ErrToolRunning] when the session already has a run in progress,
// [shared.ErrMissingInput] when nothing has been uploaded, and wraps [shared.ErrToolFailed] when the
// process fails. A failed process still has its chart and output archived; a cancelled or timed out one
// does not. The session is marked stopped again on every path that started it.
func (r *ToolRunner) Run(ctx context.Context, session string, ws *upload.Workspace) (*RunResult, error) {
	if len(r.command) == 0 {
		return nil, fmt.Errorf("%w: tool command is empty", shared.ErrInvalidConfig)
	}

	if err := r.store.TryStart(session); err != nil {
		if errors.Is(err, shared.ErrToolRunning) {
			r.events.Publish(session, alreadyRunningEvent())
		}
		return nil, err
	}

	logger := shared.WithLogger(r.logger, "session", session)
	defer func() {
		if err := r.store.SetStatus(session, models.StatusStopped); err != nil {
			logger.Error("failed to mark session stopped", "error", err)
		}
	}()

	if !ws.HasInput() {
		r.events.Publish(session, missingInputEvent())
		return nil, shared.ErrMissingInput
	}

	ctx, cancel := r.withCancel(ctx, session)
	defer r.release(session, cancel)

	r.events.Publish(session, events.Event{Name: events.ClearOutput})
	r.events.Publish(session, events.Event{Name: events.LoadIcon})

	result := &RunResult{}
	logger.Info("starting tool", "command", strings.Join(r.command, " "))

	start := time.Now()
	lines, err := r.exec(ctx, session, ws)
	result.Lines = lines
	result.Duration = time.Since(start)

	if err != nil {
		logger.Error("tool failed", "error", err, "duration", result.Duration)
		r.events.Publish(session, errorReportEvent(err, "run"))
		if ctx.Err() != nil {
			return result, fmt.Errorf("%w: %v", shared.ErrToolFailed, err)
		}
	} else {
		logger.Info("tool finished", "lines", lines, "duration", result.Duration)
	}
	runErr := err

	// Whatever the tool left in output_data is still offered for download.
	chart, err := r.publishChart(session, ws)
	if err != nil {
		logger.Warn("failed to publish chart", "error", err)
		r.events.Publish(session, errorReportEvent(err, "chart"))
	}
	result.Chart = chart

	if ctx.Err() != nil {
		return result, fmt.Errorf("%w: %v", shared.ErrToolFailed, ctx.Err())
	}

	archive, err := ws.Archive()
	if err != nil {
		r.events.Publish(session, errorReportEvent(err, "archive"))
		return result, fmt.Errorf("failed to archive results: %w", err)
	}
	result.Archive = archive

	r.events.Publish(session, events.Event{Name: events.ShowZip})

	if runErr != nil {
		return result, fmt.Errorf("%w: %v", shared.ErrToolFailed, runErr)
	}
	return result, nil
}

// Cancel stops the running tool of session, reporting whether one was running.
func (r *ToolRunner) Cancel(session string) bool {
	r.mu.Lock()
	cancel, ok := r.cancels[session]
	r.mu.Unlock()

	if ok {
		cancel()
	}
	return ok
}

func (r *ToolRunner) withCancel(ctx context.Context, session string) (context.Context, context.CancelFunc) {
	var cancel context.CancelFunc
	if r.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}

	r.mu.Lock()
	r.cancels[session] = cancel
	r.mu.Unlock()

	return ctx, cancel
}

func (r *ToolRunner) release(session string, cancel context.CancelFunc) {
	r.mu.Lock()
	delete(r.cancels, session)
	r.mu.Unlock()
	cancel()
}

// exec starts the process and forwards each stdout line as it arrives.
func (r *ToolRunner) exec(ctx context.Context, session string, ws *upload.Workspace) (int, error) {
	inputDir, err := filepath.Abs(ws.InputDir())
	if err != nil {
		return 0, err
	}

	args := append(append([]string{}, r.command[1:]...), inputDir+string(filepath.Separator))
	cmd := exec.CommandContext(ctx, r.command[0], args...)
	cmd.Dir = ws.Root()
	cmd.Env = append(os.Environ(), "PYTHONUNBUFFERED=1")
	cmd.WaitDelay = 2 * time.Second

	stderr := &tailBuffer{max: 4096}
	cmd.Stderr = stderr

	// A pipe writer that is not an *os.File lets WaitDelay unblock Wait even while a grandchild holds stdout.
	pr, pw := io.Pipe()
	cmd.Stdout = pw

	if err := cmd.Start(); err != nil {
		pw.Close()
		return 0, fmt.Errorf("failed to start tool: %w", err)
	}

	lines := 0
	scanned := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(pr)
		scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
		for scanner.Scan() {
			r.events.Publish(session, logLineEvent(strings.TrimRight(scanner.Text(), " \t\r")))
			lines++
		}
		scanned <- scanner.Err()
		io.Copy(io.Discard, pr)
	}()

	waitErr := cmd.Wait()
	pw.Close()
	scanErr := <-scanned

	if waitErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return lines, fmt.Errorf("tool stopped: %w", ctxErr)
		}
		if tail := strings.TrimSpace(stderr.String()); tail != "" {
			return lines, fmt.Errorf("%w: %s", waitErr, tail)
		}
		return lines, waitErr
	}
	if scanErr != nil {
		return lines, fmt.Errorf("failed to read tool output: %w", scanErr)
	}

	return lines, nil
}

// publishChart sends the chart as a data URI when the tool produced one.
func (r *ToolRunner) publishChart(session string, ws *upload.Workspace) (string, error) {
	path := filepath.Join(ws.OutputDir(), r.chart)

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read chart: %w", err)
	}

	r.logger.Debug("publishing chart", "session", session, "size", humanize.Bytes(uint64(len(data))))
	r.events.Publish(session, chartEvent(encoding.DataURI(mimeFor(path), data)))
	return path, nil
}

func mimeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".svg":
		return "image/svg+xml"
	case ".gif":
		return "image/gif"
	default:
		return encoding.DefaultMIME
	}
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	mu  sync.Mutex
	max int
	buf []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}
