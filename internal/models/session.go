package models

import (
	"fmt"
	"time"
)

// Status is the run state of the analysis tool for a session.
type Status string

const (
	StatusStopped Status = "stopped"
	StatusRunning Status = "running"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusStopped || s == StatusRunning
}

// Session is a browser session and the owner of one upload workspace.
type Session struct {
	base
	status    Status
	deletedAt *time.Time
}

// NewSession creates a stopped session. The ID is assigned by the repository unless set explicitly.
func NewSession(sequence int) *Session {
	return &Session{base: newBase(sequence), status: StatusStopped}
}

func (s *Session) Status() Status            { return s.status }
func (s *Session) SetStatus(st Status)       { s.status = st }
func (s *Session) Running() bool             { return s.status == StatusRunning }
func (s *Session) DeletedAt() *time.Time     { return s.deletedAt }
func (s *Session) SetDeletedAt(t *time.Time) { s.deletedAt = t }

// Validate implements [Model].
func (s *Session) Validate() error {
	if s.id == "" {
		return fmt.Errorf("session ID is required")
	}
	if !s.status.Valid() {
		return fmt.Errorf("invalid session status: %q", s.status)
	}
	return nil
}
