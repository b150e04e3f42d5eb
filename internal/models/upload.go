package models

import "fmt"

// Upload records a file accepted into a session's workspace.
type Upload struct {
	base
	sessionID string
	category  string
	filename  string
	size      int64
}

// NewUpload creates an upload record for the given session.
func NewUpload(sequence int, sessionID, category, filename string, size int64) *Upload {
	return &Upload{
		base:      newBase(sequence),
		sessionID: sessionID,
		category:  category,
		filename:  filename,
		size:      size,
	}
}

func (u *Upload) SessionID() string { return u.sessionID }
func (u *Upload) Category() string  { return u.category }
func (u *Upload) Filename() string  { return u.filename }
func (u *Upload) Size() int64       { return u.size }

// Validate implements [Model].
func (u *Upload) Validate() error {
	if u.id == "" {
		return fmt.Errorf("upload ID is required")
	}
	if u.sessionID == "" {
		return fmt.Errorf("upload session ID is required")
	}
	if u.category == "" || u.filename == "" {
		return fmt.Errorf("upload category and filename are required")
	}
	if u.size < 0 {
		return fmt.Errorf("upload size cannot be negative")
	}
	return nil
}
