package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Session and workspace errors
	ErrSessionNotFound = fmt.Errorf("session not found")
	ErrInvalidSession  = fmt.Errorf("invalid session")
	ErrMissingInput    = fmt.Errorf("no input file uploaded")
	ErrResultsNotFound = fmt.Errorf("results not available")

	// Upload errors
	ErrWrongFileName  = fmt.Errorf("wrong file name")
	ErrFileNotAllowed = fmt.Errorf("file type not allowed")
	ErrFileTooLarge   = fmt.Errorf("file too large")
	ErrRateLimited    = fmt.Errorf("too many requests")

	// Tool errors
	ErrToolRunning = fmt.Errorf("tool already running")
	ErrToolFailed  = fmt.Errorf("tool failed")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
