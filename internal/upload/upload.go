// Package upload validates housing-loss CSV uploads and manages the per-session workspace they land in.
//
// A workspace is laid out as
//
//	<root>/<session>/input/input/
//	<root>/<session>/input/<category>/<category>.csv
//	<root>/<session>/output_data/        written by the analysis tool
//	<root>/<session>/results.zip         archive of output_data
package upload

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/feat/internal/shared"
	"github.com/dustin/go-humanize"
)

// DefaultMaxBytes is the upload size limit used when none is configured.
const DefaultMaxBytes int64 = 16 * 1024 * 1024

// Category is one of the accepted housing-loss datasets.
type Category string

const (
	Evictions            Category = "evictions"
	MortgageForeclosures Category = "mortgage_foreclosures"
	TaxLienForeclosures  Category = "tax_lien_foreclosures"
)

// Categories lists every accepted category in display order.
var Categories = []Category{Evictions, MortgageForeclosures, TaxLienForeclosures}

// FileName is the single file name accepted for the category.
func (c Category) FileName() string {
	return string(c) + ".csv"
}

// WrongFileNameMessage is shown to the user when an upload matches no category.
const WrongFileNameMessage = "You must upload a file that is named either 'evictions.csv' or 'mortgage_foreclosures.csv' or 'tax_lien_foreclosures.csv'."

// AllowedFile reports whether name has a csv extension.
func AllowedFile(name string) bool {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return false
	}
	return strings.EqualFold(name[idx+1:], "csv")
}

// SecureFileName reduces a client-supplied name to a safe base name.
//
// Directory components are dropped and anything outside [A-Za-z0-9._-] becomes an underscore.
func SecureFileName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}

	return strings.Trim(b.String(), "._")
}

// CategoryFor resolves the category a file name belongs to.
func CategoryFor(name string) (Category, error) {
	if !AllowedFile(name) {
		return "", fmt.Errorf("%w: %q", shared.ErrFileNotAllowed, name)
	}
	for _, c := range Categories {
		if name == c.FileName() {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", shared.ErrWrongFileName, name)
}

// Workspace is the upload and output directory tree of one session.
type Workspace struct {
	root string
}

// NewWorkspace returns the workspace of session under dir. The session must be a valid ID.
func NewWorkspace(dir, session string) (*Workspace, error) {
	if !shared.ValidID(session) {
		return nil, fmt.Errorf("%w: %q", shared.ErrInvalidSession, session)
	}
	return &Workspace{root: filepath.Join(dir, session)}, nil
}

func (w *Workspace) Root() string       { return w.root }
func (w *Workspace) InputDir() string   { return filepath.Join(w.root, "input") }
func (w *Workspace) OutputDir() string  { return filepath.Join(w.root, "output_data") }
func (w *Workspace) ResultsZip() string { return filepath.Join(w.root, "results.zip") }

// CategoryDir is where files of category c are stored.
func (w *Workspace) CategoryDir(c Category) string {
	return filepath.Join(w.InputDir(), string(c))
}

// Prepare creates the input tree for every category.
func (w *Workspace) Prepare() error {
	dirs := []string{filepath.Join(w.InputDir(), "input")}
	for _, c := range Categories {
		dirs = append(dirs, w.CategoryDir(c))
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// Saved describes a file accepted by [Workspace.Save].
type Saved struct {
	Category Category
	Name     string
	Path     string
	Size     int64
}

// Save validates name, then streams r into the category directory.
//
// Reading past limit bytes fails with [shared.ErrFileTooLarge] and leaves no partial file behind.
// A non-positive limit means [DefaultMaxBytes].
func (w *Workspace) Save(name string, r io.Reader, limit int64) (*Saved, error) {
	if limit <= 0 {
		limit = DefaultMaxBytes
	}

	name = SecureFileName(name)
	category, err := CategoryFor(name)
	if err != nil {
		return nil, err
	}

	if err := w.Prepare(); err != nil {
		return nil, err
	}

	dest := filepath.Join(w.CategoryDir(category), name)
	tmp, err := os.CreateTemp(w.CategoryDir(category), ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create upload file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, io.LimitReader(r, limit+1))
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, fmt.Errorf("failed to save upload: %w", err)
	}
	if n > limit {
		return nil, fmt.Errorf("%w: limit is %s", shared.ErrFileTooLarge, humanize.IBytes(uint64(limit)))
	}

	if err := os.Rename(tmp.Name(), dest); err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	return &Saved{Category: category, Name: name, Path: dest, Size: n}, nil
}

// HasInput reports whether the input tree exists.
func (w *Workspace) HasInput() bool {
	info, err := os.Stat(w.InputDir())
	return err == nil && info.IsDir()
}

// Files lists the csv files present per category.
func (w *Workspace) Files() (map[Category]string, error) {
	found := make(map[Category]string)
	for _, c := range Categories {
		path := filepath.Join(w.CategoryDir(c), c.FileName())
		if _, err := os.Stat(path); err == nil {
			found[c] = path
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat %s: %w", path, err)
		}
	}
	return found, nil
}

// Remove deletes the whole workspace. Removing a missing workspace is not an error.
func (w *Workspace) Remove() error {
	if err := os.RemoveAll(w.root); err != nil {
		return fmt.Errorf("failed to remove workspace: %w", err)
	}
	return nil
}
