package upload

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/desertthunder/feat/internal/shared"
)

// Archive zips the output tree into [Workspace.ResultsZip], with paths relative to the output directory.
//
// A missing output directory yields an empty archive. A removed workspace is not recreated and
// yields [shared.ErrResultsNotFound].
func (w *Workspace) Archive() (string, error) {
	dest := w.ResultsZip()
	if _, err := os.Stat(w.root); os.IsNotExist(err) {
		return "", fmt.Errorf("%w: workspace removed", shared.ErrResultsNotFound)
	}

	f, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("failed to create archive: %w", err)
	}

	zw := zip.NewWriter(f)
	if err := addTree(zw, w.OutputDir()); err != nil {
		zw.Close()
		f.Close()
		return "", err
	}

	if err := zw.Close(); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to finish archive: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close archive: %w", err)
	}

	return dest, nil
}

func addTree(zw *zip.Writer, root string) error {
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil || rel == "." {
			return err
		}
		name := filepath.ToSlash(rel)

		if d.IsDir() {
			_, err := zw.Create(name + "/")
			return err
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		header, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		header.Name = name
		header.Method = zip.Deflate

		dst, err := zw.CreateHeader(header)
		if err != nil {
			return fmt.Errorf("failed to add %s: %w", name, err)
		}

		src, err := os.Open(path)
		if err != nil {
			return err
		}
		defer src.Close()

		_, err = io.Copy(dst, src)
		return err
	})
}
